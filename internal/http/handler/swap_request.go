package handler

import (
	"backend-antrian-klinik/internal/logger"
	"backend-antrian-klinik/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestSwap - POST /api/swaps
func (h *Handler) RequestSwap(c *fiber.Ctx) error {
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	var req models.RequestSwapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	swap, err := h.svc.RequestSwap(c.UserContext(), h.now(), req.ProviderID, p, req.TargetToken)
	if err != nil {
		return fail(c, err)
	}

	logger.Logger.WithFields(logrus.Fields{
		"swap_id":     swap.ID,
		"provider_id": req.ProviderID,
		"target":      req.TargetToken,
	}).Info("[swap] permintaan tukar dibuat")

	return respond(c, fiber.StatusCreated, "Permintaan tukar antrian terkirim", swap)
}

// AcceptSwap - POST /api/swaps/:id/accept
func (h *Handler) AcceptSwap(c *fiber.Ctx) error {
	swapID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	swap, err := h.svc.AcceptSwap(c.UserContext(), h.now(), swapID, p)
	if err != nil {
		return fail(c, err)
	}

	logger.Logger.WithFields(logrus.Fields{
		"swap_id":     swap.ID,
		"provider_id": swap.ProviderID,
	}).Info("[swap] permintaan tukar diterima")
	h.changed(swap.ProviderID)
	return respond(c, fiber.StatusOK, "Nomor antrian berhasil ditukar", swap)
}

// RejectSwap - POST /api/swaps/:id/reject
func (h *Handler) RejectSwap(c *fiber.Ctx) error {
	swapID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	swap, err := h.svc.RejectSwap(c.UserContext(), h.now(), swapID, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "Permintaan tukar ditolak", swap)
}

// MySwaps - GET /api/swaps/mine
func (h *Handler) MySwaps(c *fiber.Ctx) error {
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	swaps, err := h.svc.MySwaps(c.UserContext(), h.now(), p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "", swaps)
}
