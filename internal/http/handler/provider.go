package handler

import (
	"backend-antrian-klinik/internal/logger"
	"backend-antrian-klinik/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// GetProvider - GET /api/providers/:id
func (h *Handler) GetProvider(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}

	p, err := h.svc.GetProvider(c.UserContext(), providerID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "", p)
}

// Board - GET /api/providers/:id/board, data publik untuk layar display
func (h *Handler) Board(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}

	board, err := h.svc.Board(c.UserContext(), h.now(), providerID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "", board)
}

// CreateProvider - POST /api/providers (admin)
func (h *Handler) CreateProvider(c *fiber.Ctx) error {
	actor, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	var req models.CreateProviderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	p, err := h.svc.CreateProvider(c.UserContext(), h.now(), actor, req)
	if err != nil {
		return fail(c, err)
	}

	logger.Logger.WithFields(logrus.Fields{
		"provider_id": p.ID,
		"name":        p.Name,
	}).Info("[provider] provider dibuat")

	return respond(c, fiber.StatusCreated, "Provider berhasil dibuat", p)
}

// UpdateDuration - PUT /api/providers/:id/duration
func (h *Handler) UpdateDuration(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	actor, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	var req models.UpdateDurationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	p, err := h.svc.UpdateDuration(c.UserContext(), h.now(), providerID, actor, req.ConsultationMinutes)
	if err != nil {
		return fail(c, err)
	}

	h.changed(providerID)
	return respond(c, fiber.StatusOK, "Durasi konsultasi diperbarui", p)
}
