package handler

import (
	"backend-antrian-klinik/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Join - POST /api/providers/:id/join
func (h *Handler) Join(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	res, err := h.svc.Join(c.UserContext(), h.now(), providerID, p)
	if err != nil {
		return fail(c, err)
	}

	if !res.Created {
		return respond(c, fiber.StatusOK, "Anda sudah terdaftar di antrian hari ini", res)
	}

	h.changed(providerID)
	logger.Logger.WithFields(logrus.Fields{
		"provider_id":  providerID,
		"token_id":     res.Token.ID,
		"token_number": res.Token.TokenNumber,
	}).Info("[queue] token diambil")

	return respond(c, fiber.StatusCreated, "Berhasil mengambil nomor antrian", res)
}

// Cancel - POST /api/providers/:id/cancel
func (h *Handler) Cancel(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	tok, err := h.svc.Cancel(c.UserContext(), h.now(), providerID, p)
	if err != nil {
		return fail(c, err)
	}

	h.changed(providerID)
	return respond(c, fiber.StatusOK, "Antrian dibatalkan", tok)
}

// Status - GET /api/providers/:id/status
func (h *Handler) Status(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	status, err := h.svc.Status(c.UserContext(), h.now(), providerID, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "", status)
}

// Nearby - GET /api/providers/:id/nearby
func (h *Handler) Nearby(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	tokens, err := h.svc.NearbyTokens(c.UserContext(), h.now(), providerID, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "", tokens)
}

// CallNext - POST /api/providers/:id/call-next
func (h *Handler) CallNext(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	res, err := h.svc.CallNext(c.UserContext(), h.now(), providerID, p)
	if err != nil {
		return fail(c, err)
	}

	if res.ClockSkew && res.Completed != nil {
		logger.Logger.WithFields(logrus.Fields{
			"provider_id": providerID,
			"token_id":    res.Completed.ID,
		}).Warn("[queue] durasi negatif, jam server mundur? durasi diset 0")
	}

	if res.NoneWaiting {
		if res.Completed != nil {
			h.changed(providerID)
		}
		return respond(c, fiber.StatusOK, "Tidak ada antrian menunggu", res)
	}

	h.changed(providerID)
	return respond(c, fiber.StatusOK, "Antrian berhasil dipanggil", res)
}

// Skip - POST /api/providers/:id/skip
func (h *Handler) Skip(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	res, err := h.svc.Skip(c.UserContext(), h.now(), providerID, p)
	if err != nil {
		return fail(c, err)
	}

	if res.ClockSkew {
		logger.Logger.WithFields(logrus.Fields{
			"provider_id": providerID,
			"token_id":    res.Skipped.ID,
		}).Warn("[queue] durasi negatif, jam server mundur? durasi diset 0")
	}

	h.changed(providerID)
	return respond(c, fiber.StatusOK, "Antrian dilewati", res)
}

// FullQueue - GET /api/providers/:id/queue
func (h *Handler) FullQueue(c *fiber.Ctx) error {
	providerID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	tokens, err := h.svc.FullQueue(c.UserContext(), h.now(), providerID, p)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "", tokens)
}

// ForceComplete - POST /api/tokens/:id/force-complete
func (h *Handler) ForceComplete(c *fiber.Ctx) error {
	tokenID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	tok, err := h.svc.ForceComplete(c.UserContext(), h.now(), tokenID, p)
	if err != nil {
		return fail(c, err)
	}

	logger.Logger.WithFields(logrus.Fields{
		"token_id": tok.ID,
		"actor":    p.UserID,
	}).Warn("[queue] token diselesaikan paksa")

	h.changed(tok.ProviderID)
	return respond(c, fiber.StatusOK, "Token diselesaikan", tok)
}

// DeleteToken - DELETE /api/tokens/:id
func (h *Handler) DeleteToken(c *fiber.Ctx) error {
	tokenID, valid := idParam(c, "id")
	if !valid {
		return badID(c)
	}
	p, found := principal(c)
	if !found {
		return unauthorized(c)
	}

	tok, err := h.svc.Delete(c.UserContext(), tokenID, p)
	if err != nil {
		return fail(c, err)
	}

	logger.Logger.WithFields(logrus.Fields{
		"token_id": tokenID,
		"actor":    p.UserID,
	}).Warn("[queue] token dihapus")

	h.changed(tok.ProviderID)
	return respond(c, fiber.StatusOK, "Token dihapus", fiber.Map{"id": tokenID})
}
