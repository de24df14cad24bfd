package handler

import (
	"backend-antrian-klinik/internal/apperr"
	"backend-antrian-klinik/internal/http/middleware"
	"backend-antrian-klinik/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperr.KindTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail kirim error dengan format standar; detail error internal cuma di-log, tidak dikirim ke client
func fail(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	status := statusOf(kind)

	msg := apperr.Message(err)
	if kind == apperr.KindUnknown {
		msg = "Terjadi kesalahan pada server"
	}

	if status >= fiber.StatusInternalServerError {
		logger.Logger.WithFields(logrus.Fields{
			"request_id": middleware.RequestID(c),
			"path":       c.Path(),
		}).WithError(err).Error("request error")
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
