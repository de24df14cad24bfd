package handler

import (
	"time"

	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/http/middleware"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/queue"

	"github.com/gofiber/fiber/v2"
)

// Notifier dikabari provider mana yang board-nya berubah setelah mutasi
type Notifier interface {
	Notify(providerID int64)
}

type Handler struct {
	svc    *queue.Service
	notify Notifier
	clock  clock.Clock
	loc    *time.Location
}

func New(svc *queue.Service, notify Notifier, c clock.Clock, loc *time.Location) *Handler {
	return &Handler{svc: svc, notify: notify, clock: c, loc: loc}
}

// now diambil sekali per request, dipakai untuk semua query "hari ini"
func (h *Handler) now() clock.Snapshot {
	return clock.Snap(h.clock, h.loc)
}

func (h *Handler) changed(providerID int64) {
	if h.notify != nil {
		h.notify.Notify(providerID)
	}
}

func principal(c *fiber.Ctx) (models.Principal, bool) {
	return middleware.Principal(c)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "Unauthorized",
	})
}

func idParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

func badID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "ID tidak valid",
	})
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{
		"success": true,
		"data":    data,
	}
	if message != "" {
		body["message"] = message
	}
	return c.Status(status).JSON(body)
}
