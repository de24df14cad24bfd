package handler

import (
	"strconv"

	"backend-antrian-klinik/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// upgradeOnly menolak request biasa ke endpoint websocket
func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// BoardWebSocket - GET /ws/providers/:id
func BoardWebSocket(hub *realtime.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		providerID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || providerID <= 0 {
			c.Close()
			return
		}
		hub.Serve(c, providerID)
	})
}
