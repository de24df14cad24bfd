package handler

import (
	"backend-antrian-klinik/internal/http/middleware"
	"backend-antrian-klinik/internal/logger"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouteConfig struct {
	JWTSecret   string
	MetricsUser string
	MetricsPass string
}

// Register pasang semua route. hub boleh nil kalau tidak ada layar display
func Register(app *fiber.App, h *Handler, health *HealthChecker, hub *realtime.Hub, cfg RouteConfig) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Antrian klinik API jalan",
		})
	})
	app.Get("/health", health.Health)

	if cfg.MetricsUser != "" {
		app.Get("/metrics", middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPass), adaptor.HTTPHandler(promhttp.Handler()))
	} else {
		logger.Logger.Warn("METRICS_USER kosong, /metrics tidak diaktifkan")
	}

	if hub != nil {
		app.Get("/ws/providers/:id", upgradeOnly, BoardWebSocket(hub))
	}

	// Public
	app.Get("/api/providers/:id", h.GetProvider)
	app.Get("/api/providers/:id/board", h.Board)

	// Base API (semua wajib login)
	api := app.Group("/api", middleware.JWTAuth(cfg.JWTSecret))

	// Client
	api.Post("/providers/:id/join", h.Join)
	api.Post("/providers/:id/cancel", h.Cancel)
	api.Get("/providers/:id/status", h.Status)
	api.Get("/providers/:id/nearby", h.Nearby)

	api.Post("/swaps", h.RequestSwap)
	api.Get("/swaps/mine", h.MySwaps)
	api.Post("/swaps/:id/accept", h.AcceptSwap)
	api.Post("/swaps/:id/reject", h.RejectSwap)

	// ===== OPERATOR ROUTES =====
	operator := middleware.RoleAuth(models.RoleOperator, models.RoleAdmin)
	api.Post("/providers/:id/call-next", operator, h.CallNext)
	api.Post("/providers/:id/skip", operator, h.Skip)
	api.Get("/providers/:id/queue", operator, h.FullQueue)
	api.Put("/providers/:id/duration", operator, h.UpdateDuration)
	api.Post("/tokens/:id/force-complete", operator, h.ForceComplete)
	api.Delete("/tokens/:id", operator, h.DeleteToken)

	// ===== ADMIN ROUTES =====
	api.Post("/providers", middleware.RoleAuth(models.RoleAdmin), h.CreateProvider)
}
