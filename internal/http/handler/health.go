package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger - dependency yang bisa di-ping (database, Redis)
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc - fungsi biasa sebagai Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthChecker struct {
	db    Pinger
	redis Pinger // nil kalau Redis tidak dipakai
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type HealthStatus struct {
	Status   string            `json:"status"`
	Database DependencyHealth  `json:"database"`
	Redis    *DependencyHealth `json:"redis,omitempty"`
}

func NewHealthChecker(db, redis Pinger) *HealthChecker {
	return &HealthChecker{db: db, redis: redis}
}

func check(p Pinger) DependencyHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return DependencyHealth{Status: "healthy", ResponseTime: responseTime}
}

func (h *HealthChecker) Check() HealthStatus {
	status := HealthStatus{Status: "healthy", Database: check(h.db)}
	if status.Database.Status != "healthy" {
		status.Status = "unhealthy"
	}

	if h.redis != nil {
		r := check(h.redis)
		status.Redis = &r
		if r.Status != "healthy" {
			status.Status = "unhealthy"
		}
	}
	return status
}

// Health - GET /health
func (h *HealthChecker) Health(c *fiber.Ctx) error {
	status := h.Check()
	code := fiber.StatusOK
	if status.Status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(status)
}
