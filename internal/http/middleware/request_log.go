package middleware

import (
	"time"

	"backend-antrian-klinik/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs it once it is done.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(RequestIDHeader, id)

		err := c.Next()

		entry := logger.Logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency":    time.Since(start).String(),
		})
		if err != nil {
			entry.WithError(err).Error("request failed")
		} else {
			entry.Info("request")
		}
		return err
	}
}

// RequestID returns the id assigned by RequestLogger, or "".
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}
