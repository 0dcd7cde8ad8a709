package transport

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labmanhq/labman/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestContext assigns each request a correlation ID, echoes it back
// in the response headers, and logs request completion.
func RequestContext(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := strings.TrimSpace(c.Get(requestIDHeader))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		ctx := observability.WithCorrelationID(c.UserContext(), correlationID)
		c.SetUserContext(ctx)
		c.Set(requestIDHeader, correlationID)

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		observability.WithContextLogger(logger, ctx).Info("request completed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}
