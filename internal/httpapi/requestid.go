package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// requestIDMiddleware assigns a UUID to every request that doesn't
// already carry one, the way the teacher stamps API keys with
// uuid.New().
func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	}
}
