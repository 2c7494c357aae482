package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerIPRateLimiter_AllowsThenBlocks(t *testing.T) {
	app := fiber.New()
	app.Use(perIPRateLimiter(2))
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendString("OK") })

	var statuses []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Equal(t, 200, statuses[0])
	assert.Equal(t, 429, statuses[2])
}

func TestClientIP_PrefersXForwardedFor(t *testing.T) {
	app := fiber.New()
	var seen string
	app.Get("/test", func(c *fiber.Ctx) error {
		seen = clientIP(c)
		return c.SendString("OK")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.5", seen)
}
