package middlewares

import (
	"strings"
	"time"

	"crypto-pulse/cmd/server/handlers/httperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func passThrough(c *fiber.Ctx) error { return c.Next() }

// pathSkipper reports true for requests under any of prefixes.
func pathSkipper(prefixes []string) func(*fiber.Ctx) bool {
	if len(prefixes) == 0 {
		return nil
	}
	return func(c *fiber.Ctx) bool {
		path := c.Path()
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// BuildRateLimiter allows max requests per client IP in each expiration
// window; every route sharing the returned handler draws from one quota.
// max <= 0 turns limiting off.
func BuildRateLimiter(max int, expiration time.Duration, skipPrefixes ...string) fiber.Handler {
	if max <= 0 {
		return passThrough
	}

	return limiter.New(limiter.Config{
		Next:       pathSkipper(skipPrefixes),
		Max:        max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.IP()
		},
		LimitReached: func(*fiber.Ctx) error {
			return httperr.Fail(httperr.ErrTooManyRequests)
		},
	})
}
