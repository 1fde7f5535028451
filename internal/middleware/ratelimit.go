package middleware

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware bounds requests per client IP using a per-minute
// counter in Redis. A Redis failure never blocks a request; the limiter
// fails open so the API stays usable.
func RateLimitMiddleware(rdb *redis.Client, perMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if perMinute <= 0 {
			return c.Next()
		}

		ctx := context.Background()
		now := time.Now()
		key := fmt.Sprintf("rl:ip:%s:minute:%s", c.IP(), now.Format("2006-01-02T15:04"))

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("Warning: rate limit counter unavailable: %v", err)
			return c.Next()
		}
		rdb.Expire(ctx, key, 2*time.Minute)

		remaining := int64(perMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(perMinute) {
			resetIn := 60 - now.Second()
			c.Set("Retry-After", strconv.Itoa(resetIn))
			return c.Status(429).JSON(fiber.Map{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests per minute",
				"limit":       perMinute,
				"retry_after": resetIn,
			})
		}

		return c.Next()
	}
}
