package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sati-centro/consulta-booking/internal/config"
)

// NewRateLimiter returns a fixed-window limiter over Redis. Requests
// are counted per client (user id when authenticated, remote IP
// otherwise) per window; exceeding the limit answers 429 with a
// Retry-After header. When disabled or without a Redis client the
// middleware is a pass-through, so a Redis outage never takes the API
// down with it.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			window := time.Now().Unix() / int64(cfg.Window/time.Second)
			key := fmt.Sprintf("%s:%s:%d", cfg.Prefix, clientID(c), window)

			ctx := c.Request().Context()
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Fail open: limiting is protection, not correctness.
				return next(c)
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}
			if n > int64(cfg.Limit) {
				retry := cfg.Window - time.Duration(time.Now().Unix()%int64(cfg.Window/time.Second))*time.Second
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}

// clientID picks the limiter key subject: the authenticated user when
// JWTAuth ran before us, else the remote address.
func clientID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		return fmt.Sprintf("u:%v", v)
	}
	return "ip:" + c.RealIP()
}
