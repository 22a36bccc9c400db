package middlewares

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/accounthub/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit rejects a client once the limiter says its window is spent.
// A limiter failure lets the request through and is logged.
func RateLimit(limiter ratelimit.Limiter, keyFn func(*gin.Context) string, log *slog.Logger, onLimited func(route string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived

			key = KeyByIP(c)
		}

		d, err := limiter.Allow(c.Request.Context(), key)

		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limiter unavailable, allowing request", "error", err.Error())
			c.Next()
			return
		}

		if !d.Allowed {
			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))

			if retryAfter < 0 {
				retryAfter = 0
			}

			if onLimited != nil {
				onLimited(c.FullPath())
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many attempts. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// helper functions

// for unauthenticated endpoints: rate limit by IP and route
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

func KeyByRouteAndIP(c *gin.Context) string {
	return c.FullPath() + ":ip:" + clientIP(c)
}

func clientIP(c *gin.Context) string {
	// forwarded headers are only honoured from the router's trusted proxies
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
