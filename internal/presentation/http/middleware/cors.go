package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/qbo-connector/internal/config"
)

// CORSMiddleware lets the operator dashboard call the API from the browser.
// Intuit posts webhooks server to server and never sends a preflight.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: cfg.AllowedMethods,
		AllowHeaders: cfg.AllowedHeaders,
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
			"X-Idempotency-Replayed",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Request-ID"}
	}
	// The ERP hooks are replay-protected, so the key must always pass preflight
	corsConfig.AllowHeaders = ensureHeader(corsConfig.AllowHeaders, IdempotencyKeyHeader)

	return cors.New(corsConfig)
}

func ensureHeader(headers []string, name string) []string {
	for _, h := range headers {
		if h == name {
			return headers
		}
	}
	return append(headers, name)
}
