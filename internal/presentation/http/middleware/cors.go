package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/config"
)

// headers a till always sends, whatever the configuration says
var requiredHeaders = []string{"Authorization", "Content-Type", TenantHeader, IdempotencyKeyHeader}

// CORSMiddleware builds the CORS handler for browser tills
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	}

	headers := append([]string{"Accept", "Origin", "X-Request-ID"}, cfg.AllowedHeaders...)
	for _, h := range requiredHeaders {
		if !slices.Contains(headers, h) {
			headers = append(headers, h)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: methods,
		AllowHeaders: headers,
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Idempotency-Replayed",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
