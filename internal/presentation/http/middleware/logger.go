package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoggerMiddleware tags each request with an id and logs one line when it
// finishes, including the tenant once the tenant middleware has run
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		tag := shortID(requestID)
		tenant := "-"
		if id := GetTenantID(c); id != uuid.Nil {
			tenant = shortID(id.String())
		}
		log.Printf("[%s] %s %s | %d | %v | %s | tenant=%s",
			tag, c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP(), tenant)

		for _, e := range c.Errors {
			log.Printf("[%s] error: %v", tag, e.Err)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
