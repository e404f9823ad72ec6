package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-pos/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	TTL  time.Duration
	Now  func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST, PUT or PATCH that carries
// an Idempotency-Key already seen for the user. Requests without a key pass through.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return idempotency(config, false)
}

// IdempotencyRequired is the stricter version used on checkout: the key is mandatory
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return idempotency(config, true)
}

func idempotency(config IdempotencyConfig, required bool) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = IdempotencyKeyTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if required {
				response.Error(c, apperror.NewFieldError(IdempotencyKeyHeader, "Idempotency-Key header is required for this request"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		userIDValue, _ := c.Get("user_id")
		userID, ok := userIDValue.(uuid.UUID)
		if !ok {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Invalid request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])

		existing, err := config.Repo.GetByKey(c.Request.Context(), key, userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if existing != nil && !existing.IsExpired(config.Now()) {
			if !existing.Matches(requestHash) {
				response.Error(c, apperror.NewBusinessError(apperror.CodeIdempotencyKeyReused,
					"Idempotency-Key was already used with a different request"))
				c.Abort()
				return
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		// Capture the response
		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only successful responses are replayed; failures may be corrected and resent
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:          key,
			UserID:       userID,
			TenantID:     GetTenantID(c),
			Endpoint:     c.Request.Method + " " + c.FullPath(),
			RequestHash:  requestHash,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			ExpiresAt:    config.Now().Add(config.TTL),
		}
		if err := config.Repo.Create(c.Request.Context(), ikey); err != nil {
			log.Printf("[idempotency] failed to store key %s: %v", key, err)
		}
	}
}
