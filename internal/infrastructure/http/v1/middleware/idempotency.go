package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/infrastructure/storage/postgres"
	"orderdesk/pkg/logger"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// IdempotencyStore persists idempotency keys and their responses.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}

// bodyRecorder keeps a copy of the response body.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key header. Requests that end with an error release their key
// so the client may retry.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		ctx := c.Request.Context()
		operation := c.Request.Method + " " + c.Request.URL.Path
		replay, err := store.AcquireKey(ctx, key, appctx.GetUserID(ctx), operation, hex.EncodeToString(hash[:]))
		if err != nil {
			if !apperror.IsAppError(err) {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if len(c.Errors) > 0 || rec.Status() >= http.StatusBadRequest {
			if err := store.ReleaseKey(ctx, key); err != nil {
				logger.Warn(ctx, "release idempotency key failed", "key", key, "error", err)
			}
			return
		}
		if err := store.CompleteKey(ctx, key, rec.Status(), rec.Header().Get("Content-Type"), rec.body.Bytes()); err != nil {
			logger.Warn(ctx, "complete idempotency key failed", "key", key, "error", err)
		}
	}
}
