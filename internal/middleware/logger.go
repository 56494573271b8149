package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an id and logs one line when it
// completes.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		requestID := ctx.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Set(types.ContextRequestIDKey, requestID)
		ctx.Header(RequestIDHeader, requestID)

		ctx.Next()

		status := ctx.Writer.Status()
		fields := []any{
			"request_id", requestID,
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", ctx.ClientIP(),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(ctx.Request.Context(), "request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.WarnContext(ctx.Request.Context(), "request completed", fields...)
		default:
			logger.InfoContext(ctx.Request.Context(), "request completed", fields...)
		}
	}
}
