package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Handler exposes the domain services over HTTP. Every success body is
// {"data": ...} and every failure is {"error": {"message": ...}}.
type Handler struct {
	svc    *services.Services
	logger *slog.Logger
}

func New(svc *services.Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger.With("layer", "http")}
}

func respond(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, gin.H{"data": data})
}

func ErrorBody(message string) gin.H {
	return gin.H{"error": gin.H{"message": message}}
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(ctx *gin.Context, err error) {
	status := StatusFor(err)

	fields := []any{
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
		"status", status,
		"error", err.Error(),
	}
	if id, ok := ctx.Get(types.ContextRequestIDKey); ok {
		fields = append(fields, "request_id", id)
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx.Request.Context(), "request failed", fields...)
	} else {
		h.logger.WarnContext(ctx.Request.Context(), "request rejected", fields...)
	}

	ctx.AbortWithStatusJSON(status, ErrorBody(types.Message(err)))
}

func (h *Handler) badBody(ctx *gin.Context, err error) {
	h.logger.DebugContext(ctx.Request.Context(), "bind failed", "error", err.Error())

	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		h.fail(ctx, types.Validation("%s", fieldMessage(invalid[0])))
		return
	}
	h.fail(ctx, types.Validation("Invalid request body"))
}

var fieldLabels = map[string]string{
	"UserID":         "User ID",
	"DiscordWebhook": "Discord webhook",
	"SlackWebhook":   "Slack webhook",
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "url":
		return label + " must be a valid URL"
	default:
		return "Invalid " + strings.ToLower(label)
	}
}
