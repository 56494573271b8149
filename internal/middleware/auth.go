package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/flowtrack-dev/flowtrack/internal/handlers"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/gin-gonic/gin"
)

// SessionResolver turns a bearer token into the user it belongs to.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (types.UserResponse, error)
}

func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			abortUnauthorized(ctx, "Authorization token is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(ctx, "Authorization header format must be Bearer {token}")
			return
		}

		user, err := sessions.ResolveSession(ctx.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			// Storage failures surface as 500, not as a bad token.
			ctx.AbortWithStatusJSON(handlers.StatusFor(err), handlers.ErrorBody(types.Message(err)))
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorBody(message))
}
