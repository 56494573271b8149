package utils

import (
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/gin-gonic/gin"
)

// GetCurrentUser returns the user the auth middleware resolved for this request.
func GetCurrentUser(ctx *gin.Context) (types.UserResponse, error) {
	user, exists := ctx.Get(types.ContextUserKey)
	if !exists {
		return types.UserResponse{}, types.Unauthorized("User not authenticated")
	}

	authenticatedUser, ok := user.(types.UserResponse)
	if !ok {
		return types.UserResponse{}, types.Unauthorized("User not authenticated")
	}

	return authenticatedUser, nil
}

// GetCurrentUserID is empty when no user is attached to the request.
func GetCurrentUserID(ctx *gin.Context) string {
	user, err := GetCurrentUser(ctx)
	if err != nil {
		return ""
	}
	return user.ID
}
