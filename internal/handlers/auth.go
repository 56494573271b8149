package handlers

import (
	"net/http"

	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/flowtrack-dev/flowtrack/internal/utils"
	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string     `json:"name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=6"`
	Role     types.Role `json:"role"`
	Avatar   string     `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(ctx *gin.Context) {
	var body RegisterRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	res, err := h.svc.Auth.Register(ctx.Request.Context(), services.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
		Avatar:   body.Avatar,
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, res)
}

func (h *Handler) Login(ctx *gin.Context) {
	var body LoginRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	res, err := h.svc.Auth.Authenticate(ctx.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, res)
}

func (h *Handler) Me(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, user)
}

// Logout is stateless. The client drops its token and it stays valid until
// it expires.
func (h *Handler) Logout(ctx *gin.Context) {
	respond(ctx, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) ListUsers(ctx *gin.Context) {
	users, err := h.svc.Users.List(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, users)
}

func (h *Handler) GetUser(ctx *gin.Context) {
	user, err := h.svc.Users.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, user)
}
