package handlers

import (
	"net/http"

	"github.com/flowtrack-dev/flowtrack/internal/utils"
	"github.com/gin-gonic/gin"
)

// CreateCommentRequest.UserID is only honoured without a session.
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
	UserID  string `json:"userId"`
}

func (h *Handler) ListComments(ctx *gin.Context) {
	comments, err := h.svc.Comments.List(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, comments)
}

func (h *Handler) CreateComment(ctx *gin.Context) {
	var body CreateCommentRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	userID := utils.GetCurrentUserID(ctx)
	if userID == "" {
		userID = body.UserID
	}

	comment, err := h.svc.Comments.Create(ctx.Request.Context(), ctx.Param("id"), userID, body.Content)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, comment)
}

func (h *Handler) DeleteComment(ctx *gin.Context) {
	if err := h.svc.Comments.Delete(ctx.Request.Context(), ctx.Param("id"), utils.GetCurrentUserID(ctx)); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
