package handlers

import (
	"net/http"

	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/flowtrack-dev/flowtrack/internal/utils"
	"github.com/gin-gonic/gin"
)

type UpdateStatusRequest struct {
	Status types.IssueStatus `json:"status" binding:"required"`
}

func (h *Handler) ListIssues(ctx *gin.Context) {
	filter := services.IssueFilter{
		Status:     types.IssueStatus(ctx.Query("status")),
		SprintID:   ctx.Query("sprintId"),
		AssigneeID: ctx.Query("assigneeId"),
	}

	issues, err := h.svc.Issues.ListByProject(ctx.Request.Context(), ctx.Param("id"), filter)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, issues)
}

func (h *Handler) CreateIssue(ctx *gin.Context) {
	var body services.IssueFields
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	in, err := body.CreateInput(utils.GetCurrentUserID(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}

	issue, err := h.svc.Issues.Create(ctx.Request.Context(), ctx.Param("id"), in)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, issue)
}

func (h *Handler) GetIssue(ctx *gin.Context) {
	issue, err := h.svc.Issues.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, issue)
}

func (h *Handler) UpdateIssue(ctx *gin.Context) {
	var body services.IssueFields
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	patch, err := body.Patch()
	if err != nil {
		h.fail(ctx, err)
		return
	}

	issue, err := h.svc.Issues.Update(ctx.Request.Context(), ctx.Param("id"), patch, utils.GetCurrentUserID(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, issue)
}

func (h *Handler) UpdateIssueStatus(ctx *gin.Context) {
	var body UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	issue, err := h.svc.Issues.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), body.Status, utils.GetCurrentUserID(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, issue)
}

func (h *Handler) DeleteIssue(ctx *gin.Context) {
	if err := h.svc.Issues.Delete(ctx.Request.Context(), ctx.Param("id"), utils.GetCurrentUserID(ctx)); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
