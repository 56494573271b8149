package handlers

import (
	"net/http"

	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/flowtrack-dev/flowtrack/internal/utils"
	"github.com/gin-gonic/gin"
)

// CreateProjectRequest.CreatorID is only honoured without a session.
type CreateProjectRequest struct {
	Name           string              `json:"name" binding:"required"`
	Key            string              `json:"key" binding:"required"`
	Description    string              `json:"description"`
	Status         types.ProjectStatus `json:"status"`
	CreatorID      string              `json:"creatorId"`
	DiscordWebhook string              `json:"discordWebhook" binding:"omitempty,url"`
	SlackWebhook   string              `json:"slackWebhook" binding:"omitempty,url"`
}

// UpdateProjectRequest has no key field; project keys never change.
type UpdateProjectRequest struct {
	Name           *string              `json:"name"`
	Description    *string              `json:"description"`
	Status         *types.ProjectStatus `json:"status"`
	DiscordWebhook *string              `json:"discordWebhook" binding:"omitempty,url"`
	SlackWebhook   *string              `json:"slackWebhook" binding:"omitempty,url"`
}

type AddMemberRequest struct {
	UserID string     `json:"userId" binding:"required"`
	Role   types.Role `json:"role" binding:"required"`
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	projects, err := h.svc.Projects.List(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, projects)
}

func (h *Handler) GetProject(ctx *gin.Context) {
	project, err := h.svc.Projects.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, project)
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	creatorID := utils.GetCurrentUserID(ctx)
	if creatorID == "" {
		creatorID = body.CreatorID
	}

	project, err := h.svc.Projects.Create(ctx.Request.Context(), services.CreateProjectInput{
		Name:           body.Name,
		Key:            body.Key,
		Description:    body.Description,
		Status:         body.Status,
		CreatorID:      creatorID,
		DiscordWebhook: body.DiscordWebhook,
		SlackWebhook:   body.SlackWebhook,
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, project)
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	var body UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	project, err := h.svc.Projects.Update(ctx.Request.Context(), ctx.Param("id"), services.ProjectPatch{
		Name:           body.Name,
		Description:    body.Description,
		Status:         body.Status,
		DiscordWebhook: body.DiscordWebhook,
		SlackWebhook:   body.SlackWebhook,
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, project)
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	if err := h.svc.Projects.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *Handler) AddMember(ctx *gin.Context) {
	var body AddMemberRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	member, err := h.svc.Projects.AddMember(ctx.Request.Context(), ctx.Param("id"), body.UserID, body.Role, utils.GetCurrentUserID(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, member)
}

func (h *Handler) RemoveMember(ctx *gin.Context) {
	err := h.svc.Projects.RemoveMember(ctx.Request.Context(), ctx.Param("id"), ctx.Param("userId"), utils.GetCurrentUserID(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
