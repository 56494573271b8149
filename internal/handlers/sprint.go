package handlers

import (
	"net/http"

	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListSprints(ctx *gin.Context) {
	sprints, err := h.svc.Sprints.List(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, sprints)
}

func (h *Handler) CreateSprint(ctx *gin.Context) {
	var body services.SprintFields
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	in, err := body.CreateInput()
	if err != nil {
		h.fail(ctx, err)
		return
	}

	sprint, err := h.svc.Sprints.Create(ctx.Request.Context(), ctx.Param("id"), in)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, sprint)
}

func (h *Handler) GetSprint(ctx *gin.Context) {
	sprint, err := h.svc.Sprints.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, sprint)
}

func (h *Handler) UpdateSprint(ctx *gin.Context) {
	var body services.SprintFields
	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.badBody(ctx, err)
		return
	}

	patch, err := body.Patch()
	if err != nil {
		h.fail(ctx, err)
		return
	}

	sprint, err := h.svc.Sprints.Update(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, sprint)
}

func (h *Handler) DeleteSprint(ctx *gin.Context) {
	if err := h.svc.Sprints.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
