package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/flowtrack-dev/flowtrack/internal/types"
)

func TestSprintLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "Una", "una@example.com")
	project := f.project(t, "DEM", u1.ID)

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)
	sprint, err := f.services.Sprints.Create(ctx, project.ID, services.CreateSprintInput{
		Name:      "Sprint 1",
		Goal:      "Ship checkout",
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	if sprint.Status != types.SprintPlanned {
		t.Fatalf("expected planned by default, got %s", sprint.Status)
	}

	active := types.SprintActive
	updated, err := f.services.Sprints.Update(ctx, sprint.ID, services.SprintPatch{Status: &active})
	if err != nil {
		t.Fatalf("update sprint: %v", err)
	}
	if updated.Status != types.SprintActive || updated.Goal != "Ship checkout" {
		t.Fatalf("unexpected sprint: %+v", updated)
	}

	sprints, err := f.services.Sprints.List(ctx, project.ID)
	if err != nil {
		t.Fatalf("list sprints: %v", err)
	}
	if len(sprints) != 1 || sprints[0].ID != sprint.ID {
		t.Fatalf("unexpected sprints: %+v", sprints)
	}
}

func TestSprintValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "Una", "una@example.com")
	project := f.project(t, "DEM", u1.ID)

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	if _, err := f.services.Sprints.Create(ctx, project.ID, services.CreateSprintInput{}); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("missing name: expected validation, got %v", err)
	}
	if _, err := f.services.Sprints.Create(ctx, project.ID, services.CreateSprintInput{Name: "S", StartDate: &start, EndDate: &before}); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("inverted range: expected validation, got %v", err)
	}
	if _, err := f.services.Sprints.Create(ctx, project.ID, services.CreateSprintInput{Name: "S", Status: "running"}); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("bad status: expected validation, got %v", err)
	}
	if _, err := f.services.Sprints.Create(ctx, "missing", services.CreateSprintInput{Name: "S"}); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing project: expected not found, got %v", err)
	}
}

func TestDeleteSprintClearsIssueReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "Una", "una@example.com")
	project := f.project(t, "DEM", u1.ID)

	sprint, err := f.services.Sprints.Create(ctx, project.ID, services.CreateSprintInput{Name: "Sprint 1"})
	if err != nil {
		t.Fatalf("create sprint: %v", err)
	}
	issue, err := f.services.Issues.Create(ctx, project.ID, services.CreateIssueInput{
		Title:      "A",
		ReporterID: u1.ID,
		SprintID:   &sprint.ID,
	})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}

	if err := f.services.Sprints.Delete(ctx, sprint.ID); err != nil {
		t.Fatalf("delete sprint: %v", err)
	}

	got, err := f.services.Issues.Get(ctx, issue.ID)
	if err != nil {
		t.Fatalf("issue should survive sprint deletion: %v", err)
	}
	if got.SprintID != nil || got.Sprint != nil {
		t.Fatalf("expected cleared sprint reference, got %v", got.SprintID)
	}
	if _, err := f.services.Sprints.Get(ctx, sprint.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
