package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
)

func TestCreateCommentRejectsEmptyContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "Una", "una@example.com")
	project := f.project(t, "DEM", u1.ID)
	issue := f.issue(t, project.ID, u1.ID, "A")

	for _, content := range []string{"", "   "} {
		_, err := f.services.Comments.Create(ctx, issue.ID, u1.ID, content)
		if !errors.Is(err, types.ErrValidation) {
			t.Fatalf("content %q: expected validation, got %v", content, err)
		}
	}

	if n := f.count(t, &models.Comment{}, "issue_id = ?", issue.ID); n != 0 {
		t.Fatalf("expected no comments persisted, got %d", n)
	}
}

func TestCreateCommentMissingReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "Una", "una@example.com")
	project := f.project(t, "DEM", u1.ID)
	issue := f.issue(t, project.ID, u1.ID, "A")

	if _, err := f.services.Comments.Create(ctx, "missing", u1.ID, "hi"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing issue: expected not found, got %v", err)
	}
	if _, err := f.services.Comments.Create(ctx, issue.ID, "ghost", "hi"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("missing user: expected not found, got %v", err)
	}
	if _, err := f.services.Comments.Create(ctx, issue.ID, "", "hi"); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("empty user: expected validation, got %v", err)
	}
}

func TestCommentThreadOrderAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "Una", "una@example.com")
	project := f.project(t, "DEM", u1.ID)
	issue := f.issue(t, project.ID, u1.ID, "A")

	first, err := f.services.Comments.Create(ctx, issue.ID, u1.ID, "first *note*")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := f.services.Comments.Create(ctx, issue.ID, u1.ID, "second"); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	thread, err := f.services.Comments.List(ctx, issue.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(thread) != 2 || thread[0].ID != first.ID || thread[1].Content != "second" {
		t.Fatalf("unexpected thread order: %+v", thread)
	}
	if thread[0].User == nil || thread[0].User.Name != "Una" {
		t.Fatalf("expected author summary, got %+v", thread[0].User)
	}
	if thread[0].ContentHTML == "" {
		t.Fatalf("expected rendered content")
	}

	if err := f.services.Comments.Delete(ctx, first.ID, u1.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if err := f.services.Comments.Delete(ctx, first.ID, u1.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
