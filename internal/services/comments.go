package services

import (
	"context"
	"strings"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/events"
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentService struct {
	db     *gorm.DB
	events *eventSink
}

// List returns the thread oldest first.
func (s *CommentService) List(ctx context.Context, issueID string) ([]types.CommentResponse, error) {
	db := s.db.WithContext(ctx)

	if err := db.Select("id").Where("id = ?", issueID).First(&models.Issue{}).Error; err != nil {
		return nil, storeErr(err, "Issue not found")
	}

	var comments []models.Comment
	err := db.Preload("User").
		Where("issue_id = ?", issueID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, storeErr(err, "")
	}

	out := make([]types.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, commentResponse(comment))
	}
	return out, nil
}

func (s *CommentService) Create(ctx context.Context, issueID, userID, content string) (types.CommentResponse, error) {
	if strings.TrimSpace(content) == "" {
		return types.CommentResponse{}, types.Validation("Content is required")
	}
	if userID == "" {
		return types.CommentResponse{}, types.Validation("User ID is required")
	}

	db := s.db.WithContext(ctx)

	issue, project, err := issueWithProject(db, issueID)
	if err != nil {
		return types.CommentResponse{}, err
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return types.CommentResponse{}, storeErr(err, "User not found")
	}

	comment := models.Comment{IssueID: issueID, UserID: userID, Content: content}
	if err := db.Omit(clause.Associations).Create(&comment).Error; err != nil {
		return types.CommentResponse{}, storeErr(err, "")
	}
	comment.User = &user

	s.events.emit(ctx, events.Event{
		Type:       events.CommentCreated,
		OccurredAt: time.Now().UTC(),
		ActorID:    userID,
		Project:    projectRef(project),
		Issue:      &events.IssueRef{ID: issue.ID, Key: issue.Key, Title: issue.Title, Status: issue.Status},
		CommentID:  comment.ID,
	})

	return commentResponse(comment), nil
}

func (s *CommentService) Delete(ctx context.Context, id, actorID string) error {
	db := s.db.WithContext(ctx)

	var comment models.Comment
	if err := db.Where("id = ?", id).First(&comment).Error; err != nil {
		return storeErr(err, "Comment not found")
	}

	result := db.Delete(&comment)
	if result.Error != nil {
		return storeErr(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return types.NotFound("Comment not found")
	}

	issue, project, err := issueWithProject(db, comment.IssueID)
	if err != nil {
		s.events.logger.WarnContext(ctx, "event skipped, issue lookup failed",
			"comment_id", comment.ID,
			"error", err.Error(),
		)
		return nil
	}

	s.events.emit(ctx, events.Event{
		Type:       events.CommentDeleted,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		Project:    projectRef(project),
		Issue:      &events.IssueRef{ID: issue.ID, Key: issue.Key, Title: issue.Title, Status: issue.Status},
		CommentID:  comment.ID,
	})
	return nil
}

func issueWithProject(db *gorm.DB, issueID string) (models.Issue, models.Project, error) {
	var issue models.Issue
	if err := db.Where("id = ?", issueID).First(&issue).Error; err != nil {
		return issue, models.Project{}, storeErr(err, "Issue not found")
	}

	var project models.Project
	if err := db.Where("id = ?", issue.ProjectID).First(&project).Error; err != nil {
		return issue, project, storeErr(err, "Project not found")
	}
	return issue, project, nil
}
