package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/events"
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IssueService struct {
	db     *gorm.DB
	events *eventSink
}

// IssueFilter narrows a project's issue list. Empty fields match everything.
type IssueFilter struct {
	Status     types.IssueStatus
	SprintID   string
	AssigneeID string
}

func (s *IssueService) expanded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Assignee").
		Preload("Reporter").
		Preload("Sprint")
}

func (s *IssueService) Get(ctx context.Context, id string) (types.IssueResponse, error) {
	var issue models.Issue
	if err := s.expanded(ctx).Where("id = ?", id).First(&issue).Error; err != nil {
		return types.IssueResponse{}, storeErr(err, "Issue not found")
	}
	return issueResponse(issue), nil
}

func (s *IssueService) ListByProject(ctx context.Context, projectID string, filter IssueFilter) ([]types.IssueResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, types.Validation("Invalid status %q", filter.Status)
	}

	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", projectID).First(&models.Project{}).Error; err != nil {
		return nil, storeErr(err, "Project not found")
	}

	query := s.expanded(ctx).Where("project_id = ?", projectID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SprintID != "" {
		query = query.Where("sprint_id = ?", filter.SprintID)
	}
	if filter.AssigneeID != "" {
		query = query.Where("assignee_id = ?", filter.AssigneeID)
	}

	var issues []models.Issue
	if err := query.Order("created_at DESC").Find(&issues).Error; err != nil {
		return nil, storeErr(err, "")
	}

	out := make([]types.IssueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issueResponse(issue))
	}
	return out, nil
}

// Create assigns the next key from the project's counter. The increment and
// the insert share a transaction so concurrent creates never see the same
// sequence number, and deleted keys are never handed out again.
func (s *IssueService) Create(ctx context.Context, projectID string, in CreateIssueInput) (types.IssueResponse, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return types.IssueResponse{}, types.Validation("Title is required")
	}
	if in.ReporterID == "" {
		return types.IssueResponse{}, types.Unauthorized("Unauthorized - reporter ID required")
	}
	if in.Type == "" {
		in.Type = types.TypeTask
	}
	if in.Status == "" {
		in.Status = types.StatusToDo
	}
	if in.Priority == "" {
		in.Priority = types.PriorityMedium
	}
	if err := validateIssueEnums(&in.Type, &in.Status, &in.Priority); err != nil {
		return types.IssueResponse{}, err
	}
	if in.StoryPoints != nil && *in.StoryPoints < 0 {
		return types.IssueResponse{}, types.Validation("Story points must not be negative")
	}

	var (
		issue   models.Issue
		project models.Project
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			return storeErr(err, "Project not found")
		}
		if err := userExists(tx, in.ReporterID, "Reporter not found"); err != nil {
			return err
		}
		if in.AssigneeID != nil {
			if err := userExists(tx, *in.AssigneeID, "Assignee not found"); err != nil {
				return err
			}
		}
		if in.SprintID != nil {
			if err := sprintInProject(tx, *in.SprintID, projectID); err != nil {
				return err
			}
		}

		seq, err := nextIssueSeq(tx, projectID)
		if err != nil {
			return err
		}

		issue = models.Issue{
			ProjectID:   projectID,
			Key:         fmt.Sprintf("%s-%d", project.Key, seq),
			Type:        in.Type,
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
			Priority:    in.Priority,
			AssigneeID:  in.AssigneeID,
			ReporterID:  in.ReporterID,
			StoryPoints: in.StoryPoints,
			SprintID:    in.SprintID,
			Labels:      datatypes.JSONSlice[string](nonNilLabels(in.Labels)),
			DueDate:     in.DueDate,
		}
		return tx.Omit(clause.Associations).Create(&issue).Error
	})
	if err != nil {
		return types.IssueResponse{}, storeErr(err, "")
	}

	created, err := s.Get(ctx, issue.ID)
	if err != nil {
		return types.IssueResponse{}, err
	}

	s.events.emit(ctx, events.Event{
		Type:       events.IssueCreated,
		OccurredAt: time.Now().UTC(),
		ActorID:    in.ReporterID,
		Project:    projectRef(project),
		Issue:      &events.IssueRef{ID: created.ID, Key: created.Key, Title: created.Title, Status: created.Status, Priority: created.Priority},
	})

	return created, nil
}

// nextIssueSeq bumps the project's counter in place and reads it back inside
// the caller's transaction.
func nextIssueSeq(tx *gorm.DB, projectID string) (int64, error) {
	result := tx.Model(&models.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("issue_seq", gorm.Expr("issue_seq + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, types.NotFound("Project not found")
	}

	var seq int64
	if err := tx.Model(&models.Project{}).Select("issue_seq").Where("id = ?", projectID).Scan(&seq).Error; err != nil {
		return 0, err
	}
	return seq, nil
}

// Update applies a partial patch. Status changes through this path are
// reported the same way as UpdateStatus.
func (s *IssueService) Update(ctx context.Context, id string, patch IssuePatch, actorID string) (types.IssueResponse, error) {
	db := s.db.WithContext(ctx)

	var issue models.Issue
	if err := db.Where("id = ?", id).First(&issue).Error; err != nil {
		return types.IssueResponse{}, storeErr(err, "Issue not found")
	}

	updates := map[string]interface{}{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return types.IssueResponse{}, types.Validation("Title cannot be empty")
		}
		updates["title"] = title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if err := validateIssueEnums(patch.Type, patch.Status, patch.Priority); err != nil {
		return types.IssueResponse{}, err
	}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Priority != nil {
		updates["priority"] = *patch.Priority
	}
	if patch.AssigneeID.Set {
		if patch.AssigneeID.Value != nil {
			if err := userExists(db, *patch.AssigneeID.Value, "Assignee not found"); err != nil {
				return types.IssueResponse{}, err
			}
			updates["assignee_id"] = *patch.AssigneeID.Value
		} else {
			updates["assignee_id"] = nil
		}
	}
	if patch.StoryPoints.Set {
		if patch.StoryPoints.Value != nil {
			if *patch.StoryPoints.Value < 0 {
				return types.IssueResponse{}, types.Validation("Story points must not be negative")
			}
			updates["story_points"] = *patch.StoryPoints.Value
		} else {
			updates["story_points"] = nil
		}
	}
	if patch.SprintID.Set {
		if patch.SprintID.Value != nil {
			if err := sprintInProject(db, *patch.SprintID.Value, issue.ProjectID); err != nil {
				return types.IssueResponse{}, err
			}
			updates["sprint_id"] = *patch.SprintID.Value
		} else {
			updates["sprint_id"] = nil
		}
	}
	if patch.Labels.Set {
		var labels []string
		if patch.Labels.Value != nil {
			labels = *patch.Labels.Value
		}
		updates["labels"] = datatypes.JSONSlice[string](nonNilLabels(labels))
	}
	if patch.DueDate.Set {
		if patch.DueDate.Value != nil {
			updates["due_date"] = *patch.DueDate.Value
		} else {
			updates["due_date"] = nil
		}
	}

	if len(updates) > 0 {
		if err := db.Model(&issue).Updates(updates).Error; err != nil {
			return types.IssueResponse{}, storeErr(err, "Issue not found")
		}
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return types.IssueResponse{}, err
	}

	if len(updates) > 0 {
		s.emitIssueChange(ctx, events.IssueUpdated, updated, issue.Status, actorID)
		if updated.Status != issue.Status {
			s.emitIssueChange(ctx, events.IssueStatusChanged, updated, issue.Status, actorID)
		}
	}

	return updated, nil
}

// UpdateStatus rewrites only the status. Every status may move to every
// other status.
func (s *IssueService) UpdateStatus(ctx context.Context, id string, status types.IssueStatus, actorID string) (types.IssueResponse, error) {
	if status == "" {
		return types.IssueResponse{}, types.Validation("Status is required")
	}
	if !status.Valid() {
		return types.IssueResponse{}, types.Validation("Invalid status %q", status)
	}

	db := s.db.WithContext(ctx)

	var issue models.Issue
	if err := db.Where("id = ?", id).First(&issue).Error; err != nil {
		return types.IssueResponse{}, storeErr(err, "Issue not found")
	}

	if err := db.Model(&issue).Update("status", status).Error; err != nil {
		return types.IssueResponse{}, storeErr(err, "Issue not found")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return types.IssueResponse{}, err
	}

	if issue.Status != status {
		s.emitIssueChange(ctx, events.IssueStatusChanged, updated, issue.Status, actorID)
	}

	return updated, nil
}

// Delete removes the issue together with its comments.
func (s *IssueService) Delete(ctx context.Context, id, actorID string) error {
	var (
		issue   models.Issue
		project models.Project
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&issue).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", issue.ProjectID).First(&project).Error; err != nil {
			return err
		}
		if err := tx.Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&issue).Error
	})
	if err != nil {
		return storeErr(err, "Issue not found")
	}

	s.events.emit(ctx, events.Event{
		Type:       events.IssueDeleted,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		Project:    projectRef(project),
		Issue:      &events.IssueRef{ID: issue.ID, Key: issue.Key, Title: issue.Title, Status: issue.Status, Priority: issue.Priority},
	})
	return nil
}

func (s *IssueService) emitIssueChange(ctx context.Context, kind events.Type, issue types.IssueResponse, previous types.IssueStatus, actorID string) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", issue.ProjectID).First(&project).Error; err != nil {
		s.events.logger.WarnContext(ctx, "event skipped, project lookup failed",
			"event_type", string(kind),
			"issue_id", issue.ID,
			"error", err.Error(),
		)
		return
	}

	ref := &events.IssueRef{ID: issue.ID, Key: issue.Key, Title: issue.Title, Status: issue.Status, Priority: issue.Priority}
	if kind == events.IssueStatusChanged {
		ref.PreviousStatus = previous
	}

	s.events.emit(ctx, events.Event{
		Type:       kind,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
		Project:    projectRef(project),
		Issue:      ref,
	})
}

func validateIssueEnums(kind *types.IssueType, status *types.IssueStatus, priority *types.IssuePriority) error {
	if kind != nil && !kind.Valid() {
		return types.Validation("Invalid issue type %q", *kind)
	}
	if status != nil && !status.Valid() {
		return types.Validation("Invalid status %q", *status)
	}
	if priority != nil && !priority.Valid() {
		return types.Validation("Invalid priority %q", *priority)
	}
	return nil
}

func userExists(db *gorm.DB, id, notFound string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return storeErr(err, "")
	}
	if count == 0 {
		return types.NotFound(notFound)
	}
	return nil
}

func sprintInProject(db *gorm.DB, sprintID, projectID string) error {
	var sprint models.Sprint
	if err := db.Select("id", "project_id").Where("id = ?", sprintID).First(&sprint).Error; err != nil {
		return storeErr(err, "Sprint not found")
	}
	if sprint.ProjectID != projectID {
		return types.Validation("Sprint belongs to a different project")
	}
	return nil
}

func nonNilLabels(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
