package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/events"
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

type ProjectService struct {
	db     *gorm.DB
	events *eventSink
}

type CreateProjectInput struct {
	Name           string
	Key            string
	Description    string
	Status         types.ProjectStatus
	CreatorID      string
	DiscordWebhook string
	SlackWebhook   string
}

// ProjectPatch holds the mutable project fields. The key is immutable.
type ProjectPatch struct {
	Name           *string
	Description    *string
	Status         *types.ProjectStatus
	DiscordWebhook *string
	SlackWebhook   *string
}

func (s *ProjectService) withRoster(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Members.User")
}

func (s *ProjectService) List(ctx context.Context) ([]types.ProjectResponse, error) {
	var projects []models.Project
	if err := s.withRoster(ctx).Order("updated_at DESC").Find(&projects).Error; err != nil {
		return nil, storeErr(err, "")
	}

	ids := make([]string, 0, len(projects))
	for _, project := range projects {
		ids = append(ids, project.ID)
	}

	counts, err := s.issueCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]types.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		out = append(out, projectResponse(project, counts[project.ID]))
	}
	return out, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (types.ProjectResponse, error) {
	var project models.Project
	if err := s.withRoster(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return types.ProjectResponse{}, storeErr(err, "Project not found")
	}

	counts, err := s.issueCounts(ctx, []string{project.ID})
	if err != nil {
		return types.ProjectResponse{}, err
	}

	return projectResponse(project, counts[project.ID]), nil
}

func (s *ProjectService) issueCounts(ctx context.Context, projectIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ProjectID string
		Total     int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Issue{}).
		Select("project_id, COUNT(*) AS total").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err, "")
	}

	for _, row := range rows {
		counts[row.ProjectID] = row.Total
	}
	return counts, nil
}

// Create inserts the project and enrolls the creator as an admin member in
// the same transaction.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (types.ProjectResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Key = strings.ToUpper(strings.TrimSpace(in.Key))

	if in.Name == "" || in.Key == "" {
		return types.ProjectResponse{}, types.Validation("Name and key are required")
	}
	if !projectKeyPattern.MatchString(in.Key) {
		return types.ProjectResponse{}, types.Validation("Project key must be 2-10 letters or digits, starting with a letter")
	}
	if in.CreatorID == "" {
		return types.ProjectResponse{}, types.Unauthorized("Unauthorized - creator ID required")
	}
	if in.Status == "" {
		in.Status = types.ProjectActive
	}
	if !in.Status.Valid() {
		return types.ProjectResponse{}, types.Validation("Invalid project status %q", in.Status)
	}

	project := models.Project{
		Key:            in.Key,
		Name:           in.Name,
		Description:    in.Description,
		Status:         in.Status,
		CreatorID:      in.CreatorID,
		DiscordWebhook: strings.TrimSpace(in.DiscordWebhook),
		SlackWebhook:   strings.TrimSpace(in.SlackWebhook),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.Where("id = ?", in.CreatorID).First(&creator).Error; err != nil {
			return storeErr(err, "User not found")
		}

		var existing int64
		if err := tx.Model(&models.Project{}).Where(&models.Project{Key: in.Key}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return types.Conflict("Project key already exists")
		}

		if err := tx.Omit(clause.Associations).Create(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return types.Conflict("Project key already exists")
			}
			return err
		}

		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    in.CreatorID,
			Role:      types.RoleAdmin,
		}
		return tx.Omit(clause.Associations).Create(&member).Error
	})
	if err != nil {
		return types.ProjectResponse{}, storeErr(err, "")
	}

	return s.Get(ctx, project.ID)
}

func (s *ProjectService) Update(ctx context.Context, id string, patch ProjectPatch) (types.ProjectResponse, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return types.ProjectResponse{}, storeErr(err, "Project not found")
	}

	updates := map[string]interface{}{}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return types.ProjectResponse{}, types.Validation("Name cannot be empty")
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return types.ProjectResponse{}, types.Validation("Invalid project status %q", *patch.Status)
		}
		updates["status"] = *patch.Status
	}
	if patch.DiscordWebhook != nil {
		updates["discord_webhook"] = strings.TrimSpace(*patch.DiscordWebhook)
	}
	if patch.SlackWebhook != nil {
		updates["slack_webhook"] = strings.TrimSpace(*patch.SlackWebhook)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&project).Updates(updates).Error; err != nil {
			return types.ProjectResponse{}, storeErr(err, "Project not found")
		}
	}

	return s.Get(ctx, id)
}

// Delete removes the project with its comments, issues, sprints and
// memberships in one transaction.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Where("id = ?", id).First(&project).Error; err != nil {
			return err
		}

		issueIDs := tx.Model(&models.Issue{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("issue_id IN (?)", issueIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Issue{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Sprint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	return storeErr(err, "Project not found")
}

func (s *ProjectService) AddMember(ctx context.Context, projectID, userID string, role types.Role, actorID string) (types.MemberResponse, error) {
	if userID == "" || role == "" {
		return types.MemberResponse{}, types.Validation("User ID and role are required")
	}
	if !role.Valid() {
		return types.MemberResponse{}, types.Validation("Invalid role %q", role)
	}

	db := s.db.WithContext(ctx)

	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		return types.MemberResponse{}, storeErr(err, "Project not found")
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return types.MemberResponse{}, storeErr(err, "User not found")
	}

	var existing int64
	if err := db.Model(&models.ProjectMember{}).Where("project_id = ? AND user_id = ?", projectID, userID).Count(&existing).Error; err != nil {
		return types.MemberResponse{}, storeErr(err, "")
	}
	if existing > 0 {
		return types.MemberResponse{}, types.Conflict("User is already a member of this project")
	}

	member := models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}
	if err := db.Omit(clause.Associations).Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return types.MemberResponse{}, types.Conflict("User is already a member of this project")
		}
		return types.MemberResponse{}, storeErr(err, "")
	}
	member.User = &user

	s.events.emit(ctx, events.Event{
		Type:         events.MemberAdded,
		OccurredAt:   time.Now().UTC(),
		ActorID:      actorID,
		Project:      projectRef(project),
		MemberUserID: userID,
		MemberRole:   role,
	})

	return memberResponse(member), nil
}

func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID, actorID string) error {
	db := s.db.WithContext(ctx)

	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		return storeErr(err, "Member not found")
	}

	result := db.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectMember{})
	if result.Error != nil {
		return storeErr(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return types.NotFound("Member not found")
	}

	s.events.emit(ctx, events.Event{
		Type:         events.MemberRemoved,
		OccurredAt:   time.Now().UTC(),
		ActorID:      actorID,
		Project:      projectRef(project),
		MemberUserID: userID,
	})

	return nil
}

func projectRef(project models.Project) events.ProjectRef {
	return events.ProjectRef{
		ID:             project.ID,
		Key:            project.Key,
		Name:           project.Name,
		DiscordWebhook: project.DiscordWebhook,
		SlackWebhook:   project.SlackWebhook,
	}
}
