package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SprintService manages sprints. Status is only ever set by the caller.
type SprintService struct {
	db *gorm.DB
}

type CreateSprintInput struct {
	Name      string
	Goal      string
	StartDate *time.Time
	EndDate   *time.Time
	Status    types.SprintStatus
}

type SprintPatch struct {
	Name      *string
	Goal      *string
	StartDate types.Optional[time.Time]
	EndDate   types.Optional[time.Time]
	Status    *types.SprintStatus
}

func (s *SprintService) List(ctx context.Context, projectID string) ([]types.SprintResponse, error) {
	db := s.db.WithContext(ctx)

	if err := db.Select("id").Where("id = ?", projectID).First(&models.Project{}).Error; err != nil {
		return nil, storeErr(err, "Project not found")
	}

	var sprints []models.Sprint
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&sprints).Error; err != nil {
		return nil, storeErr(err, "")
	}

	out := make([]types.SprintResponse, 0, len(sprints))
	for _, sprint := range sprints {
		out = append(out, sprintResponse(sprint))
	}
	return out, nil
}

func (s *SprintService) Get(ctx context.Context, id string) (types.SprintResponse, error) {
	var sprint models.Sprint
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sprint).Error; err != nil {
		return types.SprintResponse{}, storeErr(err, "Sprint not found")
	}
	return sprintResponse(sprint), nil
}

func (s *SprintService) Create(ctx context.Context, projectID string, in CreateSprintInput) (types.SprintResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return types.SprintResponse{}, types.Validation("Sprint name is required")
	}
	if in.Status == "" {
		in.Status = types.SprintPlanned
	}
	if !in.Status.Valid() {
		return types.SprintResponse{}, types.Validation("Invalid sprint status %q", in.Status)
	}
	if err := checkSprintRange(in.StartDate, in.EndDate); err != nil {
		return types.SprintResponse{}, err
	}

	db := s.db.WithContext(ctx)
	if err := db.Select("id").Where("id = ?", projectID).First(&models.Project{}).Error; err != nil {
		return types.SprintResponse{}, storeErr(err, "Project not found")
	}

	sprint := models.Sprint{
		ProjectID: projectID,
		Name:      in.Name,
		Goal:      in.Goal,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    in.Status,
	}
	if err := db.Omit(clause.Associations).Create(&sprint).Error; err != nil {
		return types.SprintResponse{}, storeErr(err, "")
	}

	return sprintResponse(sprint), nil
}

func (s *SprintService) Update(ctx context.Context, id string, patch SprintPatch) (types.SprintResponse, error) {
	db := s.db.WithContext(ctx)

	var sprint models.Sprint
	if err := db.Where("id = ?", id).First(&sprint).Error; err != nil {
		return types.SprintResponse{}, storeErr(err, "Sprint not found")
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return types.SprintResponse{}, types.Validation("Sprint name cannot be empty")
		}
		updates["name"] = name
		sprint.Name = name
	}
	if patch.Goal != nil {
		updates["goal"] = *patch.Goal
		sprint.Goal = *patch.Goal
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return types.SprintResponse{}, types.Validation("Invalid sprint status %q", *patch.Status)
		}
		updates["status"] = *patch.Status
		sprint.Status = *patch.Status
	}
	if patch.StartDate.Set {
		updates["start_date"] = patch.StartDate.Value
		sprint.StartDate = patch.StartDate.Value
	}
	if patch.EndDate.Set {
		updates["end_date"] = patch.EndDate.Value
		sprint.EndDate = patch.EndDate.Value
	}
	if err := checkSprintRange(sprint.StartDate, sprint.EndDate); err != nil {
		return types.SprintResponse{}, err
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Sprint{BaseModel: models.BaseModel{ID: id}}).Updates(updates).Error; err != nil {
			return types.SprintResponse{}, storeErr(err, "Sprint not found")
		}
	}

	return s.Get(ctx, id)
}

// Delete removes the sprint and clears the reference from its issues.
func (s *SprintService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sprint models.Sprint
		if err := tx.Where("id = ?", id).First(&sprint).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Issue{}).Where("sprint_id = ?", id).Update("sprint_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&sprint).Error
	})
	return storeErr(err, "Sprint not found")
}

func checkSprintRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return types.Validation("Sprint end date must not be before its start date")
	}
	return nil
}

// SprintFields is the request body for creating or patching a sprint.
type SprintFields struct {
	Name      *string             `json:"name"`
	Goal      *string             `json:"goal"`
	StartDate json.RawMessage     `json:"startDate"`
	EndDate   json.RawMessage     `json:"endDate"`
	Status    *types.SprintStatus `json:"status"`
}

func (f SprintFields) Patch() (SprintPatch, error) {
	patch := SprintPatch{Name: f.Name, Goal: f.Goal, Status: f.Status}

	var err error
	if patch.StartDate, err = parseDate(f.StartDate, "start date"); err != nil {
		return patch, err
	}
	if patch.EndDate, err = parseDate(f.EndDate, "end date"); err != nil {
		return patch, err
	}
	return patch, nil
}

func (f SprintFields) CreateInput() (CreateSprintInput, error) {
	patch, err := f.Patch()
	if err != nil {
		return CreateSprintInput{}, err
	}

	in := CreateSprintInput{StartDate: patch.StartDate.Value, EndDate: patch.EndDate.Value}
	if f.Name != nil {
		in.Name = *f.Name
	}
	if f.Goal != nil {
		in.Goal = *f.Goal
	}
	if f.Status != nil {
		in.Status = *f.Status
	}
	return in, nil
}
