package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/auth"
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const SeedPassword = "password123"

type seedUser struct {
	name  string
	email string
	role  types.Role
}

var seedUsers = []seedUser{
	{"Admin User", "admin@flowtrack.dev", types.RoleAdmin},
	{"Priya Manager", "pm@flowtrack.dev", types.RoleProjectManager},
	{"Dev Developer", "dev@flowtrack.dev", types.RoleDeveloper},
}

type seedIssue struct {
	kind     types.IssueType
	title    string
	status   types.IssueStatus
	priority types.IssuePriority
	points   int
	labels   []string
	assignee int
}

var seedIssues = []seedIssue{
	{types.TypeStory, "User can browse the product catalog", types.StatusDone, types.PriorityHigh, 5, []string{"frontend"}, 2},
	{types.TypeStory, "Shopping cart persists across sessions", types.StatusInProgress, types.PriorityHigh, 8, []string{"frontend", "backend"}, 2},
	{types.TypeBug, "Checkout total ignores discount codes", types.StatusInReview, types.PriorityUrgent, 3, []string{"payments"}, 2},
	{types.TypeTask, "Set up payment provider sandbox", types.StatusToDo, types.PriorityMedium, 2, []string{"payments", "infra"}, 1},
	{types.TypeEpic, "Order history and tracking", types.StatusToDo, types.PriorityLow, 13, nil, -1},
}

// Seed loads the demo dataset. It does nothing when the seed admin already
// exists, so it is safe to run on every start.
func Seed(db *gorm.DB, hasher *auth.Hasher) error {
	var existing models.User
	err := db.Where("email = ?", seedUsers[0].email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := hasher.Hash(SeedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		users := make([]models.User, 0, len(seedUsers))
		for _, u := range seedUsers {
			user := models.User{Name: u.name, Email: u.email, PasswordHash: hash, Role: u.role}
			if err := tx.Omit(clause.Associations).Create(&user).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.email, err)
			}
			users = append(users, user)
		}

		project := models.Project{
			Key:         "ECOM",
			Name:        "E-Commerce Platform",
			Description: "Storefront, cart and checkout rebuild.",
			Status:      types.ProjectActive,
			CreatorID:   users[0].ID,
			IssueSeq:    int64(len(seedIssues)),
		}
		if err := tx.Omit(clause.Associations).Create(&project).Error; err != nil {
			return fmt.Errorf("seed project: %w", err)
		}

		for i, user := range users {
			member := models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: seedUsers[i].role}
			if err := tx.Omit(clause.Associations).Create(&member).Error; err != nil {
				return fmt.Errorf("seed member %s: %w", user.Email, err)
			}
		}

		start := time.Now().UTC().Truncate(24 * time.Hour)
		end := start.AddDate(0, 0, 14)
		sprint := models.Sprint{
			ProjectID: project.ID,
			Name:      "Sprint 1",
			Goal:      "Ship a working checkout",
			StartDate: &start,
			EndDate:   &end,
			Status:    types.SprintActive,
		}
		if err := tx.Omit(clause.Associations).Create(&sprint).Error; err != nil {
			return fmt.Errorf("seed sprint: %w", err)
		}

		for i, si := range seedIssues {
			points := si.points
			issue := models.Issue{
				ProjectID:   project.ID,
				Key:         fmt.Sprintf("%s-%d", project.Key, i+1),
				Type:        si.kind,
				Title:       si.title,
				Status:      si.status,
				Priority:    si.priority,
				ReporterID:  users[1].ID,
				StoryPoints: &points,
				Labels:      datatypes.JSONSlice[string](si.labels),
			}
			if si.assignee >= 0 {
				issue.AssigneeID = &users[si.assignee].ID
			}
			if si.kind != types.TypeEpic {
				issue.SprintID = &sprint.ID
			}
			if err := tx.Omit(clause.Associations).Create(&issue).Error; err != nil {
				return fmt.Errorf("seed issue %s: %w", issue.Key, err)
			}
		}

		return nil
	})
}
