package models

import (
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/datatypes"
)

type Issue struct {
	BaseModel

	ProjectID   string              `gorm:"type:varchar(36);not null;uniqueIndex:idx_issue_project_key,priority:1"`
	Key         string              `gorm:"type:varchar(32);not null;uniqueIndex:idx_issue_project_key,priority:2"`
	Type        types.IssueType     `gorm:"type:varchar(16);not null"`
	Title       string              `gorm:"not null"`
	Description string              `gorm:"type:text"`
	Status      types.IssueStatus   `gorm:"type:varchar(16);not null;index"`
	Priority    types.IssuePriority `gorm:"type:varchar(16);not null"`
	AssigneeID  *string             `gorm:"type:varchar(36);index"`
	ReporterID  string              `gorm:"type:varchar(36);not null"`
	StoryPoints *int
	SprintID    *string `gorm:"type:varchar(36);index"`
	Labels      datatypes.JSONSlice[string]
	DueDate     *time.Time

	// Relationships
	Assignee *User     `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Reporter *User     `gorm:"foreignKey:ReporterID"`
	Sprint   *Sprint   `gorm:"foreignKey:SprintID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Comments []Comment `gorm:"foreignKey:IssueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
