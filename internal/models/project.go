package models

import "github.com/flowtrack-dev/flowtrack/internal/types"

type Project struct {
	BaseModel

	Key         string              `gorm:"type:varchar(16);uniqueIndex;not null"`
	Name        string              `gorm:"not null"`
	Description string
	Status      types.ProjectStatus `gorm:"type:varchar(16);not null"`
	CreatorID   string              `gorm:"type:varchar(36);not null;index"`

	// IssueSeq is the last issue number handed out. It only grows.
	IssueSeq int64 `gorm:"not null;default:0"`

	DiscordWebhook string
	SlackWebhook   string

	// Relationships
	Creator *User           `gorm:"foreignKey:CreatorID"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Sprints []Sprint        `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Issues  []Issue         `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
