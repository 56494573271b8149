package models

import "github.com/flowtrack-dev/flowtrack/internal/types"

type ProjectMember struct {
	BaseModel

	ProjectID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_member"`
	UserID    string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_member"`
	Role      types.Role `gorm:"type:varchar(32);not null"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
