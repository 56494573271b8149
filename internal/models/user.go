package models

import "github.com/flowtrack-dev/flowtrack/internal/types"

type User struct {
	BaseModel

	Name         string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         types.Role `gorm:"type:varchar(32);not null"`
	Avatar       string
}
