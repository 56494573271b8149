package models

import (
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/types"
)

type Sprint struct {
	BaseModel

	ProjectID string `gorm:"type:varchar(36);not null;index"`
	Name      string `gorm:"not null"`
	Goal      string
	StartDate *time.Time
	EndDate   *time.Time
	Status    types.SprintStatus `gorm:"type:varchar(16);not null"`
}
