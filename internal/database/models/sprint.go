package models

import (
	"time"

	"github.com/google/uuid"
)

type SprintStatus string

const (
	SprintStatusToDo       SprintStatus = "To Do"
	SprintStatusInProgress SprintStatus = "In Progress"
	SprintStatusComplete   SprintStatus = "Complete"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintStatusToDo, SprintStatusInProgress, SprintStatusComplete:
		return true
	}
	return false
}

type Sprint struct {
	Base
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description,omitempty"`
	StartTime   time.Time    `gorm:"not null" json:"start_time"`
	EndTime     time.Time    `gorm:"not null" json:"end_time"`
	Status      SprintStatus `gorm:"type:varchar(16);not null" json:"status"`
	ProjectID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"project_id"`
	CreatedByID uuid.UUID    `gorm:"type:uuid;not null" json:"created_by"`
}

func (Sprint) TableName() string {
	return "sprints"
}
