package models

import (
	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusToDo       ProjectStatus = "To Do"
	ProjectStatusInProgress ProjectStatus = "In Progress"
	ProjectStatusDone       ProjectStatus = "Done"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusToDo, ProjectStatusInProgress, ProjectStatusDone:
		return true
	}
	return false
}

// DevTrack tells which developer list a project member belongs to.
type DevTrack string

const (
	TrackFrontend DevTrack = "frontend"
	TrackBackend  DevTrack = "backend"
)

type Project struct {
	Base
	Name             string          `gorm:"not null" json:"name"`
	Description      string          `json:"description"`
	CreatedByID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"created_by"`
	ProjectManagerID *uuid.UUID      `gorm:"type:uuid;index" json:"project_manager,omitempty"`
	Status           ProjectStatus   `gorm:"type:varchar(16);not null" json:"status"`
	BoardID          *uuid.UUID      `gorm:"type:uuid" json:"board_id,omitempty"`
	Members          []ProjectMember `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// Devs returns the member ids of one track, in insertion order.
func (p *Project) Devs(track DevTrack) UUIDSet {
	out := UUIDSet{}
	for _, m := range p.Members {
		if m.Track == track {
			out = append(out, m.UserID)
		}
	}
	return out
}

// Involves reports whether userID created, manages or develops on the project.
func (p *Project) Involves(userID uuid.UUID) bool {
	if p.CreatedByID == userID {
		return true
	}
	if p.ProjectManagerID != nil && *p.ProjectManagerID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// ProjectMember is one row per (project, user, track).
type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Track     DevTrack  `gorm:"type:varchar(16);primaryKey"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}
