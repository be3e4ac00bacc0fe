package models

import "github.com/google/uuid"

// Review targets exactly one of a project or a user.
type Review struct {
	Base
	Rating     int        `gorm:"not null" json:"rating"`
	Comment    string     `json:"comment"`
	ProjectID  *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ReviewerID uuid.UUID  `gorm:"type:uuid;not null" json:"reviewer_id"`
}

func (Review) TableName() string {
	return "reviews"
}
