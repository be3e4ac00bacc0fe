package models

import (
	"time"

	"github.com/google/uuid"
)

type CardStatus string

const (
	CardStatusPending    CardStatus = "pending"
	CardStatusInProgress CardStatus = "in_progress"
	CardStatusReview     CardStatus = "review"
	CardStatusCompleted  CardStatus = "completed"
)

func (s CardStatus) Valid() bool {
	switch s {
	case CardStatusPending, CardStatusInProgress, CardStatusReview, CardStatusCompleted:
		return true
	}
	return false
}

type Card struct {
	Base
	Name          string     `gorm:"not null" json:"name"`
	Description   string     `json:"description,omitempty"`
	ListID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"list_id"`
	BoardID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"board_id"`
	CreatedByID   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	AssignedUsers UUIDSet    `gorm:"type:text;serializer:json" json:"assigned_users"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Attachments   []string   `gorm:"type:text;serializer:json" json:"attachments"`
	Status        CardStatus `gorm:"type:varchar(16);not null" json:"status"`
	CardNumber    int        `gorm:"not null;index" json:"card_number"`
}

func (Card) TableName() string {
	return "cards"
}

type Comment struct {
	Base
	CardID   uuid.UUID `gorm:"type:uuid;not null;index" json:"card_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null" json:"comment_by"`
	Text     string    `gorm:"not null" json:"text"`
}

func (Comment) TableName() string {
	return "comments"
}
