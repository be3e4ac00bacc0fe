package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Board struct {
	Base
	Name           string            `gorm:"not null" json:"name"`
	CreatedByID    uuid.UUID         `gorm:"type:uuid;not null" json:"created_by"`
	LastCardNumber int               `gorm:"not null;default:0" json:"last_card_number"`
	Members        []BoardMember     `gorm:"foreignKey:BoardID" json:"-"`
	Invitations    []BoardInvitation `gorm:"foreignKey:BoardID" json:"-"`
}

func (Board) TableName() string {
	return "boards"
}

func (b *Board) MemberIDs() UUIDSet {
	out := make(UUIDSet, 0, len(b.Members))
	for _, m := range b.Members {
		out = append(out, m.UserID)
	}
	return out
}

func (b *Board) IsMember(userID uuid.UUID) bool {
	return b.MemberIDs().Contains(userID)
}

// InvitedIDs lists users holding an invitation, expired or not.
func (b *Board) InvitedIDs() UUIDSet {
	out := UUIDSet{}
	for _, inv := range b.Invitations {
		if !out.Contains(inv.UserID) {
			out = append(out, inv.UserID)
		}
	}
	return out
}

type BoardMember struct {
	BoardID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	JoinedAt time.Time `gorm:"not null"`
}

func (BoardMember) TableName() string {
	return "board_members"
}

// BoardInvitation is a pending, token-bearing offer of membership.
// Expired rows are kept; only acceptance removes them.
type BoardInvitation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (BoardInvitation) TableName() string {
	return "board_invitations"
}

type List struct {
	Base
	Name        string    `gorm:"not null" json:"name"`
	BoardID     uuid.UUID `gorm:"type:uuid;not null;index" json:"board_id"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	Cards       []Card    `gorm:"foreignKey:ListID" json:"cards,omitempty"`
}

func (List) TableName() string {
	return "lists"
}

func (i *BoardInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
