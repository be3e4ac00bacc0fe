package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with UUID primary key and timestamps. Rows are hard-deleted.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UUIDSet is an ordered, duplicate-free list of ids stored as JSON text.
type UUIDSet []uuid.UUID

func (s UUIDSet) Contains(id uuid.UUID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Union appends ids not yet present and returns the ones that were added.
func (s UUIDSet) Union(ids []uuid.UUID) (UUIDSet, []uuid.UUID) {
	out := append(UUIDSet{}, s...)
	var added []uuid.UUID
	for _, id := range ids {
		if !out.Contains(id) {
			out = append(out, id)
			added = append(added, id)
		}
	}
	return out, added
}

// Without drops ids and returns the ones that were actually present.
func (s UUIDSet) Without(ids []uuid.UUID) (UUIDSet, []uuid.UUID) {
	drop := UUIDSet(ids)
	out := UUIDSet{}
	var removed []uuid.UUID
	for _, v := range s {
		if drop.Contains(v) {
			removed = append(removed, v)
			continue
		}
		out = append(out, v)
	}
	return out, removed
}
