package models

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType string

const (
	LeaveCasual LeaveType = "casual"
	LeaveSick   LeaveType = "sick"
	LeaveAnnual LeaveType = "annual"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveCasual, LeaveSick, LeaveAnnual:
		return true
	}
	return false
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

type LeaveRequest struct {
	Base
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        LeaveType   `gorm:"type:varchar(16);not null" json:"type"`
	Status      LeaveStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Reason      string      `gorm:"not null" json:"reason"`
	Quantity    int         `gorm:"not null" json:"quantity"`
	StartDate   time.Time   `gorm:"not null" json:"start_date"`
	DecidedByID *uuid.UUID  `gorm:"type:uuid" json:"decided_by,omitempty"`
	DecidedAt   *time.Time  `json:"decided_at,omitempty"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// LastDay is the final day covered by the leave.
func (l *LeaveRequest) LastDay() time.Time {
	return l.StartDate.AddDate(0, 0, l.Quantity-1)
}

// Covers reports whether day (midnight-normalized) falls inside the leave.
func (l *LeaveRequest) Covers(day time.Time) bool {
	return !day.Before(l.StartDate) && !day.After(l.LastDay())
}
