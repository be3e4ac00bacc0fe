package models

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendanceClockedIn  AttendanceStatus = "clocked_in"
	AttendanceClockedOut AttendanceStatus = "clocked_out"
	AttendanceAbsent     AttendanceStatus = "absent"
)

// Attendance is one row per user per calendar day.
type Attendance struct {
	Base
	UserID       uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_date" json:"user_id"`
	Date         time.Time           `gorm:"not null;uniqueIndex:idx_attendance_user_date" json:"date"`
	Status       AttendanceStatus    `gorm:"type:varchar(16);not null" json:"status"`
	Sessions     []AttendanceSession `gorm:"type:text;serializer:json" json:"sessions"`
	WorkingHours float64             `json:"working_hours"`
	Notes        string              `json:"notes,omitempty"`
}

func (Attendance) TableName() string {
	return "attendances"
}

type AttendanceSession struct {
	ClockIn  time.Time  `json:"clock_in_time"`
	ClockOut *time.Time `json:"clock_out_time,omitempty"`
	Hours    float64    `json:"session_hours,omitempty"`
}

// OpenSession returns the index of the session without a clock-out, or -1.
func (a *Attendance) OpenSession() int {
	for i := len(a.Sessions) - 1; i >= 0; i-- {
		if a.Sessions[i].ClockOut == nil {
			return i
		}
	}
	return -1
}

// RecomputeHours sums closed sessions.
func (a *Attendance) RecomputeHours() {
	var total float64
	for _, s := range a.Sessions {
		if s.ClockOut != nil {
			total += s.Hours
		}
	}
	a.WorkingHours = total
}
