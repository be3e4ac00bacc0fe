// Package attendance tracks daily clock-in/clock-out sessions.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action is the requested transition.
type Action string

const (
	ClockIn  Action = "clock_in"
	ClockOut Action = "clock_out"
)

var (
	ErrAlreadyClockedIn = apperr.Validation("Must clock out before starting a new session")
	ErrNotClockedIn     = apperr.Validation("Must clock in before clocking out")
	ErrOnLeave          = apperr.Validation("Cannot clock in on a day with an approved leave")
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClockInOut moves today's record through the session state machine.
func (s *Service) ClockInOut(ctx context.Context, action Action, notes string, actor policy.Actor) (*models.Attendance, error) {
	if !policy.TracksAttendance(actor.Role) {
		return nil, apperr.Forbidden("You are not authorized to perform this action")
	}
	if action != ClockIn && action != ClockOut {
		return nil, apperr.Validation("Invalid attendance status")
	}

	now := s.now().UTC()
	day := util.StartOfDay(now)

	if action == ClockIn {
		onLeave, err := s.onApprovedLeave(ctx, actor.ID, day)
		if err != nil {
			return nil, err
		}
		if onLeave {
			return nil, ErrOnLeave
		}
	}

	var rec models.Attendance
	err := s.db.WithContext(ctx).Where("user_id = ? AND date = ?", actor.ID, day).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = models.Attendance{UserID: actor.ID, Date: day, Sessions: []models.AttendanceSession{}}
	case err != nil:
		return nil, apperr.Internal(fmt.Errorf("loading attendance: %w", err))
	}
	if notes != "" {
		rec.Notes = notes
	}

	open := rec.OpenSession()
	switch action {
	case ClockIn:
		if open >= 0 {
			return nil, ErrAlreadyClockedIn
		}
		rec.Sessions = append(rec.Sessions, models.AttendanceSession{ClockIn: now})
		rec.Status = models.AttendanceClockedIn
	case ClockOut:
		if open < 0 {
			return nil, ErrNotClockedIn
		}
		out := now
		session := &rec.Sessions[open]
		session.ClockOut = &out
		session.Hours = out.Sub(session.ClockIn).Hours()
		rec.RecomputeHours()
		rec.Status = models.AttendanceClockedOut
	}

	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("saving attendance: %w", err))
	}
	return &rec, nil
}

// Report summarizes one user's attendance over [from, to].
type Report struct {
	Attendances       []models.Attendance `json:"attendances"`
	PresentDays       int                 `json:"present_days"`
	AbsentDays        int                 `json:"absent_days"`
	ApprovedLeaveDays int                 `json:"approved_leave_days"`
	TotalWorkingHours float64             `json:"total_working_hours"`
}

func (s *Service) Report(ctx context.Context, from, to time.Time, actor policy.Actor) (*Report, error) {
	from, to = util.StartOfDay(from.UTC()), util.StartOfDay(to.UTC())
	if to.Before(from) {
		return nil, apperr.Validation("End date must not be before start date")
	}

	var recs []models.Attendance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", actor.ID, from, to).
		Order("date ASC").
		Find(&recs).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading attendance: %w", err))
	}

	report := &Report{Attendances: recs}
	for _, r := range recs {
		if r.Status == models.AttendanceAbsent {
			report.AbsentDays++
		} else {
			report.PresentDays++
		}
		report.TotalWorkingHours += r.WorkingHours
	}

	leaves, err := s.approvedLeaves(s.db.WithContext(ctx).Where("user_id = ?", actor.ID), to)
	if err != nil {
		return nil, err
	}
	for _, l := range leaves {
		first, last := l.StartDate, l.LastDay()
		if first.Before(from) {
			first = from
		}
		if last.After(to) {
			last = to
		}
		report.ApprovedLeaveDays += util.DaysBetween(first, last)
	}
	return report, nil
}

// MarkAbsent records an absence for every user who tracks attendance and has
// neither a record nor an approved leave on day. It returns how many rows it
// wrote.
func (s *Service) MarkAbsent(ctx context.Context, day time.Time) (int, error) {
	day = util.StartOfDay(day.UTC())

	var users []models.User
	if err := s.db.WithContext(ctx).Where("role <> ?", models.RoleCEO).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}

	var present []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Attendance{}).Where("date = ?", day).Pluck("user_id", &present).Error; err != nil {
		return 0, fmt.Errorf("listing attendance: %w", err)
	}
	seen := models.UUIDSet(present)

	leaves, err := s.approvedLeaves(s.db.WithContext(ctx), day)
	if err != nil {
		return 0, err
	}
	for _, l := range leaves {
		if l.Covers(day) {
			seen = append(seen, l.UserID)
		}
	}

	marked := 0
	for _, u := range users {
		if !policy.TracksAttendance(u.Role) || seen.Contains(u.ID) {
			continue
		}
		rec := models.Attendance{
			UserID:   u.ID,
			Date:     day,
			Status:   models.AttendanceAbsent,
			Sessions: []models.AttendanceSession{},
		}
		if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
			return marked, fmt.Errorf("marking %s absent: %w", u.ID, err)
		}
		marked++
	}

	s.logger.Info("absence sweep finished", "date", day.Format("2006-01-02"), "marked", marked)
	return marked, nil
}

func (s *Service) onApprovedLeave(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	leaves, err := s.approvedLeaves(s.db.WithContext(ctx).Where("user_id = ?", userID), day)
	if err != nil {
		return false, err
	}
	for _, l := range leaves {
		if l.Covers(day) {
			return true, nil
		}
	}
	return false, nil
}

// approvedLeaves returns approved leaves of q starting on or before until.
func (s *Service) approvedLeaves(q *gorm.DB, until time.Time) ([]models.LeaveRequest, error) {
	var leaves []models.LeaveRequest
	err := q.Where("status = ? AND start_date <= ?", models.LeaveApproved, until).Find(&leaves).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading leaves: %w", err))
	}
	return leaves, nil
}
