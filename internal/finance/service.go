// Package finance keeps salary and office-expense ledgers and reports yearly
// totals. Salary notes are sealed with age before they are stored.
package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultCurrency = "USD"

// Sealer encrypts free-text notes at rest. *crypto.Encryptor satisfies it.
type Sealer interface {
	SealString(plaintext string) (string, error)
	OpenString(sealed string) (string, error)
}

type Service struct {
	db     *gorm.DB
	users  *directory.Service
	sealer Sealer
	logger *slog.Logger
}

// NewService accepts a nil sealer, in which case salary notes are refused.
func NewService(db *gorm.DB, users *directory.Service, sealer Sealer, logger *slog.Logger) *Service {
	return &Service{db: db, users: users, sealer: sealer, logger: logger}
}

func privileged(actor policy.Actor, what string) error {
	return policy.Enforce(policy.Privileged, actor.On(), "Only CEO or Manager can "+what)
}

// ParseMonth accepts YYYY-MM.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, apperr.Validation("Month must be formatted as YYYY-MM")
	}
	return t, nil
}

// SalaryView is a salary with its notes opened.
type SalaryView struct {
	*models.Salary
	Notes string `json:"notes,omitempty"`
}

type SalaryInput struct {
	UserID   uuid.UUID
	Month    string
	Amount   float64
	Currency string
	Notes    string
}

type SalaryUpdate struct {
	UserID   *uuid.UUID
	Month    *string
	Amount   *float64
	Currency *string
	Notes    *string
}

type SalaryFilter struct {
	UserID *uuid.UUID
	Month  string
}

func (s *Service) CreateSalary(ctx context.Context, in SalaryInput, actor policy.Actor) (*SalaryView, error) {
	if err := privileged(actor, "create salary records"); err != nil {
		return nil, err
	}
	if _, err := ParseMonth(in.Month); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("Amount must be positive")
	}
	if _, err := s.users.Get(ctx, in.UserID); err != nil {
		return nil, apperr.Validation("Invalid user ID")
	}
	if err := s.requireFreeMonth(ctx, in.UserID, in.Month, uuid.Nil); err != nil {
		return nil, err
	}

	salary := &models.Salary{
		UserID:      in.UserID,
		Month:       in.Month,
		Amount:      in.Amount,
		Currency:    currencyOrDefault(in.Currency),
		CreatedByID: actor.ID,
	}
	sealed, err := s.seal(in.Notes)
	if err != nil {
		return nil, err
	}
	salary.NotesSealed = sealed

	if err := s.db.WithContext(ctx).Create(salary).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating salary: %w", err))
	}
	return &SalaryView{Salary: salary, Notes: in.Notes}, nil
}

func (s *Service) UpdateSalary(ctx context.Context, id uuid.UUID, in SalaryUpdate, actor policy.Actor) (*SalaryView, error) {
	if err := privileged(actor, "update salary records"); err != nil {
		return nil, err
	}
	salary, err := s.loadSalary(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.UserID != nil {
		if _, err := s.users.Get(ctx, *in.UserID); err != nil {
			return nil, apperr.Validation("Invalid user ID")
		}
		salary.UserID = *in.UserID
	}
	if in.Month != nil {
		if _, err := ParseMonth(*in.Month); err != nil {
			return nil, err
		}
		salary.Month = *in.Month
	}
	if in.UserID != nil || in.Month != nil {
		if err := s.requireFreeMonth(ctx, salary.UserID, salary.Month, salary.ID); err != nil {
			return nil, err
		}
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperr.Validation("Amount must be positive")
		}
		salary.Amount = *in.Amount
	}
	if in.Currency != nil {
		salary.Currency = currencyOrDefault(*in.Currency)
	}
	if in.Notes != nil {
		sealed, err := s.seal(*in.Notes)
		if err != nil {
			return nil, err
		}
		salary.NotesSealed = sealed
	}

	if err := s.db.WithContext(ctx).Save(salary).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating salary: %w", err))
	}
	return s.open(salary)
}

func (s *Service) DeleteSalary(ctx context.Context, id uuid.UUID, actor policy.Actor) error {
	if err := privileged(actor, "delete salary records"); err != nil {
		return err
	}
	salary, err := s.loadSalary(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(salary).Error; err != nil {
		return apperr.Internal(fmt.Errorf("deleting salary: %w", err))
	}
	return nil
}

func (s *Service) ListSalaries(ctx context.Context, f SalaryFilter, actor policy.Actor) ([]SalaryView, error) {
	if err := privileged(actor, "view all salary records"); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx)
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Month != "" {
		if _, err := ParseMonth(f.Month); err != nil {
			return nil, err
		}
		q = q.Where("month = ?", f.Month)
	}
	return s.listSalaries(q)
}

// MySalaries is open to every role.
func (s *Service) MySalaries(ctx context.Context, actor policy.Actor) ([]SalaryView, error) {
	return s.listSalaries(s.db.WithContext(ctx).Where("user_id = ?", actor.ID))
}

func (s *Service) listSalaries(q *gorm.DB) ([]SalaryView, error) {
	var salaries []models.Salary
	if err := q.Order("month DESC").Find(&salaries).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing salaries: %w", err))
	}
	out := make([]SalaryView, 0, len(salaries))
	for i := range salaries {
		v, err := s.open(&salaries[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *Service) loadSalary(ctx context.Context, id uuid.UUID) (*models.Salary, error) {
	var salary models.Salary
	if err := s.db.WithContext(ctx).First(&salary, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Salary record")
		}
		return nil, apperr.Internal(fmt.Errorf("loading salary: %w", err))
	}
	return &salary, nil
}

// requireFreeMonth rejects a second salary for the same user and month.
func (s *Service) requireFreeMonth(ctx context.Context, userID uuid.UUID, month string, except uuid.UUID) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Salary{}).
		Where("user_id = ? AND month = ? AND id <> ?", userID, month, except).
		Count(&n).Error
	if err != nil {
		return apperr.Internal(fmt.Errorf("checking salary month: %w", err))
	}
	if n > 0 {
		return apperr.Validation(fmt.Sprintf("Salary record for %s already exists for this user", month))
	}
	return nil
}

func (s *Service) seal(notes string) (string, error) {
	if notes == "" {
		return "", nil
	}
	if s.sealer == nil {
		return "", apperr.Validation("Salary notes need an encryption key to be configured")
	}
	sealed, err := s.sealer.SealString(notes)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("sealing notes: %w", err))
	}
	return sealed, nil
}

func (s *Service) open(salary *models.Salary) (*SalaryView, error) {
	v := &SalaryView{Salary: salary}
	if salary.NotesSealed == "" || s.sealer == nil {
		return v, nil
	}
	notes, err := s.sealer.OpenString(salary.NotesSealed)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("opening notes of salary %s: %w", salary.ID, err))
	}
	v.Notes = notes
	return v, nil
}

func currencyOrDefault(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
