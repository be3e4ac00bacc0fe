package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExpenseInput struct {
	Title  string
	Amount float64
	Type   models.ExpenseType
	Date   time.Time
	Notes  string
}

type ExpenseUpdate struct {
	Title  *string
	Amount *float64
	Type   *models.ExpenseType
	Date   *time.Time
	Notes  *string
}

type ExpenseFilter struct {
	Type      models.ExpenseType
	CreatedBy *uuid.UUID
	From      *time.Time
	To        *time.Time
}

func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput, actor policy.Actor) (*models.OfficeExpense, error) {
	if err := privileged(actor, "create expense records"); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("Amount must be positive")
	}
	if !in.Type.Valid() {
		return nil, apperr.Validation("Invalid expense type")
	}
	if in.Date.IsZero() {
		return nil, apperr.Validation("Date is required")
	}

	expense := &models.OfficeExpense{
		Title:       title,
		Amount:      in.Amount,
		Type:        in.Type,
		Date:        in.Date.UTC(),
		Notes:       in.Notes,
		CreatedByID: actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("creating expense: %w", err))
	}
	return expense, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseUpdate, actor policy.Actor) (*models.OfficeExpense, error) {
	if err := privileged(actor, "update expense records"); err != nil {
		return nil, err
	}
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("Title cannot be empty")
		}
		expense.Title = title
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperr.Validation("Amount must be positive")
		}
		expense.Amount = *in.Amount
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperr.Validation("Invalid expense type")
		}
		expense.Type = *in.Type
	}
	if in.Date != nil {
		expense.Date = in.Date.UTC()
	}
	if in.Notes != nil {
		expense.Notes = *in.Notes
	}

	if err := s.db.WithContext(ctx).Save(expense).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("updating expense: %w", err))
	}
	return expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID, actor policy.Actor) error {
	if err := privileged(actor, "delete expense records"); err != nil {
		return err
	}
	expense, err := s.loadExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(expense).Error; err != nil {
		return apperr.Internal(fmt.Errorf("deleting expense: %w", err))
	}
	return nil
}

func (s *Service) ListExpenses(ctx context.Context, f ExpenseFilter, actor policy.Actor) ([]models.OfficeExpense, error) {
	if err := privileged(actor, "view all expense records"); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx)
	if f.Type != "" {
		if !f.Type.Valid() {
			return nil, apperr.Validation("Invalid expense type")
		}
		q = q.Where("type = ?", f.Type)
	}
	if f.CreatedBy != nil {
		q = q.Where("created_by_id = ?", *f.CreatedBy)
	}
	if f.From != nil {
		q = q.Where("date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("date <= ?", f.To.UTC())
	}

	var expenses []models.OfficeExpense
	if err := q.Order("date DESC").Find(&expenses).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("listing expenses: %w", err))
	}
	return expenses, nil
}

func (s *Service) loadExpense(ctx context.Context, id uuid.UUID) (*models.OfficeExpense, error) {
	var expense models.OfficeExpense
	if err := s.db.WithContext(ctx).First(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Expense record")
		}
		return nil, apperr.Internal(fmt.Errorf("loading expense: %w", err))
	}
	return &expense, nil
}
