package finance_test

import (
	"context"
	"testing"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/directory"
	"github.com/adnan-tnd/flow-core/internal/finance"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/internal/testutil"
	"github.com/adnan-tnd/flow-core/pkg/crypto"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFinanceService(t *testing.T) (*finance.Service, *testutil.TestSetup) {
	t.Helper()
	ts := testutil.NewTestContext(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptor(key)
	require.NoError(t, err)

	return finance.NewService(ts.DB, directory.NewService(ts.DB), enc, util.DiscardLogger()), ts
}

func actorOf(u *models.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func TestSalaries(t *testing.T) {
	svc, ts := newFinanceService(t)
	ctx := context.Background()
	ceo := actorOf(ts.User)
	member, _ := ts.NewUser(t, models.RoleMember)

	salary, err := svc.CreateSalary(ctx, finance.SalaryInput{
		UserID: member.ID, Month: "2026-01", Amount: 1500, Notes: "includes bonus",
	}, ceo)
	require.NoError(t, err)
	assert.Equal(t, finance.DefaultCurrency, salary.Currency)
	assert.Equal(t, "includes bonus", salary.Notes)

	t.Run("notes are sealed at rest", func(t *testing.T) {
		var row models.Salary
		require.NoError(t, ts.DB.First(&row, "id = ?", salary.ID).Error)
		assert.NotEmpty(t, row.NotesSealed)
		assert.NotContains(t, row.NotesSealed, "bonus")
	})

	t.Run("duplicate month is a validation error", func(t *testing.T) {
		_, err := svc.CreateSalary(ctx, finance.SalaryInput{UserID: member.ID, Month: "2026-01", Amount: 10}, ceo)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("input checks", func(t *testing.T) {
		tests := []struct {
			name string
			in   finance.SalaryInput
		}{
			{"bad month", finance.SalaryInput{UserID: member.ID, Month: "2026-13", Amount: 10}},
			{"non-positive amount", finance.SalaryInput{UserID: member.ID, Month: "2026-02", Amount: 0}},
			{"unknown user", finance.SalaryInput{UserID: uuid.New(), Month: "2026-02", Amount: 10}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateSalary(ctx, tt.in, ceo)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			})
		}
	})

	t.Run("member cannot manage salaries", func(t *testing.T) {
		_, err := svc.ListSalaries(ctx, finance.SalaryFilter{}, actorOf(member))
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("my salaries opens notes", func(t *testing.T) {
		mine, err := svc.MySalaries(ctx, actorOf(member))
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "includes bonus", mine[0].Notes)
	})

	t.Run("update keeps notes unless given", func(t *testing.T) {
		amount := 1600.0
		updated, err := svc.UpdateSalary(ctx, salary.ID, finance.SalaryUpdate{Amount: &amount}, ceo)
		require.NoError(t, err)
		assert.Equal(t, 1600.0, updated.Amount)
		assert.Equal(t, "includes bonus", updated.Notes)
	})

	require.NoError(t, svc.DeleteSalary(ctx, salary.ID, ceo))
	err = svc.DeleteSalary(ctx, salary.ID, ceo)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSalaryNotesWithoutKey(t *testing.T) {
	ts := testutil.NewTestContext(t)
	svc := finance.NewService(ts.DB, directory.NewService(ts.DB), nil, util.DiscardLogger())

	_, err := svc.CreateSalary(context.Background(), finance.SalaryInput{
		UserID: ts.User.ID, Month: "2026-01", Amount: 10, Notes: "secret",
	}, actorOf(ts.User))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestExpensesAndStats(t *testing.T) {
	svc, ts := newFinanceService(t)
	ctx := context.Background()
	ceo := actorOf(ts.User)
	member, _ := ts.NewUser(t, models.RoleMember)

	_, err := svc.CreateSalary(ctx, finance.SalaryInput{UserID: member.ID, Month: "2026-01", Amount: 1000}, ceo)
	require.NoError(t, err)
	_, err = svc.CreateSalary(ctx, finance.SalaryInput{UserID: ts.User.ID, Month: "2026-01", Amount: 3000}, ceo)
	require.NoError(t, err)
	_, err = svc.CreateSalary(ctx, finance.SalaryInput{UserID: member.ID, Month: "2025-12", Amount: 999}, ceo)
	require.NoError(t, err)

	expense := func(amount float64, typ models.ExpenseType, date time.Time) {
		t.Helper()
		_, err := svc.CreateExpense(ctx, finance.ExpenseInput{Title: "x", Amount: amount, Type: typ, Date: date}, ceo)
		require.NoError(t, err)
	}
	expense(200, models.ExpenseRent, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	expense(50, models.ExpenseSupplies, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	expense(70, models.ExpenseRent, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))

	_, err = svc.CreateExpense(ctx, finance.ExpenseInput{Title: "x", Amount: 1, Type: "FOOD", Date: time.Now()}, ceo)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	rent, err := svc.ListExpenses(ctx, finance.ExpenseFilter{Type: models.ExpenseRent}, ceo)
	require.NoError(t, err)
	assert.Len(t, rent, 2)

	stats, err := svc.Stats(ctx, 2026, ceo)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, stats.TotalSalaries)
	assert.Equal(t, 250.0, stats.TotalExpenses)
	assert.Equal(t, 4250.0, stats.GrandTotal)
	require.Len(t, stats.Monthly, 2)

	jan := stats.Monthly[0]
	assert.Equal(t, "2026-01", jan.Month)
	assert.Equal(t, 4000.0, jan.Salaries)
	assert.Equal(t, 200.0, jan.Expenses)
	assert.Equal(t, 200.0, jan.ByType[models.ExpenseRent])
	assert.Equal(t, 0.0, jan.ByType[models.ExpenseTravel])

	assert.Equal(t, "2026-03", stats.Monthly[1].Month)

	_, err = svc.Stats(ctx, 2026, actorOf(member))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
