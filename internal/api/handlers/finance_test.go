package handlers_test

import (
	"net/http"
	"testing"

	"github.com/adnan-tnd/flow-core/internal/api/handlers"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/finance"
	"github.com/adnan-tnd/flow-core/internal/testutil"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type salaryBody struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Month    string    `json:"month"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
	Notes    string    `json:"notes"`
}

func setupFinanceTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	svc, tc := newTestServices(t)
	h := handlers.NewFinanceHandler(svc.finance, util.DiscardLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/office-expense", func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Post("/salary/create", h.CreateSalary)
		r.Patch("/salary/update/{id}", h.UpdateSalary)
		r.Delete("/salary/delete/{id}", h.DeleteSalary)
		r.Get("/salaries", h.ListSalaries)
		r.Get("/salaries/my", h.MySalaries)
		r.Post("/expense/create", h.CreateExpense)
		r.Patch("/expense/update/{id}", h.UpdateExpense)
		r.Delete("/expense/delete/{id}", h.DeleteExpense)
		r.Get("/expenses", h.ListExpenses)
		r.Get("/stats", h.Stats)
	})

	return r, tc
}

func TestFinanceHandler_Salaries(t *testing.T) {
	router, tc := setupFinanceTestRouter(t)
	defer tc.Cleanup()

	member, memberToken := tc.NewUser(t, models.RoleMember)

	var salary salaryBody
	do(t, router, "POST", "/api/v1/office-expense/salary/create", tc.Token, map[string]interface{}{
		"userId":   member.ID.String(),
		"month":    "2026-03",
		"amount":   4200.5,
		"currency": " usd ",
		"notes":    "includes bonus",
	}, http.StatusCreated, &salary)
	assert.Equal(t, "USD", salary.Currency)
	assert.Equal(t, "includes bonus", salary.Notes)

	tests := []struct {
		name       string
		token      string
		body       map[string]interface{}
		wantStatus int
	}{
		{"duplicate month", tc.Token, map[string]interface{}{"userId": member.ID.String(), "month": "2026-03", "amount": 1}, http.StatusBadRequest},
		{"bad month", tc.Token, map[string]interface{}{"userId": member.ID.String(), "month": "2026-13", "amount": 1}, http.StatusBadRequest},
		{"non positive amount", tc.Token, map[string]interface{}{"userId": member.ID.String(), "month": "2026-04", "amount": 0}, http.StatusBadRequest},
		{"unknown user", tc.Token, map[string]interface{}{"userId": uuid.NewString(), "month": "2026-04", "amount": 10}, http.StatusBadRequest},
		{"member forbidden", memberToken, map[string]interface{}{"userId": member.ID.String(), "month": "2026-04", "amount": 10}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, router, "POST", "/api/v1/office-expense/salary/create", tt.token, tt.body, tt.wantStatus, nil)
		})
	}

	t.Run("member sees own salaries with notes", func(t *testing.T) {
		var mine []salaryBody
		do(t, router, "GET", "/api/v1/office-expense/salaries/my", memberToken, nil, http.StatusOK, &mine)
		require.Len(t, mine, 1)
		assert.Equal(t, "includes bonus", mine[0].Notes)
	})

	t.Run("filtered list", func(t *testing.T) {
		var list []salaryBody
		do(t, router, "GET", "/api/v1/office-expense/salaries?userId="+member.ID.String()+"&month=2026-03", tc.Token, nil, http.StatusOK, &list)
		assert.Len(t, list, 1)

		list = nil
		do(t, router, "GET", "/api/v1/office-expense/salaries?month=2026-05", tc.Token, nil, http.StatusOK, &list)
		assert.Empty(t, list)

		do(t, router, "GET", "/api/v1/office-expense/salaries", memberToken, nil, http.StatusForbidden, nil)
	})

	t.Run("update and delete", func(t *testing.T) {
		path := "/api/v1/office-expense/salary/"
		var updated salaryBody
		do(t, router, "PATCH", path+"update/"+salary.ID.String(), tc.Token, map[string]interface{}{"amount": 5000}, http.StatusOK, &updated)
		assert.Equal(t, 5000.0, updated.Amount)

		do(t, router, "DELETE", path+"delete/"+salary.ID.String(), tc.Token, nil, http.StatusOK, nil)
		do(t, router, "DELETE", path+"delete/"+salary.ID.String(), tc.Token, nil, http.StatusBadRequest, nil)
	})
}

func TestFinanceHandler_ExpensesAndStats(t *testing.T) {
	router, tc := setupFinanceTestRouter(t)
	defer tc.Cleanup()

	_, memberToken := tc.NewUser(t, models.RoleMember)
	manager, _ := tc.NewUser(t, models.RoleManager)

	create := func(title, typ, date string, amount float64) models.OfficeExpense {
		var e models.OfficeExpense
		do(t, router, "POST", "/api/v1/office-expense/expense/create", tc.Token, map[string]interface{}{
			"title": title, "amount": amount, "type": typ, "date": date,
		}, http.StatusCreated, &e)
		return e
	}
	rent := create("Office rent", "RENT", "2026-01-10", 1000)
	create("Power bill", "ELECTRICITY", "2026-01-20", 200)
	create("Train", "TRAVEL", "2026-02-02", 50)
	create("Old rent", "RENT", "2025-12-01", 900)

	do(t, router, "POST", "/api/v1/office-expense/salary/create", tc.Token, map[string]interface{}{
		"userId": manager.ID.String(), "month": "2026-01", "amount": 3000,
	}, http.StatusCreated, nil)

	t.Run("validation", func(t *testing.T) {
		do(t, router, "POST", "/api/v1/office-expense/expense/create", tc.Token,
			map[string]interface{}{"title": "x", "amount": 1, "type": "FOOD", "date": "2026-01-01"}, http.StatusBadRequest, nil)
		do(t, router, "POST", "/api/v1/office-expense/expense/create", tc.Token,
			map[string]interface{}{"title": "x", "amount": 1, "type": "OTHER"}, http.StatusBadRequest, nil)
		do(t, router, "POST", "/api/v1/office-expense/expense/create", memberToken,
			map[string]interface{}{"title": "x", "amount": 1, "type": "OTHER", "date": "2026-01-01"}, http.StatusForbidden, nil)
	})

	t.Run("list filters", func(t *testing.T) {
		var list []models.OfficeExpense
		do(t, router, "GET", "/api/v1/office-expense/expenses?type=RENT", tc.Token, nil, http.StatusOK, &list)
		assert.Len(t, list, 2)

		list = nil
		do(t, router, "GET", "/api/v1/office-expense/expenses?startDate=2026-01-01&endDate=2026-01-31", tc.Token, nil, http.StatusOK, &list)
		assert.Len(t, list, 2)

		do(t, router, "GET", "/api/v1/office-expense/expenses?startDate=yesterday", tc.Token, nil, http.StatusBadRequest, nil)
	})

	t.Run("stats for a year", func(t *testing.T) {
		var stats finance.Stats
		do(t, router, "GET", "/api/v1/office-expense/stats?year=2026", tc.Token, nil, http.StatusOK, &stats)

		assert.Equal(t, 2026, stats.Year)
		assert.Equal(t, 3000.0, stats.TotalSalaries)
		assert.Equal(t, 1250.0, stats.TotalExpenses)
		assert.Equal(t, 4250.0, stats.GrandTotal)
		require.Len(t, stats.Monthly, 2)
		assert.Equal(t, "2026-01", stats.Monthly[0].Month)
		assert.Equal(t, 1200.0, stats.Monthly[0].Expenses)
		assert.Equal(t, 3000.0, stats.Monthly[0].Salaries)
	})

	t.Run("stats rejects bad year and members", func(t *testing.T) {
		do(t, router, "GET", "/api/v1/office-expense/stats?year=soon", tc.Token, nil, http.StatusBadRequest, nil)
		do(t, router, "GET", "/api/v1/office-expense/stats", memberToken, nil, http.StatusForbidden, nil)
	})

	t.Run("update and delete", func(t *testing.T) {
		var updated models.OfficeExpense
		do(t, router, "PATCH", "/api/v1/office-expense/expense/update/"+rent.ID.String(), tc.Token,
			map[string]interface{}{"amount": 1100, "type": "OTHER"}, http.StatusOK, &updated)
		assert.Equal(t, 1100.0, updated.Amount)
		assert.Equal(t, models.ExpenseType("OTHER"), updated.Type)

		do(t, router, "DELETE", "/api/v1/office-expense/expense/delete/"+rent.ID.String(), tc.Token, nil, http.StatusOK, nil)
	})
}
