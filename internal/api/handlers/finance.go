package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adnan-tnd/flow-core/internal/api/dto"
	"github.com/adnan-tnd/flow-core/internal/api/middleware"
	"github.com/adnan-tnd/flow-core/internal/api/validation"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/finance"
	"github.com/google/uuid"
)

type FinanceHandler struct {
	finance *finance.Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewFinanceHandler(finance *finance.Service, logger *slog.Logger) *FinanceHandler {
	return &FinanceHandler{finance: finance, logger: logger, now: time.Now}
}

func (h *FinanceHandler) CreateSalary(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSalaryRequest
	if !decode(w, r, &req) {
		return
	}

	salary, err := h.finance.CreateSalary(r.Context(), finance.SalaryInput{
		UserID:   uuid.MustParse(req.UserID),
		Month:    req.Month,
		Amount:   req.Amount,
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
		Notes:    validation.CleanText(req.Notes),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, salary)
}

func (h *FinanceHandler) UpdateSalary(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateSalaryRequest
	if !decode(w, r, &req) {
		return
	}

	in := finance.SalaryUpdate{
		UserID: optionalID(req.UserID),
		Month:  req.Month,
		Amount: req.Amount,
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		in.Currency = &currency
	}
	if req.Notes != nil {
		notes := validation.CleanText(*req.Notes)
		in.Notes = &notes
	}

	salary, err := h.finance.UpdateSalary(r.Context(), id, in, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, salary)
}

func (h *FinanceHandler) DeleteSalary(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.finance.DeleteSalary(r.Context(), id, middleware.GetActor(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Salary deleted"})
}

// ListSalaries accepts optional userId and month filters.
func (h *FinanceHandler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId")
	if !ok {
		return
	}

	list, err := h.finance.ListSalaries(r.Context(), finance.SalaryFilter{
		UserID: userID,
		Month:  r.URL.Query().Get("month"),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *FinanceHandler) MySalaries(w http.ResponseWriter, r *http.Request) {
	list, err := h.finance.MySalaries(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *FinanceHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExpenseRequest
	if !decode(w, r, &req) {
		return
	}

	date, _ := validation.ParseDate(*req.Date)
	expense, err := h.finance.CreateExpense(r.Context(), finance.ExpenseInput{
		Title:  strings.TrimSpace(req.Title),
		Amount: req.Amount,
		Type:   models.ExpenseType(req.Type),
		Date:   date,
		Notes:  validation.CleanText(req.Notes),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (h *FinanceHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateExpenseRequest
	if !decode(w, r, &req) {
		return
	}

	in := finance.ExpenseUpdate{
		Title:  req.Title,
		Amount: req.Amount,
		Date:   optionalDate(req.Date),
	}
	if req.Type != nil {
		t := models.ExpenseType(*req.Type)
		in.Type = &t
	}
	if req.Notes != nil {
		notes := validation.CleanText(*req.Notes)
		in.Notes = &notes
	}

	expense, err := h.finance.UpdateExpense(r.Context(), id, in, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

func (h *FinanceHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.finance.DeleteExpense(r.Context(), id, middleware.GetActor(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Expense deleted"})
}

// ListExpenses accepts type, createdBy, startDate and endDate filters.
func (h *FinanceHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	createdBy, ok := queryID(w, r, "createdBy")
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := finance.ExpenseFilter{
		Type:      models.ExpenseType(q.Get("type")),
		CreatedBy: createdBy,
	}
	for name, dst := range map[string]**time.Time{"startDate": &filter.From, "endDate": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, ok := validation.ParseDate(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid " + name + " format"})
			return
		}
		*dst = &t
	}

	list, err := h.finance.ListExpenses(r.Context(), filter, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Stats defaults to the current year.
func (h *FinanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	year := h.now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid year"})
			return
		}
		year = y
	}

	stats, err := h.finance.Stats(r.Context(), year, middleware.GetActor(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
