package dto

import (
	"strings"

	"github.com/adnan-tnd/flow-core/internal/api/validation"
	"github.com/adnan-tnd/flow-core/internal/database/models"
)

type CreateSalaryRequest struct {
	UserID   string  `json:"userId"`
	Month    string  `json:"month"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

func (r CreateSalaryRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if !validation.IsValidUUID(r.UserID) {
		errors["userId"] = "Invalid ID format"
	}
	if !validation.IsValidMonth(r.Month) {
		errors["month"] = "Month must be in YYYY-MM format"
	}
	if r.Amount <= 0 {
		errors["amount"] = "Amount must be positive"
	}
	return errors
}

type UpdateSalaryRequest struct {
	UserID   *string  `json:"userId,omitempty"`
	Month    *string  `json:"month,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	Currency *string  `json:"currency,omitempty"`
	Notes    *string  `json:"notes,omitempty"`
}

func (r UpdateSalaryRequest) Validate() map[string]string {
	errors := make(map[string]string)
	checkOptionalID(errors, "userId", r.UserID)
	if r.Month != nil && !validation.IsValidMonth(*r.Month) {
		errors["month"] = "Month must be in YYYY-MM format"
	}
	if r.Amount != nil && *r.Amount <= 0 {
		errors["amount"] = "Amount must be positive"
	}
	return errors
}

type CreateExpenseRequest struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
	Date   *string `json:"date"`
	Notes  string  `json:"notes,omitempty"`
}

func (r CreateExpenseRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.Title) == "" {
		errors["title"] = "Title is required"
	}
	if r.Amount <= 0 {
		errors["amount"] = "Amount must be positive"
	}
	if !models.ExpenseType(r.Type).Valid() {
		errors["type"] = "Type must be one of ELECTRICITY, RENT, SUPPLIES, TRAVEL, OTHER"
	}
	checkDate(errors, "date", r.Date, true)
	return errors
}

type UpdateExpenseRequest struct {
	Title  *string  `json:"title,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Type   *string  `json:"type,omitempty"`
	Date   *string  `json:"date,omitempty"`
	Notes  *string  `json:"notes,omitempty"`
}

func (r UpdateExpenseRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		errors["title"] = "Title cannot be empty"
	}
	if r.Amount != nil && *r.Amount <= 0 {
		errors["amount"] = "Amount must be positive"
	}
	if r.Type != nil && !models.ExpenseType(*r.Type).Valid() {
		errors["type"] = "Type must be one of ELECTRICITY, RENT, SUPPLIES, TRAVEL, OTHER"
	}
	checkDate(errors, "date", r.Date, false)
	return errors
}
