package models

import (
	"time"

	"github.com/google/uuid"
)

type Salary struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_salary_user_month" json:"user_id"`
	Month       string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_salary_user_month" json:"month"` // YYYY-MM
	Amount      float64   `gorm:"not null" json:"amount"`
	Currency    string    `gorm:"type:varchar(3);not null" json:"currency"`
	NotesSealed string    `gorm:"type:text" json:"-"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
}

func (Salary) TableName() string {
	return "salaries"
}

type ExpenseType string

const (
	ExpenseElectricity ExpenseType = "ELECTRICITY"
	ExpenseRent        ExpenseType = "RENT"
	ExpenseSupplies    ExpenseType = "SUPPLIES"
	ExpenseTravel      ExpenseType = "TRAVEL"
	ExpenseOther       ExpenseType = "OTHER"
)

// ExpenseTypes in reporting order.
var ExpenseTypes = []ExpenseType{ExpenseElectricity, ExpenseRent, ExpenseSupplies, ExpenseTravel, ExpenseOther}

func (t ExpenseType) Valid() bool {
	for _, v := range ExpenseTypes {
		if v == t {
			return true
		}
	}
	return false
}

type OfficeExpense struct {
	Base
	Title       string      `gorm:"not null" json:"title"`
	Amount      float64     `gorm:"not null" json:"amount"`
	Type        ExpenseType `gorm:"type:varchar(16);not null;index" json:"type"`
	Date        time.Time   `gorm:"not null;index" json:"date"`
	Notes       string      `json:"notes,omitempty"`
	CreatedByID uuid.UUID   `gorm:"type:uuid;not null" json:"created_by"`
}

func (OfficeExpense) TableName() string {
	return "office_expenses"
}
