package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/pkg/util"
)

type MonthStats struct {
	Month    string                         `json:"month"`
	Salaries float64                        `json:"total_salaries"`
	Expenses float64                        `json:"total_expenses"`
	ByType   map[models.ExpenseType]float64 `json:"by_type"`
}

type Stats struct {
	Year          int          `json:"year"`
	TotalSalaries float64      `json:"total_salaries"`
	TotalExpenses float64      `json:"total_expenses"`
	GrandTotal    float64      `json:"grand_total"`
	Monthly       []MonthStats `json:"monthly_breakdown"`
}

// Stats totals one calendar year. Months with neither salaries nor expenses
// are left out of the breakdown.
func (s *Service) Stats(ctx context.Context, year int, actor policy.Actor) (*Stats, error) {
	if err := privileged(actor, "view expense stats"); err != nil {
		return nil, err
	}
	if year < 1970 || year > 9999 {
		return nil, apperr.Validation("Invalid year")
	}

	var salaryRows []struct {
		Month string
		Total float64
	}
	err := s.db.WithContext(ctx).Model(&models.Salary{}).
		Select("month, SUM(amount) AS total").
		Where("month LIKE ?", fmt.Sprintf("%04d-%%", year)).
		Group("month").
		Scan(&salaryRows).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("summing salaries: %w", err))
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	var expenses []models.OfficeExpense
	err = s.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0)).
		Find(&expenses).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("loading expenses: %w", err))
	}

	months := map[string]*MonthStats{}
	month := func(key string) *MonthStats {
		m, ok := months[key]
		if !ok {
			m = &MonthStats{Month: key, ByType: map[models.ExpenseType]float64{}}
			for _, t := range models.ExpenseTypes {
				m.ByType[t] = 0
			}
			months[key] = m
		}
		return m
	}

	out := &Stats{Year: year}
	for _, r := range salaryRows {
		month(r.Month).Salaries += r.Total
		out.TotalSalaries += r.Total
	}
	for _, e := range expenses {
		m := month(util.MonthKey(e.Date.UTC()))
		m.Expenses += e.Amount
		m.ByType[e.Type] += e.Amount
		out.TotalExpenses += e.Amount
	}
	out.GrandTotal = out.TotalSalaries + out.TotalExpenses

	out.Monthly = make([]MonthStats, 0, len(months))
	for _, m := range months {
		out.Monthly = append(out.Monthly, *m)
	}
	sort.Slice(out.Monthly, func(i, j int) bool { return out.Monthly[i].Month < out.Monthly[j].Month })
	return out, nil
}
