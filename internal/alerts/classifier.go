// Package alerts computes the daily payment report: which pending
// expenses, projected salaries and projected tax obligations are overdue,
// due today or due within the next week. The classification is
// recomputed from a fresh repository read on every call and is handed to
// an email sender by the daily scheduler.
package alerts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rmachado/gestor/internal/calendar"
	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
)

// horizonDays is how far past today the classifier looks.
const horizonDays = 7

// Classifier builds the daily alert report from repository snapshots.
type Classifier struct {
	store storage.Store
}

// NewClassifier creates a Classifier backed by the given store.
func NewClassifier(store storage.Store) *Classifier {
	return &Classifier{store: store}
}

// Gather classifies every pending payment relative to today. Overdue
// holds pending expenses due strictly before today; Today and Next7 hold
// expenses, salaries and obligations due on today or inside
// (today, today+7]. The call reads but never writes.
func (c *Classifier) Gather(ctx context.Context, today time.Time) (*models.AlertReport, error) {
	today = calendar.Normalize(today)
	horizon := today.AddDate(0, 0, horizonDays)

	currency, err := c.store.GetSetting(ctx, storage.SettingCurrency, "€")
	if err != nil {
		return nil, fmt.Errorf("failed to read currency: %w", err)
	}

	report := &models.AlertReport{Date: today, Currency: currency}

	estNames, err := c.establishmentNames(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.classifyExpenses(ctx, report, estNames, today, horizon); err != nil {
		return nil, err
	}
	if err := c.projectSalaries(ctx, report, estNames, today, horizon); err != nil {
		return nil, err
	}
	if err := c.projectObligations(ctx, report, today, horizon); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Classifier) establishmentNames(ctx context.Context) (map[int64]string, error) {
	establishments, err := c.store.ListEstablishments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load establishments: %w", err)
	}
	names := make(map[int64]string, len(establishments))
	for i := range establishments {
		names[establishments[i].ID] = establishments[i].Name
	}
	return names, nil
}

// classifyExpenses partitions pending expenses due up to the horizon into
// the three buckets by comparing the due date with today.
func (c *Classifier) classifyExpenses(ctx context.Context, report *models.AlertReport, estNames map[int64]string, today, horizon time.Time) error {
	pending, err := c.store.ListPendingExpenses(ctx, &horizon, nil)
	if err != nil {
		return fmt.Errorf("failed to load pending expenses: %w", err)
	}

	for i := range pending {
		e := &pending[i]
		due := calendar.Normalize(*e.DueDate)

		item := models.AlertItem{
			Type:        models.AlertExpense,
			Date:        due,
			Description: expenseLabel(e),
			Amount:      e.Amount,
			ExpenseID:   e.ID,
		}
		if e.EstablishmentID != nil {
			item.Establishment = estNames[*e.EstablishmentID]
		}

		switch {
		case due.Before(today):
			report.Overdue = append(report.Overdue, item)
		case due.Equal(today):
			report.Today = append(report.Today, item)
		default:
			report.Next7 = append(report.Next7, item)
		}
	}
	return nil
}

func expenseLabel(e *models.Expense) string {
	switch {
	case e.Category != "" && e.Description != "":
		return e.Category + " - " + e.Description
	case e.Category != "":
		return e.Category
	default:
		return e.Description
	}
}

// projectSalaries emits a salary-due item for every active fixed-pay
// employee whose establishment has a rent day matching a day inside
// [today, today+7].
func (c *Classifier) projectSalaries(ctx context.Context, report *models.AlertReport, estNames map[int64]string, today, horizon time.Time) error {
	employees, err := c.store.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("failed to load employees: %w", err)
	}
	establishments, err := c.store.ListEstablishments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load establishments: %w", err)
	}
	rentDays := make(map[int64]int, len(establishments))
	for i := range establishments {
		if establishments[i].RentDay != nil {
			rentDays[establishments[i].ID] = *establishments[i].RentDay
		}
	}

	for i := range employees {
		emp := &employees[i]
		if !emp.Active || emp.PaymentType != models.PaymentFixed || emp.EstablishmentID == nil {
			continue
		}
		rentDay, ok := rentDays[*emp.EstablishmentID]
		if !ok {
			continue
		}

		for _, day := range calendar.DaysBetween(today, horizon) {
			if day.Day() != rentDay {
				continue
			}
			item := models.AlertItem{
				Type:          models.AlertSalary,
				Date:          day,
				Description:   "Salário - " + emp.Name,
				Establishment: estNames[*emp.EstablishmentID],
				Amount:        emp.BaseAmount,
			}
			if day.Equal(today) {
				report.Today = append(report.Today, item)
			} else {
				report.Next7 = append(report.Next7, item)
			}
		}
	}
	return nil
}

// projectObligations walks every day of [today, today+7] and emits each
// obligation on the days it is due: monthly on its due day, quarterly on
// its due day in quarter-start months, annual on every January day inside
// the configured IMI window.
func (c *Classifier) projectObligations(ctx context.Context, report *models.AlertReport, today, horizon time.Time) error {
	obligations, err := c.store.ListObligations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load obligations: %w", err)
	}
	if len(obligations) == 0 {
		return nil
	}

	windowStart, err := c.daySetting(ctx, storage.SettingIMIWindowStart, 1)
	if err != nil {
		return err
	}
	windowEnd, err := c.daySetting(ctx, storage.SettingIMIWindowEnd, 31)
	if err != nil {
		return err
	}

	for i := range obligations {
		o := &obligations[i]
		dueDay, ok := o.DueDay()
		if !ok {
			continue
		}

		for _, day := range calendar.DaysBetween(today, horizon) {
			if !obligationDue(o.Periodicity, dueDay, day, windowStart, windowEnd) {
				continue
			}
			item := models.AlertItem{
				Type:        models.AlertObligation,
				Date:        day,
				Description: o.Name,
			}
			if day.Equal(today) {
				report.Today = append(report.Today, item)
			} else {
				report.Next7 = append(report.Next7, item)
			}
		}
	}
	return nil
}

func obligationDue(p models.Periodicity, dueDay int, day time.Time, windowStart, windowEnd int) bool {
	switch p {
	case models.PeriodicityMonthly:
		return day.Day() == dueDay
	case models.PeriodicityQuarterly:
		return calendar.IsQuarterStartMonth(day.Month()) && day.Day() == dueDay
	case models.PeriodicityAnnual:
		return day.Month() == time.January && day.Day() >= windowStart && day.Day() <= windowEnd
	}
	return false
}

func (c *Classifier) daySetting(ctx context.Context, key string, fallback int) (int, error) {
	raw, err := c.store.GetSetting(ctx, key, strconv.Itoa(fallback))
	if err != nil {
		return 0, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 31 {
		return fallback, nil
	}
	return n, nil
}
