// Package reports aggregates the ledger into management summaries.
package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmachado/gestor/internal/calendar"
	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
)

// SupplierSpend is one row of the supplier ranking: total spend with a
// supplier inside the report month, largest first.
type SupplierSpend struct {
	SupplierID int64           `json:"supplier_id"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// ObligationDue is a tax obligation that falls due inside the report
// month, with its realized date.
type ObligationDue struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Monthly is the month summary: revenue and expense totals, the
// projected salary bill, obligations falling due and the supplier
// ranking.
type Monthly struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	RevenueGross decimal.Decimal `json:"revenue_gross"`
	RevenueFees  decimal.Decimal `json:"revenue_fees"`
	RevenueNet   decimal.Decimal `json:"revenue_net"`

	ExpensesTotal   decimal.Decimal `json:"expenses_total"`
	ExpensesPaid    decimal.Decimal `json:"expenses_paid"`
	ExpensesPending decimal.Decimal `json:"expenses_pending"`

	// Balance is net revenue minus total expenses.
	Balance decimal.Decimal `json:"balance"`

	SalariesProjected decimal.Decimal `json:"salaries_projected"`

	Obligations []ObligationDue `json:"obligations"`
	Suppliers   []SupplierSpend `json:"suppliers"`
}

// Reporter computes summaries from the store.
type Reporter struct {
	store storage.Store
}

// New creates a Reporter backed by the given store.
func New(store storage.Store) *Reporter {
	return &Reporter{store: store}
}

// MonthlyReport builds the summary for one calendar month, optionally
// restricted to a single establishment. Obligations and salaries are
// projected, not read from the ledger, so the report is meaningful
// before the month's records exist.
func (r *Reporter) MonthlyReport(ctx context.Context, year int, month time.Month, establishmentID *int64) (*Monthly, error) {
	start := calendar.Date(year, month, 1)
	end := calendar.Date(year, month, calendar.LastDay(year, month))

	report := &Monthly{Year: year, Month: month}

	revenue, err := r.store.ListRevenueByDateRange(ctx, start, end, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue: %w", err)
	}
	for i := range revenue {
		report.RevenueGross = report.RevenueGross.Add(revenue[i].Gross)
		report.RevenueFees = report.RevenueFees.Add(revenue[i].Fees)
		report.RevenueNet = report.RevenueNet.Add(revenue[i].Net)
	}

	expenses, err := r.store.ListExpensesByDateRange(ctx, start, end, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	spend := make(map[int64]decimal.Decimal)
	for i := range expenses {
		e := &expenses[i]
		report.ExpensesTotal = report.ExpensesTotal.Add(e.Amount)
		if e.Paid {
			report.ExpensesPaid = report.ExpensesPaid.Add(e.Amount)
		} else {
			report.ExpensesPending = report.ExpensesPending.Add(e.Amount)
		}
		if e.SupplierID != nil {
			spend[*e.SupplierID] = spend[*e.SupplierID].Add(e.Amount)
		}
	}
	report.Balance = report.RevenueNet.Sub(report.ExpensesTotal)

	if report.SalariesProjected, err = r.projectedSalaries(ctx, establishmentID); err != nil {
		return nil, err
	}
	if report.Obligations, err = r.obligationsDue(ctx, year, month); err != nil {
		return nil, err
	}
	if report.Suppliers, err = r.supplierRanking(ctx, spend); err != nil {
		return nil, err
	}
	return report, nil
}

// projectedSalaries totals the base amount of active fixed-pay employees
// whose establishment has a rent day (the salary-due anchor).
func (r *Reporter) projectedSalaries(ctx context.Context, establishmentID *int64) (decimal.Decimal, error) {
	var total decimal.Decimal

	employees, err := r.store.ListEmployees(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to load employees: %w", err)
	}
	establishments, err := r.store.ListEstablishments(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to load establishments: %w", err)
	}
	hasRentDay := make(map[int64]bool, len(establishments))
	for i := range establishments {
		if establishments[i].RentDay != nil {
			hasRentDay[establishments[i].ID] = true
		}
	}

	for i := range employees {
		emp := &employees[i]
		if !emp.Active || emp.PaymentType != models.PaymentFixed || emp.EstablishmentID == nil {
			continue
		}
		if establishmentID != nil && *emp.EstablishmentID != *establishmentID {
			continue
		}
		if !hasRentDay[*emp.EstablishmentID] {
			continue
		}
		total = total.Add(emp.BaseAmount)
	}
	return total, nil
}

// obligationsDue realizes each obligation's due day inside the month:
// monthly always, quarterly only in quarter-start months, annual only in
// January.
func (r *Reporter) obligationsDue(ctx context.Context, year int, month time.Month) ([]ObligationDue, error) {
	obligations, err := r.store.ListObligations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load obligations: %w", err)
	}

	var due []ObligationDue
	for i := range obligations {
		o := &obligations[i]
		day, ok := o.DueDay()
		if !ok {
			continue
		}
		switch o.Periodicity {
		case models.PeriodicityQuarterly:
			if !calendar.IsQuarterStartMonth(month) {
				continue
			}
		case models.PeriodicityAnnual:
			if month != time.January {
				continue
			}
		}
		due = append(due, ObligationDue{
			Name: o.Name,
			Date: calendar.Date(year, month, calendar.ClampDay(year, month, day)),
		})
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Date.Before(due[j].Date) })
	return due, nil
}

func (r *Reporter) supplierRanking(ctx context.Context, spend map[int64]decimal.Decimal) ([]SupplierSpend, error) {
	if len(spend) == 0 {
		return nil, nil
	}

	ranking := make([]SupplierSpend, 0, len(spend))
	for id, total := range spend {
		row := SupplierSpend{SupplierID: id, Total: total}
		if sup, err := r.store.GetSupplier(ctx, id); err == nil {
			row.Name = sup.Name
		}
		ranking = append(ranking, row)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].Total.Equal(ranking[j].Total) {
			return ranking[i].Total.GreaterThan(ranking[j].Total)
		}
		return ranking[i].SupplierID < ranking[j].SupplierID
	})
	return ranking, nil
}
