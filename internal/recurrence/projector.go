// Package recurrence generates the predictable monthly records of an
// apartment: recurring expenses inferred from the historical ledger and
// the rent revenue anchored on the establishment's rent day. Templates
// are recomputed from scratch on every call and never persisted.
package recurrence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmachado/gestor/internal/calendar"
	"github.com/rmachado/gestor/internal/locale"
	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
)

// ErrNotApartment is returned when projection is requested for an
// establishment that is not an apartment. Nothing is written in that case.
var ErrNotApartment = errors.New("establishment is not an apartment")

// DefaultKeywords marks an expense as recurring when its category or
// description contains one of these (case-insensitive substring match).
// Unaccented spellings are listed alongside the PT-PT ones because
// imported data is inconsistent about diacritics.
var DefaultKeywords = []string{
	"condomínio", "condominio",
	"imi",
	"água", "agua",
	"eletricidade", "electricidade", "luz",
	"gás", "gas",
	"internet",
	"telefone",
	"seguro",
	"manutenção", "manutencao",
	"limpeza",
}

// Result reports one projection run. Per-record failures are soft: they
// land in Errors and the run keeps going.
type Result struct {
	Generated int      `json:"generated"`
	Errors    []string `json:"errors"`
}

// Projector infers recurring templates for an apartment and materializes
// them as ledger records over a date range.
type Projector struct {
	store    storage.Store
	keywords []string
}

// New creates a Projector with the given recurring-cost keywords. A nil
// slice selects DefaultKeywords.
func New(store storage.Store, keywords []string) *Projector {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &Projector{store: store, keywords: keywords}
}

// template is one inferred recurring record: the fields to copy plus the
// day of month it falls due.
type template struct {
	category    string
	description string
	amount      decimal.Decimal
	day         int
	supplierID  *int64
	notes       string
}

// Project generates the recurring records of the apartment identified by
// establishmentID whose due dates fall inside [start, end]. Reruns over
// the same range are idempotent: dates already covered by an existing
// record are skipped. Returns the number of records created plus soft
// errors; a missing or non-apartment establishment is a hard failure with
// zero side effects.
func (p *Projector) Project(ctx context.Context, establishmentID int64, start, end time.Time) (*Result, error) {
	est, err := p.store.GetEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load establishment %d: %w", establishmentID, err)
	}
	if !est.IsApartment() {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotApartment, est.Name, est.Category)
	}

	start = calendar.Normalize(start)
	end = calendar.Normalize(end)

	result := &Result{}

	templates, err := p.expenseTemplates(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	for _, tpl := range templates {
		p.projectExpense(ctx, est, tpl, start, end, result)
	}

	if rent, ok, err := p.rentTemplate(ctx, est); err != nil {
		return nil, err
	} else if ok {
		p.projectRent(ctx, est, rent, start, end, result)
	}

	return result, nil
}

// expenseTemplates scans the apartment's ledger newest-first and keeps the
// most recent occurrence of each recurring (category, description) pair.
func (p *Projector) expenseTemplates(ctx context.Context, establishmentID int64) ([]template, error) {
	expenses, err := p.store.ListExpensesByEstablishment(ctx, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense history: %w", err)
	}

	seen := make(map[string]bool)
	var templates []template
	for i := range expenses {
		e := &expenses[i]
		if !p.isRecurring(e.Category, e.Description) {
			continue
		}
		key := strings.ToLower(e.Category) + "\x00" + strings.ToLower(e.Description)
		if seen[key] {
			continue
		}
		seen[key] = true

		day := e.Date.Day()
		if e.DueDate != nil {
			day = e.DueDate.Day()
		}
		templates = append(templates, template{
			category:    e.Category,
			description: e.Description,
			amount:      e.Amount,
			day:         day,
			supplierID:  e.SupplierID,
			notes:       e.Notes,
		})
	}
	return templates, nil
}

func (p *Projector) isRecurring(category, description string) bool {
	haystack := strings.ToLower(category + " " + description)
	for _, kw := range p.keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// rentTemplate builds the single revenue template from the apartment's
// rent day. The amount is the maximum net revenue ever recorded for the
// establishment, falling back to the configured rent amount when the
// revenue history is empty.
func (p *Projector) rentTemplate(ctx context.Context, est *models.Establishment) (template, bool, error) {
	if est.RentDay == nil {
		return template{}, false, nil
	}

	history, err := p.store.ListRevenueByEstablishment(ctx, est.ID)
	if err != nil {
		return template{}, false, fmt.Errorf("failed to load revenue history: %w", err)
	}

	var amount decimal.Decimal
	for i := range history {
		if history[i].Net.GreaterThan(amount) {
			amount = history[i].Net
		}
	}
	if amount.IsZero() {
		if est.RentAmount == nil {
			return template{}, false, nil
		}
		amount = *est.RentAmount
	}

	return template{description: "Renda", amount: amount, day: *est.RentDay}, true, nil
}

// projectExpense walks the months of [start, end], realizes the template's
// day in each month and creates the expenses that do not exist yet.
func (p *Projector) projectExpense(ctx context.Context, est *models.Establishment, tpl template, start, end time.Time, result *Result) {
	for _, due := range p.dueDates(tpl.day, start, end) {
		_, err := p.store.FindExpense(ctx, est.ID, due, tpl.category, tpl.description)
		if err == nil {
			continue // already covered
		}
		if !errors.Is(err, storage.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("expense %q on %s: %v", tpl.category, locale.FormatISODate(due), err))
			continue
		}

		dueDate := due
		e := &models.Expense{
			Date:            due,
			DueDate:         &dueDate,
			EstablishmentID: &est.ID,
			SupplierID:      tpl.supplierID,
			Category:        tpl.category,
			Description:     tpl.description,
			Amount:          tpl.amount,
			Notes:           tpl.notes,
		}
		if err := p.store.CreateExpense(ctx, e); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("expense %q on %s: %v", tpl.category, locale.FormatISODate(due), err))
			continue
		}
		result.Generated++
	}
}

func (p *Projector) projectRent(ctx context.Context, est *models.Establishment, tpl template, start, end time.Time, result *Result) {
	for _, due := range p.dueDates(tpl.day, start, end) {
		_, err := p.store.FindRevenue(ctx, est.ID, due)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("rent on %s: %v", locale.FormatISODate(due), err))
			continue
		}

		r := &models.Revenue{
			Date:            due,
			EstablishmentID: &est.ID,
			Gross:           tpl.amount,
			Net:             tpl.amount,
			Notes:           tpl.description,
		}
		if err := p.store.CreateRevenue(ctx, r); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("rent on %s: %v", locale.FormatISODate(due), err))
			continue
		}
		result.Generated++
	}
}

// dueDates realizes a day-of-month over every month touched by
// [start, end], clamped to short months, keeping only dates inside the
// range.
func (p *Projector) dueDates(day int, start, end time.Time) []time.Time {
	var dates []time.Time
	for cursor := calendar.Date(start.Year(), start.Month(), 1); !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		y, m := cursor.Year(), cursor.Month()
		due := calendar.Date(y, m, calendar.ClampDay(y, m, day))
		if due.Before(start) || due.After(end) {
			continue
		}
		dates = append(dates, due)
	}
	return dates
}
