// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rmachado/gestor/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Well-known settings keys consumed by the core.
const (
	SettingCronHour       = "cron_hour"
	SettingCurrency       = "currency"
	SettingIMIWindowStart = "imi_window_start"
	SettingIMIWindowEnd   = "imi_window_end"
	SettingCSVBatchLimit  = "csv_batch_limit"
	SettingAlertsEmail    = "alerts_email"
)

// Store defines the repository operations the core depends on.
// This abstraction keeps the projector, classifier and transcoder
// independent of the backing database; swapping SQLite for anything else
// only touches the implementation package.
type Store interface {
	// Establishments.
	GetEstablishment(ctx context.Context, id int64) (*models.Establishment, error)
	GetEstablishmentByName(ctx context.Context, name string) (*models.Establishment, error)
	ListEstablishments(ctx context.Context) ([]models.Establishment, error)
	CreateEstablishment(ctx context.Context, e *models.Establishment) error

	// Suppliers.
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	CreateSupplier(ctx context.Context, s *models.Supplier) error

	// Employees.
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, e *models.Employee) error

	// Expenses. ListExpensesByEstablishment returns rows newest-first,
	// which is what recurrence template inference scans.
	CreateExpense(ctx context.Context, e *models.Expense) error
	ListExpensesByDateRange(ctx context.Context, start, end time.Time, establishmentID *int64) ([]models.Expense, error)
	ListExpensesByEstablishment(ctx context.Context, establishmentID int64) ([]models.Expense, error)
	// ListPendingExpenses returns unpaid expenses that carry a due date,
	// optionally capped at maxDueDate (inclusive).
	ListPendingExpenses(ctx context.Context, maxDueDate *time.Time, establishmentID *int64) ([]models.Expense, error)
	// FindExpense probes for an existing row by the recurrence identity
	// key (establishment, date, category, description).
	FindExpense(ctx context.Context, establishmentID int64, date time.Time, category, description string) (*models.Expense, error)
	MarkExpensePaid(ctx context.Context, id int64, paidAt time.Time) error

	// Revenue.
	CreateRevenue(ctx context.Context, r *models.Revenue) error
	ListRevenueByDateRange(ctx context.Context, start, end time.Time, establishmentID *int64) ([]models.Revenue, error)
	ListRevenueByEstablishment(ctx context.Context, establishmentID int64) ([]models.Revenue, error)
	// FindRevenue probes for an existing row by (establishment, date).
	FindRevenue(ctx context.Context, establishmentID int64, date time.Time) (*models.Revenue, error)

	// Obligations.
	ListObligations(ctx context.Context) ([]models.Obligation, error)
	CreateObligation(ctx context.Context, o *models.Obligation) error

	// Settings is a key/value store with per-key defaults applied by the
	// caller. Get returns fallback when the key is absent.
	GetSetting(ctx context.Context, key, fallback string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Close releases any resources held by the store.
	Close() error
}
