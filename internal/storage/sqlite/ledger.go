package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
)

const expenseCols = "id, date, due_date, establishment_id, supplier_id, category, description, amount, paid, paid_at, notes, created_at"

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	var (
		e         models.Expense
		date      string
		dueDate   sql.NullString
		estID     sql.NullInt64
		supID     sql.NullInt64
		amount    string
		paid      int
		paidAt    sql.NullInt64
		createdAt int64
	)
	err := row.Scan(&e.ID, &date, &dueDate, &estID, &supID, &e.Category, &e.Description, &amount, &paid, &paidAt, &e.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	if e.Date, err = scanDate(date); err != nil {
		return nil, err
	}
	if e.DueDate, err = scanNullDate(dueDate); err != nil {
		return nil, err
	}
	if e.Amount, err = scanDecimal(amount); err != nil {
		return nil, err
	}
	e.EstablishmentID = int64Ptr(estID)
	e.SupplierID = int64Ptr(supID)
	e.Paid = paid != 0
	e.PaidAt = unixPtr(paidAt)
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &e, nil
}

func collectExpenses(rows *sql.Rows) ([]models.Expense, error) {
	defer rows.Close()
	var out []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return out, nil
}

// CreateExpense persists a new expense, populating its ID.
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var paidAt any
	if e.PaidAt != nil {
		paidAt = e.PaidAt.Unix()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (date, due_date, establishment_id, supplier_id, category, description, amount, paid, paid_at, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fmtDate(e.Date), fmtNullDate(e.DueDate), nullInt64(e.EstablishmentID), nullInt64(e.SupplierID),
		e.Category, e.Description, e.Amount.String(), boolInt(e.Paid), paidAt, e.Notes, e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}
	return nil
}

// ListExpensesByDateRange returns expenses with date in [start, end],
// optionally filtered by establishment, ordered by date ascending.
func (s *Store) ListExpensesByDateRange(ctx context.Context, start, end time.Time, establishmentID *int64) ([]models.Expense, error) {
	query := "SELECT " + expenseCols + " FROM expenses WHERE date >= ? AND date <= ?"
	args := []any{fmtDate(start), fmtDate(end)}
	if establishmentID != nil {
		query += " AND establishment_id = ?"
		args = append(args, *establishmentID)
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return collectExpenses(rows)
}

// ListExpensesByEstablishment returns all expenses for an establishment,
// newest first. Recurrence template inference scans this ordering so the
// most recent occurrence of each pattern wins the "first match" rule.
func (s *Store) ListExpensesByEstablishment(ctx context.Context, establishmentID int64) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseCols+" FROM expenses WHERE establishment_id = ? ORDER BY date DESC, id DESC",
		establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return collectExpenses(rows)
}

// ListPendingExpenses returns unpaid expenses that have a due date,
// optionally capped at maxDueDate (inclusive).
func (s *Store) ListPendingExpenses(ctx context.Context, maxDueDate *time.Time, establishmentID *int64) ([]models.Expense, error) {
	query := "SELECT " + expenseCols + " FROM expenses WHERE paid = 0 AND due_date IS NOT NULL"
	var args []any
	if maxDueDate != nil {
		query += " AND due_date <= ?"
		args = append(args, fmtDate(*maxDueDate))
	}
	if establishmentID != nil {
		query += " AND establishment_id = ?"
		args = append(args, *establishmentID)
	}
	query += " ORDER BY due_date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending expenses: %w", err)
	}
	return collectExpenses(rows)
}

// FindExpense probes for an existing expense by the recurrence identity
// key. Returns storage.ErrNotFound when no row matches.
func (s *Store) FindExpense(ctx context.Context, establishmentID int64, date time.Time, category, description string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseCols+" FROM expenses WHERE establishment_id = ? AND date = ? AND category = ? AND description = ? LIMIT 1",
		establishmentID, fmtDate(date), category, description)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}
	return e, nil
}

// MarkExpensePaid flags an expense as paid at the given time.
func (s *Store) MarkExpensePaid(ctx context.Context, id int64, paidAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET paid = 1, paid_at = ? WHERE id = ?", paidAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark expense paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- revenue ---

const revenueCols = "id, date, establishment_id, gross, fees, net, notes, created_at"

func scanRevenue(row interface{ Scan(...any) error }) (*models.Revenue, error) {
	var (
		r                models.Revenue
		date             string
		estID            sql.NullInt64
		gross, fees, net string
		createdAt        int64
	)
	err := row.Scan(&r.ID, &date, &estID, &gross, &fees, &net, &r.Notes, &createdAt)
	if err != nil {
		return nil, err
	}
	if r.Date, err = scanDate(date); err != nil {
		return nil, err
	}
	if r.Gross, err = scanDecimal(gross); err != nil {
		return nil, err
	}
	if r.Fees, err = scanDecimal(fees); err != nil {
		return nil, err
	}
	if r.Net, err = scanDecimal(net); err != nil {
		return nil, err
	}
	r.EstablishmentID = int64Ptr(estID)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &r, nil
}

func collectRevenue(rows *sql.Rows) ([]models.Revenue, error) {
	defer rows.Close()
	var out []models.Revenue
	for rows.Next() {
		r, err := scanRevenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revenue: %w", err)
	}
	return out, nil
}

// CreateRevenue persists a new revenue row, populating its ID.
func (s *Store) CreateRevenue(ctx context.Context, r *models.Revenue) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO revenue (date, establishment_id, gross, fees, net, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		fmtDate(r.Date), nullInt64(r.EstablishmentID), r.Gross.String(), r.Fees.String(), r.Net.String(), r.Notes, r.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert revenue: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read revenue id: %w", err)
	}
	return nil
}

// ListRevenueByDateRange returns revenue with date in [start, end],
// optionally filtered by establishment, ordered by date ascending.
func (s *Store) ListRevenueByDateRange(ctx context.Context, start, end time.Time, establishmentID *int64) ([]models.Revenue, error) {
	query := "SELECT " + revenueCols + " FROM revenue WHERE date >= ? AND date <= ?"
	args := []any{fmtDate(start), fmtDate(end)}
	if establishmentID != nil {
		query += " AND establishment_id = ?"
		args = append(args, *establishmentID)
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list revenue: %w", err)
	}
	return collectRevenue(rows)
}

// ListRevenueByEstablishment returns all revenue for an establishment,
// newest first.
func (s *Store) ListRevenueByEstablishment(ctx context.Context, establishmentID int64) ([]models.Revenue, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+revenueCols+" FROM revenue WHERE establishment_id = ? ORDER BY date DESC, id DESC",
		establishmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revenue: %w", err)
	}
	return collectRevenue(rows)
}

// FindRevenue probes for an existing revenue row by (establishment, date).
// Returns storage.ErrNotFound when no row matches.
func (s *Store) FindRevenue(ctx context.Context, establishmentID int64, date time.Time) (*models.Revenue, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+revenueCols+" FROM revenue WHERE establishment_id = ? AND date = ? LIMIT 1",
		establishmentID, fmtDate(date))
	r, err := scanRevenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find revenue: %w", err)
	}
	return r, nil
}
