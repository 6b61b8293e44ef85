// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/rmachado/gestor/internal/calendar"
	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- column conversion helpers ---

const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func scanDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad stored date %q: %w", s, err)
	}
	return calendar.Normalize(t), nil
}

func fmtNullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtDate(*t)
}

func scanNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := scanDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad stored amount %q: %w", s, err)
	}
	return d, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

// --- establishments ---

func scanEstablishment(row interface{ Scan(...any) error }) (*models.Establishment, error) {
	var (
		e          models.Establishment
		rentDay    sql.NullInt64
		rentAmount sql.NullString
		active     int
		createdAt  int64
	)
	err := row.Scan(&e.ID, &e.Name, (*string)(&e.Category), &rentDay, &rentAmount, &active, &createdAt)
	if err != nil {
		return nil, err
	}
	e.RentDay = intPtr(rentDay)
	if rentAmount.Valid && rentAmount.String != "" {
		d, err := scanDecimal(rentAmount.String)
		if err != nil {
			return nil, err
		}
		e.RentAmount = &d
	}
	e.Active = active != 0
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &e, nil
}

const establishmentCols = "id, name, category, rent_day, rent_amount, active, created_at"

// GetEstablishment retrieves an establishment by ID.
func (s *Store) GetEstablishment(ctx context.Context, id int64) (*models.Establishment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+establishmentCols+" FROM establishments WHERE id = ?", id)
	e, err := scanEstablishment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("establishment %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get establishment: %w", err)
	}
	return e, nil
}

// GetEstablishmentByName retrieves an establishment by exact name match.
func (s *Store) GetEstablishmentByName(ctx context.Context, name string) (*models.Establishment, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+establishmentCols+" FROM establishments WHERE name = ?", name)
	e, err := scanEstablishment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("establishment %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get establishment by name: %w", err)
	}
	return e, nil
}

// ListEstablishments returns all establishments ordered by name.
func (s *Store) ListEstablishments(ctx context.Context) ([]models.Establishment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+establishmentCols+" FROM establishments ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list establishments: %w", err)
	}
	defer rows.Close()

	var out []models.Establishment
	for rows.Next() {
		e, err := scanEstablishment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan establishment: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate establishments: %w", err)
	}
	return out, nil
}

// CreateEstablishment persists a new establishment, populating its ID.
func (s *Store) CreateEstablishment(ctx context.Context, e *models.Establishment) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var rentAmount any
	if e.RentAmount != nil {
		rentAmount = e.RentAmount.String()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO establishments (name, category, rent_day, rent_amount, active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.Name, string(e.Category), nullInt(e.RentDay), rentAmount, boolInt(e.Active), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert establishment: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read establishment id: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- suppliers ---

// GetSupplier retrieves a supplier by ID.
func (s *Store) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	var (
		sup       models.Supplier
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, tax_number, email, phone, notes, created_at FROM suppliers WHERE id = ?", id,
	).Scan(&sup.ID, &sup.Name, &sup.TaxNumber, &sup.Email, &sup.Phone, &sup.Notes, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supplier %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	sup.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &sup, nil
}

// ListSuppliers returns all suppliers ordered by name.
func (s *Store) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, tax_number, email, phone, notes, created_at FROM suppliers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var out []models.Supplier
	for rows.Next() {
		var (
			sup       models.Supplier
			createdAt int64
		)
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.TaxNumber, &sup.Email, &sup.Phone, &sup.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		sup.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}
	return out, nil
}

// CreateSupplier persists a new supplier, populating its ID.
func (s *Store) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	if sup.CreatedAt.IsZero() {
		sup.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO suppliers (name, tax_number, email, phone, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		sup.Name, sup.TaxNumber, sup.Email, sup.Phone, sup.Notes, sup.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert supplier: %w", err)
	}
	sup.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read supplier id: %w", err)
	}
	return nil
}

// --- employees ---

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, payment_type, base_amount, establishment_id, active, created_at FROM employees ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var (
			e       models.Employee
			amount  string
			estID   sql.NullInt64
			active  int
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, (*string)(&e.PaymentType), &amount, &estID, &active, &created); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		d, err := scanDecimal(amount)
		if err != nil {
			return nil, err
		}
		e.BaseAmount = d
		e.EstablishmentID = int64Ptr(estID)
		e.Active = active != 0
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return out, nil
}

// CreateEmployee persists a new employee, populating its ID.
func (s *Store) CreateEmployee(ctx context.Context, e *models.Employee) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO employees (name, payment_type, base_amount, establishment_id, active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.Name, string(e.PaymentType), e.BaseAmount.String(), nullInt64(e.EstablishmentID), boolInt(e.Active), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read employee id: %w", err)
	}
	return nil
}
