package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rmachado/gestor/internal/models"
)

// ListObligations returns all obligations ordered by name.
func (s *Store) ListObligations(ctx context.Context) ([]models.Obligation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, periodicity, start_day, end_day, notes, created_at FROM obligations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	var out []models.Obligation
	for rows.Next() {
		var (
			o                models.Obligation
			startDay, endDay sql.NullInt64
			createdAt        int64
		)
		if err := rows.Scan(&o.ID, &o.Name, (*string)(&o.Periodicity), &startDay, &endDay, &o.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		o.StartDay = intPtr(startDay)
		o.EndDay = intPtr(endDay)
		o.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate obligations: %w", err)
	}
	return out, nil
}

// CreateObligation persists a new obligation, populating its ID.
func (s *Store) CreateObligation(ctx context.Context, o *models.Obligation) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO obligations (name, periodicity, start_day, end_day, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		o.Name, string(o.Periodicity), nullInt(o.StartDay), nullInt(o.EndDay), o.Notes, o.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert obligation: %w", err)
	}
	o.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read obligation id: %w", err)
	}
	return nil
}

// GetSetting returns the stored value for key, or fallback when absent.
func (s *Store) GetSetting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}
