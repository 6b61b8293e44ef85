package models

import "time"

// Supplier represents a vendor referenced by expenses.
type Supplier struct {
	ID        int64
	Name      string
	TaxNumber string
	Email     string
	Phone     string
	Notes     string
	CreatedAt time.Time
}
