package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a dated outgoing payment.
type Expense struct {
	ID int64

	// Date is the accounting date of the expense.
	Date time.Time

	// DueDate is when the payment falls due; nil for expenses with no
	// payment deadline. An unpaid expense with a due date is "pending"
	// and participates in alert classification.
	DueDate *time.Time

	EstablishmentID *int64
	SupplierID      *int64

	// Category is a free-form type label ("Condomínio", "IMI", ...).
	// Recurrence inference matches it against a keyword list.
	Category    string
	Description string

	Amount decimal.Decimal

	Paid   bool
	PaidAt *time.Time

	Notes     string
	CreatedAt time.Time
}

// Pending reports whether the expense is unpaid and carries a due date.
func (e *Expense) Pending() bool {
	return !e.Paid && e.DueDate != nil
}
