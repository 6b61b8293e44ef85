package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertItemType tags the origin of an alert item.
type AlertItemType string

const (
	AlertExpense    AlertItemType = "expense"
	AlertSalary     AlertItemType = "salary"
	AlertObligation AlertItemType = "obligation"
)

// AlertItem is one pending payment surfaced by the daily classification.
// Items are heterogeneous: persisted expenses, projected salaries and
// projected obligations all collapse into this shape for the email.
type AlertItem struct {
	Type AlertItemType `json:"type"`

	// Date is the due date the item was classified against.
	Date time.Time `json:"date"`

	Description   string          `json:"description"`
	Establishment string          `json:"establishment,omitempty"`
	Amount        decimal.Decimal `json:"amount"`

	// ExpenseID is set only for items backed by a persisted expense.
	ExpenseID int64 `json:"expense_id,omitempty"`
}

// AlertReport groups pending payments into the three daily buckets.
// Every pending expense lands in exactly one bucket relative to the
// classification date.
type AlertReport struct {
	Today    []AlertItem `json:"today"`
	Next7    []AlertItem `json:"next_7_days"`
	Overdue  []AlertItem `json:"overdue"`
	Date     time.Time   `json:"date"` // classification "today"
	Currency string      `json:"currency"`
}

// Empty reports whether no bucket holds any item.
func (r *AlertReport) Empty() bool {
	return len(r.Today) == 0 && len(r.Next7) == 0 && len(r.Overdue) == 0
}
