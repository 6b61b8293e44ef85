// Package transcoder converts financial records to and from the
// semicolon-delimited CSV dialect the dashboard exchanges with
// spreadsheets. Export renders PT-PT formatted text; import is a
// two-phase preview/commit pipeline with per-line validation errors.
package transcoder

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmachado/gestor/internal/storage"
)

// Kind selects which record family a CSV operation works on. The
// kind-specific headers, synonyms and validation all key off it once, at
// the entry point.
type Kind string

const (
	KindExpenses Kind = "expenses"
	KindRevenue  Kind = "revenue"
)

var ErrUnknownKind = errors.New("unknown record kind")

// ParseKind reads a kind from its API name. The Portuguese aliases are
// accepted for compatibility with older clients.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "expenses", "despesas":
		return KindExpenses, nil
	case "revenue", "receitas":
		return KindRevenue, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ErrEmptyInput is the one top-level import failure: nothing parseable at
// all. Per-row problems are soft and reported in Preview.Errors instead.
var ErrEmptyInput = errors.New("empty or unreadable CSV input")

// Row is the typed DTO for one validated CSV line. It is a tagged union:
// Kind picks which field group is meaningful. Rows survive a JSON round
// trip between the preview and execute endpoints.
type Row struct {
	Kind Kind `json:"kind"`

	Date            time.Time `json:"date"`
	EstablishmentID *int64    `json:"establishment_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`

	// Expense fields.
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	SupplierID  *int64          `json:"supplier_id,omitempty"`
	Paid        bool            `json:"paid,omitempty"`

	// Revenue fields.
	Gross decimal.Decimal `json:"gross"`
	Fees  decimal.Decimal `json:"fees"`
	Net   decimal.Decimal `json:"net"`
}

// Preview is the result of the import dry run: the rows that passed
// required-field validation plus every problem found, keyed by 1-based
// line number (the header is line 1).
type Preview struct {
	Rows   []Row            `json:"rows"`
	Errors map[int][]string `json:"errors"`
}

// RowError records a commit failure for one row, by its index in the
// submitted slice (1-based).
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"error"`
}

// CommitResult reports how a commit went. Commit is best-effort: Imported
// counts successes and Errors holds the rows that failed.
type CommitResult struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// Transcoder performs CSV export and two-phase import against a store.
type Transcoder struct {
	store storage.Store
}

// New creates a Transcoder backed by the given store.
func New(store storage.Store) *Transcoder {
	return &Transcoder{store: store}
}
