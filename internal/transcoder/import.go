package transcoder

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmachado/gestor/internal/locale"
	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
)

// defaultBatchSize bounds the number of rows handled per commit batch
// when the csv_batch_limit setting is absent or unusable.
const defaultBatchSize = 100

// Column synonyms, matched case-insensitively against the header row.
var (
	synDate          = []string{"data", "date"}
	synEstablishment = []string{"estabelecimento", "establishment"}
	synAmount        = []string{"valor", "value", "amount"}
	synCategory      = []string{"tipo", "type"}
	synDescription   = []string{"descrição", "descricao", "description", "desc"}
	synDueDate       = []string{"vencimento", "due date", "due"}
	synPaid          = []string{"pago", "paid"}
	synNotes         = []string{"notas", "notes", "note"}
	synGross         = []string{"bruto", "gross"}
	synFees          = []string{"taxas", "fees", "tax"}
	synNet           = []string{"líquido", "liquido", "net"}
)

var paidValues = map[string]bool{"sim": true, "yes": true, "s": true, "y": true, "1": true, "true": true}

// Parse runs the import dry run: it validates every data line of the CSV
// text and returns the typed rows alongside a map of line number to error
// messages. A row with an unresolved establishment name is still returned
// (with the error recorded); a row missing a required field is not.
// The only hard failure is input with no parseable lines at all.
func (t *Transcoder) Parse(ctx context.Context, text string, kind Kind) (*Preview, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	header, err := parseLine(lines[0])
	if err != nil {
		return nil, fmt.Errorf("%w: bad header: %v", ErrEmptyInput, err)
	}

	preview := &Preview{Errors: make(map[int][]string)}
	for i, line := range lines[1:] {
		lineNo := i + 2 // header is line 1

		fields, err := parseLine(line)
		if err != nil {
			preview.Errors[lineNo] = append(preview.Errors[lineNo], fmt.Sprintf("unparseable line: %v", err))
			continue
		}

		mapped := mapColumns(header, fields)

		var row *Row
		var rowErrs []string
		switch kind {
		case KindExpenses:
			row, rowErrs = t.parseExpenseRow(ctx, mapped)
		case KindRevenue:
			row, rowErrs = t.parseRevenueRow(ctx, mapped)
		}

		if len(rowErrs) > 0 {
			preview.Errors[lineNo] = append(preview.Errors[lineNo], rowErrs...)
		}
		if row != nil {
			preview.Rows = append(preview.Rows, *row)
		}
	}
	return preview, nil
}

func (k Kind) valid() bool {
	return k == KindExpenses || k == KindRevenue
}

// splitLines strips the BOM, splits on newlines and drops blank lines.
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, string(utf8BOM))
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// parseLine reads one semicolon-delimited line with standard CSV quoting.
func parseLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.Read()
}

// mapColumns builds the case-insensitive column-name -> trimmed-value map
// for one data row. Missing trailing fields map to empty strings.
func mapColumns(header, fields []string) map[string]string {
	mapped := make(map[string]string, len(header))
	for i, name := range header {
		value := ""
		if i < len(fields) {
			value = strings.TrimSpace(fields[i])
		}
		mapped[strings.ToLower(strings.TrimSpace(name))] = value
	}
	return mapped
}

func findColumn(mapped map[string]string, synonyms []string) (string, bool) {
	for _, syn := range synonyms {
		if v, ok := mapped[syn]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// parseExpenseRow validates one expense line. Date and a positive amount
// are required; everything else is optional.
func (t *Transcoder) parseExpenseRow(ctx context.Context, mapped map[string]string) (*Row, []string) {
	var errs []string
	row := &Row{Kind: KindExpenses}
	requiredOK := true

	if raw, ok := findColumn(mapped, synDate); ok {
		d, err := locale.ParseDate(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid date: %q", raw))
			requiredOK = false
		} else {
			row.Date = d
		}
	} else {
		errs = append(errs, "date is required")
		requiredOK = false
	}

	if raw, ok := findColumn(mapped, synAmount); ok {
		amount, err := locale.ParseAmount(raw)
		if err != nil || !amount.IsPositive() {
			errs = append(errs, fmt.Sprintf("invalid amount: %q", raw))
			requiredOK = false
		} else {
			row.Amount = amount
		}
	} else {
		errs = append(errs, "amount is required")
		requiredOK = false
	}

	if raw, ok := findColumn(mapped, synEstablishment); ok {
		if id, err := t.resolveEstablishment(ctx, raw); err != nil {
			errs = append(errs, fmt.Sprintf("establishment not found: %q", raw))
		} else {
			row.EstablishmentID = &id
		}
	}

	if raw, ok := findColumn(mapped, synCategory); ok {
		row.Category = raw
	}
	if raw, ok := findColumn(mapped, synDescription); ok {
		row.Description = raw
	}
	if raw, ok := findColumn(mapped, synDueDate); ok {
		if d, err := locale.ParseDate(raw); err == nil {
			row.DueDate = &d
		}
	}
	if raw, ok := findColumn(mapped, synPaid); ok {
		row.Paid = paidValues[strings.ToLower(raw)]
	}
	if raw, ok := findColumn(mapped, synNotes); ok {
		row.Notes = raw
	}

	if !requiredOK {
		return nil, errs
	}
	return row, errs
}

// parseRevenueRow validates one revenue line. Date is required, and
// either an explicit net amount or both gross and fees, from which net is
// computed as gross minus fees.
func (t *Transcoder) parseRevenueRow(ctx context.Context, mapped map[string]string) (*Row, []string) {
	var errs []string
	row := &Row{Kind: KindRevenue}
	requiredOK := true

	if raw, ok := findColumn(mapped, synDate); ok {
		d, err := locale.ParseDate(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid date: %q", raw))
			requiredOK = false
		} else {
			row.Date = d
		}
	} else {
		errs = append(errs, "date is required")
		requiredOK = false
	}

	if raw, ok := findColumn(mapped, synEstablishment); ok {
		if id, err := t.resolveEstablishment(ctx, raw); err != nil {
			errs = append(errs, fmt.Sprintf("establishment not found: %q", raw))
		} else {
			row.EstablishmentID = &id
		}
	}

	var hasGross, hasFees, hasNet bool
	if raw, ok := findColumn(mapped, synGross); ok {
		if v, err := locale.ParseAmount(raw); err == nil && !v.IsNegative() {
			row.Gross = v
			hasGross = true
		}
	}
	if raw, ok := findColumn(mapped, synFees); ok {
		if v, err := locale.ParseAmount(raw); err == nil && !v.IsNegative() {
			row.Fees = v
			hasFees = true
		}
	}
	if raw, ok := findColumn(mapped, synNet); ok {
		if v, err := locale.ParseAmount(raw); err == nil && !v.IsNegative() {
			row.Net = v
			hasNet = true
		}
	}
	switch {
	case hasNet:
		// explicit net wins
	case hasGross && hasFees:
		row.Net = row.Gross.Sub(row.Fees)
	default:
		errs = append(errs, "net amount is required, or gross and fees must both be provided")
		requiredOK = false
	}

	if raw, ok := findColumn(mapped, synNotes); ok {
		row.Notes = raw
	}

	if !requiredOK {
		return nil, errs
	}
	return row, errs
}

func (t *Transcoder) resolveEstablishment(ctx context.Context, name string) (int64, error) {
	e, err := t.store.GetEstablishmentByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return e.ID, nil
}

// Commit inserts previously previewed rows in bounded batches. Batching
// only caps memory and transaction footprint; each row is inserted
// independently and a failure is recorded against the row's 1-based index
// without stopping the run.
func (t *Transcoder) Commit(ctx context.Context, rows []Row, kind Kind) (*CommitResult, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	batchSize := t.batchSize(ctx)
	batchID := uuid.NewString()
	result := &CommitResult{}

	for offset := 0; offset < len(rows); offset += batchSize {
		end := offset + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		for i := offset; i < end; i++ {
			if err := t.insertRow(ctx, &rows[i], kind); err != nil {
				result.Errors = append(result.Errors, RowError{Row: i + 1, Message: err.Error()})
				continue
			}
			result.Imported++
		}
	}

	slog.Info("CSV import committed",
		"batch_id", batchID,
		"kind", kind,
		"imported", result.Imported,
		"failed", len(result.Errors),
	)
	return result, nil
}

func (t *Transcoder) batchSize(ctx context.Context) int {
	raw, err := t.store.GetSetting(ctx, storage.SettingCSVBatchLimit, strconv.Itoa(defaultBatchSize))
	if err != nil {
		return defaultBatchSize
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultBatchSize
	}
	return n
}

func (t *Transcoder) insertRow(ctx context.Context, row *Row, kind Kind) error {
	switch kind {
	case KindExpenses:
		e := &models.Expense{
			Date:            row.Date,
			DueDate:         row.DueDate,
			EstablishmentID: row.EstablishmentID,
			SupplierID:      row.SupplierID,
			Category:        row.Category,
			Description:     row.Description,
			Amount:          row.Amount,
			Paid:            row.Paid,
			Notes:           row.Notes,
		}
		if row.Paid {
			now := time.Now().UTC()
			e.PaidAt = &now
		}
		return t.store.CreateExpense(ctx, e)
	case KindRevenue:
		gross := row.Gross
		if gross.IsZero() && !row.Net.IsZero() {
			gross = row.Net
		}
		r := &models.Revenue{
			Date:            row.Date,
			EstablishmentID: row.EstablishmentID,
			Gross:           gross,
			Fees:            row.Fees,
			Net:             row.Net,
			Notes:           row.Notes,
		}
		return t.store.CreateRevenue(ctx, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
