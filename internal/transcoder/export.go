package transcoder

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/rmachado/gestor/internal/locale"
	"github.com/rmachado/gestor/internal/models"
)

// utf8BOM makes spreadsheet applications detect the encoding correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var expenseHeaders = []string{"Data", "Estabelecimento", "Fornecedor", "Tipo", "Descrição", "Valor", "Vencimento", "Pago", "Pago em", "Notas"}
var revenueHeaders = []string{"Data", "Estabelecimento", "Bruto", "Taxas", "Líquido", "Notas"}

// Export renders all records of the given kind inside [start, end] as
// semicolon-delimited CSV with a UTF-8 BOM. Dates and amounts use the
// PT-PT export formats; fields containing the delimiter, quotes or
// newlines are quoted with doubled inner quotes.
func (t *Transcoder) Export(ctx context.Context, kind Kind, start, end time.Time, establishmentID *int64) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	switch kind {
	case KindExpenses:
		if err := t.exportExpenses(ctx, w, start, end, establishmentID); err != nil {
			return nil, err
		}
	case KindRevenue:
		if err := t.exportRevenue(ctx, w, start, end, establishmentID); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Transcoder) exportExpenses(ctx context.Context, w *csv.Writer, start, end time.Time, establishmentID *int64) error {
	expenses, err := t.store.ListExpensesByDateRange(ctx, start, end, establishmentID)
	if err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}

	if err := w.Write(expenseHeaders); err != nil {
		return err
	}

	names := newNameCache(t.store)
	for i := range expenses {
		e := &expenses[i]

		paid := "Não"
		var paidAt string
		if e.Paid {
			paid = "Sim"
			if e.PaidAt != nil {
				paidAt = locale.FormatDate(*e.PaidAt)
			}
		}
		var due string
		if e.DueDate != nil {
			due = locale.FormatDate(*e.DueDate)
		}

		record := []string{
			locale.FormatDate(e.Date),
			names.establishment(ctx, e.EstablishmentID),
			names.supplier(ctx, e.SupplierID),
			e.Category,
			e.Description,
			locale.FormatAmount(e.Amount),
			due,
			paid,
			paidAt,
			e.Notes,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transcoder) exportRevenue(ctx context.Context, w *csv.Writer, start, end time.Time, establishmentID *int64) error {
	revenue, err := t.store.ListRevenueByDateRange(ctx, start, end, establishmentID)
	if err != nil {
		return fmt.Errorf("failed to load revenue: %w", err)
	}

	if err := w.Write(revenueHeaders); err != nil {
		return err
	}

	names := newNameCache(t.store)
	for i := range revenue {
		r := &revenue[i]
		record := []string{
			locale.FormatDate(r.Date),
			names.establishment(ctx, r.EstablishmentID),
			locale.FormatAmount(r.Gross),
			locale.FormatAmount(r.Fees),
			locale.FormatAmount(r.Net),
			r.Notes,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// nameCache memoizes id-to-name lookups for one export run. A lookup
// failure renders as an empty cell rather than aborting the export.
type nameCache struct {
	store          storageReader
	establishments map[int64]string
	suppliers      map[int64]string
}

type storageReader interface {
	GetEstablishment(ctx context.Context, id int64) (*models.Establishment, error)
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
}

func newNameCache(store storageReader) *nameCache {
	return &nameCache{
		store:          store,
		establishments: make(map[int64]string),
		suppliers:      make(map[int64]string),
	}
}

func (c *nameCache) establishment(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	if name, ok := c.establishments[*id]; ok {
		return name
	}
	name := ""
	if e, err := c.store.GetEstablishment(ctx, *id); err == nil {
		name = e.Name
	}
	c.establishments[*id] = name
	return name
}

func (c *nameCache) supplier(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	if name, ok := c.suppliers[*id]; ok {
		return name
	}
	name := ""
	if s, err := c.store.GetSupplier(ctx, *id); err == nil {
		name = s.Name
	}
	c.suppliers[*id] = name
	return name
}
