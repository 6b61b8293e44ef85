package recurrence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
	"github.com/rmachado/gestor/internal/storage/sqlite"
)

func newTestProjector(t *testing.T) (*Projector, storage.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, nil), store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createApartment(t *testing.T, store storage.Store, name string, rentDay int, rentAmount string) *models.Establishment {
	t.Helper()
	est := &models.Establishment{Name: name, Category: models.CategoryApartment}
	if rentDay > 0 {
		est.RentDay = &rentDay
	}
	if rentAmount != "" {
		amount := dec(rentAmount)
		est.RentAmount = &amount
	}
	if err := store.CreateEstablishment(context.Background(), est); err != nil {
		t.Fatalf("failed to create apartment: %v", err)
	}
	return est
}

func createExpense(t *testing.T, store storage.Store, estID int64, day time.Time, category, description, amount string) {
	t.Helper()
	due := day
	e := &models.Expense{
		Date:            day,
		DueDate:         &due,
		EstablishmentID: &estID,
		Category:        category,
		Description:     description,
		Amount:          dec(amount),
	}
	if err := store.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}
}

func TestProjectRejectsNonApartments(t *testing.T) {
	p, store := newTestProjector(t)
	ctx := context.Background()

	bar := &models.Establishment{Name: "Bar da Esquina", Category: models.CategoryBar}
	if err := store.CreateEstablishment(ctx, bar); err != nil {
		t.Fatalf("failed to create establishment: %v", err)
	}

	_, err := p.Project(ctx, bar.ID, date(2024, time.January, 1), date(2024, time.March, 31))
	if !errors.Is(err, ErrNotApartment) {
		t.Errorf("expected ErrNotApartment, got %v", err)
	}

	if _, err := p.Project(ctx, 999, date(2024, time.January, 1), date(2024, time.March, 31)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}

	// Neither call may write anything.
	expenses, err := store.ListExpensesByDateRange(ctx, date(2024, time.January, 1), date(2024, time.December, 31), nil)
	if err != nil {
		t.Fatalf("failed to list expenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("rejected projection wrote %d expenses", len(expenses))
	}
}

func TestProjectInfersExpenseTemplates(t *testing.T) {
	p, store := newTestProjector(t)
	ctx := context.Background()

	apt := createApartment(t, store, "T2 Alameda", 0, "")

	// Recurring history: two condomínio rows (most recent amount must win)
	// plus one water bill and one unrelated purchase.
	createExpense(t, store, apt.ID, date(2023, time.November, 5), "Condomínio", "Quota mensal", "45.00")
	createExpense(t, store, apt.ID, date(2023, time.December, 5), "Condomínio", "Quota mensal", "50.00")
	createExpense(t, store, apt.ID, date(2023, time.December, 12), "Água", "EPAL", "23.40")
	createExpense(t, store, apt.ID, date(2023, time.December, 20), "Mobiliário", "Sofá novo", "600.00")

	result, err := p.Project(ctx, apt.ID, date(2024, time.January, 1), date(2024, time.February, 29))
	if err != nil {
		t.Fatalf("Project() error: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected soft errors: %v", result.Errors)
	}
	// condomínio + água over two months.
	if result.Generated != 4 {
		t.Errorf("generated = %d, want 4", result.Generated)
	}

	generated, err := store.ListExpensesByDateRange(ctx, date(2024, time.January, 1), date(2024, time.February, 29), nil)
	if err != nil {
		t.Fatalf("failed to list expenses: %v", err)
	}
	byKey := make(map[string]models.Expense)
	for _, e := range generated {
		byKey[e.Category+"/"+e.Date.Format("2006-01-02")] = e
	}

	condo, ok := byKey["Condomínio/2024-01-05"]
	if !ok {
		t.Fatal("missing projected condomínio for January")
	}
	if !condo.Amount.Equal(dec("50.00")) {
		t.Errorf("condomínio amount = %s, want the most recent 50.00", condo.Amount)
	}
	if condo.DueDate == nil || !condo.DueDate.Equal(date(2024, time.January, 5)) {
		t.Errorf("condomínio due date = %v", condo.DueDate)
	}

	if _, ok := byKey["Água/2024-02-12"]; !ok {
		t.Error("missing projected água for February")
	}
	if _, ok := byKey["Mobiliário/2024-01-20"]; ok {
		t.Error("non-recurring category must not be projected")
	}
}

func TestProjectClampsShortMonths(t *testing.T) {
	p, store := newTestProjector(t)
	ctx := context.Background()

	apt := createApartment(t, store, "T1 Baixa", 31, "750.00")

	result, err := p.Project(ctx, apt.ID, date(2024, time.January, 1), date(2024, time.March, 31))
	if err != nil {
		t.Fatalf("Project() error: %v", err)
	}
	if result.Generated != 3 {
		t.Errorf("generated = %d, want 3 rent records", result.Generated)
	}

	for _, want := range []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29), // leap year clamp
		date(2024, time.March, 31),
	} {
		if _, err := store.FindRevenue(ctx, apt.ID, want); err != nil {
			t.Errorf("missing rent on %s: %v", want.Format("2006-01-02"), err)
		}
	}
}

func TestProjectRentAmountHeuristic(t *testing.T) {
	p, store := newTestProjector(t)
	ctx := context.Background()

	apt := createApartment(t, store, "T3 Estrela", 1, "700.00")

	// Historical net revenue beats the configured rent amount.
	if err := store.CreateRevenue(ctx, &models.Revenue{
		Date:            date(2023, time.December, 1),
		EstablishmentID: &apt.ID,
		Gross:           dec("820.00"),
		Net:             dec("820.00"),
	}); err != nil {
		t.Fatalf("failed to create revenue: %v", err)
	}

	if _, err := p.Project(ctx, apt.ID, date(2024, time.January, 1), date(2024, time.January, 31)); err != nil {
		t.Fatalf("Project() error: %v", err)
	}

	rent, err := store.FindRevenue(ctx, apt.ID, date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("missing projected rent: %v", err)
	}
	if !rent.Net.Equal(dec("820.00")) {
		t.Errorf("rent = %s, want the historical maximum 820.00", rent.Net)
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	p, store := newTestProjector(t)
	ctx := context.Background()

	apt := createApartment(t, store, "T0 Graça", 15, "500.00")
	createExpense(t, store, apt.ID, date(2023, time.December, 8), "Internet", "Fibra", "39.99")

	start, end := date(2024, time.January, 1), date(2024, time.February, 29)

	first, err := p.Project(ctx, apt.ID, start, end)
	if err != nil {
		t.Fatalf("first Project() error: %v", err)
	}
	if first.Generated != 4 {
		t.Errorf("first run generated = %d, want 4 (2 internet + 2 rent)", first.Generated)
	}

	second, err := p.Project(ctx, apt.ID, start, end)
	if err != nil {
		t.Fatalf("second Project() error: %v", err)
	}
	if second.Generated != 0 {
		t.Errorf("second run generated = %d, want 0", second.Generated)
	}

	expenses, err := store.ListExpensesByDateRange(ctx, start, end, &apt.ID)
	if err != nil {
		t.Fatalf("failed to list expenses: %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("expected 2 internet expenses after reruns, got %d", len(expenses))
	}
}

func TestProjectRangeBounds(t *testing.T) {
	p, store := newTestProjector(t)
	ctx := context.Background()

	// Rent day 10, range starting after the 10th: January must be skipped.
	apt := createApartment(t, store, "T1 Arroios", 10, "650.00")

	result, err := p.Project(ctx, apt.ID, date(2024, time.January, 15), date(2024, time.February, 29))
	if err != nil {
		t.Fatalf("Project() error: %v", err)
	}
	if result.Generated != 1 {
		t.Errorf("generated = %d, want only February's rent", result.Generated)
	}
	if _, err := store.FindRevenue(ctx, apt.ID, date(2024, time.January, 10)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("January rent should not exist, got err=%v", err)
	}
	if _, err := store.FindRevenue(ctx, apt.ID, date(2024, time.February, 10)); err != nil {
		t.Errorf("February rent missing: %v", err)
	}
}
