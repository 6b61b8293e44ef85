package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmachado/gestor/internal/auth"
	"github.com/rmachado/gestor/internal/config"
	"github.com/rmachado/gestor/internal/models"
	"github.com/rmachado/gestor/internal/storage"
	"github.com/rmachado/gestor/internal/storage/sqlite"
	"github.com/rmachado/gestor/internal/transcoder"
)

func newTestServer(t *testing.T, authCfg config.AuthConfig) (*httptest.Server, storage.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ts := httptest.NewServer(New(store, authCfg).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, config.AuthConfig{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCSVRoundTripOverHTTP(t *testing.T) {
	ts, store := newTestServer(t, config.AuthConfig{})
	ctx := context.Background()

	est := &models.Establishment{Name: "Tasca do Rio", Category: models.CategoryRestaurant}
	if err := store.CreateEstablishment(ctx, est); err != nil {
		t.Fatalf("failed to create establishment: %v", err)
	}
	if err := store.CreateExpense(ctx, &models.Expense{
		Date:            date(2024, time.March, 5),
		EstablishmentID: &est.ID,
		Category:        "fornecedor",
		Description:     "Peixe",
		Amount:          dec("120.50"),
	}); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}

	// Export.
	resp, err := http.Get(ts.URL + "/api/v1/csv/export?type=expenses&start_date=2024-03-01&end_date=2024-03-31")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/csv; charset=UTF-8" {
		t.Errorf("content type = %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Errorf("content disposition = %q", got)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	resp.Body.Close()
	csvText := buf.String()
	if !strings.Contains(csvText, "Peixe") {
		t.Fatalf("export missing record:\n%s", csvText)
	}

	// Preview the same bytes.
	var preview struct {
		Success bool                `json:"success"`
		Preview []transcoder.Row    `json:"preview"`
		Errors  map[string][]string `json:"errors"`
	}
	resp = postJSON(t, ts.URL+"/api/v1/csv/import", map[string]string{
		"type":        "expenses",
		"csv_content": csvText,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &preview)
	if !preview.Success || len(preview.Preview) != 1 || len(preview.Errors) != 0 {
		t.Fatalf("preview = %+v", preview)
	}

	// Execute the previewed rows.
	var result struct {
		Success  bool `json:"success"`
		Imported int  `json:"imported"`
	}
	resp = postJSON(t, ts.URL+"/api/v1/csv/import/execute", map[string]any{
		"type":         "expenses",
		"preview_data": preview.Preview,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("execute status = %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &result)
	if !result.Success || result.Imported != 1 {
		t.Fatalf("execute = %+v", result)
	}

	saved, err := store.ListExpensesByDateRange(ctx, date(2024, time.March, 1), date(2024, time.March, 31), nil)
	if err != nil {
		t.Fatalf("failed to list expenses: %v", err)
	}
	if len(saved) != 2 {
		t.Errorf("expected the original plus the re-imported expense, got %d", len(saved))
	}
}

func TestGenerateRecurringRejectsNonApartments(t *testing.T) {
	ts, store := newTestServer(t, config.AuthConfig{})

	bar := &models.Establishment{Name: "Bar da Esquina", Category: models.CategoryBar}
	if err := store.CreateEstablishment(context.Background(), bar); err != nil {
		t.Fatalf("failed to create establishment: %v", err)
	}

	body := map[string]string{"start_date": "2024-01-01", "end_date": "2024-03-31"}

	resp := postJSON(t, fmt.Sprintf("%s/api/v1/apartments/%d/generate-recurring", ts.URL, bar.ID), body)
	var failure struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	decodeJSON(t, resp, &failure)
	if failure.Success || failure.Error == "" {
		t.Errorf("failure envelope = %+v", failure)
	}

	resp = postJSON(t, ts.URL+"/api/v1/apartments/999/generate-recurring", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing id status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGenerateRecurring(t *testing.T) {
	ts, store := newTestServer(t, config.AuthConfig{})

	rentDay := 15
	rent := dec("750.00")
	apt := &models.Establishment{Name: "T1 Baixa", Category: models.CategoryApartment, RentDay: &rentDay, RentAmount: &rent}
	if err := store.CreateEstablishment(context.Background(), apt); err != nil {
		t.Fatalf("failed to create apartment: %v", err)
	}

	resp := postJSON(t, fmt.Sprintf("%s/api/v1/apartments/%d/generate-recurring", ts.URL, apt.ID),
		map[string]string{"start_date": "2024-01-01", "end_date": "2024-02-29"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var result struct {
		Success   bool     `json:"success"`
		Generated int      `json:"generated"`
		Errors    []string `json:"errors"`
	}
	decodeJSON(t, resp, &result)
	if !result.Success || result.Generated != 2 {
		t.Errorf("result = %+v, want 2 rent records", result)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	ts, store := newTestServer(t, config.AuthConfig{})

	now := time.Now()
	due := date(now.Year(), now.Month(), now.Day())
	if err := store.CreateExpense(context.Background(), &models.Expense{
		Date: due, DueDate: &due, Category: "renda", Amount: dec("800.00"),
	}); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/v1/alerts")
	if err != nil {
		t.Fatalf("GET /api/v1/alerts failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var report struct {
		Today    []json.RawMessage `json:"today"`
		Currency string            `json:"currency"`
	}
	decodeJSON(t, resp, &report)
	if len(report.Today) != 1 {
		t.Errorf("today = %d items, want 1", len(report.Today))
	}
	if report.Currency == "" {
		t.Error("currency missing from report")
	}
}

func TestMarkPaid(t *testing.T) {
	ts, store := newTestServer(t, config.AuthConfig{})
	ctx := context.Background()

	due := date(2024, time.March, 10)
	e := &models.Expense{Date: due, DueDate: &due, Category: "renda", Amount: dec("800.00")}
	if err := store.CreateExpense(ctx, e); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}

	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/v1/expenses/%d/paid", ts.URL, e.ID), nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	pending, err := store.ListPendingExpenses(ctx, nil, nil)
	if err != nil {
		t.Fatalf("failed to list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expense still pending after mark-paid")
	}

	req, _ = http.NewRequest(http.MethodPatch, ts.URL+"/api/v1/expenses/999/paid", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing expense status = %d, want 404", resp.StatusCode)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, config.AuthConfig{})

	resp, err := http.Get(ts.URL + "/api/v1/settings")
	if err != nil {
		t.Fatalf("GET /api/v1/settings failed: %v", err)
	}
	var settings map[string]string
	decodeJSON(t, resp, &settings)
	if settings[storage.SettingCronHour] != "8" {
		t.Errorf("default cron_hour = %q, want 8", settings[storage.SettingCronHour])
	}

	// PUT accepted for known keys.
	data, _ := json.Marshal(map[string]string{storage.SettingCurrency: "EUR"})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/settings", bytes.NewReader(data))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/v1/settings")
	if err != nil {
		t.Fatalf("GET /api/v1/settings failed: %v", err)
	}
	decodeJSON(t, resp, &settings)
	if settings[storage.SettingCurrency] != "EUR" {
		t.Errorf("currency = %q after PUT, want EUR", settings[storage.SettingCurrency])
	}

	// Unknown keys are rejected.
	data, _ = json.Marshal(map[string]string{"not_a_setting": "x"})
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/v1/settings", bytes.NewReader(data))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown key status = %d, want 400", resp.StatusCode)
	}
}

func TestAuthGuard(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-admin")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	ts, _ := newTestServer(t, config.AuthConfig{
		Secret:            "test-secret-key-32-bytes-long!!!",
		AdminPasswordHash: hash,
	})

	// Without a token the API refuses.
	resp, err := http.Get(ts.URL + "/api/v1/alerts")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// Wrong password refuses.
	resp = postJSON(t, ts.URL+"/api/v1/auth/token", map[string]string{"password": "nope"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", resp.StatusCode)
	}

	// Correct password yields a working token.
	var issued struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	resp = postJSON(t, ts.URL+"/api/v1/auth/token", map[string]string{"password": "s3cret-admin"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token status = %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &issued)
	if issued.Token == "" {
		t.Fatal("no token issued")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/alerts", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}

	// Health and metrics stay open.
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
}
