package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rmachado/gestor/internal/locale"
	"github.com/rmachado/gestor/internal/metrics"
	"github.com/rmachado/gestor/internal/recurrence"
	"github.com/rmachado/gestor/internal/storage"
	"github.com/rmachado/gestor/internal/transcoder"
)

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.secured {
		writeError(w, http.StatusNotFound, "authentication is not enabled")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.password.Check(req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, err := s.jwt.Generate()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind, err := transcoder.ParseKind(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := locale.ParseDate(q.Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := locale.ParseDate(q.Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}
	establishmentID, err := optionalID(q.Get("establishment_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid establishment_id")
		return
	}

	data, err := s.transcoder.Export(r.Context(), kind, start, end, establishmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.csv", kind, locale.FormatISODate(start), locale.FormatISODate(end))
	w.Header().Set("Content-Type", "text/csv; charset=UTF-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string `json:"type"`
		CSVContent string `json:"csv_content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	kind, err := transcoder.ParseKind(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preview, err := s.transcoder.Parse(r.Context(), req.CSVContent, kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.RejectedRows.WithLabelValues(string(kind)).Add(float64(len(preview.Errors)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"preview": preview.Rows,
		"errors":  preview.Errors,
	})
}

func (s *Server) handleImportExecute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type        string           `json:"type"`
		PreviewData []transcoder.Row `json:"preview_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	kind, err := transcoder.ParseKind(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.transcoder.Commit(r.Context(), req.PreviewData, kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.ImportedRows.WithLabelValues(string(kind)).Add(float64(result.Imported))
	metrics.RejectedRows.WithLabelValues(string(kind)).Add(float64(len(result.Errors)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"imported": result.Imported,
		"errors":   result.Errors,
	})
}

func (s *Server) handleGenerateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid apartment id")
		return
	}

	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	start, err := locale.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	end, err := locale.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	result, err := s.projector.Project(r.Context(), id, start, end)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, recurrence.ErrNotApartment) || errors.Is(err, storage.ErrNotFound) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	metrics.RecurringGenerated.Add(float64(result.Generated))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"generated": result.Generated,
		"errors":    result.Errors,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	report, err := s.classifier.Gather(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	establishmentID, err := optionalID(q.Get("establishment_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid establishment_id")
		return
	}

	report, err := s.reporter.MonthlyReport(r.Context(), year, time.Month(month), establishmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	if err := s.store.MarkExpensePaid(r.Context(), id, time.Now().UTC()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// settingDefaults are the known settings keys and the values reported
// when a key was never written.
var settingDefaults = map[string]string{
	storage.SettingCronHour:       "8",
	storage.SettingCurrency:       "€",
	storage.SettingIMIWindowStart: "1",
	storage.SettingIMIWindowEnd:   "31",
	storage.SettingCSVBatchLimit:  "100",
	storage.SettingAlertsEmail:    "",
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string, len(settingDefaults))
	for key, fallback := range settingDefaults {
		value, err := s.store.GetSetting(r.Context(), key, fallback)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out[key] = value
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	for key := range req {
		if _, ok := settingDefaults[key]; !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown setting %q", key))
			return
		}
	}
	for key, value := range req {
		if err := s.store.SetSetting(r.Context(), key, value); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func optionalID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
