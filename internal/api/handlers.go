package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/canalwise/irrigation-platform/internal/apperror"
	"github.com/canalwise/irrigation-platform/internal/forecast"
	"github.com/canalwise/irrigation-platform/internal/ingest"
	"github.com/canalwise/irrigation-platform/internal/query"
	"github.com/canalwise/irrigation-platform/internal/store"
	"github.com/canalwise/irrigation-platform/internal/ws"
)

const maxRequestBody = 5 << 20 // uploads included

// Handlers bundles the services behind the HTTP surface
type Handlers struct {
	ingester  *ingest.Service
	history   *query.HistoryService
	analytics *query.AnalyticsService
	exporter  *query.ExportService
	importer  *query.ImportService
	forecasts *forecast.Service
	readings  store.ReadingStore
	alerts    store.AlertStore
	hub       *ws.Hub
	logger    *slog.Logger
}

// NewHandlers creates the handler set
func NewHandlers(
	ingester *ingest.Service,
	history *query.HistoryService,
	analytics *query.AnalyticsService,
	exporter *query.ExportService,
	importer *query.ImportService,
	forecasts *forecast.Service,
	readings store.ReadingStore,
	alerts store.AlertStore,
	hub *ws.Hub,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		ingester:  ingester,
		history:   history,
		analytics: analytics,
		exporter:  exporter,
		importer:  importer,
		forecasts: forecasts,
		readings:  readings,
		alerts:    alerts,
		hub:       hub,
		logger:    logger,
	}
}

// PostReadings handles POST /api/iot/readings
func (h *Handlers) PostReadings(w http.ResponseWriter, r *http.Request) {
	var inputs []ingest.ReadingInput
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&inputs); err != nil {
		writeError(w, h.logger, apperror.BadRequest("Invalid request body"))
		return
	}

	result, err := h.ingester.InsertReadings(r.Context(), localityFrom(r.Context()), inputs)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}

// GetLatest handles GET /api/iot/latest
func (h *Handlers) GetLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := query.LatestReadings(r.Context(), h.readings, localityFrom(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// GetHistory handles GET /api/iot/history
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cursor, _ := strconv.Atoi(q.Get("cursor"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := h.history.Fetch(r.Context(), localityFrom(r.Context()),
		q.Get("sensorType"), q.Get("startDate"), q.Get("endDate"), cursor, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetAnalytics handles GET /api/iot/analytics
func (h *Handlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.analytics.Fetch(r.Context(), localityFrom(r.Context()),
		q.Get("sensorType"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type exportRequest struct {
	SensorType   string `json:"sensorType"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Category     string `json:"category"`
	Format       string `json:"format"`
	PreviewLimit int    `json:"previewLimit"`
}

// PostExport handles POST /api/iot/data/export: render the cached
// result and return it inline for preview.
func (h *Handlers) PostExport(w http.ResponseWriter, r *http.Request) {
	result, err := h.export(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// PostExportSave handles POST /api/iot/data/export/save: same rendering
// but delivered as a download.
func (h *Handlers) PostExportSave(w http.ResponseWriter, r *http.Request) {
	result, err := h.export(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

func (h *Handlers) export(r *http.Request) (*query.ExportResult, error) {
	var req exportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		return nil, apperror.BadRequest("Invalid request body")
	}
	return h.exporter.Export(r.Context(), localityFrom(r.Context()),
		req.SensorType, req.StartDate, req.EndDate, req.Category, req.Format, req.PreviewLimit)
}

type importRequest struct {
	SensorType string `json:"sensorType"`
	Format     string `json:"format"`
	Data       string `json:"data"`
}

// PostImport handles POST /api/iot/data/import: parse and validate the
// upload without persisting anything.
func (h *Handlers) PostImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.BadRequest("Invalid request body"))
		return
	}

	preview, err := h.importer.Preview([]byte(req.Data), req.Format)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// PostImportSave handles POST /api/iot/data/import/save: parse and
// persist the clean rows.
func (h *Handlers) PostImportSave(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.BadRequest("Invalid request body"))
		return
	}

	result, preview, err := h.importer.Save(r.Context(), localityFrom(r.Context()),
		req.SensorType, []byte(req.Data), req.Format)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":  result,
		"skipped": preview.Errors,
	})
}

// GetAlerts handles GET /api/iot/alerts
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	alerts, err := h.alerts.ListByLocality(r.Context(), localityFrom(r.Context()), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// PostAlertAck handles POST /api/iot/alerts/{id}/ack
func (h *Handlers) PostAlertAck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AcknowledgedBy string `json:"acknowledgedBy"`
	}
	json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req)
	if req.AcknowledgedBy == "" {
		req.AcknowledgedBy = "operator"
	}

	alert, err := h.alerts.Acknowledge(r.Context(), chi.URLParam(r, "id"), req.AcknowledgedBy, time.Now().UTC())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if alert == nil {
		writeError(w, h.logger, apperror.NotFound("Alert not found"))
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// GetForecastStatus handles GET /api/forecast/status
func (h *Handlers) GetForecastStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.forecasts.CurrentStatus(r.Context(), localityFrom(r.Context()), time.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GetForecastData handles GET /api/forecast/data
func (h *Handlers) GetForecastData(w http.ResponseWriter, r *http.Request) {
	data, err := h.forecasts.Data(r.Context(), localityFrom(r.Context()), time.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// PostForecastTrigger handles POST /api/forecast/trigger
func (h *Handlers) PostForecastTrigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, h.logger, apperror.BadRequest("Invalid request body"))
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, h.logger, apperror.BadRequest("Invalid date format"))
		return
	}

	if err := h.forecasts.Trigger(r.Context(), localityFrom(r.Context()), date); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

// PostForecastCallback handles POST /api/forecast/callback
func (h *Handlers) PostForecastCallback(w http.ResponseWriter, r *http.Request) {
	var rows []forecast.CallbackRow
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&rows); err != nil {
		writeError(w, h.logger, apperror.BadRequest("Invalid request body"))
		return
	}

	result, err := h.forecasts.Callback(r.Context(), localityFrom(r.Context()), rows)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ServeAlertStream handles GET /ws/alerts
func (h *Handlers) ServeAlertStream(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, w, r, h.logger)
}
