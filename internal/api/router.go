package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/canalwise/irrigation-platform/pkg/health"
)

// NewRouter assembles the full HTTP surface. The health endpoint is
// outside the locality middleware so probes need no headers.
func NewRouter(h *Handlers, checker *health.Checker) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", checker.Handler())
	r.Get("/health/details", checker.DetailedHandler())
	r.Get("/ws/alerts", h.ServeAlertStream)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireLocality)

		r.Route("/iot", func(r chi.Router) {
			r.Post("/readings", h.PostReadings)
			r.Get("/latest", h.GetLatest)
			r.Get("/history", h.GetHistory)
			r.Get("/analytics", h.GetAnalytics)

			r.Post("/data/export", h.PostExport)
			r.Post("/data/export/save", h.PostExportSave)
			r.Post("/data/import", h.PostImport)
			r.Post("/data/import/save", h.PostImportSave)

			r.Get("/alerts", h.GetAlerts)
			r.Post("/alerts/{id}/ack", h.PostAlertAck)
		})

		r.Route("/forecast", func(r chi.Router) {
			r.Get("/status", h.GetForecastStatus)
			r.Get("/data", h.GetForecastData)
			r.Post("/trigger", h.PostForecastTrigger)
			r.Post("/callback", h.PostForecastCallback)
		})
	})

	return r
}
