package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/ickb/orderbot/internal/circuitbreaker"
	"github.com/ickb/orderbot/internal/telemetry"
	"go.uber.org/zap"
)

// ReportSource exposes the last sealed iteration report.
type ReportSource interface {
	Last() (telemetry.Report, bool)
	Count() int
}

// BreakerSource exposes the depletion breaker state.
type BreakerSource interface {
	GetStatus() circuitbreaker.Status
}

// ReportHandler handles HTTP requests for bot state.
type ReportHandler struct {
	reports ReportSource
	breaker BreakerSource
	logger  *zap.Logger
}

// NewReportHandler creates a new report handler. breaker may be nil.
func NewReportHandler(reports ReportSource, breaker BreakerSource, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		breaker: breaker,
		logger:  logger,
	}
}

// StatusResponse summarises the bot for operators.
type StatusResponse struct {
	Iterations int                    `json:"iterations"`
	Breaker    *circuitbreaker.Status `json:"breaker,omitempty"`
	LastReport *telemetry.Report      `json:"lastReport,omitempty"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleReport handles GET /api/report.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reports.Last()
	if !ok {
		h.writeError(w, "no iteration has completed yet", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleStatus handles GET /api/status.
func (h *ReportHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Iterations: h.reports.Count()}
	if report, ok := h.reports.Last(); ok {
		resp.LastReport = &report
	}
	if h.breaker != nil {
		status := h.breaker.GetStatus()
		resp.Breaker = &status
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *ReportHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
