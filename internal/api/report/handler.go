package report

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketpulse/internal/domain/analytics"
	"marketpulse/internal/services/report"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// MaxLookbackHours bounds the hours query parameter
const MaxLookbackHours = 24 * 30

// Generator produces a report for a symbol over a lookback window
type Generator interface {
	GenerateWindow(ctx context.Context, symbol string, lookback time.Duration) (*report.Report, error)
}

// ContextBuilder yields the bare market context
type ContextBuilder interface {
	Build(ctx context.Context, symbol string, lookback time.Duration) (*analytics.MarketContext, bool, error)
}

// Handler serves market context and report requests over HTTP
type Handler struct {
	reports  Generator
	contexts ContextBuilder
	timeout  time.Duration
	log      *logger.Logger
}

// New creates the report handler; timeout bounds one report generation
func New(reports Generator, contexts ContextBuilder, timeout time.Duration, log *logger.Logger) *Handler {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Handler{reports: reports, contexts: contexts, timeout: timeout, log: log}
}

type errorBody struct {
	Error string `json:"error"`
}

// HandleContext serves GET /api/v1/context?symbol=SPX&hours=24
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	symbol, lookback, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	mc, ok, err := h.contexts.Build(r.Context(), symbol, lookback)
	if err != nil {
		h.log.Error("Context request failed", "symbol", symbol, "error", err)
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no market data for " + symbol})
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

// HandleReport serves GET /api/v1/report?symbol=SPX&hours=24
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	symbol, lookback, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rep, err := h.reports.GenerateWindow(ctx, symbol, lookback)
	if err != nil {
		h.log.Error("Report request failed", "symbol", symbol, "error", err)
		writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
		return
	}

	code := http.StatusOK
	switch rep.Status {
	case report.StatusNoData:
		code = http.StatusNotFound
	case report.StatusNotConfigured:
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, rep)
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method " + r.Method + " not allowed"})
	return false
}

func parseQuery(r *http.Request) (string, time.Duration, error) {
	q := r.URL.Query()
	symbol := strings.TrimSpace(q.Get("symbol"))
	if symbol == "" {
		return "", 0, errors.NewValidationError("symbol", "is required", "")
	}

	var lookback time.Duration
	if raw := q.Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 || hours > MaxLookbackHours {
			return "", 0, errors.NewValidationError("hours", "must be between 1 and 720", raw)
		}
		lookback = time.Duration(hours) * time.Hour
	}
	return symbol, lookback, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrExternal):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
