package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/themecheck/internal/metrics"
	"github.com/ppiankov/themecheck/internal/model"
)

// DestinationValidator validates one destination input
type DestinationValidator interface {
	ValidateDestination(ctx context.Context, input model.DestinationInput) (*model.DestinationReport, error)
}

// Router serves the validation API
type Router struct {
	validator    DestinationValidator
	metrics      *metrics.Metrics
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewRouter creates a router. m and logger may be nil.
func NewRouter(validator DestinationValidator, m *metrics.Metrics, logger *slog.Logger, maxBodyBytes int64) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 8 << 20
	}
	return &Router{
		validator:    validator,
		metrics:      m,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/destinations/validate", rt.validateDestination)
	mux.Handle("/metrics", rt.metrics.Handler())
	return requestIDMiddleware(rt.accessLogMiddleware(rt.metrics.Middleware(mux)))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) validateDestination(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var input model.DestinationInput
	body := http.MaxBytesReader(w, r.Body, rt.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&input); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "destination_name is required"})
		return
	}

	report, err := rt.validator.ValidateDestination(r.Context(), input)
	if err != nil {
		rt.logger.Error("validate_destination_failed",
			"request_id", requestIDFromContext(r.Context()),
			"destination", input.Name,
			"error", err,
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case model.IsKind(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
