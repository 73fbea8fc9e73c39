// Package api exposes the friction calculation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/common/logger"
	"export-friction/internal/friction"
	"export-friction/internal/models"
	"export-friction/internal/scoring"
)

// Calculator is satisfied by *friction.Service.
type Calculator interface {
	Calculate(ctx context.Context, origin string, req friction.Request) (*friction.Calculation, error)
}

// Catalog lists the selectable products and countries.
type Catalog interface {
	Products() []models.Summary
	Countries() []models.Summary
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	calculator Calculator
	catalog    Catalog
	logger     logger.Logger
	checks     map[string]ReadinessCheck
	started    time.Time
}

func NewHandler(calculator Calculator, catalog Catalog, log logger.Logger) *Handler {
	return &Handler{
		calculator: calculator,
		catalog:    catalog,
		logger:     log.WithFields(map[string]interface{}{"component": "api"}),
		checks:     make(map[string]ReadinessCheck),
		started:    time.Now(),
	}
}

// AddReadinessCheck registers a dependency probed by /ready. Not safe to call
// once the server is running.
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// Routes returns the full HTTP handler including middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/calculate", h.Calculate)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())
	return h.withRequestID(h.withAccessLog(mux))
}

// CalculateResponse is the success body of /api/calculate.
type CalculateResponse struct {
	OperationalFriction  float64              `json:"operationalFriction"`
	RelationalFriction   float64              `json:"relationalFriction"`
	FrictionIndex        float64              `json:"frictionIndex"`
	Confidence           int                  `json:"confidence"`
	Color                string               `json:"color"`
	Tip                  string               `json:"tip"`
	TipVariant           string               `json:"tipVariant"`
	DominantFactor       string               `json:"dominantFactor"`
	ParameterAdjustments []scoring.Adjustment `json:"parameterAdjustments,omitempty"`
}

// MetadataResponse lists the selectable ids when a request names no pair.
type MetadataResponse struct {
	Products  []models.Summary `json:"products"`
	Countries []models.Summary `json:"countries"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Calculate scores productId against countryId. Without both ids it answers
// with the product and country lists instead.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := strings.TrimSpace(q.Get("productId"))
	countryID := strings.TrimSpace(q.Get("countryId"))

	if productID == "" || countryID == "" {
		writeJSON(w, http.StatusOK, MetadataResponse{
			Products:  h.catalog.Products(),
			Countries: h.catalog.Countries(),
		})
		return
	}

	calc, err := h.calculator.Calculate(r.Context(), "api", friction.Request{
		ProductID: productID,
		CountryID: countryID,
		RequestID: RequestIDFrom(r.Context()),
		Parameters: scoring.RawParameters{
			scoring.ParamWeightOperational:  q.Get(scoring.ParamWeightOperational),
			scoring.ParamWeightRelational:   q.Get(scoring.ParamWeightRelational),
			scoring.ParamScenarioMultiplier: q.Get(scoring.ParamScenarioMultiplier),
			scoring.ParamTariffAdjustment:   q.Get(scoring.ParamTariffAdjustment),
		},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res := calc.Result.Rounded()
	writeJSON(w, http.StatusOK, CalculateResponse{
		OperationalFriction:  res.OperationalFriction,
		RelationalFriction:   res.RelationalFriction,
		FrictionIndex:        res.FrictionIndex,
		Confidence:           res.Confidence,
		Color:                string(res.Color),
		Tip:                  res.Tip,
		TipVariant:           string(res.TipVariant),
		DominantFactor:       string(res.DominantFactor),
		ParameterAdjustments: calc.Adjustments,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"uptime": time.Since(h.started).Truncate(time.Second).String(),
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready runs every readiness check and reports 503 if any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.AsStandard(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	msg := stdErr.Message
	if apperrors.IsClientError(stdErr) && stdErr.Details != "" {
		msg += ": " + stdErr.Details
	}
	if status >= http.StatusInternalServerError {
		h.loggerFor(r).Error("request failed", map[string]interface{}{"error": err})
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: string(stdErr.Code)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
