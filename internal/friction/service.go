// Package friction runs one export friction calculation end to end: parameter
// resolution, scoring, logging, metrics and tracing. The HTTP API and the
// workflow worker both go through Service.
package friction

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/common/logger"
	"export-friction/internal/common/metrics"
	"export-friction/internal/common/observability"
	"export-friction/internal/scoring"
)

// Calculator is satisfied by *scoring.Engine.
type Calculator interface {
	Calculate(productID, countryID string, params scoring.Parameters) (*scoring.Result, error)
}

// Request identifies a pair and carries raw tuning values.
type Request struct {
	ProductID  string
	CountryID  string
	Parameters scoring.RawParameters
	// RequestID correlates log lines with the caller; optional.
	RequestID string
}

// Calculation is a scored pair plus the parameters actually applied.
type Calculation struct {
	Result      *scoring.Result
	Parameters  scoring.Parameters
	Adjustments []scoring.Adjustment
}

type Service struct {
	engine Calculator
	obs    *observability.Observability
	logger logger.Logger
}

func NewService(engine Calculator, obs *observability.Observability, log logger.Logger) *Service {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Service{
		engine: engine,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{"component": "friction-service"}),
	}
}

// Calculate scores req. origin labels metrics and spans ("api", "worker").
func (s *Service) Calculate(ctx context.Context, origin string, req Request) (*Calculation, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "friction.calculate",
		attribute.String("origin", origin),
		attribute.String("product.id", req.ProductID),
		attribute.String("country.id", req.CountryID),
	)
	defer span.End()

	fields := map[string]interface{}{
		"origin":    origin,
		"productId": req.ProductID,
		"countryId": req.CountryID,
	}
	if req.RequestID != "" {
		fields["requestId"] = req.RequestID
	}
	log := s.logger.WithFields(fields)

	calc, err := s.calculate(req, log)
	if err != nil {
		code := apperrors.CodeOf(err)
		metrics.RecordCalculationError(string(code))
		s.obs.RecordCalculation(ctx, origin, string(code), time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))

		fields := map[string]interface{}{"error": err, "errorCode": string(code)}
		if apperrors.IsClientError(err) {
			log.Info("calculation rejected", fields)
		} else {
			log.Error("calculation failed", fields)
		}
		return nil, err
	}

	res := calc.Result
	metrics.RecordCalculation(string(res.Color), string(res.TipVariant), res.FrictionIndex)
	s.obs.RecordCalculation(ctx, origin, string(res.Color), time.Since(start))
	span.SetAttributes(
		attribute.Float64("friction.index", res.FrictionIndex),
		attribute.String("friction.color", string(res.Color)),
		attribute.String("friction.tip_variant", string(res.TipVariant)),
	)

	log.Debug("calculation completed", map[string]interface{}{
		"frictionIndex": res.FrictionIndex,
		"confidence":    res.Confidence,
		"color":         string(res.Color),
		"tipVariant":    string(res.TipVariant),
	})
	return calc, nil
}

func (s *Service) calculate(req Request, log logger.Logger) (*Calculation, error) {
	params, adjustments, err := scoring.Resolve(req.Parameters)
	for _, a := range adjustments {
		metrics.RecordAdjustment(a.Parameter)
		log.Warn("parameter replaced by default", map[string]interface{}{
			"parameter": a.Parameter,
			"supplied":  a.Supplied,
			"applied":   a.Applied,
			"reason":    a.Reason,
		})
	}
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Calculate(req.ProductID, req.CountryID, params)
	if err != nil {
		return nil, err
	}
	return &Calculation{Result: res, Parameters: params, Adjustments: adjustments}, nil
}
