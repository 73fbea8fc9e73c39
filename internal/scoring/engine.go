// Package scoring computes export friction, confidence, a color band and an
// advisory tip for a product and destination country.
package scoring

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/models"
	"export-friction/internal/reference"
)

// ConfidenceDecay is the confidence lost per point of friction index.
const ConfidenceDecay = 5.0

// Result is the outcome of one calculation.
type Result struct {
	OperationalFriction float64    `json:"operationalFriction"`
	RelationalFriction  float64    `json:"relationalFriction"`
	FrictionIndex       float64    `json:"frictionIndex"`
	Confidence          int        `json:"confidence"`
	Color               Color      `json:"color"`
	Tip                 string     `json:"tip"`
	TipVariant          TipVariant `json:"tipVariant"`
	DominantFactor      Dominance  `json:"dominantFactor"`
}

// Score is the pure scoring function. It fails for parameters that do not
// pass Validate or that push a friction value past the float64 range, and for
// records with no factors.
func Score(product *models.Product, country *models.Country, params Parameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(product.OperationalFactors) == 0 {
		return nil, apperrors.NewDataIntegrityError(fmt.Sprintf("product %s has no operational factors", product.ID))
	}
	if len(country.RelationalFactors) == 0 {
		return nil, apperrors.NewDataIntegrityError(fmt.Sprintf("country %s has no relational factors", country.ID))
	}

	op := mean(models.FactorValues(product.OperationalFactors)) * params.ScenarioMultiplier
	rel := mean(models.FactorValues(country.RelationalFactors)) * (1 + params.TariffAdjustment)

	wOp, wRel := params.WeightOperational, params.WeightRelational
	fi := (op*wOp + rel*wRel) / (wOp + wRel)

	switch {
	case !finite(op):
		return nil, apperrors.NewInvalidParameterError(ParamScenarioMultiplier,
			fmt.Sprintf("%v overflows operational friction", params.ScenarioMultiplier))
	case !finite(rel):
		return nil, apperrors.NewInvalidParameterError(ParamTariffAdjustment,
			fmt.Sprintf("%v overflows relational friction", params.TariffAdjustment))
	case !finite(fi):
		return nil, apperrors.NewInvalidParameterError("weights", "weighted friction index overflows")
	}

	color := ColorFor(fi)
	dominant := dominantFactor(op, rel)
	tip, variant := buildTip(tipInput{
		product:  product,
		country:  country,
		color:    color,
		scenario: params.ScenarioMultiplier,
		dominant: dominant,
	})

	return &Result{
		OperationalFriction: op,
		RelationalFriction:  rel,
		FrictionIndex:       fi,
		Confidence:          confidence(country.BaseConfidence, fi),
		Color:               color,
		Tip:                 tip,
		TipVariant:          variant,
		DominantFactor:      dominant,
	}, nil
}

func confidence(base, frictionIndex float64) int {
	c := base - frictionIndex*ConfidenceDecay
	return int(math.Round(math.Max(0, math.Min(100, c))))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Engine resolves ids against reference data and scores the pair. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	resolver reference.Resolver
}

func NewEngine(resolver reference.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// Calculate resolves the product, then the country, then scores. A lookup
// failure is returned as is and the pair is never scored.
func (e *Engine) Calculate(productID, countryID string, params Parameters) (*Result, error) {
	product, err := e.resolver.ResolveProduct(productID)
	if err != nil {
		return nil, err
	}
	country, err := e.resolver.ResolveCountry(countryID)
	if err != nil {
		return nil, err
	}
	return Score(product, country, params)
}

// Rounded returns a copy with the three friction values rounded to two
// decimals for display.
func (r *Result) Rounded() *Result {
	out := *r
	out.OperationalFriction = round2(r.OperationalFriction)
	out.RelationalFriction = round2(r.RelationalFriction)
	out.FrictionIndex = round2(r.FrictionIndex)
	return &out
}

// round2 rounds half away from zero on the shortest decimal form of v, so
// 1.005 becomes 1.01 rather than the 1.00 that scaling by 100 would give.
// Non-finite values are returned unchanged.
func round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
