package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/models"
	"export-friction/internal/reference"
	"export-friction/pkg/catalog"
)

func factors(values ...float64) []models.Factor {
	out := make([]models.Factor, len(values))
	for i, v := range values {
		out[i] = models.Factor{Name: "f", Value: v}
	}
	return out
}

func testProduct(values ...float64) *models.Product {
	return &models.Product{
		ID:                 "hops",
		Name:               "Craft Hops",
		Origin:             "Yakima Valley",
		OperationalFactors: factors(values...),
		BaseTip:            "Ship vacuum-packed pellets.",
	}
}

func testCountry(base float64, values ...float64) *models.Country {
	return &models.Country{
		ID:                "fi",
		Name:              "Finland",
		RelationalFactors: factors(values...),
		BaseConfidence:    base,
		BaseTip:           "Alko tenders run twice a year.",
	}
}

func TestScore_WorkedExample(t *testing.T) {
	res, err := Score(testProduct(5, 5, 5), testCountry(90, 2, 2, 2), DefaultParameters())
	require.NoError(t, err)

	assert.Equal(t, 5.0, res.OperationalFriction)
	assert.Equal(t, 2.0, res.RelationalFriction)
	assert.Equal(t, 3.5, res.FrictionIndex)
	assert.Equal(t, Green, res.Color)
	assert.Equal(t, 73, res.Confidence)
	assert.Equal(t, TipStrategicGo, res.TipVariant)
	assert.Equal(t, Operational, res.DominantFactor)
	assert.Equal(t,
		"Strategic go: lead with the Yakima Valley provenance of Craft Hops and move quickly into Finland while locking in compliance basics.",
		res.Tip)
}

func TestScore_Components(t *testing.T) {
	tests := []struct {
		name    string
		params  Parameters
		wantOp  float64
		wantRel float64
		wantFI  float64
	}{
		{
			name:    "scenario scales operational only",
			params:  Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: 1.5},
			wantOp:  6, wantRel: 2, wantFI: 4,
		},
		{
			name:    "tariff shock scales relational",
			params:  Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: 1, TariffAdjustment: 0.5},
			wantOp:  4, wantRel: 3, wantFI: 3.5,
		},
		{
			name:    "tariff relief",
			params:  Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: 1, TariffAdjustment: -0.5},
			wantOp:  4, wantRel: 1, wantFI: 2.5,
		},
		{
			name:    "operational weight only",
			params:  Parameters{WeightOperational: 2, WeightRelational: 0, ScenarioMultiplier: 1},
			wantOp:  4, wantRel: 2, wantFI: 4,
		},
		{
			name:    "relational weight only",
			params:  Parameters{WeightOperational: 0, WeightRelational: 3, ScenarioMultiplier: 1},
			wantOp:  4, wantRel: 2, wantFI: 2,
		},
		{
			name:    "uneven weights",
			params:  Parameters{WeightOperational: 3, WeightRelational: 1, ScenarioMultiplier: 1},
			wantOp:  4, wantRel: 2, wantFI: 3.5,
		},
		{
			name:    "zero scenario",
			params:  Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: 0},
			wantOp:  0, wantRel: 2, wantFI: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Score(testProduct(2, 4, 6), testCountry(80, 1, 3), tt.params)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantOp, res.OperationalFriction, 1e-9)
			assert.InDelta(t, tt.wantRel, res.RelationalFriction, 1e-9)
			assert.InDelta(t, tt.wantFI, res.FrictionIndex, 1e-9)
		})
	}
}

func TestColorFor_Boundaries(t *testing.T) {
	tests := []struct {
		fi   float64
		want Color
	}{
		{0, Green},
		{4.4999, Green},
		{4.5, Yellow},
		{7.4999, Yellow},
		{7.5, Red},
		{30, Red},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorFor(tt.fi), "fi=%v", tt.fi)
	}
}

func TestScore_ConfidenceClamped(t *testing.T) {
	tests := []struct {
		name string
		base float64
		rel  float64
		want int
	}{
		{"floor at zero", 10, 9, 0},
		{"full confidence without friction", 100, 0, 100},
		{"half rounds up", 90, 3.5, 73},
		{"rounds to nearest", 90, 3.45, 73},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Score(testProduct(tt.rel), testCountry(tt.base, tt.rel), DefaultParameters())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Confidence)
		})
	}
}

func TestScore_Properties(t *testing.T) {
	values := []float64{0, 1, 2.5, 5, 7.5, 10}
	scenarios := []float64{0, 0.5, 1, 1.7, 2}
	tariffs := []float64{-0.9, 0, 0.25, 1}
	weights := [][2]float64{{1, 1}, {0, 1}, {1, 0}, {0.3, 2}}

	for _, opV := range values {
		for _, relV := range values {
			for _, s := range scenarios {
				for _, tAdj := range tariffs {
					for _, w := range weights {
						params := Parameters{WeightOperational: w[0], WeightRelational: w[1], ScenarioMultiplier: s, TariffAdjustment: tAdj}
						res, err := Score(testProduct(opV, opV/2), testCountry(85, relV, 10-relV), params)
						require.NoError(t, err)

						assert.GreaterOrEqual(t, res.OperationalFriction, 0.0)
						assert.GreaterOrEqual(t, res.RelationalFriction, 0.0)

						lo := math.Min(res.OperationalFriction, res.RelationalFriction)
						hi := math.Max(res.OperationalFriction, res.RelationalFriction)
						assert.GreaterOrEqual(t, res.FrictionIndex, lo-1e-9)
						assert.LessOrEqual(t, res.FrictionIndex, hi+1e-9)

						assert.GreaterOrEqual(t, res.Confidence, 0)
						assert.LessOrEqual(t, res.Confidence, 100)
						assert.Equal(t, ColorFor(res.FrictionIndex), res.Color)

						again, err := Score(testProduct(opV, opV/2), testCountry(85, relV, 10-relV), params)
						require.NoError(t, err)
						assert.Equal(t, res, again)
					}
				}
			}
		}
	}
}

func TestScore_ConfidenceNonIncreasingInFriction(t *testing.T) {
	prev := 101
	prevColor := Green
	rank := map[Color]int{Green: 0, Yellow: 1, Red: 2}

	for rel := 0.0; rel <= 12; rel += 0.25 {
		res, err := Score(testProduct(rel), testCountry(95, rel), DefaultParameters())
		require.NoError(t, err)

		assert.LessOrEqual(t, res.Confidence, prev, "rel=%v", rel)
		assert.GreaterOrEqual(t, rank[res.Color], rank[prevColor], "rel=%v", rel)
		prev, prevColor = res.Confidence, res.Color
	}
}

func TestScore_InvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		params    Parameters
		wantParam string
	}{
		{"both weights zero", Parameters{ScenarioMultiplier: 1}, "weights"},
		{"negative weight", Parameters{WeightOperational: -1, WeightRelational: 1, ScenarioMultiplier: 1}, ParamWeightOperational},
		{"negative scenario", Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: -0.1}, ParamScenarioMultiplier},
		{"tariff at -1", Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: 1, TariffAdjustment: -1}, ParamTariffAdjustment},
		{"NaN weight", Parameters{WeightOperational: math.NaN(), WeightRelational: 1, ScenarioMultiplier: 1}, ParamWeightOperational},
		{"infinite scenario", Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: math.Inf(1)}, ParamScenarioMultiplier},
		{"huge scenario", Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: 1e308}, ParamScenarioMultiplier},
		{"huge tariff", Parameters{WeightOperational: 1, WeightRelational: 1, ScenarioMultiplier: 1, TariffAdjustment: 1e308}, ParamTariffAdjustment},
		{"huge operational weight", Parameters{WeightOperational: 1e308, WeightRelational: 1, ScenarioMultiplier: 1}, "weights"},
		{"huge relational weight", Parameters{WeightOperational: 1, WeightRelational: 1e308, ScenarioMultiplier: 1}, "weights"},
		{"huge weights", Parameters{WeightOperational: 1e308, WeightRelational: 1e308, ScenarioMultiplier: 1}, "weights"},
		{"weighted sum overflows", Parameters{WeightOperational: 1e10, WeightRelational: 1, ScenarioMultiplier: 1e300}, "weights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Score(testProduct(5), testCountry(90, 2), tt.params)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInvalidParameter, apperrors.CodeOf(err))
			assert.Equal(t, tt.wantParam, apperrors.AsStandard(err).Metadata["parameter"])
		})
	}
}

func TestScore_LargeFiniteParameters(t *testing.T) {
	res, err := Score(testProduct(5), testCountry(90, 2), Parameters{
		WeightOperational:  1,
		WeightRelational:   1,
		ScenarioMultiplier: 1e300,
	})
	require.NoError(t, err)
	assert.Equal(t, Red, res.Color)
	assert.Equal(t, 0, res.Confidence)

	assert.NotPanics(t, func() { res.Rounded() })
}

func TestScore_EmptyFactorsAreIntegrityErrors(t *testing.T) {
	_, err := Score(testProduct(), testCountry(90, 2), DefaultParameters())
	assert.Equal(t, apperrors.ErrCodeDataIntegrity, apperrors.CodeOf(err))

	_, err = Score(testProduct(1), testCountry(90), DefaultParameters())
	assert.Equal(t, apperrors.ErrCodeDataIntegrity, apperrors.CodeOf(err))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := reference.NewStore(&catalog.Document{
		Products: []catalog.Product{{
			ID: "hops", Name: "Craft Hops",
			OperationalFactors: []catalog.Factor{{Name: "cold_chain", Value: 5}, {Name: "shelf_life", Value: 5}},
			BaseTip:            "Ship pellets.",
		}},
		Countries: []catalog.Country{{
			ID: "fi", Name: "Finland",
			RelationalFactors: []catalog.Factor{{Name: "tariff_index", Value: 2}},
			BaseConfidence:    90,
			BaseTip:           "Alko.",
		}},
	})
	require.NoError(t, err)
	return NewEngine(store)
}

func TestEngine_Calculate(t *testing.T) {
	engine := newTestEngine(t)

	res, err := engine.Calculate("hops", "fi", DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, 3.5, res.FrictionIndex)
	assert.Equal(t, 73, res.Confidence)
}

func TestEngine_CalculateNotFound(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name      string
		productID string
		countryID string
		wantKind  string
	}{
		{"unknown product", "mead", "fi", "product"},
		{"unknown country", "hops", "se", "country"},
		{"both unknown reports product", "mead", "se", "product"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Calculate(tt.productID, tt.countryID, DefaultParameters())
			assert.Nil(t, res)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeReferenceNotFound, apperrors.CodeOf(err))
			assert.Equal(t, tt.wantKind, apperrors.AsStandard(err).Metadata["kind"])
		})
	}
}

func TestResult_Rounded(t *testing.T) {
	res, err := Score(testProduct(1, 1, 2), testCountry(90, 2, 2, 3), DefaultParameters())
	require.NoError(t, err)

	rounded := res.Rounded()
	assert.Equal(t, 1.33, rounded.OperationalFriction)
	assert.Equal(t, 2.33, rounded.RelationalFriction)
	assert.Equal(t, 1.83, rounded.FrictionIndex)
	assert.Equal(t, res.Confidence, rounded.Confidence)
	assert.Equal(t, res.Tip, rounded.Tip)

	assert.InDelta(t, 4.0/3, res.OperationalFriction, 1e-12)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{0.125, 0.13},
		{4.0 / 3, 1.33},
		{7.5, 7.5},
		{0, 0},
		{1e300, 1e300},
		{math.Inf(1), math.Inf(1)},
		{math.Inf(-1), math.Inf(-1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
	assert.True(t, math.IsNaN(round2(math.NaN())))
}
