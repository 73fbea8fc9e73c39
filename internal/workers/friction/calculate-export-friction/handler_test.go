// internal/workers/friction/calculate-export-friction/handler_test.go
package calculateexportfriction

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/common/logger"
	"export-friction/internal/friction"
	"export-friction/internal/reference"
	"export-friction/internal/scoring"
	"export-friction/pkg/catalog"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := reference.NewStore(&catalog.Document{
		Products: []catalog.Product{
			{
				ID: "hops", Name: "Craft Hops", Origin: "Yakima Valley",
				OperationalFactors: []catalog.Factor{{Name: "cold_chain", Value: 5}, {Name: "shelf_life", Value: 5}, {Name: "cost", Value: 5}},
				BaseTip:            "Ship vacuum-packed pellets.",
			},
			{
				ID: "wine", Name: "Ice Wine",
				OperationalFactors: []catalog.Factor{{Name: "breakage", Value: 9}, {Name: "cost", Value: 8}},
				BaseTip:            "Pad cases and insure breakage.",
			},
		},
		Countries: []catalog.Country{{
			ID: "fi", Name: "Finland",
			RelationalFactors: []catalog.Factor{{Name: "tariff_index", Value: 2}, {Name: "language", Value: 2}, {Name: "culture", Value: 2}},
			BaseConfidence:    90,
			BaseTip:           "Alko tenders run twice a year.",
		}},
	})
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	svc := friction.NewService(scoring.NewEngine(store), nil, log)
	return NewHandler(LoadConfig(), svc, log)
}

func decodeInput(t *testing.T, variables string) *Input {
	t.Helper()
	var input Input
	require.NoError(t, json.Unmarshal([]byte(variables), &input))
	return &input
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{ProductID: "hops", CountryID: "fi"})
	require.NoError(t, err)

	assert.Equal(t, 5.0, output.OperationalFriction)
	assert.Equal(t, 2.0, output.RelationalFriction)
	assert.Equal(t, 3.5, output.FrictionIndex)
	assert.Equal(t, 73, output.Confidence)
	assert.Equal(t, "Green", output.Color)
	assert.Equal(t, "strategic_go", output.TipVariant)
	assert.Contains(t, output.Tip, "Finland")
	assert.Empty(t, output.ParameterAdjustments)
}

func TestHandler_Execute_WithVariables(t *testing.T) {
	tests := []struct {
		name           string
		variables      string
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:      "numeric parameters",
			variables: `{"productId":"hops","countryId":"fi","weightOperational":3,"weightRelational":1}`,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 4.25, output.FrictionIndex)
			},
		},
		{
			name:      "string parameters",
			variables: `{"productId":"hops","countryId":"fi","tariffAdjustment":"0.5"}`,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 3.0, output.RelationalFriction)
			},
		},
		{
			name:      "stress scenario",
			variables: `{"productId":"hops","countryId":"fi","scenarioMultiplier":1.7}`,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, "critical_stress", output.TipVariant)
				assert.Equal(t, 8.5, output.OperationalFriction)
			},
		},
		{
			name:      "bad values are defaulted and reported",
			variables: `{"productId":"hops","countryId":"fi","weightRelational":true,"tariffAdjustment":-4,"scenarioMultiplier":null}`,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 3.5, output.FrictionIndex)
				require.Len(t, output.ParameterAdjustments, 2)
				assert.Equal(t, scoring.ParamWeightRelational, output.ParameterAdjustments[0].Parameter)
				assert.Equal(t, "true", output.ParameterAdjustments[0].Supplied)
				assert.Equal(t, scoring.ParamTariffAdjustment, output.ParameterAdjustments[1].Parameter)
			},
		},
		{
			name:      "operational weight dominates",
			variables: `{"productId":"wine","countryId":"fi","weightOperational":4,"weightRelational":1}`,
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 7.2, output.FrictionIndex)
				assert.Equal(t, "Yellow", output.Color)
				assert.Equal(t, "operational", output.DominantFactor)
			},
		},
	}

	h := createTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := h.Execute(context.Background(), decodeInput(t, tt.variables))
			require.NoError(t, err)
			tt.validateOutput(t, output)
		})
	}
}

// ==========================
// Error Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		wantCode apperrors.ErrorCode
	}{
		{"missing product", &Input{CountryID: "fi"}, apperrors.ErrCodeInvalidParameter},
		{"blank country", &Input{ProductID: "hops", CountryID: "  "}, apperrors.ErrCodeInvalidParameter},
		{"unknown product", &Input{ProductID: "mead", CountryID: "fi"}, apperrors.ErrCodeReferenceNotFound},
		{"unknown country", &Input{ProductID: "hops", CountryID: "se"}, apperrors.ErrCodeReferenceNotFound},
		{"both weights zero", &Input{ProductID: "hops", CountryID: "fi", WeightOperational: "0", WeightRelational: "0"}, apperrors.ErrCodeInvalidParameter},
		{"scenario overflows friction", &Input{ProductID: "hops", CountryID: "fi", ScenarioMultiplier: "1e308"}, apperrors.ErrCodeInvalidParameter},
		{"weight overflows index", &Input{ProductID: "hops", CountryID: "fi", WeightRelational: "1e308"}, apperrors.ErrCodeInvalidParameter},
	}

	h := createTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := h.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))

			bpmn := apperrors.ConvertToBPMNError(apperrors.AsStandard(err))
			assert.Equal(t, 0, bpmn.Retries)
		})
	}
}

func TestParamValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want paramValue
	}{
		{`1.5`, "1.5"},
		{`"2"`, "2"},
		{`null`, ""},
		{`false`, "false"},
		{`[1]`, "[1]"},
		{`-0`, "-0"},
	}
	for _, tt := range tests {
		var p paramValue
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
		assert.Equal(t, tt.want, p, "raw=%s", tt.raw)
	}
}
