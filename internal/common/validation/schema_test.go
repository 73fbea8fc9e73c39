package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"export-friction/pkg/catalog"
)

func newCatalogValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(catalog.JSONSchema)
	require.NoError(t, err)
	return v
}

func TestValidator_ValidDocument(t *testing.T) {
	v := newCatalogValidator(t)

	res, err := v.ValidateBytes([]byte(`{
		"version": "1",
		"products": [{"id": "hops", "name": "Hops", "base_tip": "x",
			"operational_factors": [{"name": "logistics_complexity", "value": 6}]}],
		"countries": [{"id": "fi", "name": "Finland", "base_tip": "y", "base_confidence": 80,
			"relational_factors": [{"name": "tariff_index", "value": 3}]}]
	}`))
	require.NoError(t, err)
	assert.True(t, res.Valid, res.GetErrorMessages())
	assert.Empty(t, res.Errors)
}

func TestValidator_InvalidDocument(t *testing.T) {
	v := newCatalogValidator(t)

	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name: "empty operational factors",
			doc: `{"products": [{"id": "hops", "name": "Hops", "base_tip": "x", "operational_factors": []}],
				"countries": []}`,
			wantField: "products.0.operational_factors",
		},
		{
			name: "negative relational factor",
			doc: `{"products": [], "countries": [{"id": "fi", "name": "Finland", "base_tip": "y",
				"base_confidence": 80, "relational_factors": [{"name": "tariff_index", "value": -1}]}]}`,
			wantField: "countries.0.relational_factors.0.value",
		},
		{
			name: "confidence above 100",
			doc: `{"products": [], "countries": [{"id": "fi", "name": "Finland", "base_tip": "y",
				"base_confidence": 120, "relational_factors": [{"name": "tariff_index", "value": 1}]}]}`,
			wantField: "countries.0.base_confidence",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.ValidateBytes([]byte(tt.doc))
			require.NoError(t, err)
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.GetErrorsForField(tt.wantField), res.GetErrorMessages())
		})
	}
}

func TestValidator_MissingTables(t *testing.T) {
	v := newCatalogValidator(t)

	res, err := v.ValidateValue(map[string]interface{}{"version": "1"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	joined := strings.Join(res.GetErrorMessages(), "; ")
	assert.Contains(t, joined, "products")
	assert.Contains(t, joined, "countries")
}

func TestValidator_NotJSON(t *testing.T) {
	v := newCatalogValidator(t)

	_, err := v.ValidateBytes([]byte(`{"products": [`))
	assert.Error(t, err)
}

func TestNewValidator_BadSchema(t *testing.T) {
	_, err := NewValidator(`{"type": 12}`)
	assert.Error(t, err)
}
