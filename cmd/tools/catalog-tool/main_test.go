package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "export-friction/internal/common/errors"
	"export-friction/pkg/catalog"
)

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference-data.json")
	require.NoError(t, catalog.SaveDocument(path, &catalog.Document{
		Version: "2024.1",
		Products: []catalog.Product{{
			ID: "hops", Name: "Craft Hops", Origin: "Yakima Valley",
			OperationalFactors: []catalog.Factor{{Name: "cold_chain", Value: 5}, {Name: "shelf_life", Value: 5}},
			BaseTip:            "Ship vacuum-packed pellets.",
		}},
		Countries: []catalog.Country{{
			ID: "fi", Name: "Finland",
			RelationalFactors: []catalog.Factor{{Name: "tariff_index", Value: 2}},
			BaseConfidence:    90,
			BaseTip:           "Alko tenders run twice a year.",
		}},
	}))
	return path
}

func TestRun_Validate(t *testing.T) {
	path := writeCatalog(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"validate", "-path", path}, &out))
	assert.Equal(t, "Reference data 2024.1 is valid: 1 products, 1 countries.\n", out.String())
}

func TestRun_ValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"products": [], "countries": [{"id": "fi"}]}`), 0o644))

	err := run([]string{"validate", "-path", path}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDataIntegrity, apperrors.CodeOf(err))
}

func TestRun_List(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"list", "-path", writeCatalog(t)}, &out))

	assert.Contains(t, out.String(), "hops")
	assert.Contains(t, out.String(), "Yakima Valley")
	assert.Contains(t, out.String(), "Finland")
}

func TestRun_Score(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"score", "-path", writeCatalog(t), "-product", "hops", "-country", "fi", "-tariff", "junk"}, &out)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 3.5, got["frictionIndex"])
	assert.Equal(t, 73.0, got["confidence"])
	assert.Equal(t, "Green", got["color"])
	assert.Len(t, got["parameterAdjustments"], 1)
}

func TestRun_ScoreErrors(t *testing.T) {
	path := writeCatalog(t)

	err := run([]string{"score", "-path", path, "-product", "hops"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "product and country are required")

	err = run([]string{"score", "-path", path, "-product", "mead", "-country", "fi"}, &bytes.Buffer{})
	assert.Equal(t, apperrors.ErrCodeReferenceNotFound, apperrors.CodeOf(err))

	err = run([]string{"score", "-path", path, "-product", "hops", "-country", "fi", "-wop", "0", "-wrel", "0"}, &bytes.Buffer{})
	assert.Equal(t, apperrors.ErrCodeInvalidParameter, apperrors.CodeOf(err))
}

func TestRun_Update(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, doc *catalog.Document)
		wantErr string
	}{
		{
			name: "existing product factor",
			args: []string{"-kind", "product", "-id", "hops", "-factor", "cold_chain", "-value", "8"},
			check: func(t *testing.T, doc *catalog.Document) {
				assert.Equal(t, 8.0, doc.Products[0].OperationalFactors[0].Value)
				assert.NotEmpty(t, doc.LastUpdated)
			},
		},
		{
			name: "new country factor",
			args: []string{"-kind", "country", "-id", "fi", "-factor", "language", "-value", "3"},
			check: func(t *testing.T, doc *catalog.Document) {
				assert.Equal(t, []catalog.Factor{{Name: "tariff_index", Value: 2}, {Name: "language", Value: 3}}, doc.Countries[0].RelationalFactors)
			},
		},
		{
			name:    "unknown id",
			args:    []string{"-kind", "product", "-id", "mead", "-factor", "cost", "-value", "3"},
			wantErr: "product with ID mead not found",
		},
		{
			name:    "negative value is refused",
			args:    []string{"-kind", "product", "-id", "hops", "-factor", "cost", "-value", "-1"},
			wantErr: "DATA_INTEGRITY",
		},
		{
			name:    "bad kind",
			args:    []string{"-kind", "region", "-id", "eu", "-factor", "cost", "-value", "1"},
			wantErr: "kind must be product or country",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t)
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			err = run(append([]string{"update", "-path", path}, tt.args...), &bytes.Buffer{})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				after, _ := os.ReadFile(path)
				assert.Equal(t, before, after)
				return
			}
			require.NoError(t, err)

			doc, _, err := catalog.LoadDocument(path)
			require.NoError(t, err)
			tt.check(t, doc)
		})
	}
}

func TestRun_UpdateInvalidatesSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("friction:catalog:v1", `{"products":[],"countries":[]}`))
	require.NoError(t, mr.Set("friction:catalog:staging", `{"products":[],"countries":[]}`))

	tests := []struct {
		name     string
		args     []string
		wantGone string
		wantKept string
	}{
		{
			name:     "default key",
			args:     []string{"-redis", mr.Addr()},
			wantGone: "friction:catalog:v1",
			wantKept: "friction:catalog:staging",
		},
		{
			name:     "custom key",
			args:     []string{"-redis", mr.Addr(), "-cache-key", "friction:catalog:staging"},
			wantGone: "friction:catalog:staging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t)
			args := append([]string{"update", "-path", path, "-kind", "product", "-id", "hops", "-factor", "cost", "-value", "4"}, tt.args...)

			var out bytes.Buffer
			require.NoError(t, run(args, &out))
			assert.Contains(t, out.String(), "Invalidated cached snapshot "+tt.wantGone)
			assert.False(t, mr.Exists(tt.wantGone))
			if tt.wantKept != "" {
				assert.True(t, mr.Exists(tt.wantKept))
			}
		})
	}
}

func TestRun_UpdateSnapshotUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	path := writeCatalog(t)
	err := run([]string{"update", "-path", path, "-kind", "product", "-id", "hops", "-factor", "cost", "-value", "4", "-redis", addr}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "snapshot not invalidated")

	doc, _, err := catalog.LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, catalog.Factor{Name: "cost", Value: 4}, doc.Products[0].OperationalFactors[len(doc.Products[0].OperationalFactors)-1])
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(nil, &out), flag.ErrHelp)
	assert.Contains(t, out.String(), "Usage: catalog-tool")

	assert.ErrorContains(t, run([]string{"publish"}, &bytes.Buffer{}), `unknown command "publish"`)
}
