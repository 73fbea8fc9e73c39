package reference

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	apperrors "export-friction/internal/common/errors"
	"export-friction/pkg/catalog"
)

const (
	selectProducts = `
		SELECT id, name, origin, base_tip, operational_factors
		FROM products ORDER BY id`

	selectCountries = `
		SELECT id, name, base_confidence, base_tip, relational_factors
		FROM countries ORDER BY id`
)

// PostgresSource reads the tables products and countries. Factor lists are
// JSONB arrays of {"name", "value"} objects.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Load(ctx context.Context) (*catalog.Document, error) {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	countries, err := s.loadCountries(ctx)
	if err != nil {
		return nil, err
	}
	return &catalog.Document{Version: "postgres", Products: products, Countries: countries}, nil
}

func (s *PostgresSource) loadProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, selectProducts)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		var (
			p       catalog.Product
			origin  sql.NullString
			factors []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &origin, &p.BaseTip, &factors); err != nil {
			return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
		}
		p.Origin = origin.String
		if err := json.Unmarshal(factors, &p.OperationalFactors); err != nil {
			return nil, apperrors.NewCatalogDecodeFailedError(fmt.Sprintf("postgres products/%s", p.ID), err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	return out, nil
}

func (s *PostgresSource) loadCountries(ctx context.Context) ([]catalog.Country, error) {
	rows, err := s.db.QueryContext(ctx, selectCountries)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	defer rows.Close()

	var out []catalog.Country
	for rows.Next() {
		var (
			c       catalog.Country
			factors []byte
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.BaseConfidence, &c.BaseTip, &factors); err != nil {
			return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
		}
		if err := json.Unmarshal(factors, &c.RelationalFactors); err != nil {
			return nil, apperrors.NewCatalogDecodeFailedError(fmt.Sprintf("postgres countries/%s", c.ID), err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	return out, nil
}
