// Package reference owns the product and country tables. Tables are loaded
// once from a Source, checked for integrity and then only read.
package reference

import (
	"fmt"
	"math"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/models"
	"export-friction/pkg/catalog"
)

// Resolver is the lookup surface the scoring engine depends on.
type Resolver interface {
	ResolveProduct(id string) (*models.Product, error)
	ResolveCountry(id string) (*models.Country, error)
}

// Store is an immutable, concurrency-safe pair of lookup tables. Returned
// products and countries must not be modified by callers.
type Store struct {
	version   string
	products  map[string]*models.Product
	countries map[string]*models.Country

	productOrder []models.Summary
	countryOrder []models.Summary
}

var _ Resolver = (*Store)(nil)

// NewStore copies doc into a Store, rejecting data that would make scoring
// silently wrong.
func NewStore(doc *catalog.Document) (*Store, error) {
	if doc == nil {
		return nil, apperrors.NewDataIntegrityError("no reference document")
	}

	s := &Store{
		version:   doc.Version,
		products:  make(map[string]*models.Product, len(doc.Products)),
		countries: make(map[string]*models.Country, len(doc.Countries)),
	}

	var problems []string
	for i, p := range doc.Products {
		where := fmt.Sprintf("products[%d]", i)
		if p.ID == "" {
			problems = append(problems, where+": empty id")
			continue
		}
		if _, dup := s.products[p.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id %q", where, p.ID))
			continue
		}
		problems = append(problems, checkFactors(where+".operational_factors", p.OperationalFactors)...)

		product := &models.Product{
			ID:                 p.ID,
			Name:               p.Name,
			Origin:             p.Origin,
			OperationalFactors: copyFactors(p.OperationalFactors),
			BaseTip:            p.BaseTip,
		}
		s.products[p.ID] = product
		s.productOrder = append(s.productOrder, product.Summary())
	}

	for i, c := range doc.Countries {
		where := fmt.Sprintf("countries[%d]", i)
		if c.ID == "" {
			problems = append(problems, where+": empty id")
			continue
		}
		if _, dup := s.countries[c.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id %q", where, c.ID))
			continue
		}
		problems = append(problems, checkFactors(where+".relational_factors", c.RelationalFactors)...)
		if math.IsNaN(c.BaseConfidence) || c.BaseConfidence < 0 || c.BaseConfidence > 100 {
			problems = append(problems, fmt.Sprintf("%s.base_confidence: %v outside [0, 100]", where, c.BaseConfidence))
		}

		country := &models.Country{
			ID:                c.ID,
			Name:              c.Name,
			RelationalFactors: copyFactors(c.RelationalFactors),
			BaseConfidence:    c.BaseConfidence,
			BaseTip:           c.BaseTip,
		}
		s.countries[c.ID] = country
		s.countryOrder = append(s.countryOrder, country.Summary())
	}

	if len(problems) > 0 {
		return nil, apperrors.NewDataIntegrityError(
			fmt.Sprintf("%d problem(s), first: %s", len(problems), problems[0]),
			problems...,
		)
	}
	return s, nil
}

func checkFactors(where string, factors []catalog.Factor) []string {
	if len(factors) == 0 {
		return []string{where + ": no factors"}
	}
	var problems []string
	for i, f := range factors {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) || f.Value < 0 {
			problems = append(problems, fmt.Sprintf("%s[%d] %s: %v is not a finite value >= 0", where, i, f.Name, f.Value))
		}
	}
	return problems
}

func copyFactors(in []catalog.Factor) []models.Factor {
	out := make([]models.Factor, len(in))
	for i, f := range in {
		out[i] = models.Factor{Name: f.Name, Value: f.Value}
	}
	return out
}

// ResolveProduct looks up a product by exact id.
func (s *Store) ResolveProduct(id string) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewReferenceNotFoundError("product", id)
}

// ResolveCountry looks up a country by exact id.
func (s *Store) ResolveCountry(id string) (*models.Country, error) {
	if c, ok := s.countries[id]; ok {
		return c, nil
	}
	return nil, apperrors.NewReferenceNotFoundError("country", id)
}

// Products lists id/name pairs in document order.
func (s *Store) Products() []models.Summary {
	return append([]models.Summary(nil), s.productOrder...)
}

// Countries lists id/name pairs in document order.
func (s *Store) Countries() []models.Summary {
	return append([]models.Summary(nil), s.countryOrder...)
}

func (s *Store) Version() string {
	return s.version
}

// Document converts the store back to its wire form.
func (s *Store) Document() *catalog.Document {
	doc := &catalog.Document{Version: s.version}
	for _, sum := range s.productOrder {
		p := s.products[sum.ID]
		doc.Products = append(doc.Products, catalog.Product{
			ID:                 p.ID,
			Name:               p.Name,
			Origin:             p.Origin,
			OperationalFactors: toCatalogFactors(p.OperationalFactors),
			BaseTip:            p.BaseTip,
		})
	}
	for _, sum := range s.countryOrder {
		c := s.countries[sum.ID]
		doc.Countries = append(doc.Countries, catalog.Country{
			ID:                c.ID,
			Name:              c.Name,
			RelationalFactors: toCatalogFactors(c.RelationalFactors),
			BaseConfidence:    c.BaseConfidence,
			BaseTip:           c.BaseTip,
		})
	}
	return doc
}

func toCatalogFactors(in []models.Factor) []catalog.Factor {
	out := make([]catalog.Factor, len(in))
	for i, f := range in {
		out[i] = catalog.Factor{Name: f.Name, Value: f.Value}
	}
	return out
}
