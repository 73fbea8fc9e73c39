package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "export-friction/internal/common/errors"
	"export-friction/pkg/catalog"
)

// maxCatalogHits bounds a single match_all search; reference tables are small.
const maxCatalogHits = 1000

// ElasticsearchSource reads products and countries from two indices whose
// documents use the catalog JSON field names.
type ElasticsearchSource struct {
	client       *elasticsearch.Client
	productIndex string
	countryIndex string
}

func NewElasticsearchSource(client *elasticsearch.Client, productIndex, countryIndex string) *ElasticsearchSource {
	return &ElasticsearchSource{
		client:       client,
		productIndex: productIndex,
		countryIndex: countryIndex,
	}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) Load(ctx context.Context) (*catalog.Document, error) {
	var products []catalog.Product
	if err := s.searchAll(ctx, s.productIndex, func(raw json.RawMessage) error {
		var p catalog.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, err
	}

	var countries []catalog.Country
	if err := s.searchAll(ctx, s.countryIndex, func(raw json.RawMessage) error {
		var c catalog.Country
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		countries = append(countries, c)
		return nil
	}); err != nil {
		return nil, err
	}

	// Search order is not stable across shards.
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	sort.Slice(countries, func(i, j int) bool { return countries[i].ID < countries[j].ID })

	return &catalog.Document{Version: "elasticsearch", Products: products, Countries: countries}, nil
}

func (s *ElasticsearchSource) searchAll(ctx context.Context, index string, each func(json.RawMessage) error) error {
	body := fmt.Sprintf(`{"query":{"match_all":{}},"size":%d}`, maxCatalogHits)

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(strings.NewReader(body)),
	)
	if err != nil {
		return apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewCatalogUnavailableError(s.Name(), fmt.Errorf("search %s: %s", index, res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return apperrors.NewCatalogDecodeFailedError("elasticsearch "+index, err)
	}

	for _, hit := range parsed.Hits.Hits {
		if err := each(hit.Source); err != nil {
			return apperrors.NewCatalogDecodeFailedError(fmt.Sprintf("elasticsearch %s/%s", index, hit.ID), err)
		}
	}
	return nil
}
