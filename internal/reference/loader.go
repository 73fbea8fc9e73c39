package reference

import (
	"context"
	"strings"

	apperrors "export-friction/internal/common/errors"
	"export-friction/internal/common/logger"
	"export-friction/internal/common/validation"
	"export-friction/pkg/catalog"
)

// Loader turns a Source into a Store: schema validation, integrity checks and
// the optional Redis snapshot.
type Loader struct {
	validator *validation.Validator
	cache     *SnapshotCache
	logger    logger.Logger
}

func NewLoader(validator *validation.Validator, cache *SnapshotCache, log logger.Logger) *Loader {
	return &Loader{
		validator: validator,
		cache:     cache,
		logger:    log.WithFields(map[string]interface{}{"component": "reference-loader"}),
	}
}

// NewCatalogValidator compiles the reference document schema.
func NewCatalogValidator() (*validation.Validator, error) {
	return validation.NewValidator(catalog.JSONSchema)
}

// Load builds the Store once. A usable snapshot in the cache wins over the
// source; cache failures only cost a trip to the source.
func (l *Loader) Load(ctx context.Context, src Source) (*Store, error) {
	if l.cache != nil {
		if store := l.fromCache(ctx); store != nil {
			return store, nil
		}
	}

	doc, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	store, err := l.build(doc)
	if err != nil {
		l.logger.Error("reference data rejected", map[string]interface{}{
			"source": src.Name(),
			"error":  err,
		})
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Put(ctx, store.Document()); err != nil {
			l.logger.Warn("failed to write reference snapshot", map[string]interface{}{"error": err})
		}
	}

	l.logger.Info("reference data loaded", map[string]interface{}{
		"source":    src.Name(),
		"version":   store.Version(),
		"products":  len(store.Products()),
		"countries": len(store.Countries()),
	})
	return store, nil
}

func (l *Loader) fromCache(ctx context.Context) *Store {
	doc, err := l.cache.Get(ctx)
	if err != nil {
		l.logger.Warn("reference snapshot unavailable", map[string]interface{}{"error": err})
		return nil
	}
	if doc == nil {
		return nil
	}

	store, err := l.build(doc)
	if err != nil {
		l.logger.Warn("discarding invalid reference snapshot", map[string]interface{}{"error": err})
		return nil
	}

	l.logger.Info("reference data loaded", map[string]interface{}{
		"source":    "redis",
		"version":   store.Version(),
		"products":  len(store.Products()),
		"countries": len(store.Countries()),
	})
	return store
}

func (l *Loader) build(doc *catalog.Document) (*Store, error) {
	if l.validator != nil {
		res, err := l.validator.ValidateValue(doc)
		if err != nil {
			return nil, apperrors.NewCatalogDecodeFailedError("document", err)
		}
		if !res.Valid {
			msgs := res.GetErrorMessages()
			return nil, apperrors.NewDataIntegrityError(strings.Join(msgs, "; "), msgs...)
		}
	}
	return NewStore(doc)
}
