// cmd/friction-server/bootstrap.go
package main

import (
	"context"
	"fmt"
	"time"

	"export-friction/internal/api"
	"export-friction/internal/common/config"
	"export-friction/internal/common/database"
	"export-friction/internal/common/logger"
	"export-friction/internal/reference"
)

var sleep = time.Sleep

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// backends holds the connections the configured catalog source needs.
type backends struct {
	postgres *database.PostgresClient
	es       *database.ElasticsearchClient
	redis    *database.RedisClient
}

// connectBackends opens only the stores named by catalog.source and
// catalog.cache_enabled, pinging each with retry.
func connectBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}
	retries := cfg.Catalog.ConnectRetries

	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		err := retryWithBackoff(func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			b.postgres = pg
			return nil
		}, retries, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		log.Info("PostgreSQL connected", nil)

	case config.SourceElasticsearch:
		err := retryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			b.es = es
			return nil
		}, retries, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		log.Info("Elasticsearch connected", nil)
	}

	if cfg.Catalog.CacheEnabled {
		rc := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return rc.Ping(ctx)
		}, retries, 2*time.Second, log, "Redis connection")
		if err != nil {
			// The snapshot cache is optional; the source is still authoritative.
			log.Warn("continuing without catalog cache", map[string]interface{}{"error": err})
			rc.Close()
		} else {
			b.redis = rc
			log.Info("Redis connected", nil)
		}
	}

	return b, nil
}

func (b *backends) close() {
	if b.postgres != nil {
		b.postgres.Close()
	}
	if b.redis != nil {
		b.redis.Close()
	}
}

func (b *backends) readinessChecks() map[string]api.ReadinessCheck {
	checks := make(map[string]api.ReadinessCheck)
	if b.postgres != nil {
		checks["postgres"] = b.postgres.Ping
	}
	if b.es != nil {
		checks["elasticsearch"] = b.es.Ping
	}
	if b.redis != nil {
		checks["redis"] = b.redis.Ping
	}
	return checks
}

// loadCatalog reads the reference document from the configured source,
// through the snapshot cache when one is connected.
func loadCatalog(ctx context.Context, cfg *config.Config, b *backends, log logger.Logger) (*reference.Store, error) {
	validator, err := reference.NewCatalogValidator()
	if err != nil {
		return nil, err
	}

	var src reference.Source
	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		src = reference.NewPostgresSource(b.postgres.DB)
	case config.SourceElasticsearch:
		src = reference.NewElasticsearchSource(b.es.Client, cfg.Catalog.ProductIndex, cfg.Catalog.CountryIndex)
	default:
		src = reference.NewFileSource(cfg.Catalog.Path, validator)
	}

	var cache *reference.SnapshotCache
	if b.redis != nil {
		cache = reference.NewSnapshotCache(b.redis.Client, cfg.Catalog.CacheKey, config.GetDuration(cfg.Catalog.CacheTTL))
	}

	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Catalog.LoadTimeout))
	defer cancel()
	return reference.NewLoader(validator, cache, log).Load(ctx, src)
}
