package reference

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"export-friction/pkg/catalog"
)

// SnapshotCache keeps the last validated reference document in Redis so that
// replicas starting within the TTL serve the same tables.
type SnapshotCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, key string, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, key: key, ttl: ttl}
}

// Get returns (nil, nil) on a cache miss.
func (c *SnapshotCache) Get(ctx context.Context) (*catalog.Document, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc catalog.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *SnapshotCache) Put(ctx context.Context, doc *catalog.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, c.ttl).Err()
}

func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
