package whatsapp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/BearBump/TrackHook/internal/cache"
)

type StatusSource interface {
	GetStatus(ctx context.Context, tenantID string) (Status, error)
}

// Cached keeps instance statuses in the cache for ttl; errors from the source
// are never cached.
type Cached struct {
	src   StatusSource
	cache cache.BytesCache
	ttl   time.Duration
}

func NewCached(src StatusSource, c cache.BytesCache, ttl time.Duration) *Cached {
	return &Cached{src: src, cache: c, ttl: ttl}
}

func (c *Cached) GetStatus(ctx context.Context, tenantID string) (Status, error) {
	if c.cache == nil || c.ttl <= 0 {
		return c.src.GetStatus(ctx, tenantID)
	}

	key := "whatsapp:" + tenantID + ":status"
	if b, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var st Status
		if json.Unmarshal(b, &st) == nil {
			return st, nil
		}
	}

	st, err := c.src.GetStatus(ctx, tenantID)
	if err != nil {
		return Status{}, err
	}
	b, _ := json.Marshal(st)
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		slog.Warn("whatsapp status cache set failed", "tenant_id", tenantID, "err", err)
	}
	return st, nil
}
