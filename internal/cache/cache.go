package cache

import (
	"context"
	"time"
)

// BytesCache хранит произвольные байты с TTL. Отсутствие ключа не ошибка: ok=false.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Limiter считает события в фиксированном окне.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}
