package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter считает попытки в фиксированных окнах: ключ окна включает его начало,
// так что счётчик сбрасывается на границе окна, а не через window после первого INCR.
type RateLimiter struct {
	c      *redis.Client
	prefix string
	now    func() time.Time
}

func NewRateLimiter(c *redis.Client, prefix string) *RateLimiter {
	return &RateLimiter{c: c, prefix: prefix, now: time.Now}
}

// Allow возвращает (allowed, currentCount).
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	if window <= 0 {
		return false, 0, errors.New("ratelimit window must be positive")
	}
	bucket := rl.now().UnixNano() / int64(window)
	k := rl.prefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= limit, n, nil
}
