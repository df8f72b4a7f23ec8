package couriers

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/BearBump/TrackHook/internal/cache"
	"github.com/BearBump/TrackHook/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	GetCourierNames(ctx context.Context, codes []string) (map[string]string, error)
}

// Directory resolves courier codes to display names. Names rarely change, so
// each one is cached on its own key.
type Directory struct {
	repo  Repository
	cache cache.BytesCache
	ttl   time.Duration
	log   *slog.Logger
}

func New(repo Repository, c cache.BytesCache, ttl time.Duration, log *slog.Logger) *Directory {
	if log == nil {
		log = slog.Default()
	}
	return &Directory{repo: repo, cache: c, ttl: ttl, log: log.With("component", "couriers")}
}

func (d *Directory) cacheEnabled() bool {
	return d.cache != nil && d.ttl > 0
}

// Names returns code → name for the known codes. Cache errors fall through to the database.
func (d *Directory) Names(ctx context.Context, codes []string) (map[string]string, error) {
	return d.lookup(ctx, codes, true)
}

// lookup with store=false only reads the cache: misses are not written back.
func (d *Directory) lookup(ctx context.Context, codes []string, store bool) (map[string]string, error) {
	out := make(map[string]string, len(codes))
	miss := make([]string, 0, len(codes))

	for _, code := range uniq(codes) {
		if !d.cacheEnabled() {
			miss = append(miss, code)
			continue
		}
		b, ok, err := d.cache.Get(ctx, cacheKey(code))
		if err != nil {
			d.log.Warn("courier cache get failed", "courier_code", code, "err", err)
		}
		if err != nil || !ok {
			miss = append(miss, code)
			continue
		}
		out[code] = string(b)
	}

	if len(miss) == 0 {
		return out, nil
	}

	fromDB, err := d.repo.GetCourierNames(ctx, miss)
	if err != nil {
		return nil, errors.Wrap(err, "courier names")
	}
	for code, name := range fromDB {
		out[code] = name
		if store && d.cacheEnabled() {
			if err := d.cache.Set(ctx, cacheKey(code), []byte(name), d.ttl); err != nil {
				d.log.Warn("courier cache set failed", "courier_code", code, "err", err)
			}
		}
	}
	return out, nil
}

// Enrich returns a copy of events with courierName filled from the directory
// wherever the courier code is known. A lookup failure leaves events as they are.
// In dry-run the cache is read but never written.
func (d *Directory) Enrich(ctx context.Context, events []models.TrackingEvent, dryRun bool) []models.TrackingEvent {
	codes := make([]string, 0, len(events))
	for _, e := range events {
		if e.CourierCode != nil && *e.CourierCode != "" {
			codes = append(codes, *e.CourierCode)
		}
	}
	if len(codes) == 0 {
		return events
	}

	names, err := d.lookup(ctx, codes, !dryRun)
	if err != nil {
		d.log.Warn("courier enrichment skipped", "err", err)
		return events
	}

	out := make([]models.TrackingEvent, len(events))
	copy(out, events)
	for i := range out {
		if out[i].CourierCode == nil {
			continue
		}
		if name, ok := names[*out[i].CourierCode]; ok {
			n := name
			out[i].CourierName = &n
		}
	}
	return out
}

func cacheKey(code string) string {
	return "courier:" + code + ":name"
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
