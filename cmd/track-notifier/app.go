package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/BearBump/TrackHook/config"
	"github.com/BearBump/TrackHook/internal/broker/kafka"
	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/BearBump/TrackHook/internal/cache/rediscache"
	"github.com/BearBump/TrackHook/internal/integrations/relay"
	"github.com/BearBump/TrackHook/internal/integrations/whatsapp"
	"github.com/BearBump/TrackHook/internal/services/fanout"
	"github.com/BearBump/TrackHook/internal/storage/pgshipments"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type storage interface {
	fanout.Repository
	Ping(ctx context.Context) error
}

type notificationConsumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
	Stats() kafka.Stats
	Close() error
}

type deliverer interface {
	Deliver(ctx context.Context, n messages.ShipmentNotification) (fanout.Result, error)
}

type notifierFactories struct {
	newStorage   func(cfg *config.Config) (repo storage, closeFn func(), err error)
	newConsumer  func(cfg *config.Config) notificationConsumer
	newDeliverer func(cfg *config.Config, repo fanout.Repository) (d deliverer, closeFn func())
}

func defaultNotifierFactories() notifierFactories {
	return notifierFactories{
		newStorage: func(cfg *config.Config) (storage, func(), error) {
			st, err := pgshipments.New(cfg.PostgresDSN())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config) notificationConsumer {
			group := cfg.TrackHook.KafkaConsumerGroup
			if group == "" {
				group = "track-notifier"
			}
			return kafka.NewConsumer(cfg.KafkaBrokers(), cfg.NotificationsTopic(), group)
		},
		newDeliverer: func(cfg *config.Config, repo fanout.Repository) (deliverer, func()) {
			rdb := rediscache.NewClient(cfg.RedisAddr())
			return buildFanout(cfg, repo, rdb), func() { _ = rdb.Close() }
		},
	}
}

func buildFanout(cfg *config.Config, repo fanout.Repository, rdb *redis.Client) *fanout.Service {
	wa := whatsapp.NewCached(
		whatsapp.New(cfg.TrackHook.WhatsAppStatusURL, cfg.TrackHook.RelayAPIKey, cfg.RelayTimeout()),
		rediscache.New(rdb, "trackhook:"),
		cfg.WhatsAppCacheTTL(),
	)
	return fanout.New(
		repo,
		relay.New(cfg.TrackHook.RelayURL, cfg.TrackHook.RelayAPIKey, cfg.RelayTimeout()),
		wa,
		rediscache.NewRateLimiter(rdb, "trackhook:rl:"),
		fanout.Config{
			Location:           fanout.LoadLocation(cfg.TrackHook.Timezone),
			RateLimitPerMinute: int64(cfg.TrackHook.RelayRateLimitPerMinute),
		},
		slog.Default(),
	)
}

// notifierStats counts fan-out outcomes for /stats.
type notifierStats struct {
	sent      atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	malformed atomic.Int64
}

type statsView struct {
	Consumer  kafka.Stats `json:"consumer"`
	Sent      int64       `json:"sent"`
	Skipped   int64       `json:"skipped"`
	Failed    int64       `json:"failed"`
	Malformed int64       `json:"malformed"`
}

func (s *notifierStats) view(c kafka.Stats) statsView {
	return statsView{
		Consumer:  c,
		Sent:      s.sent.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
		Malformed: s.malformed.Load(),
	}
}

// handleNotification never returns an error: a malformed message or a failed
// fan-out is logged and committed, the relay is not retried.
func handleNotification(d deliverer, stats *notifierStats) kafka.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var n messages.ShipmentNotification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			stats.malformed.Add(1)
			slog.Error("malformed notification message", "offset", msg.Offset, "key", string(msg.Key), "err", err)
			return nil
		}

		res, err := d.Deliver(ctx, n)
		stats.sent.Add(int64(res.Sent))
		stats.skipped.Add(int64(res.Skipped))
		stats.failed.Add(int64(res.Failed))
		if err != nil {
			slog.Error("template fan-out failed", "correlation_id", n.CorrelationID, "shipment_id", n.ShipmentID, "err", err)
		}
		return nil
	}
}

func RunTrackNotifier(ctx context.Context, cfg *config.Config, f notifierFactories, httpOpts notifierHTTPOpts) error {
	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	consumer := f.newConsumer(cfg)
	defer func() { _ = consumer.Close() }()

	d, closeDeliverer := f.newDeliverer(cfg, repo)
	if closeDeliverer != nil {
		defer closeDeliverer()
	}

	stats := &notifierStats{}
	httpOpts.stats = func() statsView { return stats.view(consumer.Stats()) }
	httpOpts.db = repo

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("kafka consumer started", "topic", cfg.NotificationsTopic())
		return consumer.Consume(gctx, handleNotification(d, stats))
	})
	g.Go(func() error {
		return runNotifierHTTPServer(gctx, httpOpts)
	})
	return g.Wait()
}
