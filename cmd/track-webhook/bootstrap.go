package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/TrackHook/config"
	"github.com/BearBump/TrackHook/internal/broker/kafka"
	"github.com/BearBump/TrackHook/internal/cache/rediscache"
	"github.com/BearBump/TrackHook/internal/couriers"
	"github.com/BearBump/TrackHook/internal/integrations/relay"
	"github.com/BearBump/TrackHook/internal/integrations/whatsapp"
	"github.com/BearBump/TrackHook/internal/logger"
	"github.com/BearBump/TrackHook/internal/services/fanout"
	"github.com/BearBump/TrackHook/internal/services/webhook"
	"github.com/BearBump/TrackHook/internal/storage/pgshipments"
	"github.com/BearBump/TrackHook/internal/tracking"
	"github.com/redis/go-redis/v9"
)

type trackWebhookApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    webhookOpts
	svc     *webhook.Service
	st      *pgshipments.Storage
	closers []func()
}

func mustBootstrapTrackWebhook() *trackWebhookApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	log := logger.New(cfg.TrackHook.LogLevel)
	slog.SetDefault(log)

	httpAddr := cfg.TrackHook.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	if cfg.TrackHook.WebhookSecret == "" {
		slog.Warn("webhook secret is not configured, every delivery will be rejected")
	}

	st := mustOpenPostgresWithRetry(cfg.PostgresDSN(), 60*time.Second)
	rdb := rediscache.NewClient(cfg.RedisAddr())

	app := &trackWebhookApp{
		st:      st,
		closers: []func(){st.Close, func() { _ = rdb.Close() }},
	}

	var dispatcher webhook.Dispatcher
	switch cfg.NotifyMode() {
	case config.NotifyModeKafka:
		producer := kafka.NewProducer(cfg.KafkaBrokers())
		app.closers = append(app.closers, func() { _ = producer.Close() })
		dispatcher = webhook.NewKafkaDispatcher(producer, cfg.NotificationsTopic())
	default:
		dispatcher = webhook.NewInlineDispatcher(buildFanout(cfg, st, rdb, log), log)
	}
	slog.Info("notification dispatch configured", "mode", cfg.NotifyMode())

	dir := couriers.New(st, rediscache.New(rdb, "trackhook:"), cfg.CourierCacheTTL(), log)
	relevance := tracking.NewRelevanceResolver(cfg.RelevanceWindow(), cfg.TrackHook.StatusPriority)
	app.svc = webhook.New(st, dir, dispatcher, relevance, log)

	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.opts = webhookOpts{
		httpAddr:     httpAddr,
		swaggerPath:  swaggerPath,
		secret:       cfg.TrackHook.WebhookSecret,
		maxBodyBytes: cfg.TrackHook.MaxBodyBytes,
	}
	return app
}

func buildFanout(cfg *config.Config, st *pgshipments.Storage, rdb *redis.Client, log *slog.Logger) *fanout.Service {
	rc := rediscache.New(rdb, "trackhook:")
	wa := whatsapp.NewCached(
		whatsapp.New(cfg.TrackHook.WhatsAppStatusURL, cfg.TrackHook.RelayAPIKey, cfg.RelayTimeout()),
		rc,
		cfg.WhatsAppCacheTTL(),
	)
	return fanout.New(
		st,
		relay.New(cfg.TrackHook.RelayURL, cfg.TrackHook.RelayAPIKey, cfg.RelayTimeout()),
		wa,
		rediscache.NewRateLimiter(rdb, "trackhook:rl:"),
		fanout.Config{
			Location:           fanout.LoadLocation(cfg.TrackHook.Timezone),
			RateLimitPerMinute: int64(cfg.TrackHook.RelayRateLimitPerMinute),
		},
		log,
	)
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgshipments.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgshipments.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *trackWebhookApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *trackWebhookApp) Run() error {
	return runTrackWebhook(a.ctx, a.opts, a.svc, a.st)
}
