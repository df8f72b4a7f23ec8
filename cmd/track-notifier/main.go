package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/TrackHook/config"
	"github.com/BearBump/TrackHook/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	slog.SetDefault(logger.New(cfg.TrackHook.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpAddr := cfg.TrackHook.NotifierHTTPAddr
	if httpAddr == "" {
		httpAddr = ":8082"
	}

	err = RunTrackNotifier(ctx, cfg, defaultNotifierFactories(), notifierHTTPOpts{
		httpAddr:    httpAddr,
		swaggerPath: os.Getenv("swaggerPath"),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("track-notifier stopped", "err", err)
		cancel()
		os.Exit(1)
	}
}
