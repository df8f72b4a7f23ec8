package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

func main() {
	app := mustBootstrapTrackWebhook()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("track-webhook stopped", "err", err)
		app.Close()
		os.Exit(1)
	}
}
