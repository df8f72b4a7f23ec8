package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/TrackHook/config"
	"github.com/BearBump/TrackHook/internal/broker/kafka"
	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/BearBump/TrackHook/internal/models"
	"github.com/BearBump/TrackHook/internal/services/fanout"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	pingErr error
}

func (f *fakeStorage) GetShipmentCustomer(context.Context, string) (*models.ShipmentCustomer, error) {
	return nil, nil
}

func (f *fakeStorage) ListActiveTemplates(context.Context, string, string) ([]*models.MessageTemplate, error) {
	return nil, nil
}

func (f *fakeStorage) Ping(context.Context) error { return f.pingErr }

type fakeDeliverer struct {
	mu  sync.Mutex
	got []messages.ShipmentNotification
	res fanout.Result
	err error
}

func (f *fakeDeliverer) Deliver(_ context.Context, n messages.ShipmentNotification) (fanout.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, n)
	return f.res, f.err
}

// fakeConsumer feeds queued messages to the handler, then blocks until cancel.
type fakeConsumer struct {
	msgs    []kafka.Message
	handled chan error
	closed  bool
}

func (c *fakeConsumer) Consume(ctx context.Context, h kafka.Handler) error {
	for _, m := range c.msgs {
		c.handled <- h(ctx, m)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (c *fakeConsumer) Stats() kafka.Stats { return kafka.Stats{Consumed: int64(len(c.msgs))} }

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

func notificationValue(t *testing.T, id string) []byte {
	t.Helper()
	b, err := json.Marshal(messages.ShipmentNotification{
		NotificationID: id,
		CorrelationID:  "corr-" + id,
		TenantID:       "c1",
		ShipmentID:     "s1",
		Status:         "delivered",
	})
	require.NoError(t, err)
	return b
}

func TestHandleNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivered", func(t *testing.T) {
		d := &fakeDeliverer{res: fanout.Result{Sent: 2, Skipped: 1}}
		stats := &notifierStats{}
		h := handleNotification(d, stats)

		require.NoError(t, h(ctx, kafka.Message{Value: notificationValue(t, "n1")}))
		require.Len(t, d.got, 1)
		require.Equal(t, "corr-n1", d.got[0].CorrelationID)

		v := stats.view(kafka.Stats{})
		require.EqualValues(t, 2, v.Sent)
		require.EqualValues(t, 1, v.Skipped)
	})

	t.Run("MalformedIsCommitted", func(t *testing.T) {
		d := &fakeDeliverer{}
		stats := &notifierStats{}
		h := handleNotification(d, stats)

		require.NoError(t, h(ctx, kafka.Message{Value: []byte("{not json")}))
		require.Empty(t, d.got)
		require.EqualValues(t, 1, stats.view(kafka.Stats{}).Malformed)
	})

	t.Run("FanoutErrorIsLogged", func(t *testing.T) {
		d := &fakeDeliverer{res: fanout.Result{Failed: 1}, err: errors.Wrap(fanout.ErrFanout, "relay down")}
		stats := &notifierStats{}
		h := handleNotification(d, stats)

		require.NoError(t, h(ctx, kafka.Message{Value: notificationValue(t, "n2")}))
		require.EqualValues(t, 1, stats.view(kafka.Stats{}).Failed)
	})
}

func writeSwagger(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "notifier.swagger.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"swagger":"2.0"}`), 0o644))
	return p
}

func TestRunTrackNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &fakeConsumer{
		msgs:    []kafka.Message{{Offset: 1, Value: notificationValue(t, "n1")}},
		handled: make(chan error, 1),
	}
	d := &fakeDeliverer{res: fanout.Result{Sent: 1}}
	f := notifierFactories{
		newStorage: func(*config.Config) (storage, func(), error) {
			return &fakeStorage{}, nil, nil
		},
		newConsumer: func(*config.Config) notificationConsumer { return consumer },
		newDeliverer: func(*config.Config, fanout.Repository) (deliverer, func()) {
			return d, nil
		},
	}

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunTrackNotifier(ctx, &config.Config{}, f, notifierHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: writeSwagger(t),
			onListen:    func(a string) { addrCh <- a },
		})
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("notifier exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("notifier did not start listening")
	}

	select {
	case err := <-consumer.handled:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("message was not handled")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/stats", addr))
	require.NoError(t, err)
	var v statsView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	_ = resp.Body.Close()
	require.EqualValues(t, 1, v.Consumer.Consumed)
	require.EqualValues(t, 1, v.Sent)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/swagger.json"} {
		resp, err := http.Get(fmt.Sprintf("http://%s%s", addr, path))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("notifier did not stop")
	}
	require.True(t, consumer.closed)
}

func TestRunTrackNotifier_StorageError(t *testing.T) {
	f := notifierFactories{
		newStorage: func(*config.Config) (storage, func(), error) {
			return nil, nil, errors.New("db down")
		},
	}
	err := RunTrackNotifier(context.Background(), &config.Config{}, f, notifierHTTPOpts{})
	require.EqualError(t, err, "db down")
}

func TestNotifierHTTP_ReadyzUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	go func() {
		_ = runNotifierHTTPServer(ctx, notifierHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: writeSwagger(t),
			onListen:    func(a string) { addrCh <- a },
			db:          &fakeStorage{pingErr: errors.New("down")},
		})
	}()
	addr := <-addrCh

	resp, err := http.Get(fmt.Sprintf("http://%s/readyz", addr))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNotifierHTTP_SwaggerRequired(t *testing.T) {
	err := runNotifierHTTPServer(context.Background(), notifierHTTPOpts{httpAddr: "127.0.0.1:0"})
	require.Error(t, err)

	err = runNotifierHTTPServer(context.Background(), notifierHTTPOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: filepath.Join(t.TempDir(), "missing.json"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
