package webhook

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/BearBump/TrackHook/internal/metrics"
	"github.com/BearBump/TrackHook/internal/services/fanout"
	"github.com/pkg/errors"
)

// Dispatcher hands a new notification to the template fan-out.
type Dispatcher interface {
	Dispatch(ctx context.Context, n messages.ShipmentNotification) error
}

type Deliverer interface {
	Deliver(ctx context.Context, n messages.ShipmentNotification) (fanout.Result, error)
}

// InlineDispatcher runs the fan-out in the request. Fan-out failures are logged
// and never reach the caller.
type InlineDispatcher struct {
	fanout Deliverer
	log    *slog.Logger
}

func NewInlineDispatcher(d Deliverer, log *slog.Logger) *InlineDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &InlineDispatcher{fanout: d, log: log.With("component", "dispatcher", "mode", "inline")}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, n messages.ShipmentNotification) error {
	res, err := d.fanout.Deliver(ctx, n)
	if err != nil {
		metrics.NotificationsDispatched.WithLabelValues("inline", "error").Inc()
		d.log.Error("template fan-out failed", "correlation_id", n.CorrelationID, "shipment_id", n.ShipmentID, "err", err)
		return nil
	}
	metrics.NotificationsDispatched.WithLabelValues("inline", "ok").Inc()
	d.log.Debug("template fan-out done", "correlation_id", n.CorrelationID, "sent", res.Sent, "skipped", res.Skipped)
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaDispatcher publishes notifications for track-notifier.
type KafkaDispatcher struct {
	pub   Publisher
	topic string
}

func NewKafkaDispatcher(pub Publisher, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{pub: pub, topic: topic}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n messages.ShipmentNotification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	err = d.pub.Publish(ctx, d.topic, []byte(n.ShipmentID), b, map[string]string{
		"correlation_id":    n.CorrelationID,
		"notification_type": n.NotificationType,
	})
	if err != nil {
		metrics.NotificationsDispatched.WithLabelValues("kafka", "error").Inc()
		return err
	}
	metrics.NotificationsDispatched.WithLabelValues("kafka", "ok").Inc()
	return nil
}
