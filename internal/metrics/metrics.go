package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trackhook"

var (
	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook deliveries by HTTP status code.",
		},
		[]string{"code"},
	)

	WebhookDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_duration_seconds",
			Help:      "Time spent processing one webhook delivery.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// result: updated, not_found, error
	TrackingsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trackings_processed_total",
			Help:      "Trackings folded into shipments, by result.",
		},
		[]string{"result", "dry_run"},
	)

	ShipmentsRelinked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipments_relinked_total",
			Help:      "Shipments whose tracker id was repaired from a tracking code match.",
		},
	)

	UnknownMilestones = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_milestones_total",
			Help:      "Status milestones outside the known vocabulary.",
		},
		[]string{"milestone"},
	)

	// result: sent, skipped, error
	FanoutMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_messages_total",
			Help:      "Template messages handed to the relay, by result and reason.",
		},
		[]string{"result", "reason"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dispatched_total",
			Help:      "Notifications handed to the dispatcher, by mode and result.",
		},
		[]string{"mode", "result"},
	)
)
