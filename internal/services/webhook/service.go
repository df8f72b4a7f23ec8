package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/BearBump/TrackHook/internal/metrics"
	"github.com/BearBump/TrackHook/internal/models"
	"github.com/BearBump/TrackHook/internal/tracking"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Repository interface {
	FindShipmentByTrackerID(ctx context.Context, trackerID string) (*models.Shipment, error)
	FindShipmentByTrackingCodes(ctx context.Context, codes []string) (*models.Shipment, error)
	LinkTracker(ctx context.Context, shipmentID, trackerID string) error
	ApplyShipmentUpdate(ctx context.Context, upd models.ShipmentUpdate) error
}

type CourierDirectory interface {
	Enrich(ctx context.Context, events []models.TrackingEvent, dryRun bool) []models.TrackingEvent
}

// Report is the outcome of one webhook delivery.
type Report struct {
	Success bool          `json:"success"`
	DryRun  bool          `json:"dryRun"`
	Message string        `json:"message"`
	Updated []UpdatedItem `json:"updated"`
	Errors  []ItemError   `json:"errors,omitempty"`
}

type UpdatedItem struct {
	TrackerID     string `json:"trackerId"`
	ShipmentID    string `json:"shipmentId"`
	TrackingCode  string `json:"trackingCode"`
	Status        string `json:"status"`
	EventsCount   int    `json:"eventsCount"`
	CorrelationID string `json:"correlationId"`
	Relinked      bool   `json:"relinked,omitempty"`
	WouldRelink   bool   `json:"wouldRelink,omitempty"`
	Notified      bool   `json:"notified,omitempty"`
}

type ItemError struct {
	TrackerID     string `json:"trackerId"`
	CorrelationID string `json:"correlationId"`
	Error         string `json:"error"`
}

type Service struct {
	repo       Repository
	resolver   *Resolver
	couriers   CourierDirectory
	dispatcher Dispatcher
	relevance  *tracking.RelevanceResolver
	log        *slog.Logger

	now   func() time.Time
	newID func() string
}

// New wires the service. couriers and dispatcher may be nil.
func New(repo Repository, couriers CourierDirectory, dispatcher Dispatcher, relevance *tracking.RelevanceResolver, log *slog.Logger) *Service {
	if relevance == nil {
		relevance = tracking.DefaultRelevanceResolver()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:       repo,
		resolver:   NewResolver(repo, log),
		couriers:   couriers,
		dispatcher: dispatcher,
		relevance:  relevance,
		log:        log.With("component", "webhook"),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Process normalizes raw and folds every tracking into the report. Only an
// invalid payload is returned as an error; per-tracking failures land in
// Report.Errors.
func (s *Service) Process(ctx context.Context, raw []byte, dryRun bool) (Report, error) {
	envelopes, err := tracking.Normalize(raw)
	if err != nil {
		return Report{}, err
	}

	rep := Report{DryRun: dryRun, Updated: []UpdatedItem{}}
	total := 0
	for _, env := range envelopes {
		for i := range env.Body.Trackings {
			total++
			td := &env.Body.Trackings[i]
			corrID := s.newID()

			item, err := s.processTracking(ctx, td, dryRun, corrID)
			if err != nil {
				result := "error"
				if errors.Is(err, ErrShipmentNotFound) {
					result = "not_found"
				}
				metrics.TrackingsProcessed.WithLabelValues(result, strconv.FormatBool(dryRun)).Inc()
				s.log.Warn("tracking not processed",
					"correlation_id", corrID, "tracker_id", td.Tracker.TrackerID, "err", err)
				rep.Errors = append(rep.Errors, ItemError{
					TrackerID:     td.Tracker.TrackerID,
					CorrelationID: corrID,
					Error:         err.Error(),
				})
				continue
			}
			metrics.TrackingsProcessed.WithLabelValues("updated", strconv.FormatBool(dryRun)).Inc()
			rep.Updated = append(rep.Updated, item)
		}
	}

	rep.Success = len(rep.Errors) == 0
	rep.Message = summary(total, len(rep.Updated), len(rep.Errors), dryRun)
	return rep, nil
}

func (s *Service) processTracking(ctx context.Context, td *models.TrackingData, dryRun bool, corrID string) (UpdatedItem, error) {
	log := s.log.With("correlation_id", corrID, "tracker_id", td.Tracker.TrackerID)

	res, err := s.resolver.Resolve(ctx, td.Tracker.TrackerID, td.TrackingNumberCandidates(), dryRun)
	if err != nil {
		return UpdatedItem{}, err
	}
	sh := res.Shipment
	log = log.With("shipment_id", sh.ID)

	incoming := td.Events
	if s.couriers != nil {
		incoming = s.couriers.Enrich(ctx, incoming, dryRun)
	}

	merged := tracking.Merge(sh.TrackingEvents, incoming)
	relevant := s.relevance.SelectRelevant(merged)

	milestone := td.Shipment.StatusMilestone
	if relevant != nil {
		milestone = relevant.StatusMilestone
	}
	mapping := tracking.MapStatus(milestone)
	if !mapping.Known {
		metrics.UnknownMilestones.WithLabelValues(milestone).Inc()
		log.Warn("unknown status milestone, mapped to pending", "milestone", milestone)
	}

	isNew := relevant != nil && !tracking.ContainsEvent(sh.TrackingEvents, relevant.EventID)
	now := s.now().UTC()

	upd := models.ShipmentUpdate{
		ShipmentID:     sh.ID,
		Status:         mapping.InternalStatus,
		TrackingEvents: merged,
		LastUpdate:     now,
	}
	if isNew {
		upd.Notification = &models.Notification{
			ID:         s.newID(),
			CustomerID: sh.CustomerID,
			ShipmentID: sh.ID,
			Type:       mapping.NotificationType,
			Title:      mapping.Title,
			Message:    notificationMessage(sh.TrackingCode, mapping, relevant),
			CreatedAt:  now,
		}
	}

	item := UpdatedItem{
		TrackerID:     td.Tracker.TrackerID,
		ShipmentID:    sh.ID,
		TrackingCode:  sh.TrackingCode,
		Status:        mapping.InternalStatus,
		EventsCount:   len(merged),
		CorrelationID: corrID,
		Relinked:      res.Relinked,
		WouldRelink:   res.WouldRelink,
	}

	if dryRun {
		log.Info("dry-run: would update shipment",
			"status", upd.Status, "events", len(merged), "notify", isNew)
		return item, nil
	}

	if err := s.repo.ApplyShipmentUpdate(ctx, upd); err != nil {
		return UpdatedItem{}, errors.Wrap(err, "persist shipment update")
	}
	log.Info("shipment updated", "status", upd.Status, "events", len(merged), "notify", isNew)

	if isNew && s.dispatcher != nil {
		n := buildNotification(sh, td, upd, mapping, relevant, merged, corrID)
		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			log.Error("notification dispatch failed", "err", err)
		} else {
			item.Notified = true
		}
	}

	return item, nil
}

func buildNotification(
	sh *models.Shipment,
	td *models.TrackingData,
	upd models.ShipmentUpdate,
	mapping tracking.StatusMapping,
	relevant *models.TrackingEvent,
	merged []models.TrackingEvent,
	corrID string,
) messages.ShipmentNotification {
	ev := *relevant
	return messages.ShipmentNotification{
		NotificationID:     upd.Notification.ID,
		CorrelationID:      corrID,
		TenantID:           sh.CustomerID,
		ShipmentID:         sh.ID,
		ShipmentCustomerID: sh.ShipmentCustomerID,
		TrackerID:          td.Tracker.TrackerID,
		TrackingCode:       sh.TrackingCode,
		ShipmentReference:  td.Tracker.ShipmentReference,
		Status:             mapping.InternalStatus,
		NotificationType:   mapping.NotificationType,
		Title:              mapping.Title,
		Translation:        mapping.Translation,
		Event:              &ev,
		Shipment:           td.Shipment,
		FirstEventAt:       firstEventAt(merged),
		LastUpdate:         upd.LastUpdate,
	}
}

func notificationMessage(code string, m tracking.StatusMapping, ev *models.TrackingEvent) string {
	msg := fmt.Sprintf("Pedido %s: %s", code, m.Translation)
	if ev != nil && ev.Location != nil && *ev.Location != "" {
		msg += " (" + *ev.Location + ")"
	}
	return msg
}

func firstEventAt(events []models.TrackingEvent) *time.Time {
	var first time.Time
	for i := range events {
		t := events[i].OccurredAt()
		if t.IsZero() {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	if first.IsZero() {
		return nil
	}
	return &first
}

func summary(total, updated, failed int, dryRun bool) string {
	prefix := ""
	if dryRun {
		prefix = "dry-run: "
	}
	if failed == 0 {
		return fmt.Sprintf("%sprocessed %d of %d trackings", prefix, updated, total)
	}
	return fmt.Sprintf("%sprocessed %d of %d trackings, %d failed", prefix, updated, total, failed)
}
