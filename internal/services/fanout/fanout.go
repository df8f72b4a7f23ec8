package fanout

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/BearBump/TrackHook/internal/cache"
	"github.com/BearBump/TrackHook/internal/integrations/relay"
	"github.com/BearBump/TrackHook/internal/integrations/whatsapp"
	"github.com/BearBump/TrackHook/internal/metrics"
	"github.com/BearBump/TrackHook/internal/models"
	"github.com/pkg/errors"
)

// Причины, по которым сообщение не отправлено. Это не ошибки.
const (
	SkipNoCustomer   = "no_customer"
	SkipNoPhone      = "no_phone"
	SkipNoTemplate   = "no_template"
	SkipDisconnected = "whatsapp_disconnected"
	SkipRateLimited  = "rate_limited"
)

var ErrFanout = errors.New("template fan-out failed")

type Repository interface {
	GetShipmentCustomer(ctx context.Context, id string) (*models.ShipmentCustomer, error)
	ListActiveTemplates(ctx context.Context, customerID, notificationType string) ([]*models.MessageTemplate, error)
}

type Relay interface {
	Send(ctx context.Context, msg relay.Message) error
}

type WhatsApp interface {
	GetStatus(ctx context.Context, tenantID string) (whatsapp.Status, error)
}

type Config struct {
	Location *time.Location
	// RateLimitPerMinute ограничивает отправки в relay на тенанта; 0 = без лимита.
	RateLimitPerMinute int64
}

// Result of one Deliver call.
type Result struct {
	Sent    int
	Failed  int
	Skipped int
	Reason  string
}

type Service struct {
	repo    Repository
	relay   Relay
	wa      WhatsApp
	limiter cache.Limiter
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

func New(repo Repository, r Relay, wa WhatsApp, limiter cache.Limiter, cfg Config, log *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = LoadLocation("")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:    repo,
		relay:   r,
		wa:      wa,
		limiter: limiter,
		cfg:     cfg,
		log:     log.With("component", "fanout"),
		now:     time.Now,
	}
}

// Deliver renders every matching template for the notification and forwards it
// to the relay. A failing template does not stop the others; the returned error
// wraps ErrFanout and the first relay failure.
func (s *Service) Deliver(ctx context.Context, n messages.ShipmentNotification) (Result, error) {
	log := s.log.With(
		"correlation_id", n.CorrelationID,
		"shipment_id", n.ShipmentID,
		"notification_type", n.NotificationType,
	)

	if n.ShipmentCustomerID == nil || *n.ShipmentCustomerID == "" {
		return s.skip(log, SkipNoCustomer), nil
	}
	customer, err := s.repo.GetShipmentCustomer(ctx, *n.ShipmentCustomerID)
	if err != nil {
		return s.fail(log, errors.Wrap(err, "load shipment customer"))
	}
	if customer == nil {
		return s.skip(log, SkipNoCustomer), nil
	}
	if deref(customer.Phone) == "" {
		return s.skip(log, SkipNoPhone), nil
	}

	templates, err := s.repo.ListActiveTemplates(ctx, n.TenantID, n.NotificationType)
	if err != nil {
		return s.fail(log, errors.Wrap(err, "load templates"))
	}
	if len(templates) == 0 {
		return s.skip(log, SkipNoTemplate), nil
	}

	st, err := s.wa.GetStatus(ctx, n.TenantID)
	if err != nil {
		return s.fail(log, errors.Wrap(err, "whatsapp status"))
	}
	if !st.Connected {
		log.Info("whatsapp instance not connected", "instance", st.InstanceName, "status", st.Status)
		return s.skip(log, SkipDisconnected), nil
	}

	vars := Variables(n, customer, s.cfg.Location, s.now())
	base := relay.Message{
		Customer: relay.Customer{
			ID:    customer.ID,
			Name:  customer.Name,
			Phone: deref(customer.Phone),
			Email: deref(customer.Email),
		},
		Tracking: relay.Tracking{
			ShipmentID:       n.ShipmentID,
			TenantID:         n.TenantID,
			TrackingCode:     n.TrackingCode,
			Status:           n.Status,
			StatusTitle:      n.Title,
			NotificationType: n.NotificationType,
			Location:         vars["location"],
			CourierName:      vars["courier_name"],
		},
		WhatsAppInstance: st.InstanceName,
	}
	if n.Event != nil {
		base.Tracking.EventID = n.Event.EventID
		base.Tracking.OccurredAt = n.Event.OccurrenceDatetime
	}

	var res Result
	var firstErr error
	for _, tpl := range templates {
		if s.limiter != nil && s.cfg.RateLimitPerMinute > 0 {
			ok, count, err := s.limiter.Allow(ctx, "relay:"+n.TenantID, s.cfg.RateLimitPerMinute, time.Minute)
			if err != nil {
				log.Warn("relay rate limiter unavailable", "err", err)
			} else if !ok {
				log.Warn("relay rate limit exceeded", "template_id", tpl.ID, "count", count)
				metrics.FanoutMessages.WithLabelValues("skipped", SkipRateLimited).Inc()
				res.Skipped++
				res.Reason = SkipRateLimited
				continue
			}
		}

		msg := base
		msg.Template = relay.Template{
			ID:      tpl.ID,
			Name:    tpl.Name,
			Message: Render(tpl.MessageContent, vars),
		}
		if err := s.relay.Send(ctx, msg); err != nil {
			log.Error("relay send failed", "template_id", tpl.ID, "err", err)
			metrics.FanoutMessages.WithLabelValues("error", "relay").Inc()
			res.Failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.FanoutMessages.WithLabelValues("sent", "").Inc()
		res.Sent++
		log.Info("template message sent", "template_id", tpl.ID)
	}

	if firstErr != nil {
		return res, errors.Wrapf(ErrFanout, "%d of %d templates failed: %v", res.Failed, len(templates), firstErr)
	}
	return res, nil
}

func (s *Service) skip(log *slog.Logger, reason string) Result {
	log.Info("template fan-out skipped", "reason", reason)
	metrics.FanoutMessages.WithLabelValues("skipped", reason).Inc()
	return Result{Skipped: 1, Reason: reason}
}

func (s *Service) fail(log *slog.Logger, err error) (Result, error) {
	log.Error("template fan-out failed", "err", err)
	metrics.FanoutMessages.WithLabelValues("error", "lookup").Inc()
	return Result{Failed: 1}, errors.Wrapf(ErrFanout, "%v", err)
}
