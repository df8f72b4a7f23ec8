package webhook_api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/TrackHook/internal/metrics"
	"github.com/BearBump/TrackHook/internal/services/webhook"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
)

const DefaultMaxBodyBytes = 5 << 20

type Processor interface {
	Process(ctx context.Context, raw []byte, dryRun bool) (webhook.Report, error)
}

type WebhookAPI struct {
	svc          Processor
	secret       string
	maxBodyBytes int64
	log          *slog.Logger
}

func New(svc Processor, secret string, maxBodyBytes int64, log *slog.Logger) *WebhookAPI {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if log == nil {
		log = slog.Default()
	}
	return &WebhookAPI{
		svc:          svc,
		secret:       secret,
		maxBodyBytes: maxBodyBytes,
		log:          log.With("component", "webhook_api"),
	}
}

// Register mounts the webhook on /webhooks/tracking and on / for senders
// configured with the bare host.
func (a *WebhookAPI) Register(r chi.Router) {
	r.Post("/webhooks/tracking", a.HandleTracking)
	r.Post("/", a.HandleTracking)
}

type errorResponse struct {
	Success bool   `json:"success"`
	DryRun  bool   `json:"dryRun"`
	Message string `json:"message"`
}

func (a *WebhookAPI) HandleTracking(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx := r.Context()
	log := a.log.With("request_id", chimw.GetReqID(ctx))
	dryRun := isDryRun(r)

	code := a.handle(w, r, log, dryRun)

	metrics.WebhookRequests.WithLabelValues(strconv.Itoa(code)).Inc()
	metrics.WebhookDuration.Observe(time.Since(started).Seconds())
	log.Info("webhook handled", "status", code, "dry_run", dryRun, "duration_ms", time.Since(started).Milliseconds())
}

func (a *WebhookAPI) handle(w http.ResponseWriter, r *http.Request, log *slog.Logger, dryRun bool) int {
	if a.secret == "" {
		log.Error("webhook secret is not configured")
		return writeJSON(w, http.StatusInternalServerError, errorResponse{DryRun: dryRun, Message: "webhook secret not configured"})
	}
	if !a.authorized(r.Header.Get("Authorization")) {
		log.Warn("webhook unauthorized", "remote_addr", r.RemoteAddr)
		return writeJSON(w, http.StatusUnauthorized, errorResponse{DryRun: dryRun, Message: "unauthorized"})
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("webhook body too large", "limit", tooLarge.Limit)
			return writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{DryRun: dryRun, Message: "request body too large"})
		}
		log.Warn("webhook body read failed", "err", err)
		return writeJSON(w, http.StatusBadRequest, errorResponse{DryRun: dryRun, Message: "error reading request body"})
	}
	log.Debug("webhook received", "payload_size", len(raw), "dry_run", dryRun)

	rep, err := a.svc.Process(r.Context(), raw, dryRun)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidPayload) {
			log.Warn("invalid webhook payload", "err", err)
			return writeJSON(w, http.StatusBadRequest, errorResponse{DryRun: dryRun, Message: err.Error()})
		}
		log.Error("webhook processing failed", "err", err)
		return writeJSON(w, http.StatusInternalServerError, errorResponse{DryRun: dryRun, Message: "internal error"})
	}

	if !rep.Success {
		return writeJSON(w, http.StatusMultiStatus, rep)
	}
	return writeJSON(w, http.StatusOK, rep)
}

func (a *WebhookAPI) authorized(header string) bool {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	token = strings.TrimSpace(token)
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.secret)) == 1
}

func isDryRun(r *http.Request) bool {
	return truthy(r.Header.Get("x-dry-run")) || truthy(r.URL.Query().Get("dry"))
}

func truthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true"
}

func writeJSON(w http.ResponseWriter, code int, body any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
	return code
}
