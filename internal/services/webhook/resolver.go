package webhook

import (
	"context"
	"log/slog"

	"github.com/BearBump/TrackHook/internal/metrics"
	"github.com/BearBump/TrackHook/internal/models"
)

// Resolution is the shipment a tracking belongs to.
type Resolution struct {
	Shipment *models.Shipment
	// Relinked: tracker_id was written for a shipment found by tracking code.
	Relinked bool
	// WouldRelink: same, but skipped because of dry-run.
	WouldRelink bool
}

type Resolver struct {
	repo Repository
	log  *slog.Logger
}

func NewResolver(repo Repository, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{repo: repo, log: log.With("component", "resolver")}
}

// Resolve finds the shipment by tracker id, then by tracking numbers. A match
// by tracking number gets the tracker id persisted unless dryRun is set.
func (r *Resolver) Resolve(ctx context.Context, trackerID string, candidates []string, dryRun bool) (Resolution, error) {
	sh, err := r.repo.FindShipmentByTrackerID(ctx, trackerID)
	if err != nil {
		return Resolution{}, &ResolverError{Op: "by tracker id", Err: err}
	}
	if sh != nil {
		return Resolution{Shipment: sh}, nil
	}

	if len(candidates) == 0 {
		return Resolution{}, ErrShipmentNotFound
	}
	sh, err = r.repo.FindShipmentByTrackingCodes(ctx, candidates)
	if err != nil {
		return Resolution{}, &ResolverError{Op: "by tracking code", Err: err}
	}
	if sh == nil {
		return Resolution{}, ErrShipmentNotFound
	}

	if sh.TrackerID != nil && *sh.TrackerID == trackerID {
		return Resolution{Shipment: sh}, nil
	}

	log := r.log.With("tracker_id", trackerID, "shipment_id", sh.ID, "tracking_code", sh.TrackingCode)
	if dryRun {
		log.Info("dry-run: would relink shipment to tracker")
		return Resolution{Shipment: sh, WouldRelink: true}, nil
	}

	if err := r.repo.LinkTracker(ctx, sh.ID, trackerID); err != nil {
		return Resolution{}, &ResolverError{Op: "relink", Err: err}
	}
	tid := trackerID
	sh.TrackerID = &tid
	metrics.ShipmentsRelinked.Inc()
	log.Info("shipment relinked to tracker")

	return Resolution{Shipment: sh, Relinked: true}, nil
}
