package pgshipments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/TrackHook/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const selectShipment = `
SELECT
  id::text, customer_id::text, tracking_code, tracker_id,
  tracking_events, shipment_customer_id::text,
  status, last_update, created_at
FROM shipments
`

// FindShipmentByTrackerID returns the newest shipment linked to the tracker,
// or nil when there is none.
func (s *Storage) FindShipmentByTrackerID(ctx context.Context, trackerID string) (*models.Shipment, error) {
	row := s.db.QueryRow(ctx, selectShipment+`WHERE tracker_id = $1
ORDER BY created_at DESC
LIMIT 1`, trackerID)
	sh, err := scanShipment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment by tracker")
	}
	return sh, nil
}

// FindShipmentByTrackingCodes returns the newest shipment whose tracking code
// is one of codes, or nil.
func (s *Storage) FindShipmentByTrackingCodes(ctx context.Context, codes []string) (*models.Shipment, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	row := s.db.QueryRow(ctx, selectShipment+`WHERE tracking_code = ANY($1)
ORDER BY created_at DESC
LIMIT 1`, codes)
	sh, err := scanShipment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment by tracking code")
	}
	return sh, nil
}

func (s *Storage) LinkTracker(ctx context.Context, shipmentID, trackerID string) error {
	_, err := s.db.Exec(ctx, `UPDATE shipments SET tracker_id = $2 WHERE id = $1`, shipmentID, trackerID)
	return errors.Wrap(err, "link tracker")
}

// ApplyShipmentUpdate stores the merged events and derived status, and the
// notification if there is one, in a single transaction.
func (s *Storage) ApplyShipmentUpdate(ctx context.Context, upd models.ShipmentUpdate) error {
	events := upd.TrackingEvents
	if events == nil {
		events = []models.TrackingEvent{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return errors.Wrap(err, "marshal tracking events")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE shipments
SET
  tracking_events = $2,
  status = $3,
  last_update = $4
WHERE id = $1
`, upd.ShipmentID, eventsJSON, upd.Status, upd.LastUpdate.UTC())
	if err != nil {
		return errors.Wrap(err, "update shipment")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("update shipment: %s not found", upd.ShipmentID)
	}

	if n := upd.Notification; n != nil {
		createdAt := n.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := tx.Exec(ctx, `
INSERT INTO notifications (id, customer_id, shipment_id, type, title, message, read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,false,$7)
`, n.ID, n.CustomerID, n.ShipmentID, n.Type, n.Title, n.Message, createdAt.UTC())
		if err != nil {
			return errors.Wrap(err, "insert notification")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	var sh models.Shipment
	var eventsJSON []byte
	if err := row.Scan(
		&sh.ID, &sh.CustomerID, &sh.TrackingCode, &sh.TrackerID,
		&eventsJSON, &sh.ShipmentCustomerID,
		&sh.Status, &sh.LastUpdate, &sh.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(eventsJSON) > 0 {
		if err := json.Unmarshal(eventsJSON, &sh.TrackingEvents); err != nil {
			return nil, errors.Wrap(err, "decode tracking_events")
		}
	}
	return &sh, nil
}
