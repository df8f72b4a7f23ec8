package pgshipments

import (
	"context"

	"github.com/pkg/errors"
)

// initSchema creates the tables TrackHook touches when they are missing. In
// production they belong to the main application and already exist.
func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		`
CREATE TABLE IF NOT EXISTS shipment_customers (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  customer_id UUID NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NULL,
  email TEXT NULL,
  address TEXT NULL,
  city TEXT NULL,
  state TEXT NULL,
  postal_code TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS shipments (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  customer_id UUID NOT NULL,
  tracking_code TEXT NOT NULL,
  tracker_id TEXT NULL,
  tracking_events JSONB NOT NULL DEFAULT '[]'::jsonb,
  shipment_customer_id UUID NULL REFERENCES shipment_customers(id) ON DELETE SET NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  last_update TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_tracker_id ON shipments(tracker_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_tracking_code ON shipments(tracking_code, created_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS message_templates (
  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  customer_id UUID NOT NULL,
  name TEXT NOT NULL,
  notification_type TEXT[] NOT NULL DEFAULT '{}',
  message_content TEXT NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT true,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_message_templates_customer ON message_templates(customer_id) WHERE is_active`,
		`
CREATE TABLE IF NOT EXISTS couriers (
  courier_code TEXT PRIMARY KEY,
  courier_name TEXT NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS notifications (
  id UUID PRIMARY KEY,
  customer_id UUID NOT NULL,
  shipment_id UUID NULL REFERENCES shipments(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  read BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_customer_created ON notifications(customer_id, created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
