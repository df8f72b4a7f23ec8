package pgshipments

import (
	"context"

	"github.com/BearBump/TrackHook/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// GetShipmentCustomer returns nil when the end customer does not exist.
func (s *Storage) GetShipmentCustomer(ctx context.Context, id string) (*models.ShipmentCustomer, error) {
	var c models.ShipmentCustomer
	err := s.db.QueryRow(ctx, `
SELECT id::text, name, phone, email, address, city, state, postal_code
FROM shipment_customers
WHERE id = $1
`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.City, &c.State, &c.PostalCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment customer")
	}
	return &c, nil
}

// ListActiveTemplates returns the tenant's active templates that fire for the
// notification type.
func (s *Storage) ListActiveTemplates(ctx context.Context, customerID, notificationType string) ([]*models.MessageTemplate, error) {
	rows, err := s.db.Query(ctx, `
SELECT id::text, customer_id::text, name, notification_type, message_content, is_active
FROM message_templates
WHERE customer_id = $1
  AND is_active
  AND $2 = ANY(notification_type)
ORDER BY created_at ASC
`, customerID, notificationType)
	if err != nil {
		return nil, errors.Wrap(err, "select templates")
	}
	defer rows.Close()

	var out []*models.MessageTemplate
	for rows.Next() {
		var t models.MessageTemplate
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Name, &t.NotificationTypes, &t.MessageContent, &t.IsActive); err != nil {
			return nil, errors.Wrap(err, "scan template")
		}
		out = append(out, &t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// GetCourierNames resolves courier codes to display names. Unknown codes are
// absent from the result.
func (s *Storage) GetCourierNames(ctx context.Context, codes []string) (map[string]string, error) {
	out := make(map[string]string, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	rows, err := s.db.Query(ctx, `SELECT courier_code, courier_name FROM couriers WHERE courier_code = ANY($1)`, codes)
	if err != nil {
		return nil, errors.Wrap(err, "select couriers")
	}
	defer rows.Close()

	for rows.Next() {
		var code, name string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, errors.Wrap(err, "scan courier")
		}
		out[code] = name
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
