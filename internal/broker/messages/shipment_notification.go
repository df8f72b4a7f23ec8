package messages

import (
	"time"

	"github.com/BearBump/TrackHook/internal/models"
)

// ShipmentNotification is published once per new relevant event; its Kafka
// key is ShipmentID. The fan-out needs nothing else to render templates.
type ShipmentNotification struct {
	NotificationID string `json:"notification_id"`
	CorrelationID  string `json:"correlation_id"`

	TenantID           string  `json:"tenant_id"`
	ShipmentID         string  `json:"shipment_id"`
	ShipmentCustomerID *string `json:"shipment_customer_id,omitempty"`
	TrackerID          string  `json:"tracker_id"`
	TrackingCode       string  `json:"tracking_code"`
	ShipmentReference  *string `json:"shipment_reference,omitempty"`

	Status           string `json:"status"`
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Translation      string `json:"translation"`

	Event    *models.TrackingEvent   `json:"event,omitempty"`
	Shipment models.ShipmentSnapshot `json:"shipment"`

	FirstEventAt *time.Time `json:"first_event_at,omitempty"`
	LastUpdate   time.Time  `json:"last_update"`
}
