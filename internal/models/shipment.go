package models

import "time"

// Внутренние статусы отправления (shipments.status).
const (
	ShipmentStatusPending        = "pending"
	ShipmentStatusInTransit      = "in_transit"
	ShipmentStatusOutForDelivery = "out_for_delivery"
	ShipmentStatusDelivered      = "delivered"
	ShipmentStatusException      = "exception"
)

type Shipment struct {
	ID                 string
	CustomerID         string
	TrackingCode       string
	TrackerID          *string
	TrackingEvents     []TrackingEvent
	ShipmentCustomerID *string
	Status             string
	LastUpdate         *time.Time
	CreatedAt          time.Time
}

// ShipmentCustomer is the merchant's end customer who receives messages.
type ShipmentCustomer struct {
	ID         string
	Name       string
	Phone      *string
	Email      *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string
}

type MessageTemplate struct {
	ID                string
	CustomerID        string
	Name              string
	NotificationTypes []string
	MessageContent    string
	IsActive          bool
}

type Notification struct {
	ID         string
	CustomerID string
	ShipmentID string
	Type       string
	Title      string
	Message    string
	CreatedAt  time.Time
}

// ShipmentUpdate is the result of reconciling one tracking with its shipment.
type ShipmentUpdate struct {
	ShipmentID     string
	Status         string
	TrackingEvents []TrackingEvent
	LastUpdate     time.Time

	// Notification is nil when the relevant event was already known.
	Notification *Notification
}
