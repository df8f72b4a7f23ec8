package models

import (
	"strings"
	"time"
)

// Внешний словарь статусов агрегатора (statusMilestone).
const (
	MilestoneInfoReceived       = "info_received"
	MilestoneInTransit          = "in_transit"
	MilestoneOutForDelivery     = "out_for_delivery"
	MilestoneFailedAttempt      = "failed_attempt"
	MilestoneDelivered          = "delivered"
	MilestoneAvailableForPickup = "available_for_pickup"
	MilestoneException          = "exception"
	MilestoneExpired            = "expired"
	MilestonePending            = "pending"
)

// TrackingEvent is one milestone reported by the carrier. The same shape is
// stored in shipments.tracking_events.
type TrackingEvent struct {
	EventID             string  `json:"eventId" validate:"required,max=255"`
	TrackingNumber      string  `json:"trackingNumber,omitempty" validate:"max=150"`
	EventTrackingNumber string  `json:"eventTrackingNumber,omitempty" validate:"max=150"`
	Status              string  `json:"status,omitempty" validate:"max=1000"`
	OccurrenceDatetime  string  `json:"occurrenceDatetime" validate:"required,isodatetime"`
	Datetime            *string `json:"datetime,omitempty" validate:"omitempty,isodatetime"`
	UTCOffset           *string `json:"utcOffset,omitempty" validate:"omitempty,max=10"`
	Location            *string `json:"location,omitempty" validate:"omitempty,max=500"`
	SourceCode          *string `json:"sourceCode,omitempty" validate:"omitempty,max=100"`
	CourierCode         *string `json:"courierCode,omitempty" validate:"omitempty,max=100"`
	CourierName         *string `json:"courierName,omitempty" validate:"omitempty,max=200"`
	StatusCode          *string `json:"statusCode,omitempty" validate:"omitempty,max=100"`
	StatusCategory      *string `json:"statusCategory,omitempty" validate:"omitempty,max=100"`
	StatusMilestone     string  `json:"statusMilestone" validate:"required,max=64"`
	Order               *int    `json:"order,omitempty"`
}

// OccurredAt parses OccurrenceDatetime. Unparseable values yield the zero time.
func (e *TrackingEvent) OccurredAt() time.Time {
	t, _ := ParseTimestamp(e.OccurrenceDatetime)
	return t
}

// EffectiveAt is datetime when present, occurrenceDatetime otherwise.
func (e *TrackingEvent) EffectiveAt() time.Time {
	if e.Datetime != nil && *e.Datetime != "" {
		if t, ok := ParseTimestamp(*e.Datetime); ok {
			return t
		}
	}
	return e.OccurredAt()
}

type Tracker struct {
	TrackerID         string   `json:"trackerId" validate:"required,uuid"`
	TrackingNumber    string   `json:"trackingNumber" validate:"required,max=150"`
	ShipmentReference *string  `json:"shipmentReference,omitempty" validate:"omitempty,max=255"`
	ClientTrackerID   *string  `json:"clientTrackerId,omitempty" validate:"omitempty,max=255"`
	CourierCode       []string `json:"courierCode,omitempty" validate:"max=20,dive,max=100"`
	IsSubscribed      *bool    `json:"isSubscribed,omitempty"`
	CreatedAt         *string  `json:"createdAt,omitempty" validate:"omitempty,isodatetime"`
}

type TrackingNumber struct {
	TN string `json:"tn" validate:"required,max=150"`
}

type Delivery struct {
	EstimatedDeliveryDate *string `json:"estimatedDeliveryDate,omitempty" validate:"omitempty,isodatetime"`
	Service               *string `json:"service,omitempty" validate:"omitempty,max=255"`
	SignedBy              *string `json:"signedBy,omitempty" validate:"omitempty,max=255"`
}

type Recipient struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	PostCode    *string `json:"postCode,omitempty" validate:"omitempty,max=20"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=255"`
	Subdivision *string `json:"subdivision,omitempty" validate:"omitempty,max=255"`
}

// ShipmentSnapshot is the aggregator's view of the shipment status.
type ShipmentSnapshot struct {
	ShipmentID             *string          `json:"shipmentId,omitempty" validate:"omitempty,max=255"`
	StatusCode             *string          `json:"statusCode,omitempty" validate:"omitempty,max=100"`
	StatusCategory         *string          `json:"statusCategory,omitempty" validate:"omitempty,max=100"`
	StatusMilestone        string           `json:"statusMilestone" validate:"required,max=64"`
	OriginCountryCode      *string          `json:"originCountryCode,omitempty" validate:"omitempty,max=3"`
	DestinationCountryCode *string          `json:"destinationCountryCode,omitempty" validate:"omitempty,max=3"`
	Delivery               *Delivery        `json:"delivery,omitempty"`
	TrackingNumbers        []TrackingNumber `json:"trackingNumbers,omitempty" validate:"max=50,dive"`
	Recipient              *Recipient       `json:"recipient,omitempty"`
}

type Statistics struct {
	Timestamps map[string]*string `json:"timestamps,omitempty"`
}

// TrackingData is one tracking session delivered by the webhook.
type TrackingData struct {
	Tracker    Tracker          `json:"tracker"`
	Shipment   ShipmentSnapshot `json:"shipment"`
	Events     []TrackingEvent  `json:"events" validate:"max=1000,dive"`
	Statistics *Statistics      `json:"statistics,omitempty"`
}

// TrackingNumberCandidates returns tracker.trackingNumber plus every
// shipment.trackingNumbers[].tn, non-empty and without duplicates.
func (d *TrackingData) TrackingNumberCandidates() []string {
	out := make([]string, 0, 1+len(d.Shipment.TrackingNumbers))
	seen := make(map[string]struct{}, cap(out))
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	add(d.Tracker.TrackingNumber)
	for _, tn := range d.Shipment.TrackingNumbers {
		add(tn.TN)
	}
	return out
}

type EnvelopeBody struct {
	Trackings []TrackingData `json:"trackings" validate:"required,max=100,dive"`
}

type Envelope struct {
	Body EnvelopeBody `json:"body"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339 and the offset-less ISO forms the aggregator
// sends. Values without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
