package fanout

import (
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/BearBump/TrackHook/internal/models"
)

const (
	dateLayout     = "02/01/2006"
	timeLayout     = "15:04"
	datetimeLayout = "02/01/2006 15:04"
)

// LoadLocation falls back to a fixed UTC-03:00 zone when tzdata is missing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Variables builds the template variable map for one notification.
func Variables(n messages.ShipmentNotification, c *models.ShipmentCustomer, loc *time.Location, now time.Time) map[string]string {
	v := map[string]string{
		"tracking_code":      n.TrackingCode,
		"status":             n.Translation,
		"status_title":       n.Title,
		"shipment_reference": deref(n.ShipmentReference),
		"last_update":        formatTime(n.LastUpdate, loc, datetimeLayout),
	}

	if c != nil {
		first, last := splitName(c.Name)
		v["customer_name"] = c.Name
		v["customer_first_name"] = first
		v["customer_last_name"] = last
		v["customer_phone"] = deref(c.Phone)
		v["customer_email"] = deref(c.Email)
	}

	eventAt := now
	if e := n.Event; e != nil {
		v["courier_code"] = deref(e.CourierCode)
		v["courier_name"] = firstNonEmpty(deref(e.CourierName), deref(e.CourierCode))
		v["location"] = deref(e.Location)
		v["event_description"] = firstNonEmpty(e.Status, n.Translation)
		if t, ok := models.ParseTimestamp(e.OccurrenceDatetime); ok {
			eventAt = t
			v["event_date"] = formatTime(t, loc, dateLayout)
			v["event_time"] = formatTime(t, loc, timeLayout)
			v["event_datetime"] = formatTime(t, loc, datetimeLayout)
		}
	}

	var recipient models.Recipient
	if n.Shipment.Recipient != nil {
		recipient = *n.Shipment.Recipient
	}
	if c == nil {
		c = &models.ShipmentCustomer{}
	}
	v["delivery_address"] = firstNonEmpty(deref(c.Address), deref(recipient.Address))
	v["delivery_city"] = firstNonEmpty(deref(c.City), deref(recipient.City))
	v["delivery_state"] = firstNonEmpty(deref(c.State), deref(recipient.Subdivision))
	v["delivery_postcode"] = firstNonEmpty(deref(c.PostalCode), deref(recipient.PostCode))

	if d := n.Shipment.Delivery; d != nil {
		v["signed_by"] = deref(d.SignedBy)
		if raw := deref(d.EstimatedDeliveryDate); raw != "" {
			if t, ok := models.ParseTimestamp(raw); ok {
				v["estimated_delivery"] = formatTime(t, loc, dateLayout)
			} else {
				v["estimated_delivery"] = raw
			}
		}
	}

	if n.FirstEventAt != nil && !n.FirstEventAt.IsZero() {
		days := int(eventAt.Sub(*n.FirstEventAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		v["days_in_transit"] = strconv.Itoa(days)
	}

	return v
}

func formatTime(t time.Time, loc *time.Location, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(layout)
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func firstNonEmpty(vals ...string) string {
	for _, s := range vals {
		if s != "" {
			return s
		}
	}
	return ""
}
