package fanout

import (
	"testing"
	"time"

	"github.com/BearBump/TrackHook/internal/broker/messages"
	"github.com/BearBump/TrackHook/internal/models"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestLoadLocation(t *testing.T) {
	loc := LoadLocation("Not/AZone")
	_, off := time.Date(2024, 6, 1, 0, 0, 0, 0, loc).Zone()
	require.Equal(t, -3*3600, off)

	loc = LoadLocation("")
	_, off = time.Date(2024, 6, 1, 0, 0, 0, 0, loc).Zone()
	require.Equal(t, -3*3600, off)
}

func TestVariables(t *testing.T) {
	loc := LoadLocation("America/Sao_Paulo")
	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	n := messages.ShipmentNotification{
		TrackingCode:      "BR123",
		Status:            models.ShipmentStatusDelivered,
		Title:             "✅ Pedido entregue",
		Translation:       "Entregue",
		ShipmentReference: strp("PED-42"),
		Event: &models.TrackingEvent{
			EventID:            "e1",
			Status:             "Objeto entregue ao destinatário",
			OccurrenceDatetime: "2024-03-05T13:30:00Z",
			Location:           strp("São Paulo - SP"),
			CourierCode:        strp("correios"),
			CourierName:        strp("Correios"),
		},
		Shipment: models.ShipmentSnapshot{
			Delivery: &models.Delivery{
				EstimatedDeliveryDate: strp("2024-03-06"),
				SignedBy:              strp("João"),
			},
			Recipient: &models.Recipient{City: strp("Campinas"), PostCode: strp("13000-000")},
		},
		FirstEventAt: &first,
		LastUpdate:   time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC),
	}
	c := &models.ShipmentCustomer{
		ID:    "sc1",
		Name:  "Maria da Silva",
		Phone: strp("+5511999999999"),
		City:  strp("São Paulo"),
	}

	v := Variables(n, c, loc, time.Now())

	require.Equal(t, "Maria da Silva", v["customer_name"])
	require.Equal(t, "Maria", v["customer_first_name"])
	require.Equal(t, "da Silva", v["customer_last_name"])
	require.Equal(t, "+5511999999999", v["customer_phone"])
	require.Equal(t, "", v["customer_email"])
	require.Equal(t, "BR123", v["tracking_code"])
	require.Equal(t, "Entregue", v["status"])
	require.Equal(t, "✅ Pedido entregue", v["status_title"])
	require.Equal(t, "Correios", v["courier_name"])
	require.Equal(t, "correios", v["courier_code"])
	require.Equal(t, "São Paulo - SP", v["location"])
	require.Equal(t, "Objeto entregue ao destinatário", v["event_description"])
	require.Equal(t, "05/03/2024", v["event_date"])
	require.Equal(t, "10:30", v["event_time"])
	require.Equal(t, "05/03/2024 10:30", v["event_datetime"])
	require.Equal(t, "05/03/2024 11:00", v["last_update"])
	require.Equal(t, "06/03/2024", v["estimated_delivery"])
	require.Equal(t, "São Paulo", v["delivery_city"])
	require.Equal(t, "13000-000", v["delivery_postcode"])
	require.Equal(t, "4", v["days_in_transit"])
	require.Equal(t, "PED-42", v["shipment_reference"])
	require.Equal(t, "João", v["signed_by"])
}

func TestVariables_Sparse(t *testing.T) {
	v := Variables(messages.ShipmentNotification{TrackingCode: "BR1", Translation: "Pendente"}, nil, time.UTC, time.Now())

	require.Equal(t, "BR1", v["tracking_code"])
	require.Equal(t, "", v["customer_name"])
	require.Equal(t, "", v["event_date"])
	require.Equal(t, "", v["last_update"])
	require.NotContains(t, v, "days_in_transit")
}
