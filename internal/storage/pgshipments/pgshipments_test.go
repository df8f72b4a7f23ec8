package pgshipments

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/TrackHook/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGShipments_RepoFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "trackhook_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/trackhook_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	require.NoError(t, st.Ping(ctx))

	const tenant = "11111111-1111-1111-1111-111111111111"

	var customerID string
	err = st.db.QueryRow(ctx, `
INSERT INTO shipment_customers (customer_id, name, phone) VALUES ($1, 'Maria Silva', '+5511999999999')
RETURNING id::text`, tenant).Scan(&customerID)
	require.NoError(t, err)

	var shipmentID string
	err = st.db.QueryRow(ctx, `
INSERT INTO shipments (customer_id, tracking_code, shipment_customer_id) VALUES ($1, 'BR123', $2)
RETURNING id::text`, tenant, customerID).Scan(&shipmentID)
	require.NoError(t, err)

	_, err = st.db.Exec(ctx, `INSERT INTO couriers (courier_code, courier_name) VALUES ('correios', 'Correios')`)
	require.NoError(t, err)
	_, err = st.db.Exec(ctx, `
INSERT INTO message_templates (customer_id, name, notification_type, message_content)
VALUES ($1, 'Entrega', ARRAY['delivered'], 'Olá {{customer_name}}')`, tenant)
	require.NoError(t, err)

	// трекер ещё не привязан: ищем по коду, потом привязываем
	sh, err := st.FindShipmentByTrackerID(ctx, "T1")
	require.NoError(t, err)
	require.Nil(t, sh)

	sh, err = st.FindShipmentByTrackingCodes(ctx, []string{"nope", "BR123"})
	require.NoError(t, err)
	require.NotNil(t, sh)
	require.Equal(t, shipmentID, sh.ID)
	require.Nil(t, sh.TrackerID)
	require.Equal(t, models.ShipmentStatusPending, sh.Status)

	require.NoError(t, st.LinkTracker(ctx, shipmentID, "T1"))

	sh, err = st.FindShipmentByTrackerID(ctx, "T1")
	require.NoError(t, err)
	require.NotNil(t, sh)
	require.Equal(t, "T1", *sh.TrackerID)

	now := time.Now().UTC()
	err = st.ApplyShipmentUpdate(ctx, models.ShipmentUpdate{
		ShipmentID: shipmentID,
		Status:     models.ShipmentStatusDelivered,
		TrackingEvents: []models.TrackingEvent{
			{EventID: "e1", StatusMilestone: models.MilestoneDelivered, OccurrenceDatetime: "2024-01-01T10:00:00Z"},
		},
		LastUpdate: now,
		Notification: &models.Notification{
			ID:         "22222222-2222-2222-2222-222222222222",
			CustomerID: tenant,
			ShipmentID: shipmentID,
			Type:       models.MilestoneDelivered,
			Title:      "✅ Pedido entregue",
			Message:    "BR123: Entregue",
		},
	})
	require.NoError(t, err)

	sh, err = st.FindShipmentByTrackerID(ctx, "T1")
	require.NoError(t, err)
	require.Equal(t, models.ShipmentStatusDelivered, sh.Status)
	require.Len(t, sh.TrackingEvents, 1)
	require.NotNil(t, sh.LastUpdate)

	var n int
	require.NoError(t, st.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE shipment_id = $1`, shipmentID).Scan(&n))
	require.Equal(t, 1, n)

	c, err := st.GetShipmentCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Equal(t, "Maria Silva", c.Name)

	tpls, err := st.ListActiveTemplates(ctx, tenant, models.MilestoneDelivered)
	require.NoError(t, err)
	require.Len(t, tpls, 1)

	tpls, err = st.ListActiveTemplates(ctx, tenant, models.MilestoneInTransit)
	require.NoError(t, err)
	require.Empty(t, tpls)

	names, err := st.GetCourierNames(ctx, []string{"correios", "jadlog"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"correios": "Correios"}, names)
}
