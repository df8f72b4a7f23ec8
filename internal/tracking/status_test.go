package tracking

import (
	"testing"

	"github.com/BearBump/TrackHook/internal/models"
	"github.com/stretchr/testify/require"
)

func TestMapStatus_InternalStatus(t *testing.T) {
	cases := map[string]string{
		models.MilestoneInfoReceived:       models.ShipmentStatusPending,
		models.MilestoneInTransit:          models.ShipmentStatusInTransit,
		models.MilestoneOutForDelivery:     models.ShipmentStatusOutForDelivery,
		models.MilestoneFailedAttempt:      models.ShipmentStatusException,
		models.MilestoneDelivered:          models.ShipmentStatusDelivered,
		models.MilestoneAvailableForPickup: models.ShipmentStatusOutForDelivery,
		models.MilestoneException:          models.ShipmentStatusException,
		models.MilestoneExpired:            models.ShipmentStatusException,
		models.MilestonePending:            models.ShipmentStatusPending,
	}
	for milestone, want := range cases {
		m := MapStatus(milestone)
		require.Equal(t, want, m.InternalStatus, milestone)
		require.Equal(t, milestone, m.NotificationType)
		require.True(t, m.Known)
		require.NotEmpty(t, m.Title)
		require.NotEmpty(t, m.Translation)
	}
}

func TestMapStatus_Unknown(t *testing.T) {
	m := MapStatus("some_new_milestone")
	require.False(t, m.Known)
	require.Equal(t, models.ShipmentStatusPending, m.InternalStatus)
	require.Equal(t, "some_new_milestone", m.NotificationType)
	require.Equal(t, "📦 Atualização de rastreamento", m.Title)
	require.Equal(t, "some_new_milestone", m.Translation)
}

func TestTranslate(t *testing.T) {
	require.Equal(t, "Entregue", Translate("delivered"))
	require.Equal(t, "raw", Translate("raw"))
}
