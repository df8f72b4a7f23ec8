package tracking

import "github.com/BearBump/TrackHook/internal/models"

const fallbackTitle = "📦 Atualização de rastreamento"

// StatusMapping is what a milestone means for the shipment and its notification.
type StatusMapping struct {
	InternalStatus   string
	NotificationType string
	Title            string
	Translation      string
	Known            bool
}

type statusEntry struct {
	internal    string
	title       string
	translation string
}

var statusTable = map[string]statusEntry{
	models.MilestoneInfoReceived:       {models.ShipmentStatusPending, "📋 Informações recebidas", "Informações recebidas"},
	models.MilestoneInTransit:          {models.ShipmentStatusInTransit, "🚚 Em trânsito", "Em trânsito"},
	models.MilestoneOutForDelivery:     {models.ShipmentStatusOutForDelivery, "🛵 Saiu para entrega", "Saiu para entrega"},
	models.MilestoneFailedAttempt:      {models.ShipmentStatusException, "⚠️ Tentativa de entrega falhou", "Tentativa de entrega sem sucesso"},
	models.MilestoneDelivered:          {models.ShipmentStatusDelivered, "✅ Pedido entregue", "Entregue"},
	models.MilestoneAvailableForPickup: {models.ShipmentStatusOutForDelivery, "📍 Disponível para retirada", "Disponível para retirada"},
	models.MilestoneException:          {models.ShipmentStatusException, "❗ Problema na entrega", "Problema na entrega"},
	models.MilestoneExpired:            {models.ShipmentStatusException, "⏰ Rastreamento expirado", "Rastreamento expirado"},
	models.MilestonePending:            {models.ShipmentStatusPending, "⏳ Aguardando atualização", "Pendente"},
}

// MapStatus never fails: unknown milestones map to pending with a generic title.
func MapStatus(milestone string) StatusMapping {
	e, ok := statusTable[milestone]
	if !ok {
		return StatusMapping{
			InternalStatus:   models.ShipmentStatusPending,
			NotificationType: milestone,
			Title:            fallbackTitle,
			Translation:      milestone,
		}
	}
	return StatusMapping{
		InternalStatus:   e.internal,
		NotificationType: milestone,
		Title:            e.title,
		Translation:      e.translation,
		Known:            true,
	}
}

// Translate returns the Portuguese label for a milestone, or the raw value.
func Translate(milestone string) string {
	return MapStatus(milestone).Translation
}
