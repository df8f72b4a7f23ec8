package tracking

import (
	"sort"

	"github.com/BearBump/TrackHook/internal/models"
)

// Merge combines stored events with newly delivered ones.
//
// Events are keyed by eventId; a later event with the same id replaces the
// earlier one but keeps its position for equal timestamps. Events without an
// id are dropped. The result is ordered newest first by datetime, falling back
// to occurrenceDatetime.
func Merge(existing, incoming []models.TrackingEvent) []models.TrackingEvent {
	byID := make(map[string]models.TrackingEvent, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))

	put := func(e models.TrackingEvent) {
		if e.EventID == "" {
			return
		}
		if _, ok := byID[e.EventID]; !ok {
			order = append(order, e.EventID)
		}
		byID[e.EventID] = e
	}
	for _, e := range existing {
		put(e)
	}
	for _, e := range incoming {
		put(e)
	}

	out := make([]models.TrackingEvent, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveAt().After(out[j].EffectiveAt())
	})
	return out
}

// ContainsEvent reports whether events holds an event with the given id.
func ContainsEvent(events []models.TrackingEvent, eventID string) bool {
	for i := range events {
		if events[i].EventID == eventID {
			return true
		}
	}
	return false
}
