package tracking

import (
	"sort"
	"time"

	"github.com/BearBump/TrackHook/internal/models"
)

// DefaultRelevanceWindow is the "same minute" window. Carriers batch several
// milestones under almost the same timestamp.
const DefaultRelevanceWindow = 60 * time.Second

var defaultPriority = map[string]int{
	models.MilestoneDelivered:          100,
	models.MilestoneOutForDelivery:     90,
	models.MilestoneFailedAttempt:      80,
	models.MilestoneException:          80,
	models.MilestoneAvailableForPickup: 70,
	models.MilestoneInTransit:          50,
	models.MilestoneInfoReceived:       30,
	models.MilestonePending:            10,
	models.MilestoneExpired:            5,
}

// DefaultPriority returns a copy of the built-in milestone priority table.
func DefaultPriority() map[string]int {
	out := make(map[string]int, len(defaultPriority))
	for k, v := range defaultPriority {
		out[k] = v
	}
	return out
}

// RelevanceResolver picks the event that drives a shipment's status.
type RelevanceResolver struct {
	window   time.Duration
	priority map[string]int
}

// NewRelevanceResolver falls back to the defaults for a non-positive window or
// an empty priority table.
func NewRelevanceResolver(window time.Duration, priority map[string]int) *RelevanceResolver {
	if window <= 0 {
		window = DefaultRelevanceWindow
	}
	p := DefaultPriority()
	if len(priority) > 0 {
		p = make(map[string]int, len(priority))
		for k, v := range priority {
			p[k] = v
		}
	}
	return &RelevanceResolver{window: window, priority: p}
}

func DefaultRelevanceResolver() *RelevanceResolver {
	return NewRelevanceResolver(DefaultRelevanceWindow, nil)
}

// Priority of a milestone; unknown milestones rank 0.
func (r *RelevanceResolver) Priority(milestone string) int {
	return r.priority[milestone]
}

// SelectRelevant returns nil for no events. Among events that occurred within
// the window of the latest one (boundary inclusive) the highest priority wins;
// on a tie the most recent of them is kept.
func (r *RelevanceResolver) SelectRelevant(events []models.TrackingEvent) *models.TrackingEvent {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]models.TrackingEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt().After(sorted[j].OccurredAt())
	})

	latest := sorted[0].OccurredAt()
	best := 0
	for i := 1; i < len(sorted); i++ {
		if latest.Sub(sorted[i].OccurredAt()) > r.window {
			break
		}
		if r.Priority(sorted[i].StatusMilestone) > r.Priority(sorted[best].StatusMilestone) {
			best = i
		}
	}

	e := sorted[best]
	return &e
}

// SelectRelevant uses the default window and priority table.
func SelectRelevant(events []models.TrackingEvent) *models.TrackingEvent {
	return DefaultRelevanceResolver().SelectRelevant(events)
}
