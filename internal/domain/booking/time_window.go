package booking

import (
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
)

// TimeWindow is the half-open interval [Start, End) a booking reserves an item for.
type TimeWindow struct {
	start time.Time
	end   time.Time
}

// NewTimeWindow creates a TimeWindow. End must be strictly after start.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !end.After(start) {
		return TimeWindow{}, domain.NewValidationError(ReasonEndNotAfterStart.Message())
	}
	return TimeWindow{start: start.UTC(), end: end.UTC()}, nil
}

// Start returns the inclusive start instant.
func (w TimeWindow) Start() time.Time { return w.start }

// End returns the exclusive end instant.
func (w TimeWindow) End() time.Time { return w.end }

// Contains reports whether now falls inside the window: start <= now < end.
func (w TimeWindow) Contains(now time.Time) bool {
	return !now.Before(w.start) && now.Before(w.end)
}

// EndedBy reports whether the window is over at now: end <= now.
// A window ending exactly at now is PAST, not CURRENT, so CURRENT, PAST and
// FUTURE cover every booking exactly once. Keep this inclusive; a strict
// end < now leaves such a booking in no time state.
func (w TimeWindow) EndedBy(now time.Time) bool {
	return !now.Before(w.end)
}

// StartsAfter reports whether the window has not started yet at now: start > now.
func (w TimeWindow) StartsAfter(now time.Time) bool {
	return w.start.After(now)
}
