package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
)

// State is the logical filter applied when listing bookings.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

// States lists every recognized state tag.
var States = []State{StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected}

// ParseState converts a raw tag to a State, ignoring case and surrounding spaces.
func ParseState(raw string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range States {
		if s == known {
			return s, nil
		}
	}
	return "", domain.NewValidationError(fmt.Sprintf("unknown state: %s", raw))
}

// Matches reports whether b satisfies the state's predicate at now.
//
//	ALL      no filter
//	CURRENT  start <= now < end
//	PAST     end <= now
//	FUTURE   start > now
//	WAITING  status == WAITING
//	REJECTED status == REJECTED
func (s State) Matches(b *Booking, now time.Time) bool {
	switch s {
	case StateAll:
		return true
	case StateCurrent:
		return b.window.Contains(now)
	case StatePast:
		return b.window.EndedBy(now)
	case StateFuture:
		return b.window.StartsAfter(now)
	case StateWaiting:
		return b.status == StatusWaiting
	case StateRejected:
		return b.status == StatusRejected
	}
	return false
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
