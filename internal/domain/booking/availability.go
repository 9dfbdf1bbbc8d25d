package booking

import (
	"time"

	"github.com/shareit-platform/service-booking/internal/domain/item"
)

// FailureReason names the creation rule a booking request violated. The zero value means none.
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonSelfBooking      FailureReason = "self_booking"
	ReasonUnavailable      FailureReason = "unavailable"
	ReasonStartInPast      FailureReason = "start_in_past"
	ReasonEndNotAfterStart FailureReason = "end_not_after_start"
)

// Message returns the human-readable text for the reason.
func (r FailureReason) Message() string {
	switch r {
	case ReasonSelfBooking:
		return "owner cannot book their own item"
	case ReasonUnavailable:
		return "item is not available for booking"
	case ReasonStartInPast:
		return "booking start must not be in the past"
	case ReasonEndNotAfterStart:
		return "booking end must be after start"
	}
	return ""
}

// AvailabilityValidator holds the creation-time checks for a booking request.
// Each check is a pure predicate; Check runs them in the order callers rely on.
type AvailabilityValidator struct{}

// SelfBooking fails when the booker owns the item.
func (AvailabilityValidator) SelfBooking(it *item.Item, bookerID int64) FailureReason {
	if it.IsOwnedBy(bookerID) {
		return ReasonSelfBooking
	}
	return ReasonNone
}

// Availability fails when the item's availability flag is off.
func (AvailabilityValidator) Availability(it *item.Item) FailureReason {
	if !it.Available() {
		return ReasonUnavailable
	}
	return ReasonNone
}

// StartNotInPast fails when start is strictly before now.
func (AvailabilityValidator) StartNotInPast(start, now time.Time) FailureReason {
	if start.Before(now) {
		return ReasonStartInPast
	}
	return ReasonNone
}

// EndAfterStart fails unless end is strictly after start.
func (AvailabilityValidator) EndAfterStart(start, end time.Time) FailureReason {
	if !end.After(start) {
		return ReasonEndNotAfterStart
	}
	return ReasonNone
}

// Check runs self-booking, availability, start and end checks in that order and
// returns the first failure.
func (v AvailabilityValidator) Check(it *item.Item, bookerID int64, start, end, now time.Time) FailureReason {
	if r := v.SelfBooking(it, bookerID); r != ReasonNone {
		return r
	}
	if r := v.Availability(it); r != ReasonNone {
		return r
	}
	if r := v.StartNotInPast(start, now); r != ReasonNone {
		return r
	}
	return v.EndAfterStart(start, end)
}
