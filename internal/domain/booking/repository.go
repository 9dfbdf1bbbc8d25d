package booking

import (
	"context"
	"time"
)

// Scope selects whose bookings a Query covers.
type Scope int

const (
	// ScopeBooker covers bookings made by the user.
	ScopeBooker Scope = iota
	// ScopeOwner covers bookings on items the user owns.
	ScopeOwner
)

// String returns the scope label used in logs and metrics.
func (s Scope) String() string {
	if s == ScopeOwner {
		return "owner"
	}
	return "booker"
}

// Query describes a state-filtered, ordered and optionally paged listing.
type Query struct {
	Scope  Scope
	UserID int64
	State  State
	Now    time.Time
	Page   PageRequest
}

// InScope reports whether b belongs to the query's scope.
func (q Query) InScope(b *Booking) bool {
	if q.Scope == ScopeOwner {
		return IsOwner(b, q.UserID)
	}
	return IsBooker(b, q.UserID)
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its identifier or returns BookingNotFound.
	FindByID(ctx context.Context, id int64) (*Booking, error)

	// Find returns the bookings in the query's scope matching its state, ordered by
	// window start descending and cut to the requested page.
	Find(ctx context.Context, q Query) ([]*Booking, error)

	// Save persists a new booking and assigns its identifier.
	Save(ctx context.Context, booking *Booking) error

	// Update persists the status of an existing booking.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking permanently.
	Delete(ctx context.Context, id int64) error

	// CountByStatus returns the number of stored bookings per status.
	CountByStatus(ctx context.Context) (map[BookingStatus]int64, error)
}
