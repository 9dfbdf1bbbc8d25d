package booking

import (
	"time"
)

// ItemRef is the part of the booked item a booking needs: identity, owner and name.
type ItemRef struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	Name    string `json:"name"`
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id        int64
	window    TimeWindow
	item      ItemRef
	bookerID  int64
	status    BookingStatus
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=WAITING.
// The identifier stays zero until the repository assigns one on Save.
func NewBooking(item ItemRef, bookerID int64, window TimeWindow, now time.Time) *Booking {
	now = now.UTC()
	return &Booking{
		window:    window,
		item:      item,
		bookerID:  bookerID,
		status:    StatusWaiting,
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id int64,
	start, end time.Time,
	item ItemRef,
	bookerID int64,
	status BookingStatus,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		window:    TimeWindow{start: start.UTC(), end: end.UTC()},
		item:      item,
		bookerID:  bookerID,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's identifier.
func (b *Booking) ID() int64 { return b.id }

// Window returns the reserved time window.
func (b *Booking) Window() TimeWindow { return b.window }

// Item returns the booked item reference.
func (b *Booking) Item() ItemRef { return b.item }

// BookerID returns the id of the user who made the booking.
func (b *Booking) BookerID() int64 { return b.bookerID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// AssignID sets the storage-assigned identifier after the first Save.
func (b *Booking) AssignID(id int64) {
	b.id = id
}

// Decide records the owner's decision. A booking that is already decided may be
// decided again; the last decision wins.
func (b *Booking) Decide(approved bool, now time.Time) {
	b.status = DecisionStatus(approved)
	b.updatedAt = now.UTC()
}
