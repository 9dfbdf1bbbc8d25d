package application

import "time"

// Topics and event types published by this service.
const (
	TopicBookingEvents = "booking.events"

	BookingCreated   = "booking.created"
	BookingApproved  = "booking.approved"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload of every booking lifecycle event.
type BookingEvent struct {
	BookingID  int64     `json:"booking_id"`
	ItemID     int64     `json:"item_id"`
	OwnerID    int64     `json:"owner_id"`
	BookerID   int64     `json:"booker_id"`
	Status     string    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
