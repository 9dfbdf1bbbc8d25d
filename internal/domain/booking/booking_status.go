package booking

import (
	"fmt"
	"strings"
)

// BookingStatus represents the approval state of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsDecided returns true once the item owner has approved or rejected the booking.
func (s BookingStatus) IsDecided() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// DecisionStatus returns the status an owner decision moves a booking to.
func DecisionStatus(approved bool) BookingStatus {
	if approved {
		return StatusApproved
	}
	return StatusRejected
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
