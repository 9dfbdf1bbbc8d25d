package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error. The HTTP boundary maps kinds to status codes.
type Kind string

const (
	KindUserNotFound    Kind = "USER_NOT_FOUND"
	KindItemNotFound    Kind = "ITEM_NOT_FOUND"
	KindBookingNotFound Kind = "BOOKING_NOT_FOUND"
	KindNotFound        Kind = "NOT_FOUND"
	KindBadRequest      Kind = "BAD_REQUEST"
	KindAccessDenied    Kind = "ACCESS_DENIED"
	KindInternal        Kind = "INTERNAL"
)

// AppError is a caller-facing failure with a kind and a human-readable message.
type AppError struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// NewNotFoundError creates a not-found error for the given entity name and identifier.
// The entity name selects the specific kind (User, Item, Booking).
func NewNotFoundError(entity string, id any) *AppError {
	kind := KindNotFound
	switch strings.ToLower(entity) {
	case "user":
		kind = KindUserNotFound
	case "item":
		kind = KindItemNotFound
	case "booking":
		kind = KindBookingNotFound
	}
	return &AppError{Kind: kind, Message: fmt.Sprintf("%s with id %v not found", entity, id)}
}

// NewValidationError creates a bad-request error.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message}
}

// NewForbiddenError creates an access-denied error.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindAccessDenied, Message: message}
}

// KindOf returns the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsNotFound reports whether err is any of the not-found kinds.
func IsNotFound(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindUserNotFound, KindItemNotFound, KindBookingNotFound:
		return true
	}
	return false
}
