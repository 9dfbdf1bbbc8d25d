package booking

// IsBooker reports whether userID made the booking.
func IsBooker(b *Booking, userID int64) bool {
	return b.BookerID() == userID
}

// IsOwner reports whether userID owns the booked item and so holds approval authority.
func IsOwner(b *Booking, userID int64) bool {
	return b.Item().OwnerID == userID
}

// IsBookerOrOwner reports whether userID may view the booking.
func IsBookerOrOwner(b *Booking, userID int64) bool {
	return IsBooker(b, userID) || IsOwner(b, userID)
}
