package booking

import (
	"sort"
)

// PageRequest carries the optional from/size pair of a listing request.
// From is an item offset, not a page index.
type PageRequest struct {
	From *int
	Size *int
}

// Unpaged returns a request for the full result.
func Unpaged() PageRequest {
	return PageRequest{}
}

// NewPageRequest builds a PageRequest from plain values.
func NewPageRequest(from, size int) PageRequest {
	return PageRequest{From: &from, Size: &size}
}

// Resolve returns the offset and limit to apply. paged is false when either value is
// missing, from is negative or size is not positive; the caller then returns everything.
// Otherwise the offset is rounded down to the page boundary: (from/size)*size.
func (p PageRequest) Resolve() (offset, limit int, paged bool) {
	if p.From == nil || p.Size == nil || *p.From < 0 || *p.Size <= 0 {
		return 0, 0, false
	}
	size := *p.Size
	page := *p.From / size
	return page * size, size, true
}

// Apply cuts an already ordered slice down to the requested page.
func (p PageRequest) Apply(bookings []*Booking) []*Booking {
	offset, limit, paged := p.Resolve()
	if !paged {
		return bookings
	}
	if offset >= len(bookings) {
		return []*Booking{}
	}
	end := offset + limit
	if end > len(bookings) {
		end = len(bookings)
	}
	return bookings[offset:end]
}

// SortByStartDesc orders bookings by window start descending, newest id first on ties.
func SortByStartDesc(bookings []*Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		si, sj := bookings[i].window.start, bookings[j].window.start
		if si.Equal(sj) {
			return bookings[i].id > bookings[j].id
		}
		return si.After(sj)
	})
}
