// Package memory holds in-process implementations of the repository ports. They back
// STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/shareit-platform/service-booking/internal/domain"
	bookingDomain "github.com/shareit-platform/service-booking/internal/domain/booking"
)

// BookingRepository keeps bookings in a map guarded by a RWMutex.
// Identifiers come from a counter owned by the instance. Reads take the item owner
// and name from items, so a re-owned item moves its bookings with it.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[int64]*bookingDomain.Booking
	nextID   int64
	items    *ItemRepository
}

// NewBookingRepository creates an empty BookingRepository reading item references
// from items. A nil items keeps the reference stored at creation.
func NewBookingRepository(items *ItemRepository) *BookingRepository {
	return &BookingRepository{bookings: make(map[int64]*bookingDomain.Booking), items: items}
}

func (r *BookingRepository) FindByID(_ context.Context, id int64) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id)
	}
	return r.resolve(bk), nil
}

func (r *BookingRepository) Find(_ context.Context, q bookingDomain.Query) ([]*bookingDomain.Booking, error) {
	r.mu.RLock()
	matched := make([]*bookingDomain.Booking, 0)
	for _, stored := range r.bookings {
		bk := r.resolve(stored)
		if q.InScope(bk) && q.State.Matches(bk, q.Now) {
			matched = append(matched, bk)
		}
	}
	r.mu.RUnlock()

	bookingDomain.SortByStartDesc(matched)
	return q.Page.Apply(matched), nil
}

func (r *BookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	bk.AssignID(r.nextID)
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *BookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("Booking", bk.ID())
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *BookingRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return domain.NewNotFoundError("Booking", id)
	}
	delete(r.bookings, id)
	return nil
}

func (r *BookingRepository) CountByStatus(_ context.Context) (map[bookingDomain.BookingStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[bookingDomain.BookingStatus]int64)
	for _, bk := range r.bookings {
		counts[bk.Status()]++
	}
	return counts, nil
}

// resolve returns a copy of bk carrying the current owner and name of its item.
func (r *BookingRepository) resolve(bk *bookingDomain.Booking) *bookingDomain.Booking {
	ref := bk.Item()
	if r.items != nil {
		if it, ok := r.items.lookup(ref.ID); ok {
			ref.OwnerID = it.OwnerID()
			ref.Name = it.Name()
		}
	}
	return withItem(bk, ref)
}

func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return withItem(bk, bk.Item())
}

func withItem(bk *bookingDomain.Booking, ref bookingDomain.ItemRef) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		bk.ID(),
		bk.Window().Start(),
		bk.Window().End(),
		ref,
		bk.BookerID(),
		bk.Status(),
		bk.CreatedAt(),
		bk.UpdatedAt(),
	)
}
