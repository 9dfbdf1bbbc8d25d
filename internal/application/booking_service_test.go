package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
	bookingDomain "github.com/shareit-platform/service-booking/internal/domain/booking"
	"github.com/shareit-platform/service-booking/internal/domain/item"
	"github.com/shareit-platform/service-booking/internal/domain/user"
	"github.com/shareit-platform/service-booking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

var fixedNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

type publishedEvent struct {
	topic     string
	key       string
	eventType string
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, eventType: eventType, data: data})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

type fixture struct {
	svc       *BookingService
	bookings  *memory.BookingRepository
	items     *memory.ItemRepository
	users     *memory.UserRepository
	publisher *recordingPublisher
	now       time.Time
}

// newFixture seeds users 1, 2, 3 and item 10 (owner 1, available) and item 11 (owner 1, unavailable).
func newFixture(t testing.TB) *fixture {
	items := memory.NewItemRepository()
	f := &fixture{
		bookings:  memory.NewBookingRepository(items),
		items:     items,
		users:     memory.NewUserRepository(),
		publisher: &recordingPublisher{},
		now:       fixedNow,
	}
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		u, err := user.NewUser(id, "user", "user@example.com")
		if err != nil {
			t.Fatal(err)
		}
		_ = f.users.Upsert(ctx, u)
	}
	available, _ := item.NewItem(10, 1, "drill", "", true, 1)
	unavailable, _ := item.NewItem(11, 1, "saw", "", false, 1)
	_ = f.items.Upsert(ctx, available)
	_ = f.items.Upsert(ctx, unavailable)

	f.svc = NewBookingService(f.bookings, f.items, f.users, f.publisher, func() time.Time { return f.now }, zap.NewNop())
	return f
}

func (f *fixture) create(t *testing.T, bookerID, itemID int64, start, end time.Duration) *BookingDTO {
	t.Helper()
	dto, err := f.svc.CreateBooking(context.Background(), bookerID, CreateBookingRequest{
		ItemID: itemID,
		Start:  f.now.Add(start),
		End:    f.now.Add(end),
	})
	require.NoError(t, err)
	return dto
}

func assertKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, domain.KindOf(err), "error: %v", err)
}

const day = 24 * time.Hour

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t)

	dto := f.create(t, 2, 10, day, 2*day)

	assert.Equal(t, int64(1), dto.ID)
	assert.Equal(t, "WAITING", dto.Status)
	assert.Equal(t, int64(10), dto.Item.ID)
	assert.Equal(t, int64(1), dto.Item.OwnerID)
	assert.Equal(t, int64(2), dto.Booker.ID)
	assert.Equal(t, fixedNow.Add(day), dto.Start)
	assert.Equal(t, []string{BookingCreated}, f.publisher.types())
	assert.Equal(t, TopicBookingEvents, f.publisher.events[0].topic)
	assert.Equal(t, "1", f.publisher.events[0].key)
}

func TestCreateBooking_ErrorOrder(t *testing.T) {
	tests := []struct {
		name     string
		bookerID int64
		itemID   int64
		start    time.Duration
		end      time.Duration
		want     domain.Kind
		message  string
	}{
		{"unknown user wins over unknown item", 99, 99, day, 2 * day, domain.KindUserNotFound, ""},
		{"unknown item", 2, 99, day, 2 * day, domain.KindItemNotFound, ""},
		{"self booking", 1, 10, day, 2 * day, domain.KindBadRequest, bookingDomain.ReasonSelfBooking.Message()},
		{"self booking wins over unavailable", 1, 11, -day, -2 * day, domain.KindBadRequest, bookingDomain.ReasonSelfBooking.Message()},
		{"unavailable", 2, 11, day, 2 * day, domain.KindBadRequest, bookingDomain.ReasonUnavailable.Message()},
		{"start in past", 2, 10, -time.Minute, day, domain.KindBadRequest, bookingDomain.ReasonStartInPast.Message()},
		{"end equals start", 2, 10, day, day, domain.KindBadRequest, bookingDomain.ReasonEndNotAfterStart.Message()},
		{"end before start", 2, 10, 2 * day, day, domain.KindBadRequest, bookingDomain.ReasonEndNotAfterStart.Message()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateBooking(context.Background(), tt.bookerID, CreateBookingRequest{
				ItemID: tt.itemID,
				Start:  f.now.Add(tt.start),
				End:    f.now.Add(tt.end),
			})
			assertKind(t, err, tt.want)
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
			assert.Empty(t, f.publisher.types())

			counts, _ := f.bookings.CountByStatus(context.Background())
			assert.Empty(t, counts, "nothing persisted on failure")
		})
	}
}

func TestCreateBooking_StartAtNowIsAccepted(t *testing.T) {
	f := newFixture(t)
	dto := f.create(t, 2, 10, 0, time.Hour)
	assert.Equal(t, "WAITING", dto.Status)
}

func TestSetApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, 2, 10, day, 2*day)

	_, err := f.svc.SetApproval(ctx, 999, 1, true)
	assertKind(t, err, domain.KindBookingNotFound)

	for _, caller := range []int64{2, 3, 42} {
		_, err = f.svc.SetApproval(ctx, created.ID, caller, true)
		assertKind(t, err, domain.KindAccessDenied)
	}
	stored, err := f.bookings.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusWaiting, stored.Status())

	approved, err := f.svc.SetApproval(ctx, created.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)

	again, err := f.svc.SetApproval(ctx, created.ID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", again.Status)

	rejected, err := f.svc.SetApproval(ctx, created.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)

	assert.Equal(t, []string{BookingCreated, BookingApproved, BookingApproved, BookingRejected}, f.publisher.types())
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, 2, 10, day, 2*day)

	_, err := f.svc.GetBooking(ctx, 999, 99)
	assertKind(t, err, domain.KindUserNotFound)

	_, err = f.svc.GetBooking(ctx, 999, 2)
	assertKind(t, err, domain.KindBookingNotFound)

	_, err = f.svc.GetBooking(ctx, created.ID, 3)
	assertKind(t, err, domain.KindAccessDenied)

	asBooker, err := f.svc.GetBooking(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, *created, *asBooker)

	asOwner, err := f.svc.GetBooking(ctx, created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, asOwner.ID)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, 2, 10, day, 2*day)
	_, err := f.svc.SetApproval(ctx, created.ID, 1, true)
	require.NoError(t, err)

	assertKind(t, f.svc.CancelBooking(ctx, created.ID, 99), domain.KindUserNotFound)
	assertKind(t, f.svc.CancelBooking(ctx, 999, 2), domain.KindBookingNotFound)
	assertKind(t, f.svc.CancelBooking(ctx, created.ID, 1), domain.KindAccessDenied)
	assertKind(t, f.svc.CancelBooking(ctx, created.ID, 3), domain.KindAccessDenied)

	_, err = f.bookings.FindByID(ctx, created.ID)
	require.NoError(t, err, "denied cancel keeps the booking")

	require.NoError(t, f.svc.CancelBooking(ctx, created.ID, 2))
	_, err = f.svc.GetBooking(ctx, created.ID, 2)
	assertKind(t, err, domain.KindBookingNotFound)
	assert.Contains(t, f.publisher.types(), BookingCancelled)
}

func TestList_StateParsedBeforeUserLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListBookerBookings(ctx, 99, "UNSUPPORTED_STATUS", nil, nil)
	assertKind(t, err, domain.KindBadRequest)
	assert.Equal(t, "unknown state: UNSUPPORTED_STATUS", err.Error())

	_, err = f.svc.ListOwnerBookings(ctx, 99, "all", nil, nil)
	assertKind(t, err, domain.KindUserNotFound)
}

func TestList_OwnerWaitingBeforeAndAfterApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, 2, 10, day, 2*day)

	waiting, err := f.svc.ListOwnerBookings(ctx, 1, "WAITING", nil, nil)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, created.ID, waiting[0].ID)

	_, err = f.svc.SetApproval(ctx, created.ID, 1, true)
	require.NoError(t, err)

	waiting, err = f.svc.ListOwnerBookings(ctx, 1, "WAITING", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, waiting)

	all, err := f.svc.ListOwnerBookings(ctx, 1, "ALL", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	future, err := f.svc.ListOwnerBookings(ctx, 1, "future", nil, nil)
	require.NoError(t, err)
	assert.Len(t, future, 1)

	current, err := f.svc.ListOwnerBookings(ctx, 1, "CURRENT", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, current)

	mine, err := f.svc.ListBookerBookings(ctx, 1, "ALL", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, mine, "owner scope and booker scope differ")
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []int64
	for i := 1; i <= 4; i++ {
		dto := f.create(t, 2, 10, time.Duration(i)*day, time.Duration(i)*day+time.Hour)
		ids = append(ids, dto.ID)
	}

	from, size := 0, 2
	first, err := f.svc.ListBookerBookings(ctx, 2, "ALL", &from, &size)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[3], ids[2]}, dtoIDs(first))

	from = 2
	second, err := f.svc.ListBookerBookings(ctx, 2, "ALL", &from, &size)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[0]}, dtoIDs(second))

	from = 3
	unaligned, err := f.svc.ListBookerBookings(ctx, 2, "ALL", &from, &size)
	require.NoError(t, err)
	assert.Equal(t, dtoIDs(second), dtoIDs(unaligned), "offset rounds down to the page boundary")

	zero := 0
	all, err := f.svc.ListBookerBookings(ctx, 2, "ALL", &from, &zero)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	all, err = f.svc.ListBookerBookings(ctx, 2, "ALL", nil, &size)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPublishFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	dto := f.create(t, 2, 10, day, 2*day)

	got, err := f.svc.GetBooking(context.Background(), dto.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "WAITING", got.Status)
}

func TestGetBookingStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, 2, 10, day, 2*day)
	f.create(t, 3, 10, day, 2*day)
	_, err := f.svc.SetApproval(ctx, a.ID, 1, false)
	require.NoError(t, err)

	stats, err := f.svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["WAITING"])
	assert.Equal(t, int64(1), stats.ByStatus["REJECTED"])
}

func TestProperty_CreatedBookingsHoldInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		ctx := context.Background()

		bookerID := rapid.Int64Range(1, 3).Draw(rt, "booker")
		itemID := rapid.SampledFrom([]int64{10, 11}).Draw(rt, "item")
		startMin := rapid.Int64Range(-600, 600).Draw(rt, "startMin")
		lengthMin := rapid.Int64Range(-120, 600).Draw(rt, "lengthMin")
		start := f.now.Add(time.Duration(startMin) * time.Minute)
		end := start.Add(time.Duration(lengthMin) * time.Minute)

		dto, err := f.svc.CreateBooking(ctx, bookerID, CreateBookingRequest{ItemID: itemID, Start: start, End: end})
		if err != nil {
			if domain.KindOf(err) != domain.KindBadRequest {
				rt.Fatalf("unexpected error kind %s: %v", domain.KindOf(err), err)
			}
			return
		}

		if itemID == 11 {
			rt.Fatalf("booking on unavailable item succeeded")
		}
		if start.Before(f.now) {
			rt.Fatalf("booking starting in the past succeeded")
		}
		if !dto.Start.Before(dto.End) {
			rt.Fatalf("created window [%s, %s) is empty", dto.Start, dto.End)
		}
		if dto.Booker.ID == dto.Item.OwnerID {
			rt.Fatalf("owner booked own item")
		}

		got, err := f.svc.GetBooking(ctx, dto.ID, bookerID)
		if err != nil {
			rt.Fatalf("round trip failed: %v", err)
		}
		if got.Status != "WAITING" || got.Item != dto.Item || !got.Start.Equal(dto.Start) || !got.End.Equal(dto.End) {
			rt.Fatalf("round trip mismatch: %+v vs %+v", got, dto)
		}
	})
}

func TestProperty_ForeignCallersCannotMutate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.svc.CreateBooking(ctx, 2, CreateBookingRequest{ItemID: 10, Start: f.now.Add(day), End: f.now.Add(2 * day)})
		if err != nil {
			rt.Fatal(err)
		}

		caller := rapid.Int64Range(2, 50).Draw(rt, "approver")
		if _, err := f.svc.SetApproval(ctx, created.ID, caller, rapid.Bool().Draw(rt, "approved")); domain.KindOf(err) != domain.KindAccessDenied {
			rt.Fatalf("approval by %d: got %v", caller, err)
		}

		canceller := rapid.SampledFrom([]int64{1, 3}).Draw(rt, "canceller")
		if err := f.svc.CancelBooking(ctx, created.ID, canceller); domain.KindOf(err) != domain.KindAccessDenied {
			rt.Fatalf("cancel by %d: got %v", canceller, err)
		}

		stored, err := f.bookings.FindByID(ctx, created.ID)
		if err != nil {
			rt.Fatalf("booking disappeared: %v", err)
		}
		if stored.Status() != bookingDomain.StatusWaiting {
			rt.Fatalf("status mutated to %s", stored.Status())
		}
	})
}

func TestProperty_ListingsMatchStateAndOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		ctx := context.Background()

		n := rapid.IntRange(0, 12).Draw(rt, "n")
		for i := 0; i < n; i++ {
			startMin := rapid.Int64Range(0, 5000).Draw(rt, "start")
			lengthMin := rapid.Int64Range(1, 3000).Draw(rt, "length")
			start := f.now.Add(time.Duration(startMin) * time.Minute)
			dto, err := f.svc.CreateBooking(ctx, 2, CreateBookingRequest{ItemID: 10, Start: start, End: start.Add(time.Duration(lengthMin) * time.Minute)})
			if err != nil {
				rt.Fatal(err)
			}
			switch rapid.IntRange(0, 2).Draw(rt, "decision") {
			case 1:
				_, _ = f.svc.SetApproval(ctx, dto.ID, 1, true)
			case 2:
				_, _ = f.svc.SetApproval(ctx, dto.ID, 1, false)
			}
		}

		// Move the clock so bookings land in the past, present and future.
		f.now = f.now.Add(time.Duration(rapid.Int64Range(0, 8000).Draw(rt, "advance")) * time.Minute)
		now := f.now

		all, err := f.svc.ListBookerBookings(ctx, 2, "ALL", nil, nil)
		if err != nil {
			rt.Fatal(err)
		}
		if len(all) != n {
			rt.Fatalf("ALL returned %d of %d", len(all), n)
		}

		seen := make(map[int64]int)
		for _, tag := range bookingDomain.States {
			list, err := f.svc.ListBookerBookings(ctx, 2, tag.String(), nil, nil)
			if err != nil {
				rt.Fatal(err)
			}
			for i, dto := range list {
				if i > 0 && list[i-1].Start.Before(dto.Start) {
					rt.Fatalf("%s not ordered by start descending", tag)
				}
				bk := bookingDomain.ReconstructBooking(dto.ID, dto.Start, dto.End, bookingDomain.ItemRef{}, dto.Booker.ID, bookingDomain.BookingStatus(dto.Status), dto.CreatedAt, dto.UpdatedAt)
				if !tag.Matches(bk, now) {
					rt.Fatalf("%s returned non-matching booking %+v at %s", tag, dto, now)
				}
				if tag == bookingDomain.StateCurrent || tag == bookingDomain.StatePast || tag == bookingDomain.StateFuture {
					seen[dto.ID]++
				}
			}
		}
		for _, dto := range all {
			if seen[dto.ID] != 1 {
				rt.Fatalf("booking %d appears %d times across CURRENT/PAST/FUTURE", dto.ID, seen[dto.ID])
			}
		}

		size := rapid.IntRange(1, 5).Draw(rt, "size")
		page := rapid.IntRange(0, 4).Draw(rt, "page")
		from := page * size
		paged, err := f.svc.ListBookerBookings(ctx, 2, "ALL", &from, &size)
		if err != nil {
			rt.Fatal(err)
		}
		if len(paged) > size {
			rt.Fatalf("page longer than size: %d > %d", len(paged), size)
		}
		for i, dto := range paged {
			if all[from+i].ID != dto.ID {
				rt.Fatalf("page %d/%d diverges from the full listing at %d", from, size, i)
			}
		}
	})
}

func dtoIDs(dtos []BookingDTO) []int64 {
	out := make([]int64, len(dtos))
	for i, d := range dtos {
		out[i] = d.ID
	}
	return out
}

func TestReownedItem_MovesApprovalAndOwnerListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bk := f.create(t, 2, 10, day, 2*day)

	directory := NewDirectoryService(f.users, f.items, zap.NewNop())
	_, err := directory.UpsertItem(ctx, UpsertItemCommand{ID: 10, OwnerID: 3, Name: "drill", Available: true, Version: 2})
	require.NoError(t, err)

	listed, err := f.svc.ListOwnerBookings(ctx, 3, "ALL", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{bk.ID}, dtoIDs(listed))

	listed, err = f.svc.ListOwnerBookings(ctx, 1, "ALL", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = f.svc.SetApproval(ctx, bk.ID, 1, true)
	assertKind(t, err, domain.KindAccessDenied)

	got, err := f.svc.SetApproval(ctx, bk.ID, 3, true)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", got.Status)
	assert.Equal(t, int64(3), got.Item.OwnerID)

	_, err = f.svc.GetBooking(ctx, bk.ID, 1)
	assertKind(t, err, domain.KindAccessDenied)
}
