package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
	bookingDomain "github.com/shareit-platform/service-booking/internal/domain/booking"
	"github.com/shareit-platform/service-booking/internal/domain/item"
	"github.com/shareit-platform/service-booking/internal/domain/user"
	"github.com/shareit-platform/service-booking/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/shareit-platform/service-booking/internal/application")

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ItemID int64     `json:"itemId" binding:"required"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

// ItemSummaryDTO is the item part of a booking response.
type ItemSummaryDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"ownerId"`
}

// BookerSummaryDTO is the booker part of a booking response.
type BookerSummaryDTO struct {
	ID int64 `json:"id"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID        int64            `json:"id"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Status    string           `json:"status"`
	Item      ItemSummaryDTO   `json:"item"`
	Booker    BookerSummaryDTO `json:"booker"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings  bookingDomain.BookingRepository
	items     item.ItemRepository
	users     user.UserRepository
	publisher EventPublisher
	validator bookingDomain.AvailabilityValidator
	clock     Clock
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService. A nil clock means SystemClock.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	items item.ItemRepository,
	users user.UserRepository,
	publisher EventPublisher,
	clock Clock,
	logger *zap.Logger,
) *BookingService {
	if clock == nil {
		clock = SystemClock
	}
	return &BookingService{
		bookings:  bookings,
		items:     items,
		users:     users,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// CreateBooking reserves an item for the booker. The new booking starts WAITING.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID int64, req CreateBookingRequest) (_ *BookingDTO, err error) {
	ctx, span := s.start(ctx, "BookingService.CreateBooking", attribute.Int64("booker_id", bookerID), attribute.Int64("item_id", req.ItemID))
	defer func() { s.finish(span, "create", err) }()

	if _, err := s.users.FindByID(ctx, bookerID); err != nil {
		return nil, err
	}
	it, err := s.items.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if reason := s.validator.Check(it, bookerID, req.Start, req.End, now); reason != bookingDomain.ReasonNone {
		return nil, domain.NewValidationError(reason.Message())
	}

	window, err := bookingDomain.NewTimeWindow(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	ref := bookingDomain.ItemRef{ID: it.ID(), OwnerID: it.OwnerID(), Name: it.Name()}
	bk := bookingDomain.NewBooking(ref, bookerID, window, now)
	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", bk.ID()),
		zap.Int64("item_id", ref.ID),
		zap.Int64("booker_id", bookerID),
	)
	s.publishBookingEvent(ctx, BookingCreated, bk, bookerID)

	result := toBookingDTO(bk)
	return &result, nil
}

// SetApproval records the item owner's decision on a booking.
// A booking that was already decided is decided again; the last call wins.
func (s *BookingService) SetApproval(ctx context.Context, bookingID, callerID int64, approved bool) (_ *BookingDTO, err error) {
	ctx, span := s.start(ctx, "BookingService.SetApproval", attribute.Int64("booking_id", bookingID), attribute.Bool("approved", approved))
	defer func() { s.finish(span, "approve", err) }()

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bookingDomain.IsOwner(bk, callerID) {
		return nil, domain.NewForbiddenError("only the item owner can approve or reject a booking")
	}

	if bk.Status().IsDecided() {
		s.logger.Warn("booking decided again",
			zap.Int64("booking_id", bookingID),
			zap.String("previous_status", bk.Status().String()),
			zap.Bool("approved", approved),
		)
	}

	bk.Decide(approved, s.clock())
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	eventType := BookingRejected
	if approved {
		eventType = BookingApproved
	}
	s.publishBookingEvent(ctx, eventType, bk, callerID)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking returns a booking visible to its booker or the item owner.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, callerID int64) (_ *BookingDTO, err error) {
	ctx, span := s.start(ctx, "BookingService.GetBooking", attribute.Int64("booking_id", bookingID), attribute.Int64("caller_id", callerID))
	defer func() { s.finish(span, "get", err) }()

	if _, err := s.users.FindByID(ctx, callerID); err != nil {
		return nil, err
	}
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bookingDomain.IsBookerOrOwner(bk, callerID) {
		return nil, domain.NewForbiddenError("only the booker or the item owner can view a booking")
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking deletes a booking on behalf of its booker, whatever its status.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, callerID int64) (err error) {
	ctx, span := s.start(ctx, "BookingService.CancelBooking", attribute.Int64("booking_id", bookingID), attribute.Int64("caller_id", callerID))
	defer func() { s.finish(span, "cancel", err) }()

	if _, err := s.users.FindByID(ctx, callerID); err != nil {
		return err
	}
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !bookingDomain.IsBooker(bk, callerID) {
		return domain.NewForbiddenError("only the booker can cancel a booking")
	}

	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.logger.Info("booking cancelled",
		zap.Int64("booking_id", bookingID),
		zap.String("status", bk.Status().String()),
	)
	s.publishBookingEvent(ctx, BookingCancelled, bk, callerID)
	return nil
}

// ListBookerBookings lists the user's own bookings matching the state tag.
func (s *BookingService) ListBookerBookings(ctx context.Context, bookerID int64, rawState string, from, size *int) ([]BookingDTO, error) {
	return s.list(ctx, bookingDomain.ScopeBooker, bookerID, rawState, bookingDomain.PageRequest{From: from, Size: size})
}

// ListOwnerBookings lists bookings on the user's items matching the state tag.
func (s *BookingService) ListOwnerBookings(ctx context.Context, ownerID int64, rawState string, from, size *int) ([]BookingDTO, error) {
	return s.list(ctx, bookingDomain.ScopeOwner, ownerID, rawState, bookingDomain.PageRequest{From: from, Size: size})
}

func (s *BookingService) list(ctx context.Context, scope bookingDomain.Scope, userID int64, rawState string, page bookingDomain.PageRequest) (_ []BookingDTO, err error) {
	ctx, span := s.start(ctx, "BookingService.List", attribute.String("scope", scope.String()), attribute.Int64("user_id", userID))
	defer func() { s.finish(span, "list_"+scope.String(), err) }()

	state, err := bookingDomain.ParseState(rawState)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("state", state.String()))

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.Find(ctx, bookingDomain.Query{
		Scope:  scope,
		UserID: userID,
		State:  state,
		Now:    s.clock(),
		Page:   page,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"totalBookings"`
	ByStatus      map[string]int64 `json:"byStatus"`
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	stats := &BookingStatsDTO{ByStatus: make(map[string]int64, len(counts))}
	for status, c := range counts {
		stats.ByStatus[status.String()] = c
		stats.TotalBookings += c
	}
	return stats, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	ref := bk.Item()
	return BookingDTO{
		ID:        bk.ID(),
		Start:     bk.Window().Start(),
		End:       bk.Window().End(),
		Status:    bk.Status().String(),
		Item:      ItemSummaryDTO{ID: ref.ID, Name: ref.Name, OwnerID: ref.OwnerID},
		Booker:    BookerSummaryDTO{ID: bk.BookerID()},
		CreatedAt: bk.CreatedAt(),
		UpdatedAt: bk.UpdatedAt(),
	}
}

func (s *BookingService) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *BookingService) finish(span trace.Span, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.IncOperation(operation, outcome)
	span.End()
}

func (s *BookingService) publishBookingEvent(ctx context.Context, eventType string, bk *bookingDomain.Booking, actorID int64) {
	if s.publisher == nil {
		return
	}
	evt := BookingEvent{
		BookingID:  bk.ID(),
		ItemID:     bk.Item().ID,
		OwnerID:    bk.Item().OwnerID,
		BookerID:   bk.BookerID(),
		Status:     bk.Status().String(),
		Start:      bk.Window().Start(),
		End:        bk.Window().End(),
		ActorID:    actorID,
		OccurredAt: s.clock(),
	}
	key := fmt.Sprintf("%d", bk.ID())
	if err := s.publisher.Publish(ctx, TopicBookingEvents, key, eventType, evt); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Int64("booking_id", bk.ID()),
			zap.Error(err),
		)
	}
}
