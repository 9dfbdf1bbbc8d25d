package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
	bookingDomain "github.com/shareit-platform/service-booking/internal/domain/booking"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/shareit-platform/service-booking/internal/repository")

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ItemID    int64     `gorm:"not null;index"`
	BookerID  int64     `gorm:"not null;index"`
	StartAt   time.Time `gorm:"type:timestamptz;not null;index"`
	EndAt     time.Time `gorm:"type:timestamptz;not null"`
	Status    string    `gorm:"not null;size:20;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// bookingRow is a booking joined with the item columns a booking carries.
type bookingRow struct {
	ID          int64
	ItemID      int64
	BookerID    int64
	StartAt     time.Time
	EndAt       time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ItemOwnerID int64
	ItemName    string
}

const bookingColumns = "bookings.id, bookings.item_id, bookings.booker_id, bookings.start_at, bookings.end_at, " +
	"bookings.status, bookings.created_at, bookings.updated_at, " +
	"items.owner_id AS item_owner_id, items.name AS item_name"

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings").
		Select(bookingColumns).
		Joins("JOIN items ON items.id = bookings.item_id")
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id int64) (_ *bookingDomain.Booking, err error) {
	ctx, span := startSpan(ctx, "GormBookingRepository.FindByID", attribute.Int64("booking_id", id))
	defer func() { endSpan(span, err) }()

	var row bookingRow
	if err := r.joined(ctx).Where("bookings.id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id)
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&row)
}

// Find returns the bookings in scope matching the query state, ordered by start descending.
func (r *GormBookingRepository) Find(ctx context.Context, q bookingDomain.Query) (_ []*bookingDomain.Booking, err error) {
	ctx, span := startSpan(ctx, "GormBookingRepository.Find",
		attribute.String("scope", q.Scope.String()),
		attribute.String("state", q.State.String()),
	)
	defer func() { endSpan(span, err) }()

	tx := r.joined(ctx)
	if q.Scope == bookingDomain.ScopeOwner {
		tx = tx.Where("items.owner_id = ?", q.UserID)
	} else {
		tx = tx.Where("bookings.booker_id = ?", q.UserID)
	}
	tx = applyState(tx, q.State, q.Now.UTC())
	tx = tx.Order("bookings.start_at DESC, bookings.id DESC")

	if offset, limit, paged := q.Page.Resolve(); paged {
		tx = tx.Offset(offset).Limit(limit)
	}

	var rows []bookingRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(rows))
	for i := range rows {
		bk, err := toDomainBooking(&rows[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// applyState adds the WHERE clause for a state tag. It mirrors State.Matches.
func applyState(tx *gorm.DB, state bookingDomain.State, now time.Time) *gorm.DB {
	switch state {
	case bookingDomain.StateCurrent:
		return tx.Where("bookings.start_at <= ? AND bookings.end_at > ?", now, now)
	case bookingDomain.StatePast:
		// Inclusive on purpose, matching TimeWindow.EndedBy.
		return tx.Where("bookings.end_at <= ?", now)
	case bookingDomain.StateFuture:
		return tx.Where("bookings.start_at > ?", now)
	case bookingDomain.StateWaiting:
		return tx.Where("bookings.status = ?", bookingDomain.StatusWaiting.String())
	case bookingDomain.StateRejected:
		return tx.Where("bookings.status = ?", bookingDomain.StatusRejected.String())
	}
	return tx
}

// Save persists a new booking and assigns the generated identifier.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) (err error) {
	ctx, span := startSpan(ctx, "GormBookingRepository.Save", attribute.Int64("item_id", bk.Item().ID))
	defer func() { endSpan(span, err) }()

	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	bk.AssignID(model.ID)
	return nil
}

// Update persists the status of an existing booking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) (err error) {
	ctx, span := startSpan(ctx, "GormBookingRepository.Update", attribute.Int64("booking_id", bk.ID()))
	defer func() { endSpan(span, err) }()

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ?", bk.ID()).
		Updates(map[string]interface{}{
			"status":     bk.Status().String(),
			"updated_at": bk.UpdatedAt(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", bk.ID())
	}
	return nil
}

// Delete removes a booking permanently.
func (r *GormBookingRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := startSpan(ctx, "GormBookingRepository.Delete", attribute.Int64("booking_id", id))
	defer func() { endSpan(span, err) }()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id)
	}
	return nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[bookingDomain.BookingStatus]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[bookingDomain.BookingStatus]int64, len(results))
	for _, sc := range results {
		counts[bookingDomain.BookingStatus(sc.Status)] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:        bk.ID(),
		ItemID:    bk.Item().ID,
		BookerID:  bk.BookerID(),
		StartAt:   bk.Window().Start(),
		EndAt:     bk.Window().End(),
		Status:    bk.Status().String(),
		CreatedAt: bk.CreatedAt(),
		UpdatedAt: bk.UpdatedAt(),
	}
}

func toDomainBooking(row *bookingRow) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", row.ID, err)
	}

	return bookingDomain.ReconstructBooking(
		row.ID,
		row.StartAt,
		row.EndAt,
		bookingDomain.ItemRef{ID: row.ItemID, OwnerID: row.ItemOwnerID, Name: row.ItemName},
		row.BookerID,
		status,
		row.CreatedAt.UTC(),
		row.UpdatedAt.UTC(),
	), nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
