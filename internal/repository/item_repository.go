package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
	"github.com/shareit-platform/service-booking/internal/domain/item"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	OwnerID     int64     `gorm:"not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Available   bool      `gorm:"not null;default:true"`
	Version     int64     `gorm:"not null;default:1"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ItemModel) TableName() string { return "items" }

// GormItemRepository implements ItemRepository using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByID(ctx context.Context, id int64) (_ *item.Item, err error) {
	ctx, span := startSpan(ctx, "GormItemRepository.FindByID", attribute.Int64("item_id", id))
	defer func() { endSpan(span, err) }()

	var model ItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Item", id)
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return toItemDomain(&model), nil
}

func (r *GormItemRepository) Upsert(ctx context.Context, it *item.Item) (err error) {
	ctx, span := startSpan(ctx, "GormItemRepository.Upsert", attribute.Int64("item_id", it.ID()))
	defer func() { endSpan(span, err) }()

	model := toItemModel(it)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// --- Conversions ---

func toItemModel(it *item.Item) *ItemModel {
	return &ItemModel{
		ID:          it.ID(),
		OwnerID:     it.OwnerID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.Available(),
		Version:     it.Version(),
		UpdatedAt:   it.UpdatedAt(),
	}
}

func toItemDomain(m *ItemModel) *item.Item {
	return item.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.Description,
		m.Available,
		m.Version,
		m.UpdatedAt.UTC(),
	)
}
