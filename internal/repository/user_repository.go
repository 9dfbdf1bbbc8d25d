package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
	"github.com/shareit-platform/service-booking/internal/domain/user"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"type:varchar(255)"`
	Email     string    `gorm:"type:varchar(512)"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (UserModel) TableName() string { return "users" }

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (_ *user.User, err error) {
	ctx, span := startSpan(ctx, "GormUserRepository.FindByID", attribute.Int64("user_id", id))
	defer func() { endSpan(span, err) }()

	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user.Reconstruct(model.ID, model.Name, model.Email, model.UpdatedAt.UTC()), nil
}

func (r *GormUserRepository) Upsert(ctx context.Context, u *user.User) (err error) {
	ctx, span := startSpan(ctx, "GormUserRepository.Upsert", attribute.Int64("user_id", u.ID()))
	defer func() { endSpan(span, err) }()

	model := &UserModel{ID: u.ID(), Name: u.Name(), Email: u.Email(), UpdatedAt: u.UpdatedAt()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}
