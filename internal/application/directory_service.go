package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shareit-platform/service-booking/internal/domain"
	"github.com/shareit-platform/service-booking/internal/domain/item"
	"github.com/shareit-platform/service-booking/internal/domain/user"
	"go.uber.org/zap"
)

// UpsertUserCommand carries a user record published by the directory.
type UpsertUserCommand struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpsertItemCommand carries an item record published by the catalog.
type UpsertItemCommand struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"ownerId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Version     int64  `json:"version"`
}

// UserDTO is the API response representation of a user replica.
type UserDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemDTO is the API response representation of an item replica.
type ItemDTO struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Available   bool      `json:"available"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DirectoryService keeps the local user and item replicas in sync with upstream records.
type DirectoryService struct {
	users  user.UserRepository
	items  item.ItemRepository
	logger *zap.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(users user.UserRepository, items item.ItemRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{users: users, items: items, logger: logger}
}

// UpsertUser stores the latest copy of a user.
func (s *DirectoryService) UpsertUser(ctx context.Context, cmd UpsertUserCommand) (*UserDTO, error) {
	u, err := user.NewUser(cmd.ID, cmd.Name, cmd.Email)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid user data: %v", err))
	}

	if err := s.users.Upsert(ctx, u); err != nil {
		s.logger.Error("failed to upsert user", zap.Int64("user_id", cmd.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	s.logger.Info("user replica updated", zap.Int64("user_id", u.ID()))
	result := toUserDTO(u)
	return &result, nil
}

// UpsertItem stores an item unless the stored copy carries a newer version.
// The returned DTO is always the copy that ends up stored.
func (s *DirectoryService) UpsertItem(ctx context.Context, cmd UpsertItemCommand) (*ItemDTO, error) {
	it, err := item.NewItem(cmd.ID, cmd.OwnerID, cmd.Name, cmd.Description, cmd.Available, cmd.Version)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid item data: %v", err))
	}

	existing, err := s.items.FindByID(ctx, it.ID())
	switch {
	case err == nil:
		if !it.Supersedes(existing) {
			s.logger.Debug("ignoring stale item update",
				zap.Int64("item_id", it.ID()),
				zap.Int64("stored_version", existing.Version()),
				zap.Int64("received_version", it.Version()),
			)
			result := toItemDTO(existing)
			return &result, nil
		}
	case !domain.IsNotFound(err):
		return nil, err
	}

	if err := s.items.Upsert(ctx, it); err != nil {
		s.logger.Error("failed to upsert item", zap.Int64("item_id", cmd.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to upsert item: %w", err)
	}

	s.logger.Info("item replica updated",
		zap.Int64("item_id", it.ID()),
		zap.Int64("owner_id", it.OwnerID()),
		zap.Bool("available", it.Available()),
		zap.Int64("version", it.Version()),
	)
	result := toItemDTO(it)
	return &result, nil
}

// GetUser returns the stored copy of a user.
func (s *DirectoryService) GetUser(ctx context.Context, id int64) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toUserDTO(u)
	return &result, nil
}

// GetItem returns the stored copy of an item.
func (s *DirectoryService) GetItem(ctx context.Context, id int64) (*ItemDTO, error) {
	it, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toItemDTO(it)
	return &result, nil
}

func toUserDTO(u *user.User) UserDTO {
	return UserDTO{ID: u.ID(), Name: u.Name(), Email: u.Email(), UpdatedAt: u.UpdatedAt()}
}

func toItemDTO(it *item.Item) ItemDTO {
	return ItemDTO{
		ID:          it.ID(),
		OwnerID:     it.OwnerID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.Available(),
		Version:     it.Version(),
		UpdatedAt:   it.UpdatedAt(),
	}
}
