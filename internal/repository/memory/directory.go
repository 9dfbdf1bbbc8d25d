package memory

import (
	"context"
	"sync"

	"github.com/shareit-platform/service-booking/internal/domain"
	"github.com/shareit-platform/service-booking/internal/domain/item"
	"github.com/shareit-platform/service-booking/internal/domain/user"
)

// ItemRepository keeps item replicas in memory.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[int64]*item.Item
}

// NewItemRepository creates an empty ItemRepository.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[int64]*item.Item)}
}

func (r *ItemRepository) FindByID(_ context.Context, id int64) (*item.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, domain.NewNotFoundError("Item", id)
	}
	return it, nil
}

func (r *ItemRepository) lookup(id int64) (*item.Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	return it, ok
}

func (r *ItemRepository) Upsert(_ context.Context, it *item.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[it.ID()] = item.Reconstruct(it.ID(), it.OwnerID(), it.Name(), it.Description(), it.Available(), it.Version(), it.UpdatedAt())
	return nil
}

// UserRepository keeps user replicas in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[int64]*user.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]*user.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id)
	}
	return u, nil
}

func (r *UserRepository) Upsert(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[u.ID()] = user.Reconstruct(u.ID(), u.Name(), u.Email(), u.UpdatedAt())
	return nil
}
