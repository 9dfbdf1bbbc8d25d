package item

import (
	"fmt"
	"time"
)

// Item is the local read-only replica of a shared item. The catalog service owns it;
// this service only needs its owner and availability flag.
type Item struct {
	id          int64
	ownerID     int64
	name        string
	description string
	available   bool
	version     int64
	updatedAt   time.Time
}

// NewItem creates an item replica from upstream data with validated fields.
func NewItem(id, ownerID int64, name, description string, available bool, version int64) (*Item, error) {
	if id <= 0 {
		return nil, fmt.Errorf("item ID must be positive")
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("owner ID must be positive")
	}
	if name == "" {
		return nil, fmt.Errorf("item name is required")
	}
	if version < 1 {
		version = 1
	}

	return &Item{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		description: description,
		available:   available,
		version:     version,
		updatedAt:   time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds an Item from persistence data (no validation).
func Reconstruct(
	id, ownerID int64,
	name, description string,
	available bool,
	version int64,
	updatedAt time.Time,
) *Item {
	return &Item{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		description: description,
		available:   available,
		version:     version,
		updatedAt:   updatedAt,
	}
}

func (i *Item) ID() int64            { return i.id }
func (i *Item) OwnerID() int64       { return i.ownerID }
func (i *Item) Name() string         { return i.name }
func (i *Item) Description() string  { return i.description }
func (i *Item) Available() bool      { return i.available }
func (i *Item) Version() int64       { return i.version }
func (i *Item) UpdatedAt() time.Time { return i.updatedAt }

// IsOwnedBy checks if the item belongs to the given user.
func (i *Item) IsOwnedBy(userID int64) bool {
	return i.ownerID == userID
}

// Supersedes reports whether i carries newer upstream data than other.
func (i *Item) Supersedes(other *Item) bool {
	return other == nil || i.version > other.version
}
