package item

import "context"

// ItemRepository defines lookups and replica maintenance for items.
type ItemRepository interface {
	// FindByID returns the item or an ItemNotFound error.
	FindByID(ctx context.Context, id int64) (*Item, error)

	// Upsert inserts or replaces the replica.
	Upsert(ctx context.Context, item *Item) error
}
