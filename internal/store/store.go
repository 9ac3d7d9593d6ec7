package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/amavi/catalogo/internal/model"
)

// Store errors.
var (
	ErrNotFound = errors.New("item not found")
	ErrConflict = errors.New("item name already exists")
	ErrInvalid  = errors.New("invalid item")
)

// Store persists catalog items.
type Store interface {
	// List returns items matching the filter in store order.
	List(ctx context.Context, filter model.Filter) ([]model.Item, error)
	// Get returns an item by ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Item, error)
	// FindByName returns the item with exactly this name, or ErrNotFound.
	FindByName(ctx context.Context, name string) (*model.Item, error)
	// Create assigns an ID and stores the item.
	Create(ctx context.Context, item model.Item) (*model.Item, error)
	// Update applies the patch to an existing item.
	Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error)
	// Delete removes an item permanently.
	Delete(ctx context.Context, id int64) error
}

// checkRequired reports the first missing required field of a new item.
func checkRequired(item model.Item) error {
	switch {
	case item.Name == "":
		return fmt.Errorf("%w: nome required", ErrInvalid)
	case item.Type == "":
		return fmt.Errorf("%w: tipo required", ErrInvalid)
	case item.ImageRef == "":
		return fmt.Errorf("%w: imagem required", ErrInvalid)
	}
	return nil
}

// prepareNew fills defaults and derived fields of an item about to be created.
func prepareNew(item model.Item) model.Item {
	if item.Availability == "" {
		item.Availability = model.AvailabilityAvailable
	}
	item.Size = model.NormalizeSize(item.Type, item.Size)
	return item
}
