// Package catalog holds the business rules of the jewelry catalog. It
// validates admin input and keeps item records and their photos in step.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/amavi/catalogo/internal/imaging"
	"github.com/amavi/catalogo/internal/media"
	"github.com/amavi/catalogo/internal/model"
	"github.com/amavi/catalogo/internal/store"
)

// Service orchestrates the item store and the media host.
type Service struct {
	items    store.Store
	photos   media.Store
	folder   string
	validate *validator.Validate
}

// NewService returns a catalog over items, uploading photos into folder.
func NewService(items store.Store, photos media.Store, folder string) *Service {
	if folder == "" {
		folder = media.DefaultFolder
	}
	return &Service{
		items:    items,
		photos:   photos,
		folder:   folder,
		validate: validator.New(),
	}
}

// CreateInput is the admin form for a new item.
type CreateInput struct {
	Name  string
	Price float64
	Type  string
	Size  string
	// Image is the uploaded photo; nil when none was sent.
	Image io.Reader
}

// UpdateInput carries the fields an edit changes. Nil fields are kept.
type UpdateInput struct {
	Name         *string
	Price        *float64
	Availability *string
	Type         *string
	Size         *string
	// Image replaces the photo when non-nil.
	Image io.Reader
}

// ListItems returns the storefront listing, optionally of one type.
func (s *Service) ListItems(ctx context.Context, itemType string) ([]model.Item, error) {
	items, err := s.items.List(ctx, model.Filter{Type: itemType})
	if err != nil {
		return nil, storageError("listing items", err)
	}
	return items, nil
}

// SearchItems returns items whose name contains query, ignoring case.
func (s *Service) SearchItems(ctx context.Context, query string) ([]model.Item, error) {
	items, err := s.items.List(ctx, model.Filter{Name: strings.TrimSpace(query)})
	if err != nil {
		return nil, storageError("searching items", err)
	}
	return items, nil
}

// Types returns the distinct item types, sorted.
func (s *Service) Types(ctx context.Context) ([]string, error) {
	items, err := s.items.List(ctx, model.Filter{})
	if err != nil {
		return nil, storageError("listing types", err)
	}

	var types []string
	for _, item := range items {
		if item.Type != "" && !slices.Contains(types, item.Type) {
			types = append(types, item.Type)
		}
	}
	slices.Sort(types)
	return types, nil
}

// GetItem returns an item by ID.
func (s *Service) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, storageError("getting item", err)
	}
	return item, nil
}

// CreateItem validates the input and stores a new available item. The photo
// is uploaded first and removed again if the item cannot be stored.
func (s *Service) CreateItem(ctx context.Context, in CreateInput) (*model.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)

	var msgs []string

	var asset *media.Asset
	if in.Image != nil {
		var msg string
		var err error
		asset, msg, err = s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			msgs = append(msgs, msg)
		}
	}

	msgs = append(s.check(itemRules{Name: in.Name, Price: in.Price, Type: in.Type}), msgs...)
	if in.Image == nil {
		msgs = append(msgs, msgImageRequired)
	}

	if in.Name != "" {
		taken, err := s.nameTaken(ctx, in.Name, 0)
		if err != nil {
			s.discard(ctx, asset)
			return nil, err
		}
		if taken {
			msgs = append(msgs, msgNameTaken(in.Name))
		}
	}

	if len(msgs) > 0 {
		s.discard(ctx, asset)
		return nil, &ValidationError{Messages: msgs}
	}

	size := in.Size
	created, err := s.items.Create(ctx, model.Item{
		Name:         in.Name,
		Price:        in.Price,
		Availability: model.AvailabilityAvailable,
		Type:         in.Type,
		Size:         model.NormalizeSize(in.Type, &size),
		ImageRef:     asset.URL,
	})
	if errors.Is(err, store.ErrConflict) {
		s.discard(ctx, asset)
		return nil, &ValidationError{Messages: []string{msgNameTaken(in.Name)}}
	}
	if err != nil {
		s.discard(ctx, asset)
		return nil, storageError("creating item", err)
	}

	slog.Info("item created", "id", created.ID, "name", created.Name)
	return created, nil
}

// UpdateItem applies an edit. The edited item must still satisfy the
// creation rules. A replaced photo is deleted after the record is saved.
func (s *Service) UpdateItem(ctx context.Context, id int64, in UpdateInput) (*model.Item, error) {
	current, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, storageError("getting item", err)
	}

	var msgs []string

	var asset *media.Asset
	if in.Image != nil {
		var msg string
		asset, msg, err = s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			msgs = append(msgs, msg)
		}
	}

	patch := model.ItemPatch{
		Name:         trimmed(in.Name),
		Price:        in.Price,
		Availability: in.Availability,
		Type:         trimmed(in.Type),
		Size:         in.Size,
	}
	next := patch.Apply(*current)

	msgs = append(s.check(itemRules{Name: next.Name, Price: next.Price, Type: next.Type}), msgs...)
	if next.Name != "" && next.Name != current.Name {
		taken, err := s.nameTaken(ctx, next.Name, id)
		if err != nil {
			s.discard(ctx, asset)
			return nil, err
		}
		if taken {
			msgs = append(msgs, msgNameTaken(next.Name))
		}
	}

	if len(msgs) > 0 {
		s.discard(ctx, asset)
		return nil, &ValidationError{Messages: msgs}
	}

	patch.Size = model.NormalizeSize(next.Type, next.Size)
	patch.ClearSize = patch.Size == nil
	if asset != nil {
		patch.ImageRef = &asset.URL
	}

	updated, err := s.items.Update(ctx, id, patch)
	if err != nil {
		s.discard(ctx, asset)
		if errors.Is(err, store.ErrConflict) {
			return nil, &ValidationError{Messages: []string{msgNameTaken(next.Name)}}
		}
		return nil, storageError("updating item", err)
	}

	if asset != nil && current.ImageRef != "" && current.ImageRef != asset.URL {
		s.deleteAsset(ctx, current.ImageRef)
	}

	slog.Info("item updated", "id", updated.ID, "name", updated.Name)
	return updated, nil
}

// DeleteItem removes an item and then, best effort, its photo.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return storageError("getting item", err)
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return storageError("deleting item", err)
	}

	if item.ImageRef != "" {
		s.deleteAsset(ctx, item.ImageRef)
	}

	slog.Info("item deleted", "id", id, "name", item.Name)
	return nil
}

// SetAvailability stores a new availability value as given.
func (s *Service) SetAvailability(ctx context.Context, id int64, value string) (*model.Item, error) {
	updated, err := s.items.Update(ctx, id, model.ItemPatch{Availability: &value})
	if err != nil {
		return nil, storageError("setting availability", err)
	}
	slog.Info("item availability changed", "id", id, "availability", value)
	return updated, nil
}

// upload normalizes and uploads a photo. An unreadable photo yields a
// user message; a failing media host yields an ErrMedia error.
func (s *Service) upload(ctx context.Context, r io.Reader) (*media.Asset, string, error) {
	img, err := imaging.Process(r)
	if err != nil {
		slog.Warn("rejected uploaded image", "error", err)
		return nil, msgImageInvalid, nil
	}

	asset, err := s.photos.Upload(ctx, img, s.folder)
	if err != nil {
		return nil, "", fmt.Errorf("uploading image: %w: %w", ErrMedia, err)
	}
	return asset, "", nil
}

func (s *Service) nameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	existing, err := s.items.FindByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageError("checking name", err)
	}
	return existing.ID != exceptID, nil
}

// discard deletes a photo uploaded for a write that did not happen.
func (s *Service) discard(ctx context.Context, asset *media.Asset) {
	if asset == nil {
		return
	}
	if err := s.photos.Delete(ctx, asset.ID); err != nil {
		slog.Error("failed to delete orphaned image", "asset", asset.ID, "error", err)
	}
}

// deleteAsset removes the photo behind a stored reference. Failures are
// logged only.
func (s *Service) deleteAsset(ctx context.Context, ref string) {
	id := media.AssetIDFromURL(ref, s.folder)
	if id == "" {
		return
	}
	if err := s.photos.Delete(ctx, id); err != nil {
		slog.Error("failed to delete image", "asset", id, "error", err)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
