package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amavi/catalogo/internal/imaging"
	"github.com/amavi/catalogo/internal/media"
	"github.com/amavi/catalogo/internal/model"
	"github.com/amavi/catalogo/internal/store"
)

// fakeMedia records uploads and deletions.
type fakeMedia struct {
	uploads   int
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeMedia) Upload(ctx context.Context, img *imaging.Image, folder string) (*media.Asset, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads++
	id := fmt.Sprintf("%s/foto-%d", folder, f.uploads)
	return &media.Asset{URL: "https://media.example.com/" + id + img.Ext, ID: id}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, assetID string) error {
	f.deleted = append(f.deleted, assetID)
	return f.deleteErr
}

func pngReader(t *testing.T) io.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func newTestService(t *testing.T) (*Service, *store.FileStore, *fakeMedia) {
	t.Helper()
	items := store.NewFileStore(filepath.Join(t.TempDir(), "pecas.json"))
	photos := &fakeMedia{}
	return NewService(items, photos, media.DefaultFolder), items, photos
}

func strPtr(s string) *string { return &s }

func ringInput(t *testing.T, name string) CreateInput {
	return CreateInput{Name: name, Price: 150, Type: model.TypeRing, Size: "17", Image: pngReader(t)}
}

func validationMessages(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Messages
}

func TestCreateItem(t *testing.T) {
	svc, _, photos := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ringInput(t, "Anel Solitário"))
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.Equal(t, model.AvailabilityAvailable, item.Availability)
	require.NotNil(t, item.Size)
	assert.Equal(t, "17", *item.Size)
	assert.Equal(t, "https://media.example.com/catalogo-amavi/foto-1.jpg", item.ImageRef)
	assert.Equal(t, 1, photos.uploads)
	assert.Empty(t, photos.deleted)

	listed, err := svc.ListItems(ctx, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Anel Solitário", listed[0].Name)
}

func TestCreateItemDropsSizeForNonRings(t *testing.T) {
	svc, _, _ := newTestService(t)

	item, err := svc.CreateItem(context.Background(), CreateInput{
		Name: "Colar Pérola", Price: 90, Type: "Colar", Size: "17", Image: pngReader(t),
	})
	require.NoError(t, err)
	assert.Nil(t, item.Size)
}

func TestCreateItemValidation(t *testing.T) {
	tests := []struct {
		name  string
		input func(t *testing.T) CreateInput
		want  []string
	}{
		{
			name: "non-positive price",
			input: func(t *testing.T) CreateInput {
				in := ringInput(t, "Anel")
				in.Price = 0
				return in
			},
			want: []string{msgPricePositive},
		},
		{
			name: "blank name and type",
			input: func(t *testing.T) CreateInput {
				return CreateInput{Name: "  ", Price: 10, Image: pngReader(t)}
			},
			want: []string{msgNameRequired, msgTypeRequired},
		},
		{
			name: "missing image",
			input: func(t *testing.T) CreateInput {
				return CreateInput{Name: "Brinco", Price: 10, Type: "Brinco"}
			},
			want: []string{msgImageRequired},
		},
		{
			name: "not an image",
			input: func(t *testing.T) CreateInput {
				return CreateInput{Name: "Brinco", Price: 10, Type: "Brinco", Image: strings.NewReader("hello")}
			},
			want: []string{msgImageInvalid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, items, photos := newTestService(t)
			ctx := context.Background()

			_, err := svc.CreateItem(ctx, tt.input(t))
			assert.Equal(t, tt.want, validationMessages(t, err))

			all, err := items.List(ctx, model.Filter{})
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Len(t, photos.deleted, photos.uploads, "every upload should be cleaned up")
		})
	}
}

func TestCreateItemDuplicateName(t *testing.T) {
	svc, items, photos := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, ringInput(t, "Anel Solitário"))
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, ringInput(t, "Anel Solitário"))
	assert.Equal(t, []string{`Já existe uma peça com o nome "Anel Solitário".`}, validationMessages(t, err))

	all, err := items.List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, []string{"catalogo-amavi/foto-2"}, photos.deleted)
}

func TestCreateItemUploadFailure(t *testing.T) {
	svc, items, photos := newTestService(t)
	photos.uploadErr = errors.New("host down")
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, ringInput(t, "Anel"))
	assert.ErrorIs(t, err, ErrMedia)

	all, err := items.List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateItem(t *testing.T) {
	svc, _, photos := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ringInput(t, "Anel"))
	require.NoError(t, err)

	price := 200.0
	updated, err := svc.UpdateItem(ctx, item.ID, UpdateInput{
		Name:  strPtr("Anel Dourado"),
		Price: &price,
		Image: pngReader(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "Anel Dourado", updated.Name)
	assert.Equal(t, 200.0, updated.Price)
	assert.Equal(t, "https://media.example.com/catalogo-amavi/foto-2.jpg", updated.ImageRef)
	assert.Equal(t, []string{"catalogo-amavi/foto-1"}, photos.deleted, "old photo should be removed")
}

func TestUpdateItemChangingTypeClearsSize(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ringInput(t, "Peça"))
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, item.ID, UpdateInput{Type: strPtr("Pulseira")})
	require.NoError(t, err)
	assert.Nil(t, updated.Size)
}

func TestUpdateItemValidation(t *testing.T) {
	svc, items, photos := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateItem(ctx, ringInput(t, "Um"))
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, ringInput(t, "Dois"))
	require.NoError(t, err)

	price := -1.0
	_, err = svc.UpdateItem(ctx, first.ID, UpdateInput{
		Name:  strPtr("Dois"),
		Price: &price,
		Image: pngReader(t),
	})
	assert.Equal(t, []string{msgPricePositive, msgNameTaken("Dois")}, validationMessages(t, err))
	assert.Equal(t, []string{"catalogo-amavi/foto-3"}, photos.deleted, "new photo should be discarded")

	got, err := items.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Um", got.Name)
	assert.Equal(t, 150.0, got.Price)
}

func TestUpdateItemKeepsOwnName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ringInput(t, "Anel"))
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, item.ID, UpdateInput{Name: strPtr("Anel")})
	assert.NoError(t, err)
}

func TestUpdateItemNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateItem(context.Background(), 42, UpdateInput{Name: strPtr("X")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItem(t *testing.T) {
	svc, items, photos := newTestService(t)
	photos.deleteErr = errors.New("host down")
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ringInput(t, "Anel"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, item.ID), "media failures must not fail the delete")
	assert.Equal(t, []string{"catalogo-amavi/foto-1"}, photos.deleted)

	_, err = items.Get(ctx, item.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteItem(ctx, item.ID), ErrNotFound)
}

func TestSetAvailability(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ringInput(t, "Anel"))
	require.NoError(t, err)

	updated, err := svc.SetAvailability(ctx, item.ID, model.AvailabilityUnavailable)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityUnavailable, updated.Availability)

	_, err = svc.SetAvailability(ctx, 999, model.AvailabilityAvailable)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSearchAndTypes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Name: "Anel Solitário", Price: 150, Type: "Anel", Size: "17"},
		{Name: "Colar Lua", Price: 80, Type: "Colar"},
		{Name: "Anel de Prata", Price: 60, Type: "Anel", Size: "15"},
	} {
		in.Image = pngReader(t)
		_, err := svc.CreateItem(ctx, in)
		require.NoError(t, err)
	}

	rings, err := svc.ListItems(ctx, "Anel")
	require.NoError(t, err)
	assert.Len(t, rings, 2)

	found, err := svc.SearchItems(ctx, "LUA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Colar Lua", found[0].Name)

	types, err := svc.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anel", "Colar"}, types)
}
