package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, "/media/")
	ctx := context.Background()

	asset, err := store.Upload(ctx, testImage(), DefaultFolder)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(asset.URL, "/media/catalogo-amavi/"))

	key := strings.TrimPrefix(asset.URL, "/media/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	req := httptest.NewRequest(http.MethodGet, "/"+key, nil)
	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, store.Delete(ctx, asset.ID))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	// Deleting again is ignored.
	assert.NoError(t, store.Delete(ctx, asset.ID))
}
