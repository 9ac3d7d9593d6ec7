package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/amavi/catalogo/internal/imaging"
)

// DiskStore keeps photos in a local directory served under a URL prefix.
// It stands in for the remote host during development.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore returns a store writing under dir. Public references are
// baseURL followed by the object key.
func NewDiskStore(dir, baseURL string) *DiskStore {
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Handler serves the stored files.
func (s *DiskStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}

// Upload writes img under a fresh key in folder.
func (s *DiskStore) Upload(ctx context.Context, img *imaging.Image, folder string) (*Asset, error) {
	key := objectKey(folder, img.Ext)
	path := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", key, err)
	}

	ref := s.baseURL + "/" + key
	return &Asset{URL: ref, ID: AssetIDFromURL(ref, folder)}, nil
}

// Delete removes the file behind assetID. A missing file is not an error.
func (s *DiskStore) Delete(ctx context.Context, assetID string) error {
	key, err := keyForAsset(assetID)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
