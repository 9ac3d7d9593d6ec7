// Package media uploads product photos to a media host and removes them
// again. Assets are addressed by the URL stored on the item; the asset ID
// used for deletion is derived from that URL.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amavi/catalogo/internal/imaging"
)

// DefaultFolder is the folder product photos are uploaded into.
const DefaultFolder = "catalogo-amavi"

// ErrInvalidAsset is returned for asset IDs that cannot name an object.
var ErrInvalidAsset = errors.New("invalid asset id")

// Asset identifies an uploaded photo.
type Asset struct {
	// URL is the durable public reference stored on the item.
	URL string
	// ID is the folder-qualified name used to delete the asset.
	ID string
}

// Store is a media host.
type Store interface {
	Upload(ctx context.Context, img *imaging.Image, folder string) (*Asset, error)
	Delete(ctx context.Context, assetID string) error
}

// AssetIDFromURL derives the asset ID from a stored reference: the last
// path segment without its extension, qualified by folder.
func AssetIDFromURL(ref, folder string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return ""
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" {
		return ""
	}
	if folder == "" {
		return stem
	}
	return folder + "/" + stem
}

// objectKey builds a unique key for a new upload.
func objectKey(folder, ext string) string {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// keyForAsset maps an asset ID back to its object key.
func keyForAsset(assetID string) (string, error) {
	if assetID == "" || strings.HasPrefix(assetID, "/") || strings.Contains(assetID, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAsset, assetID)
	}
	return assetID + imaging.Ext, nil
}
