package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetIDFromURL(t *testing.T) {
	tests := []struct {
		ref    string
		folder string
		want   string
	}{
		{"https://cdn.example.com/catalogo-amavi/1700000000000-abc.jpg", "catalogo-amavi", "catalogo-amavi/1700000000000-abc"},
		{"https://res.cloudinary.com/demo/image/upload/v1/catalogo-amavi/1699-anel.png", "catalogo-amavi", "catalogo-amavi/1699-anel"},
		{"/media/catalogo-amavi/x.jpg?v=2", "catalogo-amavi", "catalogo-amavi/x"},
		{"https://cdn.example.com/photo.jpg", "", "photo"},
		{"", "catalogo-amavi", ""},
		{"https://cdn.example.com/", "catalogo-amavi", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AssetIDFromURL(tt.ref, tt.folder), "ref %q", tt.ref)
	}
}

func TestObjectKeyIsUnique(t *testing.T) {
	a := objectKey("catalogo-amavi", ".jpg")
	b := objectKey("catalogo-amavi", ".jpg")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "catalogo-amavi/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
}

func TestKeyForAssetRejectsTraversal(t *testing.T) {
	for _, id := range []string{"", "/etc/passwd", "catalogo-amavi/../../secret"} {
		_, err := keyForAsset(id)
		require.ErrorIs(t, err, ErrInvalidAsset, "id %q", id)
	}

	key, err := keyForAsset("catalogo-amavi/1-abc")
	require.NoError(t, err)
	assert.Equal(t, "catalogo-amavi/1-abc.jpg", key)
}
