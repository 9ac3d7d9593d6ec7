package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amavi/catalogo/internal/imaging"
)

type fakeS3 struct {
	objects   map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	key := aws.ToString(in.Key)
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func testImage() *imaging.Image {
	return &imaging.Image{Data: []byte("jpeg bytes"), MIME: "image/jpeg", Ext: imaging.Ext}
}

func TestS3UploadAndDelete(t *testing.T) {
	fake := newFakeS3()
	store := newS3Store(fake, "fotos", "https://cdn.example.com/")
	ctx := context.Background()

	asset, err := store.Upload(ctx, testImage(), DefaultFolder)
	require.NoError(t, err)
	assert.Contains(t, asset.URL, "https://cdn.example.com/catalogo-amavi/")
	assert.Equal(t, AssetIDFromURL(asset.URL, DefaultFolder), asset.ID)
	require.Len(t, fake.objects, 1)

	require.NoError(t, store.Delete(ctx, asset.ID))
	assert.Empty(t, fake.objects)
	assert.Equal(t, []string{asset.ID + ".jpg"}, fake.deleted)
}

func TestS3UploadError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("connection refused")
	store := newS3Store(fake, "fotos", "https://cdn.example.com")

	_, err := store.Upload(context.Background(), testImage(), DefaultFolder)
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.putErr)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://img.amavi.com.br", publicURL(S3Config{Bucket: "b", PublicURL: "https://img.amavi.com.br"}))
	assert.Equal(t, "http://localhost:9000/fotos", publicURL(S3Config{Bucket: "fotos", Endpoint: "http://localhost:9000/"}))
	assert.Equal(t, "https://fotos.s3.sa-east-1.amazonaws.com", publicURL(S3Config{Bucket: "fotos", Region: "sa-east-1"}))
}

func TestNewS3StoreDefaultsRegionForCustomEndpoint(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "fotos",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "k",
		SecretKey: "s",
	})
	require.NoError(t, err)

	client, ok := store.client.(*s3.Client)
	require.True(t, ok)
	assert.Equal(t, DefaultRegion, client.Options().Region)
	assert.Equal(t, "http://127.0.0.1:9000/fotos", store.publicURL)
}

func TestNewS3StoreKeepsConfiguredRegion(t *testing.T) {
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "fotos",
		Region:    "sa-east-1",
		AccessKey: "k",
		SecretKey: "s",
	})
	require.NoError(t, err)

	client, ok := store.client.(*s3.Client)
	require.True(t, ok)
	assert.Equal(t, "sa-east-1", client.Options().Region)
}
