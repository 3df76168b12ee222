package media

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		size        int64
		wantErr     error
	}{
		{name: "jpeg", fileName: "camera.JPG", contentType: "image/jpeg", size: 10},
		{name: "jpg content type alias", fileName: "camera.jpeg", contentType: "image/jpg", size: 10},
		{name: "png without content type", fileName: "camera.png", size: 10},
		{name: "webp with params", fileName: "camera.webp", contentType: "image/webp; q=1", size: 10},
		{name: "wrong extension", fileName: "camera.gif", contentType: "image/gif", size: 10, wantErr: ErrUnsupportedImage},
		{name: "mismatched content type", fileName: "camera.png", contentType: "image/jpeg", size: 10, wantErr: ErrUnsupportedImage},
		{name: "no extension", fileName: "camera", size: 10, wantErr: ErrUnsupportedImage},
		{name: "too large", fileName: "camera.png", contentType: "image/png", size: 2048, wantErr: ErrImageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.fileName, tt.contentType, tt.size, 1024)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestForceHTTPS(t *testing.T) {
	assert.Equal(t, "https://res.cloudinary.com/demo/a.jpg", forceHTTPS(" http://res.cloudinary.com/demo/a.jpg "))
	assert.Equal(t, "https://res.cloudinary.com/demo/a.jpg", forceHTTPS("https://res.cloudinary.com/demo/a.jpg"))
}

func TestCloudinaryStore_Unconfigured(t *testing.T) {
	store, err := NewCloudinaryStore(CloudinaryConfig{})
	require.NoError(t, err)
	assert.False(t, store.Configured())

	_, err = store.Sign(url.Values{"timestamp": {"1"}})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = store.Upload(context.Background(), &UploadInput{Folder: "products", FileName: "a.png", Data: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, store.Destroy(context.Background(), "abc123"), ErrNotConfigured)
	assert.Equal(t, Credentials{}, store.Credentials())
}

func TestCloudinaryStore_Sign(t *testing.T) {
	store, err := NewCloudinaryStore(CloudinaryConfig{CloudName: "demo", APIKey: "1234", APISecret: "s3cr3t"})
	require.NoError(t, err)
	require.True(t, store.Configured())
	assert.Equal(t, Credentials{CloudName: "demo", APIKey: "1234"}, store.Credentials())

	params := url.Values{"timestamp": {"1700000000"}, "folder": {"products"}}
	first, err := store.Sign(params)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	again, err := store.Sign(url.Values{"folder": {"products"}, "timestamp": {"1700000000"}})
	require.NoError(t, err)
	assert.Equal(t, first, again)

	later, err := store.Sign(url.Values{"timestamp": {"1700000001"}, "folder": {"products"}})
	require.NoError(t, err)
	assert.NotEqual(t, first, later)
}
