// Package media talks to the external object store that hosts product images.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

var (
	// ErrNotConfigured is returned when the store has no usable credentials.
	ErrNotConfigured = errors.New("media store is not configured")
	// ErrMissingSecret is returned by Sign when the API secret is unavailable.
	ErrMissingSecret = errors.New("media store API secret is not set")
	// ErrUnsupportedImage is returned for files that are not jpg, png or webp.
	ErrUnsupportedImage = errors.New("images only: jpg, jpeg, png or webp")
	// ErrImageTooLarge is returned for files over the configured size cap.
	ErrImageTooLarge = errors.New("image exceeds maximum upload size")
)

// Store is the remote media store. Implementations are safe for concurrent use.
type Store interface {
	// Sign returns the store signature of params computed with the server-held secret.
	Sign(params url.Values) (string, error)
	// Upload pushes an image into folder and returns its public URL and object id.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)
	// Destroy deletes the object with the given id.
	Destroy(ctx context.Context, externalID string) error
	// Credentials returns the identifiers a client needs to address the store.
	Credentials() Credentials
}

// Credentials is the public part of the store credentials. It never holds the secret.
type Credentials struct {
	CloudName string
	APIKey    string
}

// UploadInput holds a server-side upload.
type UploadInput struct {
	Folder   string
	FileName string
	Data     io.Reader
}

// UploadResult is the stored object.
type UploadResult struct {
	URL        string
	ExternalID string
}

var allowedImages = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ValidateImage applies the basic type and size checks accepted before an upload.
func ValidateImage(fileName, contentType string, size, maxBytes int64) error {
	want, ok := allowedImages[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		return ErrUnsupportedImage
	}
	if contentType != "" {
		ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if ct != want && !(want == "image/jpeg" && ct == "image/jpg") {
			return ErrUnsupportedImage
		}
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrImageTooLarge, size, maxBytes)
	}
	return nil
}

func forceHTTPS(in string) string {
	out := strings.TrimSpace(in)
	return strings.Replace(out, "http://", "https://", 1)
}
