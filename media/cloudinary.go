package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryConfig selects the Cloudinary account. URL wins over the separate fields.
type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
}

// CloudinaryStore implements Store on Cloudinary.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore creates a Cloudinary-backed store. With no credentials at all it
// returns an unconfigured store whose operations fail with ErrNotConfigured.
func NewCloudinaryStore(cfg CloudinaryConfig) (*CloudinaryStore, error) {
	if cfg.URL != "" {
		cld, err := cloudinary.NewFromURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
		}
		return &CloudinaryStore{cld: cld}, nil
	}

	if cfg.CloudName == "" && cfg.APIKey == "" && cfg.APISecret == "" {
		return &CloudinaryStore{}, nil
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Configured reports whether the store has an account behind it.
func (s *CloudinaryStore) Configured() bool {
	return s.cld != nil
}

func (s *CloudinaryStore) Sign(params url.Values) (string, error) {
	if s.cld == nil {
		return "", ErrNotConfigured
	}
	secret := s.cld.Config.Cloud.APISecret
	if secret == "" {
		return "", ErrMissingSecret
	}
	signature, err := api.SignParameters(params, secret)
	if err != nil {
		return "", fmt.Errorf("sign upload parameters: %w", err)
	}
	return signature, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	if s.cld == nil {
		return nil, ErrNotConfigured
	}

	res, err := s.cld.Upload.Upload(ctx, input.Data, uploader.UploadParams{
		Folder:       input.Folder,
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload image: %s", res.Error.Message)
	}

	secureURL := res.SecureURL
	if secureURL == "" {
		secureURL = res.URL
	}
	return &UploadResult{URL: forceHTTPS(secureURL), ExternalID: res.PublicID}, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, externalID string) error {
	if s.cld == nil {
		return ErrNotConfigured
	}
	if externalID == "" {
		return errors.New("empty public id")
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     externalID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete image: %s", res.Error.Message)
	}
	if res.Result != "ok" {
		return fmt.Errorf("failed to delete image %s: result %q", externalID, res.Result)
	}
	return nil
}

func (s *CloudinaryStore) Credentials() Credentials {
	if s.cld == nil {
		return Credentials{}
	}
	return Credentials{
		CloudName: s.cld.Config.Cloud.CloudName,
		APIKey:    s.cld.Config.Cloud.APIKey,
	}
}
