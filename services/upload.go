package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"catalog-backend/apperrors"
	"catalog-backend/logger"
	"catalog-backend/media"
	"catalog-backend/models"
)

// UploadAuthorization lets a client upload one image straight to the media store.
type UploadAuthorization struct {
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
	CloudName string `json:"cloudname"`
	APIKey    string `json:"apikey"`
	Folder    string `json:"folder"`
}

// UploadDelegate signs direct-to-store uploads. It never sees image bytes.
type UploadDelegate struct {
	store  media.Store
	folder string
	now    func() time.Time
	logger *slog.Logger
}

// NewUploadDelegate creates a delegate that signs uploads into folder.
func NewUploadDelegate(store media.Store, folder string, logger *slog.Logger) *UploadDelegate {
	return &UploadDelegate{
		store:  store,
		folder: folder,
		now:    time.Now,
		logger: logger,
	}
}

// IssueUploadAuthorization signs {timestamp, folder} for an administrator.
// An empty folder means the configured one; any other folder is rejected.
func (d *UploadDelegate) IssueUploadAuthorization(ctx context.Context, principal *models.Principal, folder string) (*UploadAuthorization, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if folder == "" {
		folder = d.folder
	}
	if folder != d.folder {
		return nil, apperrors.Validation(fmt.Sprintf("uploads are only signed for folder %q", d.folder), nil)
	}

	timestamp := d.now().Unix()
	signature, err := d.store.Sign(url.Values{
		"timestamp": {strconv.FormatInt(timestamp, 10)},
		"folder":    {folder},
	})
	if err != nil {
		logger.FromContext(ctx, d.logger).ErrorContext(ctx, "signature generation error",
			slog.String("error", err.Error()),
		)
		return nil, apperrors.MediaSigning(err)
	}

	creds := d.store.Credentials()
	return &UploadAuthorization{
		Timestamp: timestamp,
		Signature: signature,
		CloudName: creds.CloudName,
		APIKey:    creds.APIKey,
		Folder:    folder,
	}, nil
}
