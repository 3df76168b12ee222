package services

import (
	"context"
	"errors"
	"log/slog"

	"catalog-backend/logger"
	"catalog-backend/media"
	"catalog-backend/models"
	"catalog-backend/repository"
)

var errPanicked = errors.New("media store call panicked")

// DeleteOutcome reports a remote object deletion. Failures are never fatal.
type DeleteOutcome struct {
	ExternalID string
	Attempted  bool
	Err        error
}

// Failed reports whether a deletion was attempted and failed.
func (o DeleteOutcome) Failed() bool {
	return o.Attempted && o.Err != nil
}

// Log records a failed deletion as a warning. Successful or skipped deletions log at debug.
func (o DeleteOutcome) Log(ctx context.Context, l *slog.Logger, productID string) {
	switch {
	case o.Failed():
		l.WarnContext(ctx, "media object deletion failed",
			slog.String("product_id", productID),
			slog.String("external_id", o.ExternalID),
			slog.String("error", o.Err.Error()),
		)
	case o.Attempted:
		l.DebugContext(ctx, "media object deleted",
			slog.String("product_id", productID),
			slog.String("external_id", o.ExternalID),
		)
	}
}

// ImageManager keeps a product's stored image reference and the media store in step.
// The persisted record decides which object is current; the store follows it.
type ImageManager struct {
	repo   repository.ProductRepository
	store  media.Store
	logger *slog.Logger
}

// NewImageManager creates an image lifecycle manager.
func NewImageManager(repo repository.ProductRepository, store media.Store, logger *slog.Logger) *ImageManager {
	return &ImageManager{repo: repo, store: store, logger: logger}
}

// AttachImage points p at ref and persists p. After the write commits, the object p owned
// before is deleted from the store. A deletion failure is reported in the outcome only.
// Any other pending edits on p are written in the same save.
func (m *ImageManager) AttachImage(ctx context.Context, p *models.Product, ref models.ImageRef) (DeleteOutcome, error) {
	var previous string
	if p.HasRemoteImage() {
		previous = *p.ExternalID
	}

	oldImage, oldID := p.Image, p.ExternalID
	p.Image = ref.URL
	p.ExternalID = nil
	if ref.ExternalID != "" {
		id := ref.ExternalID
		p.ExternalID = &id
	}

	if err := m.repo.Save(ctx, p); err != nil {
		p.Image, p.ExternalID = oldImage, oldID
		return DeleteOutcome{}, err
	}

	if previous == "" || previous == ref.ExternalID {
		return DeleteOutcome{}, nil
	}
	return m.destroy(ctx, previous), nil
}

// ReleaseImage deletes the object p owns, if any. Called once p's record is gone.
func (m *ImageManager) ReleaseImage(ctx context.Context, p *models.Product) DeleteOutcome {
	if !p.HasRemoteImage() {
		return DeleteOutcome{}
	}
	return m.destroy(ctx, *p.ExternalID)
}

// Discard deletes an object that was uploaded but never committed to a record.
func (m *ImageManager) Discard(ctx context.Context, externalID string) DeleteOutcome {
	if externalID == "" {
		return DeleteOutcome{}
	}
	return m.destroy(ctx, externalID)
}

func (m *ImageManager) destroy(ctx context.Context, externalID string) (outcome DeleteOutcome) {
	outcome = DeleteOutcome{ExternalID: externalID, Attempted: true}
	defer func() {
		if rec := recover(); rec != nil {
			logger.FromContext(ctx, m.logger).ErrorContext(ctx, "panic in media deletion",
				slog.Any("panic", rec),
				slog.String("external_id", externalID),
			)
			outcome.Err = errPanicked
		}
	}()
	outcome.Err = m.store.Destroy(ctx, externalID)
	return outcome
}
