package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"catalog-backend/apperrors"
	"catalog-backend/logger"
	"catalog-backend/media"
	"catalog-backend/models"
	"catalog-backend/repository"
)

// CatalogConfig holds the server-side catalog settings.
type CatalogConfig struct {
	PageSize       int
	TopRatedLimit  int
	DefaultImage   string
	UploadFolder   string
	MaxUploadBytes int64
}

// ImageUpload is a file sent to the server with a create or update request.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// CatalogService answers listing queries and runs product writes.
type CatalogService struct {
	repo   repository.ProductRepository
	images *ImageManager
	store  media.Store
	cfg    CatalogConfig
	logger *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(repo repository.ProductRepository, images *ImageManager, store media.Store, cfg CatalogConfig, logger *slog.Logger) *CatalogService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 8
	}
	if cfg.TopRatedLimit <= 0 {
		cfg.TopRatedLimit = 3
	}
	return &CatalogService{
		repo:   repo,
		images: images,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// List returns one page of products whose name contains keyword. Pages are 1-indexed;
// a page past the end is empty but still reports the total page count.
func (s *CatalogService) List(ctx context.Context, keyword string, page int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	filter := repository.Filter{Keyword: keyword}

	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	pageSize := int64(s.cfg.PageSize)
	pages := count / pageSize
	if count%pageSize > 0 {
		pages++
	}
	// Checked before computing the offset, which would overflow for huge page numbers.
	if int64(page) > pages {
		return &models.ProductPage{Products: []models.Product{}, Page: page, Pages: int(pages)}, nil
	}

	products, err := s.repo.Find(ctx, repository.Query{
		Filter: filter,
		Skip:   pageSize * int64(page-1),
		Limit:  pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return &models.ProductPage{Products: products, Page: page, Pages: int(pages)}, nil
}

// TopRated returns up to limit products by descending rating. limit <= 0 uses the configured default.
func (s *CatalogService) TopRated(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = s.cfg.TopRatedLimit
	}
	products, err := s.repo.Find(ctx, repository.Query{SortByRating: true, Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("find top products: %w", err)
	}
	return products, nil
}

// GetByID returns the product with the given hex id.
func (s *CatalogService) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Create stores a new product owned by principal. The image comes from upload when
// present, else from the client-supplied reference, else the default image.
func (s *CatalogService) Create(ctx context.Context, principal *models.Principal, input models.ProductInput, upload *ImageUpload) (*models.Product, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if err := validateStruct(input, "Invalid product data"); err != nil {
		return nil, err
	}
	if input.ExternalID != "" && input.Image == "" {
		return nil, apperrors.Validation("Invalid product data: cloudinary_id requires image", nil)
	}

	ref := models.ImageRef{URL: input.Image, ExternalID: input.ExternalID}
	if ref.URL == "" {
		ref.URL = s.cfg.DefaultImage
	}
	uploaded := false
	if upload != nil {
		r, err := s.upload(ctx, upload)
		if err != nil {
			return nil, err
		}
		ref, uploaded = *r, true
	}

	p := &models.Product{
		User:         principal.UserID,
		Name:         input.Name,
		Image:        ref.URL,
		Brand:        input.Brand,
		Category:     input.Category,
		Description:  input.Description,
		Price:        input.Price,
		CountInStock: input.CountInStock,
		Reviews:      []models.Review{},
	}
	if ref.ExternalID != "" {
		id := ref.ExternalID
		p.ExternalID = &id
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if uploaded {
			s.images.Discard(ctx, ref.ExternalID).Log(ctx, s.log(ctx), "")
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "product created",
		slog.String("product_id", p.ID.Hex()),
		slog.String("user_id", principal.UserID.Hex()),
	)
	return p, nil
}

// Update applies the fields present in upd. The image is replaced only when upd carries
// an image reference or upload is non-nil; otherwise the stored reference is untouched.
func (s *CatalogService) Update(ctx context.Context, principal *models.Principal, id string, upd models.ProductUpdate, upload *ImageUpload) (*models.Product, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(upd, "Invalid product data"); err != nil {
		return nil, err
	}
	if upd.ExternalID != nil && upd.Image == nil {
		return nil, apperrors.Validation("Invalid product data: cloudinary_id requires image", nil)
	}

	// Existence is checked before any upload so a missing product never leaks an object.
	if _, err := s.repo.FindByID(ctx, oid); err != nil {
		return nil, notFound(err)
	}

	var ref *models.ImageRef
	uploaded := false
	switch {
	case upload != nil:
		r, err := s.upload(ctx, upload)
		if err != nil {
			return nil, err
		}
		ref, uploaded = r, true
	case upd.Image != nil:
		ref = &models.ImageRef{URL: *upd.Image}
		if upd.ExternalID != nil {
			ref.ExternalID = *upd.ExternalID
		}
	}

	for attempt := 1; attempt <= defaultSaveAttempts; attempt++ {
		p, err := s.repo.FindByID(ctx, oid)
		if err != nil {
			if uploaded {
				s.images.Discard(ctx, ref.ExternalID).Log(ctx, s.log(ctx), id)
			}
			return nil, notFound(err)
		}
		applyUpdate(p, upd)

		if ref == nil {
			err = s.repo.Save(ctx, p)
		} else {
			var outcome DeleteOutcome
			outcome, err = s.images.AttachImage(ctx, p, *ref)
			outcome.Log(ctx, s.log(ctx), id)
		}

		switch {
		case err == nil:
			s.log(ctx).InfoContext(ctx, "product updated",
				slog.String("product_id", id),
				slog.Bool("image_replaced", ref != nil),
			)
			return p, nil
		case errors.Is(err, repository.ErrVersionConflict):
			continue
		default:
			if uploaded {
				s.images.Discard(ctx, ref.ExternalID).Log(ctx, s.log(ctx), id)
			}
			return nil, fmt.Errorf("update product: %w", notFound(err))
		}
	}

	if uploaded {
		s.images.Discard(ctx, ref.ExternalID).Log(ctx, s.log(ctx), id)
	}
	return nil, apperrors.Conflict("product is being updated concurrently, try again")
}

// Delete removes the product and then releases its media object. A failed release is
// logged and does not fail the delete.
func (s *CatalogService) Delete(ctx context.Context, principal *models.Principal, id string) (DeleteOutcome, error) {
	if err := requireAdmin(principal); err != nil {
		return DeleteOutcome{}, err
	}
	oid, err := parseID(id)
	if err != nil {
		return DeleteOutcome{}, err
	}

	// The released object comes from the removed document, never from an earlier read.
	p, err := s.repo.Delete(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return DeleteOutcome{}, notFound(err)
		}
		return DeleteOutcome{}, fmt.Errorf("delete product: %w", err)
	}

	outcome := s.images.ReleaseImage(ctx, p)
	outcome.Log(ctx, s.log(ctx), id)

	s.log(ctx).InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
		slog.Bool("image_release_failed", outcome.Failed()),
	)
	return outcome, nil
}

// Stats summarises the catalog for administrators.
func (s *CatalogService) Stats(ctx context.Context, principal *models.Principal) (*models.Stats, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	return stats, nil
}

func (s *CatalogService) upload(ctx context.Context, upload *ImageUpload) (*models.ImageRef, error) {
	if err := media.ValidateImage(upload.FileName, upload.ContentType, upload.Size, s.cfg.MaxUploadBytes); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	res, err := s.store.Upload(ctx, &media.UploadInput{
		Folder:   s.cfg.UploadFolder,
		FileName: upload.FileName,
		Data:     upload.Data,
	})
	if err != nil {
		s.log(ctx).ErrorContext(ctx, "image upload failed", slog.String("error", err.Error()))
		return nil, apperrors.MediaUpload(err)
	}
	return &models.ImageRef{URL: res.URL, ExternalID: res.ExternalID}, nil
}

func (s *CatalogService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

func applyUpdate(p *models.Product, upd models.ProductUpdate) {
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Brand != nil {
		p.Brand = *upd.Brand
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.CountInStock != nil {
		p.CountInStock = *upd.CountInStock
	}
}
