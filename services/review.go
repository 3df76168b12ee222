package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-backend/apperrors"
	"catalog-backend/logger"
	"catalog-backend/models"
	"catalog-backend/repository"
)

const defaultSaveAttempts = 5

// Aggregate derives numReviews and the mean rating from reviews. An empty set rates 0.
func Aggregate(reviews []models.Review) (numReviews int, rating float64) {
	if len(reviews) == 0 {
		return 0, 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return len(reviews), float64(sum) / float64(len(reviews))
}

// ReviewAggregator appends reviews and keeps a product's rating consistent with them.
type ReviewAggregator struct {
	repo        repository.ProductRepository
	maxAttempts int
	now         func() time.Time
	logger      *slog.Logger
}

// NewReviewAggregator creates a review aggregator.
func NewReviewAggregator(repo repository.ProductRepository, logger *slog.Logger) *ReviewAggregator {
	return &ReviewAggregator{
		repo:        repo,
		maxAttempts: defaultSaveAttempts,
		now:         time.Now,
		logger:      logger,
	}
}

// AddReview appends a review by reviewer to the product with the given id.
// Concurrent writers are serialised by the repository's versioned save: a losing
// writer reloads the product and tries again, so no review is lost.
func (a *ReviewAggregator) AddReview(ctx context.Context, reviewer *models.Principal, productID string, input models.ReviewInput) error {
	if err := requireUser(reviewer); err != nil {
		return err
	}
	oid, err := parseID(productID)
	if err != nil {
		return err
	}
	if err := validateStruct(input, "invalid review"); err != nil {
		return err
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		p, err := a.repo.FindByID(ctx, oid)
		if err != nil {
			return notFound(err)
		}
		if p.ReviewedBy(reviewer.UserID) {
			return apperrors.DuplicateReview()
		}

		p.Reviews = append(p.Reviews, models.Review{
			ID:        primitive.NewObjectID(),
			Name:      reviewer.Name,
			Rating:    input.Rating,
			Comment:   input.Comment,
			User:      reviewer.UserID,
			CreatedAt: a.now().UTC(),
		})
		p.NumReviews, p.Rating = Aggregate(p.Reviews)

		err = a.repo.Save(ctx, p)
		switch {
		case err == nil:
			logger.FromContext(ctx, a.logger).InfoContext(ctx, "review added",
				slog.String("product_id", productID),
				slog.String("user_id", reviewer.UserID.Hex()),
				slog.Int("rating", input.Rating),
				slog.Int("attempt", attempt),
			)
			return nil
		case errors.Is(err, repository.ErrVersionConflict):
			continue
		default:
			return fmt.Errorf("save review: %w", notFound(err))
		}
	}

	return apperrors.Conflict("product is being updated concurrently, try again")
}
