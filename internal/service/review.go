package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

// MaxCommentLength bounds a review comment, in bytes.
const MaxCommentLength = 2000

// AddReviewInput holds the parameters for reviewing a product.
type AddReviewInput struct {
	ProductID string
	Rating    int
	Comment   string
}

// ReviewService manages reviews and keeps each product's rating and review
// count in step with its reviews.
type ReviewService struct {
	tx      repository.Transactor
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(tx repository.Transactor, reviews repository.ReviewRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		tx:      tx,
		reviews: reviews,
		logger:  logger,
	}
}

// AddReview stores a customer's single review of a product and recomputes
// the product's rating.
func (s *ReviewService) AddReview(ctx context.Context, userID string, input AddReviewInput) (*domain.Review, error) {
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > MaxCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Comment must be at most %d characters", MaxCommentLength))
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Products().GetForUpdate(ctx, input.ProductID); err != nil {
			return err
		}
		if err := repos.Reviews().Create(ctx, review); err != nil {
			return err
		}
		return recomputeRating(ctx, repos, input.ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}

	s.logger.InfoContext(ctx, "review added",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}

// DeleteReview removes a review written by userID and recomputes the
// product's rating. Another customer's review is reported as not found.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	var productID string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		review, err := repos.Reviews().GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.UserID != userID {
			return apperrors.NotFound("Review")
		}
		productID = review.ProductID

		// Lock the product first so concurrent review writes recompute in turn.
		if _, err := repos.Products().GetForUpdate(ctx, productID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if err := repos.Reviews().Delete(ctx, reviewID); err != nil {
			return err
		}
		return recomputeRating(ctx, repos, productID)
	})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("product_id", productID),
	)
	return nil
}

// ListReviews returns a product's reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// recomputeRating stores the mean rating and count of the product's
// remaining reviews. A product deleted in the meantime is skipped.
func recomputeRating(ctx context.Context, repos repository.Repositories, productID string) error {
	ratings, err := repos.Reviews().Ratings(ctx, productID)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	err = repos.Products().UpdateRating(ctx, productID, domain.SummarizeRatings(ratings))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("update product rating: %w", err)
	}
	return nil
}
