package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

// ReportInvalidator drops cached seller reports.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, sellerIDs ...string) error
}

// invalidateReports drops the reports of sellerIDs. reports may be nil.
// Failures are logged; the cache entry then expires on its TTL.
func invalidateReports(ctx context.Context, reports ReportInvalidator, logger *slog.Logger, sellerIDs ...string) {
	if reports == nil || len(sellerIDs) == 0 {
		return
	}
	if err := reports.Invalidate(ctx, sellerIDs...); err != nil {
		logger.WarnContext(ctx, "analytics cache invalidation failed",
			slog.Any("seller_ids", sellerIDs),
			slog.String("error", err.Error()),
		)
	}
}

// AnalyticsService builds seller sales reports and customer order summaries.
type AnalyticsService struct {
	repo   repository.AnalyticsRepository
	orders repository.OrderRepository
	cache  repository.AnalyticsCache
	logger *slog.Logger
}

// NewAnalyticsService creates a new analytics service. cache may be nil.
func NewAnalyticsService(repo repository.AnalyticsRepository, orders repository.OrderRepository, cache repository.AnalyticsCache, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		orders: orders,
		cache:  cache,
		logger: logger,
	}
}

// SellerReport returns the sales report for the seller's own products.
// Cache failures are logged and the report is computed from the database.
func (s *AnalyticsService) SellerReport(ctx context.Context, sellerID string) (*domain.SellerReport, error) {
	if s.cache != nil {
		report, err := s.cache.Get(ctx, sellerID)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "analytics cache read failed",
				slog.String("seller_id", sellerID),
				slog.String("error", err.Error()),
			)
		}
	}

	lines, err := s.repo.SellerOrderLines(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("load seller order lines: %w", err)
	}
	report := domain.BuildSellerReport(lines)

	if s.cache != nil {
		if err := s.cache.Set(ctx, sellerID, report); err != nil {
			s.logger.WarnContext(ctx, "analytics cache write failed",
				slog.String("seller_id", sellerID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.DebugContext(ctx, "seller report computed",
		slog.String("seller_id", sellerID),
		slog.Int("lines", len(lines)),
	)
	return report, nil
}

// CustomerSummary rolls up the customer's frozen order totals.
func (s *AnalyticsService) CustomerSummary(ctx context.Context, userID string) (domain.CustomerSummary, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return domain.CustomerSummary{}, fmt.Errorf("list orders: %w", err)
	}
	return domain.SummarizeOrders(orders), nil
}
