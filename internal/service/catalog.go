package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
	"github.com/insightmart/insightmart/pkg/pagination"
	"github.com/insightmart/insightmart/pkg/slug"
)

// MaxBulkProducts bounds a single bulk create.
const MaxBulkProducts = 500

var maxDiscount = decimal.NewFromInt(100)

// ProductEvents publishes catalog changes.
type ProductEvents interface {
	ProductCreated(ctx context.Context, product *domain.Product) error
	ProductUpdated(ctx context.Context, product *domain.Product) error
	ProductDeleted(ctx context.Context, productID, ownerID string) error
}

// CatalogService implements seller catalog management and public browsing.
type CatalogService struct {
	repo    repository.ProductRepository
	events  ProductEvents
	reports ReportInvalidator
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service. events and reports may
// be nil.
func NewCatalogService(repo repository.ProductRepository, events ProductEvents, reports ReportInvalidator, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		events:  events,
		reports: reports,
		logger:  logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name     string
	SKU      string
	Price    decimal.Decimal
	Discount decimal.Decimal
	Category string
	Stock    int
}

// SearchInput narrows a seller's product search.
type SearchInput struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

func (in CreateProductInput) toProduct(ownerID string, now time.Time) (*domain.Product, error) {
	p := &domain.Product{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		SKU:       strings.TrimSpace(in.SKU),
		Price:     in.Price,
		Discount:  in.Discount,
		Category:  domain.NormalizeCategory(in.Category),
		Stock:     in.Stock,
		OwnerID:   &ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.Slug = slug.WithKey(p.Name, p.SKU)
	return p, nil
}

func validateProduct(p *domain.Product) error {
	switch {
	case p.Name == "":
		return apperrors.InvalidInput("Product name is required")
	case p.SKU == "":
		return apperrors.InvalidInput("SKU is required")
	case p.Category == "":
		return apperrors.InvalidInput("Category is required")
	case p.Price.IsNegative():
		return apperrors.InvalidInput("Price must not be negative")
	case p.Discount.IsNegative() || p.Discount.GreaterThan(maxDiscount):
		return apperrors.InvalidInput("Discount must be between 0 and 100")
	case p.Stock < 0:
		return apperrors.InvalidInput("Stock must not be negative")
	}
	return nil
}

// CreateProduct adds a product owned by ownerID.
func (s *CatalogService) CreateProduct(ctx context.Context, ownerID string, input CreateProductInput) (*domain.Product, error) {
	product, err := input.toProduct(ownerID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publish(ctx, "product.created", product.ID, func() error {
		return s.events.ProductCreated(ctx, product)
	})

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("sku", product.SKU),
	)
	return product, nil
}

// CreateProducts adds every product or none of them.
func (s *CatalogService) CreateProducts(ctx context.Context, ownerID string, inputs []CreateProductInput) ([]domain.Product, error) {
	if len(inputs) == 0 {
		return nil, apperrors.InvalidInput("No products given")
	}
	if len(inputs) > MaxBulkProducts {
		return nil, apperrors.InvalidInput(fmt.Sprintf("At most %d products can be created at once", MaxBulkProducts))
	}

	now := time.Now().UTC()
	products := make([]domain.Product, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		p, err := in.toProduct(ownerID, now)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i+1, err)
		}
		if _, dup := seen[p.SKU]; dup {
			return nil, apperrors.AlreadyExists("One or more products have duplicate SKUs")
		}
		seen[p.SKU] = struct{}{}
		products = append(products, *p)
	}

	if err := s.repo.CreateMany(ctx, products); err != nil {
		return nil, fmt.Errorf("create products: %w", err)
	}

	for i := range products {
		p := &products[i]
		s.publish(ctx, "product.created", p.ID, func() error {
			return s.events.ProductCreated(ctx, p)
		})
	}

	s.logger.InfoContext(ctx, "products created in bulk",
		slog.String("owner_id", ownerID),
		slog.Int("count", len(products)),
	)
	return products, nil
}

// ListProducts returns every product of ownerID, newest first.
func (s *CatalogService) ListProducts(ctx context.Context, ownerID string) ([]domain.Product, error) {
	products, err := s.repo.Find(ctx, domain.ProductFilter{OwnerID: ownerID})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// SearchProducts matches ownerID's products by name or SKU.
func (s *CatalogService) SearchProducts(ctx context.Context, ownerID string, input SearchInput) ([]domain.Product, error) {
	if err := checkRange(input.MinPrice, input.MaxPrice, "price"); err != nil {
		return nil, err
	}

	products, err := s.repo.Find(ctx, domain.ProductFilter{
		OwnerID:  ownerID,
		Search:   strings.TrimSpace(input.Query),
		MinPrice: input.MinPrice,
		MaxPrice: input.MaxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

// FilterProducts returns a page of ownerID's products matching filter.
func (s *CatalogService) FilterProducts(ctx context.Context, ownerID string, filter domain.ProductFilter, page pagination.Params) (pagination.Result[domain.Product], error) {
	filter.OwnerID = ownerID
	return s.list(ctx, filter, page)
}

// ListPublicProducts returns a page of products across every seller.
func (s *CatalogService) ListPublicProducts(ctx context.Context, filter domain.ProductFilter, page pagination.Params) (pagination.Result[domain.Product], error) {
	filter.OwnerID = ""
	return s.list(ctx, filter, page)
}

func (s *CatalogService) list(ctx context.Context, filter domain.ProductFilter, page pagination.Params) (pagination.Result[domain.Product], error) {
	if filter.SortBy != "" && !domain.IsValidSortField(filter.SortBy) {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput(
			fmt.Sprintf("sortBy must be one of: %s", strings.Join(domain.ValidSortFields(), ", ")))
	}
	if err := checkRange(filter.MinPrice, filter.MaxPrice, "price"); err != nil {
		return pagination.Result[domain.Product]{}, err
	}
	if err := checkRange(filter.MinDiscount, filter.MaxDiscount, "discount"); err != nil {
		return pagination.Result[domain.Product]{}, err
	}

	filter.Page = page.Page
	filter.Limit = page.Limit

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(products, total, page), nil
}

func checkRange(lo, hi *decimal.Decimal, what string) error {
	if lo != nil && hi != nil && lo.GreaterThan(*hi) {
		return apperrors.InvalidInput(fmt.Sprintf("min%s must not exceed max%s", capitalize(what), capitalize(what)))
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// GetProduct returns a product owned by ownerID. Products of other sellers
// are reported as not found.
func (s *CatalogService) GetProduct(ctx context.Context, ownerID, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !product.OwnedBy(ownerID) {
		return nil, apperrors.NotFound("Product")
	}
	return product, nil
}

// GetPublicProduct returns any product.
func (s *CatalogService) GetPublicProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// UpdateProduct applies patch to a product owned by ownerID.
func (s *CatalogService) UpdateProduct(ctx context.Context, ownerID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	product, err := s.GetProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(product)
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.Slug = slug.WithKey(product.Name, product.SKU)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	invalidateReports(ctx, s.reports, s.logger, ownerID)

	s.publish(ctx, "product.updated", product.ID, func() error {
		return s.events.ProductUpdated(ctx, product)
	})

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))
	return product, nil
}

// UpdatePriceDiscount changes the price, the discount or both.
func (s *CatalogService) UpdatePriceDiscount(ctx context.Context, ownerID, id string, price, discount *decimal.Decimal) (*domain.Product, error) {
	if price == nil && discount == nil {
		return nil, apperrors.InvalidInput("Price or discount is required")
	}
	return s.UpdateProduct(ctx, ownerID, id, domain.ProductPatch{Price: price, Discount: discount})
}

// DeleteProduct removes a product owned by ownerID.
func (s *CatalogService) DeleteProduct(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	invalidateReports(ctx, s.reports, s.logger, ownerID)

	s.publish(ctx, "product.deleted", id, func() error {
		return s.events.ProductDeleted(ctx, id, ownerID)
	})

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// DeleteByCategory removes ownerID's products in category and returns how
// many were deleted.
func (s *CatalogService) DeleteByCategory(ctx context.Context, ownerID, category string) (int64, error) {
	category = domain.NormalizeCategory(category)
	if category == "" {
		return 0, apperrors.InvalidInput("Category is required")
	}

	n, err := s.repo.DeleteByCategory(ctx, ownerID, category)
	if err != nil {
		return 0, fmt.Errorf("delete products by category: %w", err)
	}

	if n > 0 {
		invalidateReports(ctx, s.reports, s.logger, ownerID)
		s.publish(ctx, "product.deleted", category, func() error {
			return s.events.ProductDeleted(ctx, "", ownerID)
		})
	}

	s.logger.InfoContext(ctx, "products deleted by category",
		slog.String("category", category),
		slog.Int64("deleted", n),
	)
	return n, nil
}

// publish runs a publish call and logs its failure. Catalog writes never fail
// because of the event bus.
func (s *CatalogService) publish(ctx context.Context, eventType, id string, fn func() error) {
	if s.events == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish "+eventType+" event",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}
