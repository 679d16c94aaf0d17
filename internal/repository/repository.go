package repository

import (
	"context"

	"github.com/insightmart/insightmart/internal/domain"
)

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product. A duplicate SKU yields apperrors.ErrAlreadyExists.
	Create(ctx context.Context, product *domain.Product) error

	// CreateMany inserts all products atomically. Any duplicate SKU inserts none of them.
	CreateMany(ctx context.Context, products []domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetForUpdate retrieves a product and locks its row until the enclosing
	// transaction ends. Only meaningful inside Transactor.WithinTx.
	GetForUpdate(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs returns the products that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	// List returns a page of products matching filter along with the total count.
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)

	// Find returns every product matching filter, without pagination.
	Find(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)

	// Update overwrites the mutable fields of an existing product.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes the product if ownerID owns it.
	Delete(ctx context.Context, id, ownerID string) error

	// DeleteByCategory removes ownerID's products in category and returns how many were removed.
	DeleteByCategory(ctx context.Context, ownerID, category string) (int64, error)

	// DecrementStock subtracts quantity from stock only if enough remains.
	// It reports false when the product has fewer than quantity units.
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)

	// UpdateRating stores the derived rating and review count.
	UpdateRating(ctx context.Context, id string, summary domain.RatingSummary) error
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts an order together with its lines.
	Create(ctx context.Context, order *domain.Order) error

	// ListByUser returns a customer's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a review. A second review by the same customer for the
	// same product yields apperrors.ErrConflict.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Delete removes a review.
	Delete(ctx context.Context, id string) error

	// ListByProduct returns a product's reviews with author names, newest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)

	// Ratings returns the rating of every review of a product.
	Ratings(ctx context.Context, productID string) ([]int, error)
}

// UserRepository defines the interface for account persistence operations.
type UserRepository interface {
	// Create inserts a user. A duplicate email or Google id yields apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByGoogleID retrieves a user linked to a Google account.
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)

	// LinkGoogle attaches a Google account id to an existing user.
	LinkGoogle(ctx context.Context, userID, googleID string) error
}

// AnalyticsRepository reads the order data behind seller analytics.
type AnalyticsRepository interface {
	// SellerOrderLines returns every order line whose product is owned by
	// sellerID, joined with the product's current pricing, oldest order first.
	SellerOrderLines(ctx context.Context, sellerID string) ([]domain.SellerOrderLine, error)
}

// Repositories are repositories sharing one transaction.
type Repositories interface {
	Products() ProductRepository
	Orders() OrderRepository
	Reviews() ReviewRepository
}

// Transactor runs fn inside a database transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a customer's cart. A missing cart yields apperrors.ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save stores the cart unconditionally.
	Save(ctx context.Context, cart *domain.Cart) error

	// SaveIfVersion stores the cart only if the stored version still equals
	// expectedVersion. It reports false when another writer got there first.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)

	// Delete removes a customer's cart.
	Delete(ctx context.Context, userID string) error
}

// AnalyticsCache stores computed seller reports.
type AnalyticsCache interface {
	// Get returns a cached report. A miss yields apperrors.ErrNotFound.
	Get(ctx context.Context, sellerID string) (*domain.SellerReport, error)

	// Set caches a report.
	Set(ctx context.Context, sellerID string, report *domain.SellerReport) error

	// Invalidate drops the cached reports of the given sellers.
	Invalidate(ctx context.Context, sellerIDs ...string) error
}
