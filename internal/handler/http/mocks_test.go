package http

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/service"
	"github.com/insightmart/insightmart/pkg/pagination"
)

// =============================================================================
// Mock AuthService / GoogleAuth
// =============================================================================

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Signup(ctx context.Context, input service.SignupInput) (*service.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, input service.LoginInput) (*service.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

type mockGoogle struct {
	mock.Mock
}

func (m *mockGoogle) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *mockGoogle) SignIn(ctx context.Context, code string) (*service.AuthResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

// =============================================================================
// Mock CatalogService
// =============================================================================

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) CreateProduct(ctx context.Context, ownerID string, input service.CreateProductInput) (*domain.Product, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) CreateProducts(ctx context.Context, ownerID string, inputs []service.CreateProductInput) ([]domain.Product, error) {
	args := m.Called(ctx, ownerID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalog) ListProducts(ctx context.Context, ownerID string) ([]domain.Product, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalog) SearchProducts(ctx context.Context, ownerID string, input service.SearchInput) ([]domain.Product, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalog) FilterProducts(ctx context.Context, ownerID string, filter domain.ProductFilter, page pagination.Params) (pagination.Result[domain.Product], error) {
	args := m.Called(ctx, ownerID, filter, page)
	return args.Get(0).(pagination.Result[domain.Product]), args.Error(1)
}

func (m *mockCatalog) ListPublicProducts(ctx context.Context, filter domain.ProductFilter, page pagination.Params) (pagination.Result[domain.Product], error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).(pagination.Result[domain.Product]), args.Error(1)
}

func (m *mockCatalog) GetProduct(ctx context.Context, ownerID, id string) (*domain.Product, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) GetPublicProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) UpdateProduct(ctx context.Context, ownerID, id string, patch domain.ProductPatch) (*domain.Product, error) {
	args := m.Called(ctx, ownerID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) UpdatePriceDiscount(ctx context.Context, ownerID, id string, price, discount *decimal.Decimal) (*domain.Product, error) {
	args := m.Called(ctx, ownerID, id, price, discount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalog) DeleteProduct(ctx context.Context, ownerID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *mockCatalog) DeleteByCategory(ctx context.Context, ownerID, category string) (int64, error) {
	args := m.Called(ctx, ownerID, category)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// Mock CartService / OrderService
// =============================================================================

type mockCart struct {
	mock.Mock
}

func (m *mockCart) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCart) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	args := m.Called(ctx, userID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCart) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	args := m.Called(ctx, userID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCart) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) PlaceOrder(ctx context.Context, userID string, lines []service.OrderLineInput) (*domain.Order, error) {
	args := m.Called(ctx, userID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrders) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

// =============================================================================
// Mock ReviewService / AnalyticsService
// =============================================================================

type mockReviews struct {
	mock.Mock
}

func (m *mockReviews) AddReview(ctx context.Context, userID string, input service.AddReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviews) DeleteReview(ctx context.Context, userID, reviewID string) error {
	return m.Called(ctx, userID, reviewID).Error(0)
}

func (m *mockReviews) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) SellerReport(ctx context.Context, sellerID string) (*domain.SellerReport, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SellerReport), args.Error(1)
}

func (m *mockAnalytics) CustomerSummary(ctx context.Context, userID string) (domain.CustomerSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.CustomerSummary), args.Error(1)
}
