package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/service"
	"github.com/insightmart/insightmart/pkg/httputil"
	"github.com/insightmart/insightmart/pkg/pagination"
	"github.com/insightmart/insightmart/pkg/validator"
)

const maxBodyBytes = 1 << 20

// AuthService is the password signup and login surface used by AuthHandler.
type AuthService interface {
	Signup(ctx context.Context, input service.SignupInput) (*service.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (*service.AuthResult, error)
}

// GoogleAuth is the Google sign-in surface used by AuthHandler.
type GoogleAuth interface {
	AuthCodeURL(state string) string
	SignIn(ctx context.Context, code string) (*service.AuthResult, error)
}

// CatalogService is the product surface used by ProductHandler.
type CatalogService interface {
	CreateProduct(ctx context.Context, ownerID string, input service.CreateProductInput) (*domain.Product, error)
	CreateProducts(ctx context.Context, ownerID string, inputs []service.CreateProductInput) ([]domain.Product, error)
	ListProducts(ctx context.Context, ownerID string) ([]domain.Product, error)
	SearchProducts(ctx context.Context, ownerID string, input service.SearchInput) ([]domain.Product, error)
	FilterProducts(ctx context.Context, ownerID string, filter domain.ProductFilter, page pagination.Params) (pagination.Result[domain.Product], error)
	ListPublicProducts(ctx context.Context, filter domain.ProductFilter, page pagination.Params) (pagination.Result[domain.Product], error)
	GetProduct(ctx context.Context, ownerID, id string) (*domain.Product, error)
	GetPublicProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, ownerID, id string, patch domain.ProductPatch) (*domain.Product, error)
	UpdatePriceDiscount(ctx context.Context, ownerID, id string, price, discount *decimal.Decimal) (*domain.Product, error)
	DeleteProduct(ctx context.Context, ownerID, id string) error
	DeleteByCategory(ctx context.Context, ownerID, category string) (int64, error)
}

// CartService is the cart surface used by CartHandler.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
}

// OrderService is the order surface used by OrderHandler.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, lines []service.OrderLineInput) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
}

// ReviewService is the review surface used by ReviewHandler.
type ReviewService interface {
	AddReview(ctx context.Context, userID string, input service.AddReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, userID, reviewID string) error
	ListReviews(ctx context.Context, productID string) ([]domain.Review, error)
}

// AnalyticsService is the reporting surface used by AnalyticsHandler.
type AnalyticsService interface {
	SellerReport(ctx context.Context, sellerID string) (*domain.SellerReport, error)
	CustomerSummary(ctx context.Context, userID string) (domain.CustomerSummary, error)
}

// decodeBody reads a size-limited JSON body into dst and validates it. It
// writes the 400 response itself and reports whether the caller may go on.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{Message: "Request body too large"})
			return false
		}
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteError(w, r, err, logger)
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody for endpoints where the body may be empty.
// It reports false only after writing an error.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case errors.Is(err, io.EOF):
		return true
	case err != nil:
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteError(w, r, err, logger)
		return false
	}
	return true
}
