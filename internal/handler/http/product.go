package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/service"
	"github.com/insightmart/insightmart/pkg/httputil"
	"github.com/insightmart/insightmart/pkg/middleware"
	"github.com/insightmart/insightmart/pkg/pagination"
)

// ProductHandler handles HTTP requests for the seller catalog and the public
// product listing.
type ProductHandler struct {
	service CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON body for creating a product.
type CreateProductRequest struct {
	Name     string           `json:"name" validate:"required,max=200"`
	SKU      string           `json:"sku" validate:"required,max=100"`
	Price    *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Discount *decimal.Decimal `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Category string           `json:"category" validate:"required,max=100"`
	Stock    *int             `json:"stock" validate:"omitempty,gte=0"`
}

func (req CreateProductRequest) toInput() service.CreateProductInput {
	in := service.CreateProductInput{
		Name:     req.Name,
		SKU:      req.SKU,
		Category: req.Category,
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	if req.Discount != nil {
		in.Discount = *req.Discount
	}
	if req.Stock != nil {
		in.Stock = *req.Stock
	}
	return in
}

// UpdateProductRequest is the JSON body for a partial product update.
type UpdateProductRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=200"`
	SKU      *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Price    *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Discount *decimal.Decimal `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Category *string          `json:"category" validate:"omitempty,min=1,max=100"`
	Stock    *int             `json:"stock" validate:"omitempty,gte=0"`
}

// PriceDiscountRequest is the JSON body for PATCH /{id}/price-discount.
type PriceDiscountRequest struct {
	Price    *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Discount *decimal.Decimal `json:"discount" validate:"omitempty,gte=0,lte=100"`
}

// BulkCreateRequest is the body of POST /api/products/bulk, a bare JSON
// array of products.
type BulkCreateRequest struct {
	Products []CreateProductRequest `json:"products" validate:"dive"`
}

// UnmarshalJSON decodes the array form of the body.
func (b *BulkCreateRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &b.Products)
}

// DeleteCategoryRequest is the optional JSON body for DELETE /api/products.
type DeleteCategoryRequest struct {
	Category string `json:"category"`
}

// --- Seller handlers ---

// CreateProduct handles POST /api/products.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), middleware.UserIDFromContext(r.Context()), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, httputil.Payload{"product": product})
}

// CreateProducts handles POST /api/products/bulk. The body is a JSON array.
func (h *ProductHandler) CreateProducts(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	inputs := make([]service.CreateProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		inputs = append(inputs, p.toInput())
	}

	products, err := h.service.CreateProducts(r.Context(), middleware.UserIDFromContext(r.Context()), inputs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, httputil.Payload{"products": products})
}

// ListProducts handles GET /api/products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"products": products})
}

// SearchProducts handles GET /api/products/search?q=&minPrice=&maxPrice=.
// The query may also be given as ?name=.
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := service.SearchInput{Query: q.Get("q")}
	if input.Query == "" {
		input.Query = q.Get("name")
	}

	var ok bool
	if input.MinPrice, ok = decimalParam(w, r, "minPrice"); !ok {
		return
	}
	if input.MaxPrice, ok = decimalParam(w, r, "maxPrice"); !ok {
		return
	}

	products, err := h.service.SearchProducts(r.Context(), middleware.UserIDFromContext(r.Context()), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"products": products})
}

// FilterProducts handles GET /api/products/filter over the caller's products.
func (h *ProductHandler) FilterProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	result, err := h.service.FilterProducts(r.Context(), middleware.UserIDFromContext(r.Context()), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, result)
}

// GetProduct handles GET /api/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"), "product")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"product": product})
}

// UpdateProduct handles PUT /api/products/{id}.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"), "product")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	patch := domain.ProductPatch{
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    req.Price,
		Discount: req.Discount,
		Category: req.Category,
		Stock:    req.Stock,
	}

	product, err := h.service.UpdateProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), patch)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"product": product})
}

// UpdatePriceDiscount handles PATCH /api/products/{id}/price-discount.
func (h *ProductHandler) UpdatePriceDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"), "product")
	if !ok {
		return
	}

	var req PriceDiscountRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	product, err := h.service.UpdatePriceDiscount(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), req.Price, req.Discount)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"product": product})
}

// DeleteProduct handles DELETE /api/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"), "product")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Product deleted")
}

// DeleteByCategory handles DELETE /api/products?category=. The category may
// also be sent as {"category": ...} in the body.
func (h *ProductHandler) DeleteByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		var req DeleteCategoryRequest
		if !decodeOptionalBody(w, r, &req, h.logger) {
			return
		}
		category = req.Category
	}

	deleted, err := h.service.DeleteByCategory(r.Context(), middleware.UserIDFromContext(r.Context()), category)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"deletedCount": deleted})
}

// --- Public handlers ---

// ListPublicProducts handles GET /api/products/public.
func (h *ProductHandler) ListPublicProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListPublicProducts(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, result)
}

// GetPublicProduct handles GET /api/products/public/{id}.
func (h *ProductHandler) GetPublicProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"), "product")
	if !ok {
		return
	}

	product, err := h.service.GetPublicProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"product": product})
}

// --- Query parsing ---

func writePage(w http.ResponseWriter, result pagination.Result[domain.Product]) {
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"page":         result.Page,
		"totalPages":   result.TotalPages,
		"totalResults": result.TotalResults,
		"products":     result.Items,
	})
}

// parseFilter reads the advanced filter query parameters. sortOrder applies
// only with sortBy; without sortBy products come newest first.
func parseFilter(w http.ResponseWriter, r *http.Request) (domain.ProductFilter, bool) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   q.Get("sortBy"),
	}

	switch q.Get("sortOrder") {
	case "", "asc":
	case "desc":
		filter.SortDesc = true
	default:
		httputil.WriteBadRequest(w, "sortOrder must be one of: asc, desc")
		return filter, false
	}

	var ok bool
	if filter.MinPrice, ok = decimalParam(w, r, "minPrice"); !ok {
		return filter, false
	}
	if filter.MaxPrice, ok = decimalParam(w, r, "maxPrice"); !ok {
		return filter, false
	}
	if filter.MinDiscount, ok = decimalParam(w, r, "minDiscount"); !ok {
		return filter, false
	}
	if filter.MaxDiscount, ok = decimalParam(w, r, "maxDiscount"); !ok {
		return filter, false
	}

	if v := q.Get("rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 {
			httputil.WriteBadRequest(w, "rating must be a valid number")
			return filter, false
		}
		filter.MinRating = &rating
	}

	return filter, true
}

func decimalParam(w http.ResponseWriter, r *http.Request, name string) (*decimal.Decimal, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		httputil.WriteBadRequest(w, name+" must be a valid number")
		return nil, false
	}
	return &d, true
}
