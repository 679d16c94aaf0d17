package http

import (
	"log/slog"
	"net/http"

	"github.com/insightmart/insightmart/pkg/httputil"
	"github.com/insightmart/insightmart/pkg/middleware"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON body for POST /api/cart/add.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=1"`
}

// UpdateItemRequest is the JSON body for PUT /api/cart/update. A quantity
// of zero removes the line.
type UpdateItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"required,gte=0"`
}

// RemoveItemRequest is the JSON body for DELETE /api/cart/remove.
type RemoveItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
}

// --- Handlers ---

// GetCart handles GET /api/cart/my-cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"cart": cart})
}

// AddItem handles POST /api/cart/add. Quantity defaults to 1.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.service.AddItem(r.Context(), middleware.UserIDFromContext(r.Context()), req.ProductID, quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"cart": cart})
}

// UpdateItem handles PUT /api/cart/update.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), middleware.UserIDFromContext(r.Context()), req.ProductID, *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"cart": cart})
}

// RemoveItem handles DELETE /api/cart/remove. The product may be named in
// the body or as ?productId=.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	req := RemoveItemRequest{ProductID: r.URL.Query().Get("productId")}
	if req.ProductID == "" {
		if !decodeBody(w, r, &req, h.logger) {
			return
		}
	} else if _, ok := httputil.ParseUUID(w, req.ProductID, "product"); !ok {
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), middleware.UserIDFromContext(r.Context()), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"cart": cart})
}
