package http

import (
	"log/slog"
	"net/http"

	"github.com/insightmart/insightmart/internal/service"
	"github.com/insightmart/insightmart/pkg/httputil"
	"github.com/insightmart/insightmart/pkg/middleware"
)

// OrderHandler handles HTTP requests for placing and listing orders.
type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// PlaceOrderRequest is the JSON body for POST /api/orders/create. An empty
// product list is rejected by the service.
type PlaceOrderRequest struct {
	Products []OrderLineRequest `json:"products" validate:"dive"`
}

// OrderLineRequest is one requested line of an order.
type OrderLineRequest struct {
	Product  string `json:"product" validate:"required,uuid"`
	Quantity int    `json:"quantity"`
}

// --- Handlers ---

// PlaceOrder handles POST /api/orders/create.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	lines := make([]service.OrderLineInput, 0, len(req.Products))
	for _, l := range req.Products {
		lines = append(lines, service.OrderLineInput{ProductID: l.Product, Quantity: l.Quantity})
	}

	order, err := h.service.PlaceOrder(r.Context(), middleware.UserIDFromContext(r.Context()), lines)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, httputil.Payload{"order": order})
}

// ListOrders handles GET /api/orders/my-orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"orders": orders})
}
