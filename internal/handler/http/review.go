package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/insightmart/insightmart/internal/service"
	"github.com/insightmart/insightmart/pkg/httputil"
	"github.com/insightmart/insightmart/pkg/middleware"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// AddReviewRequest is the JSON body for POST /api/reviews.
type AddReviewRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required"`
	Comment   string `json:"comment"`
}

// AddReview handles POST /api/reviews.
func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var req AddReviewRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	review, err := h.service.AddReview(r.Context(), middleware.UserIDFromContext(r.Context()), service.AddReviewInput{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, httputil.Payload{"review": review})
}

// ListReviews handles GET /api/reviews/{productId}.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"), "product")
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{"reviews": reviews})
}

// DeleteReview handles DELETE /api/reviews/{id}. Only the author may delete.
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"), "review")
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Review deleted")
}
