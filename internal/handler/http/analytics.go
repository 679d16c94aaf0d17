package http

import (
	"log/slog"
	"net/http"

	"github.com/insightmart/insightmart/pkg/httputil"
	"github.com/insightmart/insightmart/pkg/middleware"
)

// AnalyticsHandler serves seller reports and the customer spending rollup.
type AnalyticsHandler struct {
	service AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(svc AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: svc,
		logger:  logger,
	}
}

// SellerReport handles GET /api/analytics. The report sections are written
// at the top level of the body.
func (h *AnalyticsHandler) SellerReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SellerReport(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"salesPerProduct":   report.SalesPerProduct,
		"mostOrdered":       report.MostOrdered,
		"orderCount":        report.OrderCount,
		"categoryBreakdown": report.CategoryBreakdown,
		"summary":           report.Summary,
	})
}

// CustomerSummary handles GET /api/analytics/me.
func (h *AnalyticsHandler) CustomerSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.CustomerSummary(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"orderCount": summary.OrderCount,
		"totalSpent": summary.TotalSpent,
		"totalUnits": summary.TotalUnits,
	})
}
