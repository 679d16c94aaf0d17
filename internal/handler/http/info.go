package http

import (
	"net/http"

	"github.com/insightmart/insightmart/pkg/httputil"
)

// Version is reported by the API info endpoints.
const Version = "1.0.0"

type routeGroup struct {
	Base   string   `json:"base"`
	Routes []string `json:"routes"`
}

var documentedRoutes = map[string]routeGroup{
	"auth": {
		Base:   "/api/auth",
		Routes: []string{"POST /signup", "POST /login", "GET /google", "GET /google/callback"},
	},
	"products": {
		Base: "/api/products",
		Routes: []string{
			"GET /", "GET /search", "GET /filter", "GET /{id}",
			"POST /", "POST /bulk", "PUT /{id}", "PATCH /{id}/price-discount",
			"DELETE /{id}", "DELETE /",
			"GET /public", "GET /public/{id}",
		},
	},
	"orders": {
		Base:   "/api/orders",
		Routes: []string{"POST /create", "GET /my-orders"},
	},
	"cart": {
		Base:   "/api/cart",
		Routes: []string{"POST /add", "GET /my-cart", "PUT /update", "DELETE /remove"},
	},
	"reviews": {
		Base:   "/api/reviews",
		Routes: []string{"POST /", "GET /{productId}", "DELETE /{id}"},
	},
	"analytics": {
		Base:   "/api/analytics",
		Routes: []string{"GET /", "GET /me"},
	},
	"health": {
		Base:   "/health",
		Routes: []string{"GET /live", "GET /ready"},
	},
}

var availableEndpoints = []string{
	"/api/auth", "/api/products", "/api/orders", "/api/cart",
	"/api/reviews", "/api/analytics", "/health",
}

// Root handles GET / with a description of every route group.
func Root(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"message": "InsightMart API Server is running!",
		"version": Version,
		"documentation": map[string]any{
			"endpoints": documentedRoutes,
		},
	})
}

// APIInfo handles GET /api.
func APIInfo(w http.ResponseWriter, _ *http.Request) {
	endpoints := make(map[string]string, len(documentedRoutes))
	for name, g := range documentedRoutes {
		if name != "health" {
			endpoints[name] = g.Base
		}
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"message":   "InsightMart API",
		"version":   Version,
		"endpoints": endpoints,
	})
}

// NotFound answers unknown routes with a JSON body listing the route groups.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusNotFound, map[string]any{
		"success":            false,
		"message":            "Route " + r.Method + " " + r.URL.Path + " not found",
		"availableEndpoints": availableEndpoints,
	})
}

// MethodNotAllowed answers a known route called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
		Message: "Method " + r.Method + " not allowed on " + r.URL.Path,
	})
}
