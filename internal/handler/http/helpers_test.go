package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/pkg/health"
	"github.com/insightmart/insightmart/pkg/middleware"
)

const (
	sellerID   = "7f0c5d1e-2b4a-4c7e-9a1d-0e3f6b8c2d41"
	customerID = "c4a9e2b7-5d1f-4e3a-8b6c-9f0d2e1a7b35"
	productID  = "3b8e1f4a-6c2d-4a9e-b7f0-1d5c8e2a4b96"
	reviewID   = "9d2f6a1c-4e8b-4b3d-a5c7-2e0f9b1d6c83"

	sellerToken   = "seller-token"
	customerToken = "customer-token"
	expiredToken  = "expired-token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTokens(token string) (*middleware.Claims, error) {
	switch token {
	case sellerToken:
		return &middleware.Claims{UserID: sellerID, Email: "seller@example.com", Role: domain.RoleSeller}, nil
	case customerToken:
		return &middleware.Claims{UserID: customerID, Email: "customer@example.com", Role: domain.RoleCustomer}, nil
	case expiredToken:
		return nil, middleware.ErrTokenExpired
	default:
		return nil, errors.New("bad signature")
	}
}

type testEnv struct {
	auth      *mockAuth
	google    *mockGoogle
	catalog   *mockCatalog
	cart      *mockCart
	orders    *mockOrders
	reviews   *mockReviews
	analytics *mockAnalytics
	router    http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return buildTestEnv(t, true)
}

func buildTestEnv(t *testing.T, withGoogle bool) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:      new(mockAuth),
		google:    new(mockGoogle),
		catalog:   new(mockCatalog),
		cart:      new(mockCart),
		orders:    new(mockOrders),
		reviews:   new(mockReviews),
		analytics: new(mockAnalytics),
	}
	svc := Services{
		Auth:      env.auth,
		Catalog:   env.catalog,
		Cart:      env.cart,
		Orders:    env.orders,
		Reviews:   env.reviews,
		Analytics: env.analytics,
	}
	if withGoogle {
		svc.Google = env.google
	}
	cfg := RouterConfig{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		FrontendURL:        "http://localhost:5173",
		Tokens:             testTokens,
		Registry:           prometheus.NewRegistry(),
	}
	env.router = NewRouter(cfg, svc, health.NewHandler(), testLogger())

	t.Cleanup(func() {
		env.auth.AssertExpectations(t)
		env.google.AssertExpectations(t)
		env.catalog.AssertExpectations(t)
		env.cart.AssertExpectations(t)
		env.orders.AssertExpectations(t)
		env.reviews.AssertExpectations(t)
		env.analytics.AssertExpectations(t)
	})
	return env
}

// do sends a request through the full router. body may be nil, a string
// sent verbatim, or a value encoded as JSON.
func (e *testEnv) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
