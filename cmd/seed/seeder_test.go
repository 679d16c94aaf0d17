package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightmart/insightmart/pkg/httpclient"
)

// fakeAPI records the calls a seed run makes and answers like the real API.
type fakeAPI struct {
	mu          sync.Mutex
	existing    map[string]bool
	skuTaken    bool
	cartAdds    int
	orderLines  int
	reviewCount int
}

func (f *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	r.Post("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.existing[body["email"]] {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "User already exists"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "token": body["role"] + "-token"})
	})
	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": "login-token"})
	})
	r.Post("/api/products/bulk", func(w http.ResponseWriter, r *http.Request) {
		if f.skuTaken {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "SKU already exists"})
			return
		}
		var defs []productDef
		_ = json.NewDecoder(r.Body).Decode(&defs)
		products := make([]map[string]any, 0, len(defs))
		for _, d := range defs {
			products = append(products, map[string]any{"id": "id-" + d.SKU, "sku": d.SKU, "stock": d.Stock})
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "products": products})
	})
	r.Get("/api/products", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": []map[string]any{
			{"id": "existing-1", "sku": "DEMO-101", "stock": 10},
			{"id": "existing-2", "sku": "DEMO-102", "stock": 1},
		}})
	})
	r.Post("/api/cart/add", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.cartAdds++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	r.Post("/api/orders/create", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Products []map[string]any `json:"products"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.orderLines = len(body.Products)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
	})
	r.Post("/api/reviews", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.reviewCount++
		if f.reviewCount == 1 && f.skuTaken {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "You already reviewed this product"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
	})
	return r
}

func newSeeder(t *testing.T, api *fakeAPI) *Seeder {
	t.Helper()
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)
	return NewSeeder(srv.URL+"/", httpclient.New(httpclient.DefaultConfig()), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var (
	testSeller   = account{Name: "S", Email: "seller@example.com", Password: "pw", Role: "seller"}
	testCustomer = account{Name: "C", Email: "customer@example.com", Password: "pw", Role: "customer"}
)

func TestSeeder_FreshInstance(t *testing.T) {
	api := &fakeAPI{}
	seeder := newSeeder(t, api)

	summary, err := seeder.Run(t.Context(), testSeller, testCustomer, demoCatalog(2))

	require.NoError(t, err)
	assert.Equal(t, Summary{Products: 8, Orders: 1, Reviews: 3}, summary)
	assert.Equal(t, 3, api.cartAdds)
	assert.Equal(t, 3, api.orderLines)
}

func TestSeeder_AlreadySeeded(t *testing.T) {
	api := &fakeAPI{
		existing: map[string]bool{testSeller.Email: true, testCustomer.Email: true},
		skuTaken: true,
	}
	seeder := newSeeder(t, api)

	summary, err := seeder.Run(t.Context(), testSeller, testCustomer, demoCatalog(2))

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Products)
	// existing-2 has a single unit left and is not ordered.
	assert.Equal(t, 1, api.orderLines)
	assert.Equal(t, 0, summary.Reviews)
}

func TestDemoCatalog(t *testing.T) {
	catalog := demoCatalog(3)

	require.Len(t, catalog, 12)
	assert.Equal(t, "DEMO-101", catalog[0].SKU)
	assert.Equal(t, "49.99", catalog[0].Price.String())
	assert.True(t, catalog[0].Discount.IsZero())
	assert.True(t, catalog[1].Discount.Equal(decimal.NewFromInt(10)))
	assert.Len(t, demoCatalog(99), 20)
}
