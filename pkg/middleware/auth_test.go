package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightmart/insightmart/pkg/logger"
)

func fakeValidator(token string) (*Claims, error) {
	switch token {
	case "good":
		return &Claims{UserID: "u-1", Email: "ana@example.com", Role: "seller"}, nil
	case "old":
		return nil, ErrTokenExpired
	default:
		return nil, errors.New("signature is invalid")
	}
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "No token provided"},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, "No token provided"},
		{"bad signature", "Bearer forged", http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer old", http.StatusUnauthorized, "Token expired"},
		{"bearer token", "Bearer good", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, ""},
		{"bare token", "good", http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser, gotRole, gotLogUser string
			h := Auth(fakeValidator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserIDFromContext(r.Context())
				gotRole = RoleFromContext(r.Context())
				gotLogUser = logger.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/cart/my-cart", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status != http.StatusOK {
				body := decodeBody(t, rec)
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tc.message, body["message"])
				return
			}
			assert.Equal(t, "u-1", gotUser)
			assert.Equal(t, "seller", gotRole)
			assert.Equal(t, "u-1", gotLogUser)
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := Auth(fakeValidator)(RequireRole("seller")(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	customer := func(string) (*Claims, error) { return &Claims{UserID: "u-2", Role: "customer"}, nil }
	h = Auth(customer)(RequireRole("seller")(okHandler))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied: requires seller role", decodeBody(t, rec)["message"])
}

func TestContextAccessors_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, ClaimsFromContext(req.Context()))
	assert.Empty(t, UserIDFromContext(req.Context()))
	assert.Empty(t, RoleFromContext(req.Context()))
}
