package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightmart/insightmart/pkg/httpclient"
)

const upstream = "insightmart api"

var errConflict = errors.New("already exists")

// account is a demo user the seeder signs up, or logs in as when the email
// is taken.
type account struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type productDef struct {
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Discount decimal.Decimal `json:"discount"`
	Category string          `json:"category"`
	Stock    int             `json:"stock"`
}

type seededProduct struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

// Seeder drives the public API to populate a fresh InsightMart instance.
type Seeder struct {
	baseURL string
	client  *httpclient.Client
	logger  *slog.Logger
}

// NewSeeder creates a seeder talking to the API at baseURL.
func NewSeeder(baseURL string, client *httpclient.Client, logger *slog.Logger) *Seeder {
	return &Seeder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Summary counts what a seed run created.
type Summary struct {
	Products int
	Orders   int
	Reviews  int
}

// Run creates the seller catalog, then has the customer fill a cart, place
// an order and review what they bought.
func (s *Seeder) Run(ctx context.Context, seller, customer account, catalog []productDef) (Summary, error) {
	var summary Summary

	sellerToken, err := s.authenticate(ctx, seller)
	if err != nil {
		return summary, fmt.Errorf("authenticate seller: %w", err)
	}
	customerToken, err := s.authenticate(ctx, customer)
	if err != nil {
		return summary, fmt.Errorf("authenticate customer: %w", err)
	}

	products, err := s.createProducts(ctx, sellerToken, catalog)
	if err != nil {
		return summary, fmt.Errorf("create products: %w", err)
	}
	summary.Products = len(products)
	s.logger.Info("catalog ready", slog.Int("products", len(products)))

	var lines []map[string]any
	for i, p := range products {
		if i == 3 {
			break
		}
		if p.Stock < 2 {
			continue
		}
		body := map[string]any{"productId": p.ID, "quantity": 2}
		if err := s.call(ctx, http.MethodPost, "/api/cart/add", customerToken, body, nil); err != nil {
			return summary, fmt.Errorf("add %s to cart: %w", p.SKU, err)
		}
		lines = append(lines, map[string]any{"product": p.ID, "quantity": 2})
	}
	if len(lines) == 0 {
		s.logger.Warn("no product has stock left, skipping order")
		return summary, nil
	}

	if err := s.call(ctx, http.MethodPost, "/api/orders/create", customerToken, map[string]any{"products": lines}, nil); err != nil {
		return summary, fmt.Errorf("place order: %w", err)
	}
	summary.Orders++

	for i, line := range lines {
		body := map[string]any{
			"productId": line["product"],
			"rating":    5 - i,
			"comment":   "Seeded review",
		}
		err := s.call(ctx, http.MethodPost, "/api/reviews", customerToken, body, nil)
		switch {
		case errors.Is(err, errConflict):
			s.logger.Info("review already present", slog.Any("product_id", line["product"]))
		case err != nil:
			return summary, fmt.Errorf("add review: %w", err)
		default:
			summary.Reviews++
		}
	}

	return summary, nil
}

func (s *Seeder) authenticate(ctx context.Context, a account) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := s.call(ctx, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": a.Name, "email": a.Email, "password": a.Password, "role": a.Role,
	}, &out)
	if errors.Is(err, errConflict) {
		s.logger.Info("account exists, logging in", slog.String("email", a.Email))
		err = s.call(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": a.Email, "password": a.Password,
		}, &out)
	}
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// createProducts bulk-creates the catalog. When any SKU is taken the seller's
// existing products are used instead.
func (s *Seeder) createProducts(ctx context.Context, token string, catalog []productDef) ([]seededProduct, error) {
	var out struct {
		Products []seededProduct `json:"products"`
	}
	err := s.call(ctx, http.MethodPost, "/api/products/bulk", token, catalog, &out)
	if errors.Is(err, errConflict) {
		s.logger.Info("catalog already seeded, reusing seller products")
		err = s.call(ctx, http.MethodGet, "/api/products?limit=100", token, nil, &out)
	}
	if err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (s *Seeder) call(ctx context.Context, method, path, token string, body, dst any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusConflict {
		_ = resp.Body.Close()
		return fmt.Errorf("%s %s: %w", method, path, errConflict)
	}
	if dst == nil {
		dst = &struct{}{}
	}
	return httpclient.DecodeJSON(resp, upstream, dst)
}
