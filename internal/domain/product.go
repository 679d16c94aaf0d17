package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product sort fields accepted by the catalog filter.
const (
	SortByCreatedAt = "createdAt"
	SortByPrice     = "price"
	SortByDiscount  = "discount"
	SortByRating    = "rating"
	SortByName      = "name"
	SortByReviews   = "reviews"
	SortByStock     = "stock"
)

// Product is a catalog entry owned by one seller.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
	Category  string          `json:"category"`
	Rating    float64         `json:"rating"`
	Reviews   int             `json:"reviews"`
	Stock     int             `json:"stock"`
	OwnerID   *string         `json:"owner,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// EffectivePrice returns the discounted unit price.
func (p *Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.Discount)
}

// OwnedBy reports whether sellerID owns the product.
func (p *Product) OwnedBy(sellerID string) bool {
	return p.OwnerID != nil && *p.OwnerID == sellerID
}

// Summary returns the fields shown when a product is embedded in a cart or order line.
func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		SKU:      p.SKU,
		Price:    p.Price,
		Discount: p.Discount,
		Category: p.Category,
		Stock:    p.Stock,
	}
}

// ProductSummary is a product embedded in a cart or order response.
type ProductSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Discount decimal.Decimal `json:"discount"`
	Category string          `json:"category"`
	Stock    int             `json:"stock"`
}

// ProductPatch holds a partial product update. Nil fields are left unchanged.
type ProductPatch struct {
	Name     *string
	SKU      *string
	Price    *decimal.Decimal
	Discount *decimal.Decimal
	Category *string
	Stock    *int
}

// Apply copies the set fields onto p. Category is normalised.
func (pp ProductPatch) Apply(p *Product) {
	if pp.Name != nil {
		p.Name = strings.TrimSpace(*pp.Name)
	}
	if pp.SKU != nil {
		p.SKU = strings.TrimSpace(*pp.SKU)
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Discount != nil {
		p.Discount = *pp.Discount
	}
	if pp.Category != nil {
		p.Category = NormalizeCategory(*pp.Category)
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
}

// ProductFilter narrows a catalog listing. A zero OwnerID lists every seller's products.
type ProductFilter struct {
	OwnerID     string
	Search      string
	Category    string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinDiscount *decimal.Decimal
	MaxDiscount *decimal.Decimal
	MinRating   *float64
	SortBy      string
	SortDesc    bool
	Page        int
	Limit       int
}

// NormalizeCategory lowercases and trims a category name.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// ValidSortFields returns the accepted sortBy values.
func ValidSortFields() []string {
	return []string{SortByCreatedAt, SortByPrice, SortByDiscount, SortByRating, SortByName, SortByReviews, SortByStock}
}

// IsValidSortField reports whether field is an accepted sortBy value.
func IsValidSortField(field string) bool {
	for _, f := range ValidSortFields() {
		if f == field {
			return true
		}
	}
	return false
}
