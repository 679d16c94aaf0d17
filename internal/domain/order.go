package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an immutable purchase record. TotalAmount is fixed at creation.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Lines       []OrderLine     `json:"products"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderLine is a requested product and quantity as submitted by the customer.
// Product is filled in when orders are listed and is absent for deleted products.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// ItemCount returns the total number of units ordered.
func (o *Order) ItemCount() int {
	var n int
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}
