package domain

import "time"

// Cart is a customer's pending selection. One cart exists per customer.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartLine `json:"products"`
	Version   int        `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartLine is one product in a cart. Product is filled in for responses only.
type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// FindLine returns the index of the line for productID, or -1.
func (c *Cart) FindLine(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges quantity into an existing line or appends a new one.
func (c *Cart) Add(productID string, quantity int) {
	if i := c.FindLine(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		return
	}
	c.Items = append(c.Items, CartLine{ProductID: productID, Quantity: quantity})
}

// Remove deletes the line for productID and reports whether one existed.
func (c *Cart) Remove(productID string) bool {
	i := c.FindLine(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

// ProductIDs returns the product ids of all lines, in cart order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.Items))
	for i, l := range c.Items {
		ids[i] = l.ProductID
	}
	return ids
}
