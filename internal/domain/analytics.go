package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MostOrderedLimit is the number of products in the most-ordered ranking.
	MostOrderedLimit = 5
	// OrderDaysLimit caps the number of distinct days in the order-count series.
	// The cap keeps the earliest days, not a trailing window.
	OrderDaysLimit = 30
)

// SellerOrderLine is one order line for a product owned by the seller, joined
// with the product's current pricing.
type SellerOrderLine struct {
	OrderID   string
	OrderedAt time.Time
	ProductID string
	Name      string
	Category  string
	Price     decimal.Decimal
	Discount  decimal.Decimal
	Quantity  int
}

// ProductSales is the sales rollup of one product.
type ProductSales struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalSales    decimal.Decimal `json:"totalSales"`
}

// DailyOrderCount is the number of orders on a UTC calendar day. The day is
// serialized as _id, the key dashboards group by.
type DailyOrderCount struct {
	Date  string `json:"_id"`
	Count int    `json:"count"`
}

// CategorySales is the sales rollup of one category.
type CategorySales struct {
	Category      string          `json:"category"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalSales    decimal.Decimal `json:"totalSales"`
}

// AnalyticsSummary totals the per-product rollup.
type AnalyticsSummary struct {
	TotalRevenue           decimal.Decimal `json:"totalRevenue"`
	TotalUnits             int             `json:"totalUnits"`
	TotalProductsWithSales int             `json:"totalProductsWithSales"`
	TotalOrderDays         int             `json:"totalOrderDays"`
}

// SellerReport is the seller dashboard.
type SellerReport struct {
	SalesPerProduct   []ProductSales    `json:"salesPerProduct"`
	MostOrdered       []ProductSales    `json:"mostOrdered"`
	OrderCount        []DailyOrderCount `json:"orderCount"`
	CategoryBreakdown []CategorySales   `json:"categoryBreakdown"`
	Summary           AnalyticsSummary  `json:"summary"`
}

// BuildSellerReport aggregates lines into a seller report. Revenue uses each
// product's current price and discount, not the frozen order totals. Products
// and categories keep the order in which they first appear in lines.
func BuildSellerReport(lines []SellerOrderLine) *SellerReport {
	report := &SellerReport{
		SalesPerProduct:   []ProductSales{},
		MostOrdered:       []ProductSales{},
		OrderCount:        []DailyOrderCount{},
		CategoryBreakdown: []CategorySales{},
		Summary:           AnalyticsSummary{TotalRevenue: decimal.Zero},
	}

	productIdx := make(map[string]int)
	categoryIdx := make(map[string]int)
	dayOrders := make(map[string]map[string]struct{})

	for _, l := range lines {
		sales := LineTotal(l.Price, l.Discount, l.Quantity)

		i, ok := productIdx[l.ProductID]
		if !ok {
			i = len(report.SalesPerProduct)
			productIdx[l.ProductID] = i
			report.SalesPerProduct = append(report.SalesPerProduct, ProductSales{
				ProductID:  l.ProductID,
				Name:       l.Name,
				TotalSales: decimal.Zero,
			})
		}
		report.SalesPerProduct[i].TotalQuantity += l.Quantity
		report.SalesPerProduct[i].TotalSales = report.SalesPerProduct[i].TotalSales.Add(sales)

		j, ok := categoryIdx[l.Category]
		if !ok {
			j = len(report.CategoryBreakdown)
			categoryIdx[l.Category] = j
			report.CategoryBreakdown = append(report.CategoryBreakdown, CategorySales{
				Category:   l.Category,
				TotalSales: decimal.Zero,
			})
		}
		report.CategoryBreakdown[j].TotalQuantity += l.Quantity
		report.CategoryBreakdown[j].TotalSales = report.CategoryBreakdown[j].TotalSales.Add(sales)

		day := l.OrderedAt.UTC().Format(time.DateOnly)
		if dayOrders[day] == nil {
			dayOrders[day] = make(map[string]struct{})
		}
		dayOrders[day][l.OrderID] = struct{}{}
	}

	for day, orders := range dayOrders {
		report.OrderCount = append(report.OrderCount, DailyOrderCount{Date: day, Count: len(orders)})
	}
	sort.Slice(report.OrderCount, func(a, b int) bool {
		return report.OrderCount[a].Date < report.OrderCount[b].Date
	})
	if len(report.OrderCount) > OrderDaysLimit {
		report.OrderCount = report.OrderCount[:OrderDaysLimit]
	}

	// Sales are summed unrounded; rounding happens once per reported figure.
	for _, p := range report.SalesPerProduct {
		report.Summary.TotalRevenue = report.Summary.TotalRevenue.Add(p.TotalSales)
		report.Summary.TotalUnits += p.TotalQuantity
	}
	report.Summary.TotalRevenue = RoundMoney(report.Summary.TotalRevenue)
	for i := range report.SalesPerProduct {
		report.SalesPerProduct[i].TotalSales = RoundMoney(report.SalesPerProduct[i].TotalSales)
	}
	for i := range report.CategoryBreakdown {
		report.CategoryBreakdown[i].TotalSales = RoundMoney(report.CategoryBreakdown[i].TotalSales)
	}

	ranked := make([]ProductSales, len(report.SalesPerProduct))
	copy(ranked, report.SalesPerProduct)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].TotalQuantity > ranked[b].TotalQuantity
	})
	if len(ranked) > MostOrderedLimit {
		ranked = ranked[:MostOrderedLimit]
	}
	report.MostOrdered = ranked

	report.Summary.TotalProductsWithSales = len(report.SalesPerProduct)
	report.Summary.TotalOrderDays = len(report.OrderCount)

	return report
}

// CustomerSummary is a customer's spending rollup over frozen order totals.
type CustomerSummary struct {
	OrderCount int             `json:"orderCount"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	TotalUnits int             `json:"totalUnits"`
}

// SummarizeOrders builds a CustomerSummary from a customer's orders.
func SummarizeOrders(orders []Order) CustomerSummary {
	s := CustomerSummary{TotalSpent: decimal.Zero}
	for i := range orders {
		s.OrderCount++
		s.TotalSpent = s.TotalSpent.Add(orders[i].TotalAmount)
		s.TotalUnits += orders[i].ItemCount()
	}
	return s
}
