package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from the query string.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{Page: 1, Limit: DefaultLimit}
}

// FromRequest reads ?page= and ?limit=. Non-numeric or non-positive values
// fall back to the defaults; limit is capped at MaxLimit.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// Result is a page of items together with the totals the catalog reports.
type Result[T any] struct {
	Items        []T
	Page         int
	TotalPages   int
	TotalResults int
}

// NewResult builds a Result, computing the page count by ceiling division.
func NewResult[T any](items []T, total int, params Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Result[T]{
		Items:        items,
		Page:         params.Page,
		TotalPages:   (total + limit - 1) / limit,
		TotalResults: total,
	}
}
