package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// --- products ---

type memProducts struct {
	mu       sync.Mutex
	items    map[string]domain.Product
	failNext error
	// locked records GetForUpdate calls in order.
	locked []string
}

func newMemProducts(products ...domain.Product) *memProducts {
	m := &memProducts{items: make(map[string]domain.Product)}
	for _, p := range products {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) get(id string) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memProducts) snapshot() map[string]domain.Product {
	cp := make(map[string]domain.Product, len(m.items))
	for k, v := range m.items {
		cp[k] = v
	}
	return cp
}

func (m *memProducts) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.SKU == p.SKU {
			return apperrors.AlreadyExists(`Product with SKU "` + p.SKU + `" already exists`)
		}
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) CreateMany(_ context.Context, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		for _, existing := range m.items {
			if existing.SKU == p.SKU {
				return apperrors.AlreadyExists("One or more products have duplicate SKUs")
			}
		}
	}
	for _, p := range products {
		m.items[p.ID] = p
	}
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, err
	}
	p, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("Product")
	}
	return &p, nil
}

func (m *memProducts) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	m.locked = append(m.locked, id)
	m.mu.Unlock()
	return m.GetByID(ctx, id)
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) match(f domain.ProductFilter) []domain.Product {
	out := []domain.Product{}
	for _, p := range m.items {
		if f.OwnerID != "" && !p.OwnedBy(f.OwnerID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) &&
			!strings.Contains(strings.ToLower(p.SKU), strings.ToLower(f.Search)) {
			continue
		}
		if f.Category != "" && p.Category != domain.NormalizeCategory(f.Category) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.match(f)
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := min(start+f.Limit, len(all))
	return all[start:end], len(all), nil
}

func (m *memProducts) Find(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.match(f), nil
}

func (m *memProducts) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return apperrors.NotFound("Product")
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) Delete(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || !p.OwnedBy(ownerID) {
		return apperrors.NotFound("Product")
	}
	delete(m.items, id)
	return nil
}

func (m *memProducts) DeleteByCategory(_ context.Context, ownerID, category string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.items {
		if p.OwnedBy(ownerID) && p.Category == category {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *memProducts) DecrementStock(_ context.Context, id string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	m.items[id] = p
	return true, nil
}

func (m *memProducts) UpdateRating(_ context.Context, id string, s domain.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return apperrors.NotFound("Product")
	}
	p.Rating = s.Average
	p.Reviews = s.Count
	m.items[id] = p
	return nil
}

// --- orders ---

type memOrders struct {
	mu        sync.Mutex
	items     []domain.Order
	createErr error
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.items = append(m.items, *o)
	return nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].UserID == userID {
			o := m.items[i]
			o.Lines = append([]domain.OrderLine(nil), o.Lines...)
			out = append(out, o)
		}
	}
	return out, nil
}

// --- reviews ---

type memReviews struct {
	mu    sync.Mutex
	items []domain.Review
}

func (m *memReviews) Create(_ context.Context, rv *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.UserID == rv.UserID && r.ProductID == rv.ProductID {
			return apperrors.Conflict("You already reviewed this product")
		}
	}
	m.items = append(m.items, *rv)
	return nil
}

func (m *memReviews) GetByID(_ context.Context, id string) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, apperrors.NotFound("Review")
}

func (m *memReviews) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.items {
		if r.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("Review")
}

func (m *memReviews) ListByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Review{}
	for _, r := range m.items {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviews) Ratings(_ context.Context, productID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, r := range m.items {
		if r.ProductID == productID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

// --- transactor ---

type memRepos struct {
	products *memProducts
	orders   *memOrders
	reviews  *memReviews
}

func (r memRepos) Products() repository.ProductRepository { return r.products }
func (r memRepos) Orders() repository.OrderRepository     { return r.orders }
func (r memRepos) Reviews() repository.ReviewRepository   { return r.reviews }

// memTx restores the stores when fn fails, like a rolled back transaction.
type memTx struct {
	repos memRepos
}

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	t.repos.products.mu.Lock()
	products := t.repos.products.snapshot()
	t.repos.products.mu.Unlock()

	t.repos.orders.mu.Lock()
	orders := append([]domain.Order(nil), t.repos.orders.items...)
	t.repos.orders.mu.Unlock()

	t.repos.reviews.mu.Lock()
	reviews := append([]domain.Review(nil), t.repos.reviews.items...)
	t.repos.reviews.mu.Unlock()

	if err := fn(ctx, t.repos); err != nil {
		t.repos.products.mu.Lock()
		t.repos.products.items = products
		t.repos.products.mu.Unlock()

		t.repos.orders.mu.Lock()
		t.repos.orders.items = orders
		t.repos.orders.mu.Unlock()

		t.repos.reviews.mu.Lock()
		t.repos.reviews.items = reviews
		t.repos.reviews.mu.Unlock()
		return err
	}
	return nil
}

// --- carts ---

type memCarts struct {
	mu    sync.Mutex
	items map[string]domain.Cart
	// raceOnSave bumps the stored version before this many SaveIfVersion calls.
	raceOnSave int
	saveErr    error
	saves      int
}

func newMemCarts() *memCarts {
	return &memCarts{items: make(map[string]domain.Cart)}
}

func (m *memCarts) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[userID]
	if !ok {
		return nil, apperrors.NotFound("Cart")
	}
	c.Items = append([]domain.CartLine{}, c.Items...)
	return &c, nil
}

func (m *memCarts) Save(_ context.Context, c *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	c.Version++
	m.store(c)
	return nil
}

func (m *memCarts) SaveIfVersion(_ context.Context, c *domain.Cart, expected int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return false, m.saveErr
	}
	if m.raceOnSave > 0 {
		m.raceOnSave--
		stored := m.items[c.UserID]
		stored.UserID = c.UserID
		stored.Version++
		m.items[c.UserID] = stored
	}
	if m.items[c.UserID].Version != expected {
		return false, nil
	}
	c.Version = expected + 1
	m.store(c)
	return true, nil
}

func (m *memCarts) store(c *domain.Cart) {
	stored := *c
	stored.Items = make([]domain.CartLine, len(c.Items))
	for i, l := range c.Items {
		stored.Items[i] = domain.CartLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	m.items[c.UserID] = stored
}

func (m *memCarts) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

// --- analytics ---

// memAnalytics joins memOrders with memProducts like the SQL query does.
type memAnalytics struct {
	orders   *memOrders
	products *memProducts
}

func (m *memAnalytics) SellerOrderLines(_ context.Context, sellerID string) ([]domain.SellerOrderLine, error) {
	m.orders.mu.Lock()
	defer m.orders.mu.Unlock()
	m.products.mu.Lock()
	defer m.products.mu.Unlock()
	var out []domain.SellerOrderLine
	for _, o := range m.orders.items {
		for _, l := range o.Lines {
			p, ok := m.products.items[l.ProductID]
			if !ok || !p.OwnedBy(sellerID) {
				continue
			}
			out = append(out, domain.SellerOrderLine{
				OrderID: o.ID, OrderedAt: o.CreatedAt, ProductID: p.ID, Name: p.Name,
				Category: p.Category, Price: p.Price, Discount: p.Discount, Quantity: l.Quantity,
			})
		}
	}
	return out, nil
}

// memReportCache is an AnalyticsCache without expiry.
type memReportCache struct {
	mu          sync.Mutex
	items       map[string]*domain.SellerReport
	invalidated []string
}

func newMemReportCache() *memReportCache {
	return &memReportCache{items: make(map[string]*domain.SellerReport)}
}

func (m *memReportCache) Get(_ context.Context, sellerID string) (*domain.SellerReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[sellerID]
	if !ok {
		return nil, apperrors.NotFound("Report")
	}
	return r, nil
}

func (m *memReportCache) Set(_ context.Context, sellerID string, r *domain.SellerReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[sellerID] = r
	return nil
}

func (m *memReportCache) Invalidate(_ context.Context, sellerIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range sellerIDs {
		delete(m.items, id)
	}
	m.invalidated = append(m.invalidated, sellerIDs...)
	return nil
}

// --- events ---

type recordedEvent struct {
	kind      string
	id        string
	ownerID   string
	sellerIDs []string
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (r *recordingEvents) record(e recordedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) ProductCreated(_ context.Context, p *domain.Product) error {
	return r.record(recordedEvent{kind: "product.created", id: p.ID})
}

func (r *recordingEvents) ProductUpdated(_ context.Context, p *domain.Product) error {
	return r.record(recordedEvent{kind: "product.updated", id: p.ID})
}

func (r *recordingEvents) ProductDeleted(_ context.Context, id, ownerID string) error {
	return r.record(recordedEvent{kind: "product.deleted", id: id, ownerID: ownerID})
}

func (r *recordingEvents) OrderPlaced(_ context.Context, o *domain.Order, sellerIDs []string) error {
	return r.record(recordedEvent{kind: "order.placed", id: o.ID, sellerIDs: sellerIDs})
}

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.kind
	}
	return out
}

var errStoreDown = errors.New("connection refused")

// serialTransactor serialises transactions the way row locks serialise
// orders for the same product.
type serialTransactor struct {
	mu   *sync.Mutex
	next repository.Transactor
}

func (s *serialTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.WithinTx(ctx, fn)
}

// --- users ---

type memUsers struct {
	mu    sync.Mutex
	items map[string]domain.User
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{items: make(map[string]domain.User)}
	for _, u := range users {
		m.items[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("User already exists")
		}
	}
	m.items[u.ID] = *u
	return nil
}

func (m *memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("User")
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m *memUsers) GetByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID })
}

func (m *memUsers) LinkGoogle(_ context.Context, userID, googleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[userID]
	if !ok {
		return apperrors.NotFound("User")
	}
	u.GoogleID = &googleID
	m.items[userID] = u
	return nil
}

// stubTokens signs "token-<user id>".
type stubTokens struct{}

func (stubTokens) GenerateAccessToken(u *domain.User) (string, error) {
	return "token-" + u.ID, nil
}
