package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insightmart/insightmart/internal/domain"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

const cartKeyPrefix = "cart:"

var errVersionMismatch = errors.New("cart version mismatch")

// cartRecord is the stored form of a cart. Product details are never stored.
type cartRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Lines     []cartLine `json:"lines"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type cartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func toRecord(c *domain.Cart) cartRecord {
	rec := cartRecord{
		ID:        c.ID,
		UserID:    c.UserID,
		Lines:     make([]cartLine, len(c.Items)),
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for i, l := range c.Items {
		rec.Lines[i] = cartLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return rec
}

func (rec cartRecord) toDomain() *domain.Cart {
	c := &domain.Cart{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Items:     make([]domain.CartLine, len(rec.Lines)),
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	for i, l := range rec.Lines {
		c.Items[i] = domain.CartLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return c
}

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository. Carts expire
// ttl after their last write.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cart by user ID.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("Cart")
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var rec cartRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return rec.toDomain(), nil
}

// Save stores a cart unconditionally and refreshes its TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(toRecord(cart))
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKeyPrefix+cart.UserID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// SaveIfVersion stores cart with version expectedVersion+1 if the stored cart
// is still at expectedVersion. A missing cart counts as version 0.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error) {
	key := cartKeyPrefix + cart.UserID

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get cart: %w", err)
		default:
			var rec cartRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("unmarshal cart: %w", err)
			}
			current = rec.Version
		}

		if current != expectedVersion {
			return errVersionMismatch
		}

		next := toRecord(cart)
		next.Version = expectedVersion + 1
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		cart.Version = expectedVersion + 1
		return true, nil
	case errors.Is(err, errVersionMismatch), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes a cart.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
