package postgres

import (
	"context"
	"fmt"

	"github.com/insightmart/insightmart/internal/repository"
	"github.com/insightmart/insightmart/pkg/database"
)

// Transactor implements repository.Transactor on a pgx pool.
type Transactor struct {
	db database.DBTX
}

// NewTransactor creates a Transactor.
func NewTransactor(db database.DBTX) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn with repositories bound to one transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepositories{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txRepositories struct {
	db database.DBTX
}

func (r *txRepositories) Products() repository.ProductRepository { return NewProductRepository(r.db) }
func (r *txRepositories) Orders() repository.OrderRepository     { return NewOrderRepository(r.db) }
func (r *txRepositories) Reviews() repository.ReviewRepository   { return NewReviewRepository(r.db) }
