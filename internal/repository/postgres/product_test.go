package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightmart/insightmart/internal/domain"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

func insertExpectation(mock pgxmock.PgxPoolIface, p domain.Product) *pgxmock.ExpectedExec {
	return mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Name, p.Slug, p.SKU, pgxmock.AnyArg(), pgxmock.AnyArg(), p.Category,
			p.Rating, p.Reviews, p.Stock, p.OwnerID, p.CreatedAt, p.UpdatedAt,
		)
}

func TestProductRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	insertExpectation(mock, p).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_DuplicateSKU(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	insertExpectation(mock, p).WillReturnError(uniqueViolation("products_sku_key"))

	err := repo.Create(context.Background(), &p)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, `Product with SKU "LAMP-01" already exists`, appErr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateMany(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	a := sampleProduct()
	b := sampleProduct()
	b.ID, b.SKU = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f", "LAMP-02"

	mock.ExpectBegin()
	insertExpectation(mock, a).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	insertExpectation(mock, b).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateMany(context.Background(), []domain.Product{a, b}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateMany_DuplicateRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	a := sampleProduct()
	b := sampleProduct()

	mock.ExpectBegin()
	insertExpectation(mock, a).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	insertExpectation(mock, b).WillReturnError(uniqueViolation("products_sku_key"))
	mock.ExpectRollback()

	err := repo.CreateMany(context.Background(), []domain.Product{a, b})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.ErrorContains(t, err, "One or more products have duplicate SKUs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))

	got, err := repo.GetByID(context.Background(), p.ID)

	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.True(t, dec("100").Equal(got.Price))
	assert.True(t, dec("10").Equal(got.Discount))
	assert.Equal(t, sellerID, *got.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(productID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), productID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorContains(t, err, "Product not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetForUpdate_LocksRow(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id = \\$1 FOR UPDATE").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))

	got, err := repo.GetForUpdate(context.Background(), p.ID)

	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDs(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id = ANY").
		WithArgs([]string{p.ID, "missing"}).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))

	got, err := repo.GetByIDs(context.Background(), []string{p.ID, "missing"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDs_EmptySkipsQuery(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	got, err := repo.GetByIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_FilterAndSort(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()
	minPrice := dec("50")
	minRating := 4.0

	filter := domain.ProductFilter{
		OwnerID:   sellerID,
		Search:    "50%_lamp",
		Category:  " Lighting ",
		MinPrice:  &minPrice,
		MinRating: &minRating,
		SortBy:    domain.SortByPrice,
		SortDesc:  true,
		Page:      2,
		Limit:     5,
	}

	row := append(productRow(p), 6)
	mock.ExpectQuery("SELECT .+ count\\(\\*\\) OVER\\(\\) AS total_count FROM products WHERE owner_id = \\$1 AND \\(name ILIKE \\$2 OR sku ILIKE \\$2\\) AND category = \\$3 AND price >= \\$4 AND rating >= \\$5 ORDER BY price DESC, id LIMIT \\$6 OFFSET \\$7").
		WithArgs(sellerID, `%50\%\_lamp%`, "lighting", pgxmock.AnyArg(), 4.0, 5, 5).
		WillReturnRows(pgxmock.NewRows(productColsWithCount).AddRow(row...))

	products, total, err := repo.List(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 6, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_DefaultsAndUnknownSort(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("FROM products ORDER BY created_at DESC, id LIMIT \\$1 OFFSET \\$2").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(productColsWithCount))

	products, total, err := repo.List(context.Background(), domain.ProductFilter{SortBy: "owner; DROP TABLE products"})

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_PastLastPageCounts(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE category = \\$1").
		WithArgs("lighting", 10, 90).
		WillReturnRows(pgxmock.NewRows(productColsWithCount))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM products WHERE category = \\$1").
		WithArgs("lighting").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	products, total, err := repo.List(context.Background(), domain.ProductFilter{Category: "lighting", Page: 10, Limit: 10})

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Find(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()
	maxPrice := dec("150")

	mock.ExpectQuery("SELECT .+ FROM products WHERE owner_id = \\$1 AND \\(name ILIKE \\$2 OR sku ILIKE \\$2\\) AND price <= \\$3 ORDER BY created_at DESC").
		WithArgs(sellerID, "%lamp%", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))

	got, err := repo.Find(context.Background(), domain.ProductFilter{OwnerID: sellerID, Search: "lamp", MaxPrice: &maxPrice})

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(p.Name, p.Slug, p.SKU, pgxmock.AnyArg(), pgxmock.AnyArg(), p.Category, p.Stock, pgxmock.AnyArg(), p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), &p))
	assert.True(t, p.UpdatedAt.After(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Update(context.Background(), &p), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_ScopedToOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products WHERE id = \\$1 AND owner_id = \\$2").
		WithArgs(productID, customerID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), productID, customerID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DeleteByCategory(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products WHERE owner_id = \\$1 AND category = \\$2").
		WithArgs(sellerID, "lighting").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := repo.DeleteByCategory(context.Background(), sellerID, " LIGHTING")

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"enough stock", 1, true},
		{"not enough stock", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewProductRepository(mock)

			mock.ExpectExec("UPDATE products SET stock = stock - \\$1 .+ WHERE id = \\$2 AND stock >= \\$1").
				WithArgs(2, productID).
				WillReturnResult(pgxmock.NewResult("UPDATE", tc.affected))

			ok, err := repo.DecrementStock(context.Background(), productID, 2)

			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProductRepository_DecrementStock_Error(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products").WillReturnError(errors.New("connection reset"))

	_, err := repo.DecrementStock(context.Background(), productID, 1)

	assert.ErrorContains(t, err, "decrement stock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateRating(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products SET rating = \\$1, reviews = \\$2 WHERE id = \\$3").
		WithArgs(3.67, 3, productID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateRating(context.Background(), productID, domain.RatingSummary{Average: 3.67, Count: 3})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%a\%b\_c\\d%`, containsPattern(`a%b_c\d`))
}
