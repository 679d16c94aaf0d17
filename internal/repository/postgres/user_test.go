package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightmart/insightmart/internal/domain"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

var userCols = []string{"id", "name", "email", "role", "password_hash", "google_id", "created_at"}

func TestUserRepository_Create_PasswordUser(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	u := &domain.User{ID: customerID, Name: "Ada", Email: "ada@example.com", Role: domain.RoleCustomer, PasswordHash: "hash", CreatedAt: now}

	mock.ExpectExec("INSERT INTO users").
		WithArgs(customerID, "Ada", "ada@example.com", strPtr("hash"), (*string)(nil), domain.RoleCustomer, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_GoogleUserHasNoPassword(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	u := &domain.User{ID: customerID, Name: "Ada", Email: "ada@example.com", Role: domain.RoleCustomer, GoogleID: strPtr("g-1"), CreatedAt: now}

	mock.ExpectExec("INSERT INTO users").
		WithArgs(customerID, "Ada", "ada@example.com", (*string)(nil), strPtr("g-1"), domain.RoleCustomer, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec("INSERT INTO users").WillReturnError(uniqueViolation("users_email_key"))

	err := repo.Create(context.Background(), &domain.User{ID: customerID, Email: "ada@example.com"})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.ErrorContains(t, err, "User already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("Ada@Example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(customerID, "Ada", "ada@example.com", domain.RoleSeller, "hash", (*string)(nil), now))

	u, err := repo.GetByEmail(context.Background(), "Ada@Example.com")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, u.Role)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Nil(t, u.GoogleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByGoogleID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE google_id").
		WithArgs("g-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByGoogleID(context.Background(), "g-1")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_LinkGoogle(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec("UPDATE users SET google_id").
		WithArgs("g-1", customerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.LinkGoogle(context.Background(), customerID, "g-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
