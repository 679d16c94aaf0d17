package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/pkg/database"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

const userColumns = `id, name, email, role, COALESCE(password_hash, ''), google_id, created_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	var hash *string
	if u.PasswordHash != "" {
		hash = &u.PasswordHash
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, google_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		u.ID, u.Name, u.Email, hash, u.GoogleID, u.Role, u.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperrors.AlreadyExists("User already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

// GetByGoogleID retrieves the user linked to a Google account.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.GoogleID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("User")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// LinkGoogle attaches a Google account id to a user.
func (r *UserRepository) LinkGoogle(ctx context.Context, userID, googleID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET google_id = $1, updated_at = NOW() WHERE id = $2`,
		googleID, userID,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperrors.AlreadyExists("Google account already linked")
		}
		return fmt.Errorf("link google account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("User")
	}
	return nil
}
