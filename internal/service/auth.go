package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(user *domain.User) (string, error)
}

// SignupInput holds the parameters for creating an account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginInput holds the parameters for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is a signed-in user and their access token.
type AuthResult struct {
	Token string
	User  *domain.User
}

// AuthService implements account signup and password login.
type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *slog.Logger
	cost   int
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
		cost:   bcryptCost,
	}
}

// Signup creates an account with a hashed password and signs the user in.
// The role defaults to customer.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.InvalidInput("All fields are required")
	}
	if len(input.Password) < MinPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	role, ok := domain.NormalizeRole(input.Role)
	if !ok {
		return nil, apperrors.InvalidInput("Invalid role selected")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.signIn(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)
	return result, nil
}

// Login checks an email and password. Unknown emails, accounts without a
// password and wrong passwords all fail the same way.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.InvalidInput("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	result, err := s.signIn(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return result, nil
}

func (s *AuthService) signIn(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
