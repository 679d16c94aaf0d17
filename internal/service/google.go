package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/repository"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
	"github.com/insightmart/insightmart/pkg/httpclient"
)

// Google OAuth 2.0 endpoints.
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

const googleUpstream = "google"

// HTTPDoer sends an outbound request. *httpclient.BreakerClient implements it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// GoogleConfig holds the OAuth client registration. The endpoint URLs
// default to Google's.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

type googleToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type googleProfile struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// GoogleAuthService signs users in with Google. A Google account is matched
// by its id, then linked to an existing account with the same email, and
// otherwise becomes a new customer account.
type GoogleAuthService struct {
	cfg    GoogleConfig
	client HTTPDoer
	users  repository.UserRepository
	tokens TokenIssuer
	logger *slog.Logger
}

// NewGoogleAuthService creates a new Google sign-in service.
func NewGoogleAuthService(cfg GoogleConfig, client HTTPDoer, users repository.UserRepository, tokens TokenIssuer, logger *slog.Logger) *GoogleAuthService {
	if cfg.AuthURL == "" {
		cfg.AuthURL = GoogleAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = GoogleTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = GoogleUserInfoURL
	}
	return &GoogleAuthService{
		cfg:    cfg,
		client: client,
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (s *GoogleAuthService) AuthCodeURL(state string) string {
	q := url.Values{
		"client_id":     {s.cfg.ClientID},
		"redirect_uri":  {s.cfg.RedirectURL},
		"response_type": {"code"},
		"scope":         {"openid profile email"},
		"state":         {state},
		"prompt":        {"select_account"},
	}
	return s.cfg.AuthURL + "?" + q.Encode()
}

// SignIn exchanges an authorization code, reads the Google profile and
// returns the matching user with an access token.
func (s *GoogleAuthService) SignIn(ctx context.Context, code string) (*AuthResult, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("Authorization code is required")
	}

	token, err := s.exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, token)
	if err != nil {
		return nil, err
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, apperrors.Unauthorized("Google account has no email")
	}

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed in with google", slog.String("user_id", user.ID))
	return &AuthResult{Token: signed, User: user}, nil
}

func (s *GoogleAuthService) exchange(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
		"redirect_uri":  {s.cfg.RedirectURL},
		"grant_type":    {"authorization_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return "", upstreamFailure("exchange google code", err)
	}
	var tok googleToken
	if err := httpclient.DecodeJSON(resp, googleUpstream, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", apperrors.Unauthorized("google: no access token returned")
	}
	return tok.AccessToken, nil
}

func (s *GoogleAuthService) profile(ctx context.Context, accessToken string) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, upstreamFailure("fetch google profile", err)
	}
	var p googleProfile
	if err := httpclient.DecodeJSON(resp, googleUpstream, &p); err != nil {
		return nil, err
	}
	p.Email = domain.NormalizeEmail(p.Email)
	return &p, nil
}

// upstreamFailure keeps AppErrors from the breaker and maps transport
// failures to Unavailable.
func upstreamFailure(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, apperrors.Unavailable("Google sign-in is unavailable"))
}

func (s *GoogleAuthService) resolveUser(ctx context.Context, p *googleProfile) (*domain.User, error) {
	user, err := s.users.GetByGoogleID(ctx, p.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get user by google id: %w", err)
	}

	user, err = s.users.GetByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if err := s.users.LinkGoogle(ctx, user.ID, p.Subject); err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		user.GoogleID = &p.Subject
		s.logger.InfoContext(ctx, "google account linked", slog.String("user_id", user.ID))
		return user, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = p.Email
	}
	user = &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     p.Email,
		Role:      domain.RoleCustomer,
		GoogleID:  &p.Subject,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	return user, nil
}
