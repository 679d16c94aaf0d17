package http

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightmart/insightmart/internal/domain"
	"github.com/insightmart/insightmart/internal/service"
	"github.com/insightmart/insightmart/pkg/httputil"
	"github.com/insightmart/insightmart/pkg/logger"
)

const (
	oauthStateCookie = "insightmart_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// AuthHandler handles signup, password login and Google sign-in.
type AuthHandler struct {
	auth        AuthService
	google      GoogleAuth
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. google may be nil, in which
// case the Google routes answer 404.
func NewAuthHandler(auth AuthService, google GoogleAuth, frontendURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		google:      google,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// --- Request DTOs ---

// SignupRequest is the JSON body for POST /api/auth/signup. Missing fields
// are reported by the service with a single message.
type SignupRequest struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"max=72"`
	Role     string `json:"role"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userView is the public shape of a signed-in user.
type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newUserView(u *domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// --- Handlers ---

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.auth.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, httputil.Payload{
		"message": "User created successfully",
		"token":   result.Token,
		"user":    newUserView(result.User),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"token": result.Token,
		"user":  newUserView(result.User),
	})
}

// GoogleLogin handles GET /api/auth/google by redirecting to the consent
// page. The state is echoed back through a short-lived cookie.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Message: "Google sign-in is not enabled"})
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/auth/google/callback. Both outcomes
// redirect back to the frontend.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Message: "Google sign-in is not enabled"})
		return
	}
	l := logger.FromContext(r.Context())

	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/api/auth/google", MaxAge: -1})

	q := r.URL.Query()
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		l.WarnContext(r.Context(), "google callback with missing or mismatched state")
		h.redirectFailure(w, r)
		return
	}

	result, err := h.google.SignIn(r.Context(), q.Get("code"))
	if err != nil {
		l.WarnContext(r.Context(), "google sign-in failed", slog.String("error", err.Error()))
		h.redirectFailure(w, r)
		return
	}

	user, err := json.Marshal(newUserView(result.User))
	if err != nil {
		h.redirectFailure(w, r)
		return
	}
	target := h.frontendURL + "/auth/callback?" + url.Values{
		"token": {result.Token},
		"user":  {string(user)},
	}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"/login?error=google_auth_failed", http.StatusFound)
}
