package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/project-assistant/internal/logger"
	"github.com/benvon/project-assistant/internal/middleware"
	"github.com/benvon/project-assistant/internal/models"
	"github.com/benvon/project-assistant/internal/services/oidc"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// LoginConfigProvider returns what the frontend needs to start a login
type LoginConfigProvider interface {
	LoginConfig(ctx context.Context) (*oidc.LoginConfig, error)
}

// CodeExchanger runs the authorization code flow against the identity provider
type CodeExchanger interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, string, error)
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	provider  LoginConfigProvider
	exchanger CodeExchanger
	verifier  middleware.TokenVerifier
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider LoginConfigProvider, exchanger CodeExchanger, verifier middleware.TokenVerifier, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		provider:  provider,
		exchanger: exchanger,
		verifier:  verifier,
		logger:    log,
	}
}

// RegisterRoutes registers the public login routes
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/oidc/login", h.GetOIDCLogin).Methods("GET")
	r.HandleFunc("/oidc/callback", h.PostOIDCCallback).Methods("POST")
}

// RegisterProtectedRoutes registers routes that need an authenticated caller
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// LoginResponse is the login configuration plus a ready-made authorization URL
type LoginResponse struct {
	*oidc.LoginConfig
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// CallbackRequest carries the authorization code returned to the frontend
type CallbackRequest struct {
	Code  string `json:"code" validate:"notblank,max=2048"`
	State string `json:"state" validate:"max=256"`
}

// CallbackResponse carries the tokens the frontend sends on later requests
type CallbackResponse struct {
	IDToken     string       `json:"id_token"`
	AccessToken string       `json:"access_token,omitempty"`
	TokenType   string       `json:"token_type,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	User        *models.User `json:"user"`
}

// GetOIDCLogin returns OIDC configuration for frontend
func (h *AuthHandler) GetOIDCLogin(w http.ResponseWriter, r *http.Request) {
	loginConfig, err := h.provider.LoginConfig(r.Context())
	if err != nil {
		h.logger.Error("oidc_login_config_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get OIDC configuration")
		return
	}

	state := uuid.New().String()
	respondJSON(w, http.StatusOK, LoginResponse{
		LoginConfig:      loginConfig,
		AuthorizationURL: h.exchanger.AuthCodeURL(state),
		State:            state,
	})
}

// PostOIDCCallback exchanges the authorization code and verifies the returned ID token
func (h *AuthHandler) PostOIDCCallback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, idToken, err := h.exchanger.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Info("oidc_code_exchange_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authorization code was rejected")
		return
	}
	if idToken == "" {
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Identity provider did not return an ID token")
		return
	}

	claims, err := h.verifier.Verify(r.Context(), idToken)
	if err != nil {
		h.logger.Info("oidc_id_token_rejected", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid ID token")
		return
	}

	user := claims.User()
	h.logger.Info("user_logged_in", zap.String("owner", logger.SanitizeOwner(user.Email)))

	response := CallbackResponse{
		IDToken:     idToken,
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		User:        user,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		response.ExpiresAt = &expiry
	}
	respondJSON(w, http.StatusOK, response)
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"email":        user.Email,
		"sub":          user.Subject,
		"name":         user.Name,
		"display_name": user.DisplayName(),
	})
}
