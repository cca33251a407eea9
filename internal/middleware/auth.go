// Package middleware holds the HTTP middleware chain shared by every route.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/project-assistant/internal/logger"
	"github.com/benvon/project-assistant/internal/models"
	"github.com/benvon/project-assistant/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Auth rejects requests without a valid bearer token and attaches the caller to the context
func Auth(verifier TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return authenticate(verifier, log, true)
}

// OptionalAuth attaches the caller when a bearer token is present. A missing token passes
// through anonymously; an invalid one is still rejected.
func OptionalAuth(verifier TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return authenticate(verifier, log, false)
}

func authenticate(verifier TokenVerifier, log *zap.Logger, required bool) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if required {
					respondUnauthorized(w, "Missing or malformed Authorization header")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Info("token_verification_failed",
					zap.String("path", logger.SanitizePath(r.URL.Path)),
					zap.String("error", logger.SanitizeError(err)),
				)
				respondUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := request.WithUser(r.Context(), claims.User())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>". EventSource clients
// cannot set headers, so GET requests may pass it as ?access_token= instead.
func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if r.Method == http.MethodGet {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="project-assistant"`)
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   false,
		"error":     "Unauthorized",
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
