package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/project-assistant/internal/models"
	"github.com/benvon/project-assistant/internal/request"
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (*models.JWTClaims, error)
}

var _ TokenVerifier = (*mockVerifier)(nil)

func (m *mockVerifier) Verify(ctx context.Context, token string) (*models.JWTClaims, error) {
	return m.verifyFunc(ctx, token)
}

func newMockVerifier() *mockVerifier {
	return &mockVerifier{verifyFunc: func(_ context.Context, token string) (*models.JWTClaims, error) {
		if token != "good" {
			return nil, errors.New("bad signature")
		}
		return &models.JWTClaims{Sub: "s-1", Email: "alice@example.com", Name: "Alice"}, nil
	}}
}

func TestAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		optional   bool
		method     string
		target     string
		header     string
		wantStatus int
		wantUser   bool
	}{
		{"valid bearer", false, "GET", "/", "Bearer good", http.StatusOK, true},
		{"lowercase scheme", false, "GET", "/", "bearer good", http.StatusOK, true},
		{"missing header", false, "GET", "/", "", http.StatusUnauthorized, false},
		{"malformed header", false, "GET", "/", "Token good", http.StatusUnauthorized, false},
		{"invalid token", false, "GET", "/", "Bearer bad", http.StatusUnauthorized, false},
		{"query token on GET", false, "GET", "/events?access_token=good", "", http.StatusOK, true},
		{"query token ignored on POST", false, "POST", "/x?access_token=good", "", http.StatusUnauthorized, false},
		{"optional without token", true, "POST", "/", "", http.StatusOK, false},
		{"optional with invalid token", true, "POST", "/", "Bearer bad", http.StatusUnauthorized, false},
		{"optional with valid token", true, "POST", "/", "Bearer good", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUser *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = request.UserFromContext(r)
				w.WriteHeader(http.StatusOK)
			})
			mw := Auth(newMockVerifier(), nil)
			if tt.optional {
				mw = OptionalAuth(newMockVerifier(), nil)
			}

			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			mw(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantUser {
				if gotUser == nil || gotUser.Email != "alice@example.com" {
					t.Errorf("Expected alice in context, got %+v", gotUser)
				}
			} else if gotUser != nil {
				t.Errorf("Expected no user, got %+v", gotUser)
			}
		})
	}
}
