package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHealthChecker_HealthCheck(t *testing.T) {
	t.Parallel()

	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name         string
		mode         string
		checks       map[string]CheckFunc
		wantStatus   int
		wantHealth   string
		expectChecks map[string]string
	}{
		{
			name:       "basic mode skips dependency checks",
			mode:       "",
			checks:     map[string]CheckFunc{"database": broken},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:         "extended mode all healthy",
			mode:         "extended",
			checks:       map[string]CheckFunc{"database": healthy, "redis": healthy, "queue": healthy},
			wantStatus:   http.StatusOK,
			wantHealth:   "healthy",
			expectChecks: map[string]string{"database": "healthy", "redis": "healthy", "queue": "healthy"},
		},
		{
			name:         "extended mode with failing dependency",
			mode:         "extended",
			checks:       map[string]CheckFunc{"database": healthy, "redis": broken},
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "unhealthy",
			expectChecks: map[string]string{"database": "healthy", "redis": "unhealthy: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker := NewHealthChecker()
			for name, check := range tt.checks {
				checker.Add(name, check)
			}

			w := httptest.NewRecorder()
			checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz?mode="+tt.mode, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Expected status %q, got %q", tt.wantHealth, resp.Status)
			}
			if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
				t.Errorf("Timestamp %q is not valid RFC3339: %v", resp.Timestamp, err)
			}
			if len(resp.Checks) != len(tt.expectChecks) {
				t.Fatalf("Expected %d checks, got %v", len(tt.expectChecks), resp.Checks)
			}
			for name, want := range tt.expectChecks {
				if got := resp.Checks[name]; got != want {
					t.Errorf("Expected check %s to be %q, got %q", name, want, got)
				}
			}
		})
	}
}

func TestHealthChecker_CheckTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	checker := NewHealthChecker().Add("queue", func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	})

	w := httptest.NewRecorder()
	checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil))

	if deadline.IsZero() {
		t.Fatal("Expected dependency check to run with a deadline")
	}
	if time.Until(deadline) > healthCheckTimeout {
		t.Errorf("Expected deadline within %v", healthCheckTimeout)
	}
}

func TestVersionHandler(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	VersionHandler("1.2.3")(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var data map[string]string
	decodeData(t, w, &data)
	if data["version"] != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %q", data["version"])
	}
}

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	h, err := NewOpenAPIHandler()
	if err != nil {
		t.Fatalf("NewOpenAPIHandler() error = %v", err)
	}

	w := httptest.NewRecorder()
	h.ServeYAML(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil))
	if ct := w.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Expected YAML content type, got %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "openapi:") {
		t.Errorf("Expected YAML document, got %q", w.Body.String()[:20])
	}

	w = httptest.NewRecorder()
	h.ServeJSON(w, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON document: %v", err)
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatal("Expected paths object")
	}
	for _, p := range []string{"/chat/sessions", "/chat/sessions/{id}/messages", "/projects/{id}/tasks/{taskId}", "/events"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("Expected path %s in document", p)
		}
	}
}

func TestNewOpenAPIHandlerFromBytes_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAPIHandlerFromBytes([]byte("openapi: [unclosed")); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
