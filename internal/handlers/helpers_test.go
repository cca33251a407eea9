package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/project-assistant/internal/models"
	"github.com/benvon/project-assistant/internal/request"
	"github.com/gorilla/mux"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		data     any
		validate func(*testing.T, *http.Response)
	}{
		{
			name:   "simple object",
			status: http.StatusOK,
			data:   map[string]string{"message": "hello"},
			validate: func(t *testing.T, resp *http.Response) {
				if resp.StatusCode != http.StatusOK {
					t.Errorf("Expected status 200, got %d", resp.StatusCode)
				}

				contentType := resp.Header.Get("Content-Type")
				if contentType != "application/json" {
					t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
				}

				var body map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if success, ok := body["success"].(bool); !ok || !success {
					t.Error("Expected success to be true")
				}

				if _, ok := body["timestamp"].(string); !ok {
					t.Error("Expected timestamp to be present")
				}

				if data, ok := body["data"].(map[string]any); !ok {
					t.Error("Expected data to be present")
				} else {
					if msg, ok := data["message"].(string); !ok || msg != "hello" {
						t.Errorf("Expected message 'hello', got %v", data["message"])
					}
				}
			},
		},
		{
			name:   "nil data",
			status: http.StatusCreated,
			data:   nil,
			validate: func(t *testing.T, resp *http.Response) {
				if resp.StatusCode != http.StatusCreated {
					t.Errorf("Expected status 201, got %d", resp.StatusCode)
				}

				var body map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if body["data"] != nil {
					t.Error("Expected data to be nil")
				}
			},
		},
		{
			name:   "array data",
			status: http.StatusOK,
			data:   []string{"a", "b", "c"},
			validate: func(t *testing.T, resp *http.Response) {
				var body map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if data, ok := body["data"].([]any); !ok {
					t.Error("Expected data to be an array")
				} else {
					if len(data) != 3 {
						t.Errorf("Expected array length 3, got %d", len(data))
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			resp := w.Result()
			defer resp.Body.Close()

			if tt.validate != nil {
				tt.validate(t, resp)
			}
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		errorType string
		message   string
		validate  func(*testing.T, *http.Response)
	}{
		{
			name:      "bad request",
			status:    http.StatusBadRequest,
			errorType: "Bad Request",
			message:   "Invalid input",
			validate: func(t *testing.T, resp *http.Response) {
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("Expected status 400, got %d", resp.StatusCode)
				}

				contentType := resp.Header.Get("Content-Type")
				if contentType != "application/json" {
					t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
				}

				var body map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if success, ok := body["success"].(bool); !ok || success {
					t.Error("Expected success to be false")
				}

				if errorType, ok := body["error"].(string); !ok || errorType != "Bad Request" {
					t.Errorf("Expected error 'Bad Request', got '%v'", body["error"])
				}

				if msg, ok := body["message"].(string); !ok || msg != "Invalid input" {
					t.Errorf("Expected message 'Invalid input', got '%v'", body["message"])
				}

				if _, ok := body["timestamp"].(string); !ok {
					t.Error("Expected timestamp to be present")
				}
			},
		},
		{
			name:      "internal server error",
			status:    http.StatusInternalServerError,
			errorType: "Internal Server Error",
			message:   "Database connection failed",
			validate: func(t *testing.T, resp *http.Response) {
				if resp.StatusCode != http.StatusInternalServerError {
					t.Errorf("Expected status 500, got %d", resp.StatusCode)
				}

				var body map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}

				if errorType, ok := body["error"].(string); !ok || errorType != "Internal Server Error" {
					t.Errorf("Expected error 'Internal Server Error', got '%v'", body["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSONError(w, tt.status, tt.errorType, tt.message)

			resp := w.Result()
			defer resp.Body.Close()

			if tt.validate != nil {
				tt.validate(t, resp)
			}
		})
	}
}

// Test helper to verify timestamp is valid RFC3339
func TestRespondJSONTimestamp(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusOK, "test")

	resp := w.Result()
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	timestamp, ok := body["timestamp"].(string)
	if !ok {
		t.Fatal("Timestamp not found in response")
	}

	if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("Timestamp '%s' is not valid RFC3339: %v", timestamp, err)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	short := "Database connection failed"
	if got := sanitizeErrorMessage(short); got != short {
		t.Errorf("Expected short message unchanged, got %q", got)
	}

	long := strings.Repeat("é", maxErrorMessageLength+10)
	got := sanitizeErrorMessage(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected truncated message to end with ..., got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != maxErrorMessageLength {
		t.Errorf("Expected %d runes before the ellipsis, got %d", maxErrorMessageLength, n)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Title string `json:"title" validate:"notblank,max=5"`
	}

	tests := []struct {
		name       string
		body       string
		maxBytes   int64
		wantOK     bool
		wantStatus int
		wantMsg    string
	}{
		{name: "valid", body: `{"title":"abc"}`, wantOK: true},
		{name: "malformed", body: `{"title":`, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request body"},
		{name: "blank title", body: `{"title":"   "}`, wantStatus: http.StatusBadRequest, wantMsg: "title is required"},
		{name: "too long", body: `{"title":"abcdefg"}`, wantStatus: http.StatusBadRequest, wantMsg: "at most 5 characters"},
		{name: "body too large", body: `{"title":"abc"}`, maxBytes: 4, wantStatus: http.StatusRequestEntityTooLarge, wantMsg: "exceeds maximum size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.maxBytes > 0 {
				req.Body = http.MaxBytesReader(w, req.Body, tt.maxBytes)
			}

			var dst payload
			ok := decodeJSON(w, req, &dst)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok {
				if dst.Title != "abc" {
					t.Errorf("Expected title 'abc', got %q", dst.Title)
				}
				return
			}

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			body := decodeBody(t, w)
			if msg, _ := body["message"].(string); !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("Expected message containing %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "42", want: 42},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": tt.raw})
			got, err := pathID(req, "id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

// newTestRequest builds a request with a JSON body, route variables and an optional caller
func newTestRequest(method, path string, body any, vars map[string]string, user *models.User) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	if user != nil {
		req = req.WithContext(request.WithUser(req.Context(), user))
	}
	return req
}

// decodeBody decodes a response envelope
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

// decodeData decodes the envelope's data field into dst
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("Expected success response")
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
}
