package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var embeddedOpenAPI []byte

// OpenAPIHandler handles OpenAPI specification requests
type OpenAPIHandler struct {
	document []byte
	json     []byte
}

// NewOpenAPIHandler serves the built-in API description
func NewOpenAPIHandler() (*OpenAPIHandler, error) {
	return NewOpenAPIHandlerFromBytes(embeddedOpenAPI)
}

// NewOpenAPIHandlerFromFile serves the API description stored at path
func NewOpenAPIHandlerFromFile(path string) (*OpenAPIHandler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI specification: %w", err)
	}
	return NewOpenAPIHandlerFromBytes(data)
}

// NewOpenAPIHandlerFromBytes parses document once so the JSON view can be served directly
func NewOpenAPIHandlerFromBytes(document []byte) (*OpenAPIHandler, error) {
	var parsed map[string]any
	if err := yaml.Unmarshal(document, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI specification: %w", err)
	}
	converted, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to convert OpenAPI specification to JSON: %w", err)
	}
	return &OpenAPIHandler{document: document, json: converted}, nil
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(h.document); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(h.json); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}
