package ai

import (
	"context"
	"sort"
	"strings"
)

// AIProvider is the interface for AI providers
type AIProvider interface {
	// Chat answers the last user message. projectContext describes the project the
	// conversation is about and may be empty.
	Chat(ctx context.Context, messages []ChatMessage, projectContext string) (*ChatResponse, error)
}

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents a response from the AI chat
type ChatResponse struct {
	Message string `json:"message"`
}

// ProviderFactory creates an AI provider based on the provider type
type ProviderFactory func(config map[string]string) (AIProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory. Names are case-insensitive.
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[strings.ToLower(name)] = factory
}

// Names lists the registered providers
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (AIProvider, error) {
	factory, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
