package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config is the identity provider configuration taken from the environment
type Config struct {
	Issuer       string
	JWKSURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Scope is requested on every login
const Scope = "openid email profile"

// LoginConfig contains OIDC login configuration for the frontend
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}

type discoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// Provider resolves the issuer's endpoints, preferring the discovery document
type Provider struct {
	config Config
	client *http.Client

	mu        sync.Mutex
	discovery *discoveryDocument
}

// NewProvider creates a provider for config
func NewProvider(config Config, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Provider{config: config, client: client}
}

// Config returns the provider configuration
func (p *Provider) Config() Config {
	return p.config
}

// LoginConfig returns what the frontend needs to start the authorization code flow
func (p *Provider) LoginConfig(ctx context.Context) (*LoginConfig, error) {
	endpoints, err := p.Endpoints(ctx)
	if err != nil {
		return nil, err
	}
	return &LoginConfig{
		AuthorizationEndpoint: endpoints.AuthorizationEndpoint,
		TokenEndpoint:         endpoints.TokenEndpoint,
		ClientID:              p.config.ClientID,
		RedirectURI:           p.config.RedirectURI,
		Scope:                 Scope,
	}, nil
}

// Endpoints returns the authorization and token endpoints. Discovery failures fall back
// to <issuer>/oauth2/authorize and <issuer>/oauth2/token and are retried on the next call.
func (p *Provider) Endpoints(ctx context.Context) (LoginConfig, error) {
	if p.config.Issuer == "" {
		return LoginConfig{}, fmt.Errorf("OIDC issuer is not configured")
	}

	p.mu.Lock()
	doc := p.discovery
	p.mu.Unlock()

	if doc == nil {
		fetched, err := p.discover(ctx)
		if err == nil {
			p.mu.Lock()
			p.discovery = fetched
			p.mu.Unlock()
			doc = fetched
		}
	}

	base := strings.TrimSuffix(p.config.Issuer, "/")
	endpoints := LoginConfig{
		AuthorizationEndpoint: base + "/oauth2/authorize",
		TokenEndpoint:         base + "/oauth2/token",
	}
	if doc != nil {
		if doc.AuthorizationEndpoint != "" {
			endpoints.AuthorizationEndpoint = doc.AuthorizationEndpoint
		}
		if doc.TokenEndpoint != "" {
			endpoints.TokenEndpoint = doc.TokenEndpoint
		}
	}
	return endpoints, nil
}

func (p *Provider) discover(ctx context.Context) (*discoveryDocument, error) {
	url := strings.TrimSuffix(p.config.Issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}
	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	return &doc, nil
}
