// Package oidc verifies bearer tokens and drives the authorization code login flow.
package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSTTL is how long a fetched key set is reused
const DefaultJWKSTTL = time.Hour

type cachedKeys struct {
	keys    jwk.Set
	expires time.Time
}

// JWKSManager fetches and caches JSON Web Key Sets by URL
type JWKSManager struct {
	mu     sync.Mutex
	cache  map[string]cachedKeys
	ttl    time.Duration
	client *http.Client
	now    func() time.Time
}

// NewJWKSManager creates a manager using client for fetches. A nil client gets a 10s timeout.
func NewJWKSManager(client *http.Client, ttl time.Duration) *JWKSManager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = DefaultJWKSTTL
	}
	return &JWKSManager{
		cache:  make(map[string]cachedKeys),
		ttl:    ttl,
		client: client,
		now:    time.Now,
	}
}

// GetJWKS returns the key set at jwksURL, fetching it when the cached copy is stale
func (m *JWKSManager) GetJWKS(ctx context.Context, jwksURL string) (jwk.Set, error) {
	m.mu.Lock()
	cached, ok := m.cache[jwksURL]
	m.mu.Unlock()
	if ok && m.now().Before(cached.expires) {
		return cached.keys, nil
	}

	keys, err := m.fetch(ctx, jwksURL)
	if err != nil {
		if ok {
			// serve the stale set while the endpoint is failing
			return cached.keys, nil
		}
		return nil, err
	}

	m.mu.Lock()
	m.cache[jwksURL] = cachedKeys{keys: keys, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return keys, nil
}

func (m *JWKSManager) fetch(ctx context.Context, jwksURL string) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return keys, nil
}
