package oidc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// Client wraps the OAuth2 authorization code exchange
type Client struct {
	config *oauth2.Config
}

// NewClient creates an OAuth2 client from the provider's configuration and endpoints
func NewClient(ctx context.Context, provider *Provider) (*Client, error) {
	endpoints, err := provider.Endpoints(ctx)
	if err != nil {
		return nil, err
	}
	cfg := provider.Config()
	return &Client{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       strings.Fields(Scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:  endpoints.AuthorizationEndpoint,
			TokenURL: endpoints.TokenEndpoint,
		},
	}}, nil
}

// AuthCodeURL returns the authorization URL for state
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens and returns the ID token
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, string, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange code: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	return token, idToken, nil
}
