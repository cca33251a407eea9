package oidc

import (
	"context"
	"fmt"

	"github.com/benvon/project-assistant/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier verifies JWT bearer tokens against the issuer's key set
type Verifier struct {
	jwks     *JWKSManager
	issuer   string
	jwksURL  string
	audience string
}

// NewVerifier creates a verifier. An empty audience skips the aud check.
func NewVerifier(jwks *JWKSManager, issuer, jwksURL, audience string) *Verifier {
	return &Verifier{
		jwks:     jwks,
		issuer:   issuer,
		jwksURL:  jwksURL,
		audience: audience,
	}
}

// Verify checks signature, expiry, issuer and audience, then extracts the caller's claims
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	keys, err := v.jwks.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Exp: token.Expiration().Unix(),
		Iss: token.Issuer(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	claims.Email = stringClaim(token, "email")
	claims.Name = stringClaim(token, "name")
	if claims.Email == "" {
		return nil, fmt.Errorf("token missing email claim")
	}
	return claims, nil
}

func stringClaim(token jwt.Token, name string) string {
	value, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}
