package models

// JWTClaims represents the claims extracted from a JWT token
type JWTClaims struct {
	Sub   string `json:"sub"`   // Subject (user ID from provider)
	Email string `json:"email"` // User email
	Name  string `json:"name"`  // User name
	Exp   int64  `json:"exp"`
	Iss   string `json:"iss"`
	Aud   string `json:"aud"`
}

// User converts verified claims into the caller identity
func (c *JWTClaims) User() *User {
	if c == nil {
		return nil
	}
	return &User{
		Email:   c.Email,
		Subject: c.Sub,
		Name:    c.Name,
	}
}
