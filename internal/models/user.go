package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// User is the authenticated caller, derived from verified token claims
type User struct {
	Email   string `json:"email"`
	Subject string `json:"sub,omitempty"`
	Name    string `json:"name,omitempty"`
}

// DisplayName returns the local part of the email with its first letter upper-cased.
// A nil user or empty email yields "".
func (u *User) DisplayName() string {
	if u == nil || u.Email == "" {
		return ""
	}
	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r)) + local[size:]
}
