package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize is 1MB
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize rejects bodies that declare a larger Content-Length and caps the rest.
// Handlers see the cap as a *http.MaxBytesError from the decoder.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body exceeds the size limit", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
