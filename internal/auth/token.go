// Package auth guards the HTTP functions: shared API token, admin checks,
// upload rate limits, one-time passwords and PIN hashes.
package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lllllllleong/policedirectory/internal/httpx"
)

const TokenHeader = "X-API-Token"

// TokenFromRequest reads the token from the header, falling back to the
// token query parameter used by older clients.
func TokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(TokenHeader)); t != "" {
		return t
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// TokenMatches compares in constant time. An empty expected token never matches.
func TokenMatches(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// RequireToken rejects requests that do not carry the shared API token.
func RequireToken(expected string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !TokenMatches(expected, TokenFromRequest(r)) {
			slog.Warn("Rejected request with invalid token", "path", r.URL.Path, "remote", r.RemoteAddr)
			httpx.JSONError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing token", nil)
			return
		}
		next(w, r)
	}
}
