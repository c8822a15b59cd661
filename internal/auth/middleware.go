package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue keys are compared by type AND value. If we used a plain
// string like "username", any package that knows that string could read or
// shadow the value. A package-private type makes collisions impossible.
type contextKey string

const usernameKey contextKey = "username"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the Authorization header ("Bearer <token>"),
// validates it, and stores the username claim in the request context. If
// the header is missing or the token invalid/expired, it responds
// 401 Unauthorized with a WWW-Authenticate challenge and stops the chain.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, tokens)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext retrieves the authenticated username from the request
// context. Returns ("", false) on anonymous requests, which only happens
// on routes that skipped RequireAuth.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}

// extractUsername reads the bearer token from the Authorization header and
// validates it. The "Bearer " prefix check is case-insensitive per RFC 6750.
func extractUsername(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrTokenInvalid
	}

	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}
