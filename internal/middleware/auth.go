package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeSessionAdmin grants the staff operations: starting, returning and
// patching sessions, inventory management, and strike issuance.
const ScopeSessionAdmin = "rental.session.admin"

// Identity is the authenticated caller extracted from the JWT. The service
// layer trusts these ids; scope enforcement happens here, outside the core.
type Identity struct {
	UserID int64
	Scopes []string
}

// HasScope reports whether the identity was granted the given scope.
func (id Identity) HasScope(scope string) bool {
	return slices.Contains(id.Scopes, scope)
}

// Claims is the JWT payload issued by the identity service.
type Claims struct {
	UserID int64    `json:"user_id"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// identityKey is the context key for the authenticated Identity.
type identityKey struct{}

// IdentityFromContext returns the Identity stored by NewAuthenticator.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// NewAuthenticator returns a middleware that validates the Bearer token on
// every request and stores the resulting Identity in the request context.
// Requests without a valid HS256 token are rejected with 401.
func NewAuthenticator(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := parseToken(secret, token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			id := Identity{UserID: claims.UserID, Scopes: claims.Scopes}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
		})
	}
}

// RequireScope returns a middleware that rejects with 403 any identity not
// granted the given scope. Wire it after NewAuthenticator.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !id.HasScope(scope) {
				writeAuthError(w, http.StatusForbidden, "missing scope "+scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parseToken validates an HS256 JWT and returns its claims.
func parseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// writeAuthError writes a small JSON error body in the same shape the
// handlers use.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
