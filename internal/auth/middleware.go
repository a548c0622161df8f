package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apierr "aqve/internal/errors"
)

type claimsKey struct{}

// Middleware rejects requests without a valid bearer token and stores the
// token's claims in the request context.
func Middleware(iss *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, apierr.ErrUnauthorized("Not authorized, no token"))
				return
			}
			claims, err := iss.Verify(token)
			if err != nil {
				unauthorized(w, apierr.FromError(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// FromContext returns the claims stored by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// UserID is the authenticated user's id, or "" outside Middleware.
func UserID(ctx context.Context) string {
	if c, ok := FromContext(ctx); ok {
		return c.Subject
	}
	return ""
}

func unauthorized(w http.ResponseWriter, e *apierr.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(e)
}
