// Package auth carries the caller identity through request contexts.
// Session issuance lives elsewhere; this service only consumes an
// already-authenticated identity.
package auth

import (
	"context"
	"net/http"
	"strconv"
)

type Identity struct {
	UserID  int
	IsAdmin bool
}

type ctxKey struct{}

// Anonymous is used when no identity headers are present.
var Anonymous = Identity{UserID: 0, IsAdmin: false}

// Middleware reads X-User-Id and X-User-Admin (set by the upstream
// gateway) into the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Anonymous
		if v := r.Header.Get("X-User-Id"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				id.UserID = n
			}
		}
		if r.Header.Get("X-User-Admin") == "true" {
			id.IsAdmin = true
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller identity, or Anonymous when absent.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Anonymous
}
