// Package reqctx holds the per-request cache shared by the GraphQL field
// interceptors.
package reqctx

import (
	"context"
	"net/http"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/lazy"
)

// Context is created once per inbound HTTP request and discarded when the
// response completes. Each slot is computed at most once per request.
type Context struct {
	// Request is the originating HTTP request. Interceptors read its path
	// and headers; they never modify it.
	Request *http.Request

	User lazy.Slot[*domain.User]

	// ChannelSlug forces to nil when the deployment has no channel to offer.
	ChannelSlug lazy.Slot[*string]

	// App stays unset on requests outside the GraphQL endpoint.
	App lazy.Slot[*domain.App]
}

// New creates an empty request context for r.
func New(r *http.Request) *Context {
	return &Context{Request: r}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying rc.
func NewContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the request context stored in ctx, or nil.
func FromContext(ctx context.Context) *Context {
	rc, _ := ctx.Value(contextKey{}).(*Context)
	return rc
}

// Middleware installs a fresh Context on every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := New(r)
		r = r.WithContext(NewContext(r.Context(), rc))
		rc.Request = r
		next.ServeHTTP(w, r)
	})
}
