package ports

import (
	"context"
	"net/http"

	"github.com/tjfontaine/shopgate/internal/core/domain"
)

// Authenticator resolves the user behind a request.
// Implementations: JWT (default).
type Authenticator interface {
	// Authenticate returns nil, nil for requests without valid credentials.
	Authenticate(ctx context.Context, r *http.Request) (*domain.User, error)
}

// AppFinder resolves API client tokens.
// Implementations: store lookup (default), Redis read-through cache.
type AppFinder interface {
	// FindActiveByToken returns the first active app owning token, or nil.
	FindActiveByToken(ctx context.Context, token string) (*domain.App, error)
}

// DefaultChannelResolver picks a channel when the caller names none.
type DefaultChannelResolver interface {
	// DefaultSlug returns channel.ErrSlugNotPassed when the caller must
	// name a channel and channel.ErrNoChannel when no channel applies.
	DefaultSlug(ctx context.Context) (string, error)
}
