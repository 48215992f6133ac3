package gqlmiddleware

import (
	"context"
	"errors"

	"github.com/99designs/gqlgen/graphql"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/lazy"
	"github.com/tjfontaine/shopgate/internal/reqctx"
	"github.com/tjfontaine/shopgate/internal/server"
)

// Authentication installs the lazy user slot. The authenticator runs on the
// first read of the user and never again for the same request.
type Authentication struct {
	authenticator ports.Authenticator
}

// NewAuthentication creates the interceptor. A nil authenticator treats
// every request as anonymous.
func NewAuthentication(authenticator ports.Authenticator) *Authentication {
	return &Authentication{authenticator: authenticator}
}

// Intercept installs the user slot if the request has none yet.
func (a *Authentication) Intercept(ctx context.Context, next graphql.Resolver) (any, error) {
	if rc := reqctx.FromContext(ctx); rc != nil {
		rc.User.Install(func(ctx context.Context) (*domain.User, error) {
			if a.authenticator == nil {
				return domain.AnonymousUser, nil
			}
			user, err := a.authenticator.Authenticate(ctx, rc.Request)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return domain.AnonymousUser, nil
			}
			server.AddLogField(ctx, "user_id", user.ID)
			return user, nil
		})
	}
	return next(ctx)
}

// UserFromContext forces and returns the request's user. Requests that
// never passed through Authentication are anonymous.
func UserFromContext(ctx context.Context) (*domain.User, error) {
	rc := reqctx.FromContext(ctx)
	if rc == nil {
		return domain.AnonymousUser, nil
	}
	user, err := rc.User.Force(ctx)
	if errors.Is(err, lazy.ErrUnset) {
		return domain.AnonymousUser, nil
	}
	return user, err
}
