package gqlmiddleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/99designs/gqlgen/graphql"

	"github.com/tjfontaine/shopgate/internal/auth"
	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/lazy"
	"github.com/tjfontaine/shopgate/internal/reqctx"
	"github.com/tjfontaine/shopgate/internal/server"
)

// AppToken resolves the API client behind a "Bearer <token>" header on the
// GraphQL endpoint. The header is parsed once per request.
type AppToken struct {
	path   string
	apps   ports.AppFinder
	logger *slog.Logger
}

// NewAppToken creates the interceptor for the GraphQL endpoint at path.
func NewAppToken(path string, apps ports.AppFinder, logger *slog.Logger) *AppToken {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppToken{path: path, apps: apps, logger: logger}
}

// Intercept installs the app slot on the first field of a request to the
// GraphQL endpoint. Other paths are passed through untouched.
func (a *AppToken) Intercept(ctx context.Context, next graphql.Resolver) (any, error) {
	rc := reqctx.FromContext(ctx)
	if rc == nil || rc.Request.URL.Path != a.path {
		return next(ctx)
	}

	if rc.App.State() == lazy.StateUnset {
		token, ok := auth.ExtractToken(rc.Request, "bearer")
		if ok && a.apps != nil {
			rc.App.Install(func(ctx context.Context) (*domain.App, error) {
				app, err := a.apps.FindActiveByToken(ctx, token)
				if err != nil {
					return nil, err
				}
				if app != nil {
					a.logger.DebugContext(ctx, "app token resolved", slog.String("app_id", app.ID))
					server.AddLogField(ctx, "app_id", app.ID)
				}
				return app, nil
			})
		} else {
			rc.App.Set(nil)
		}
	}

	return next(ctx)
}

// AppFromContext forces and returns the request's app, or nil.
func AppFromContext(ctx context.Context) (*domain.App, error) {
	rc := reqctx.FromContext(ctx)
	if rc == nil {
		return nil, nil
	}
	app, err := rc.App.Force(ctx)
	if errors.Is(err, lazy.ErrUnset) {
		return nil, nil
	}
	return app, err
}
