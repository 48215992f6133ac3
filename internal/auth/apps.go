package auth

import (
	"context"
	"fmt"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
)

// AppTokens looks up active apps by their plaintext bearer token.
type AppTokens struct {
	store ports.AppStore
}

var _ ports.AppFinder = (*AppTokens)(nil)

// NewAppTokens creates an app finder backed by store.
func NewAppTokens(store ports.AppStore) *AppTokens {
	return &AppTokens{store: store}
}

// FindActiveByToken returns the active app owning token, or nil.
func (a *AppTokens) FindActiveByToken(ctx context.Context, token string) (*domain.App, error) {
	app, err := a.store.FindActiveAppByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("find app by token: %w", err)
	}
	return app, nil
}

// DeactivateApp marks the app owning token inactive and returns it. Cached
// lookups of token must be invalidated by the caller.
func DeactivateApp(ctx context.Context, store ports.AppStore, token string) (*domain.App, error) {
	app, err := store.FindActiveAppByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("find app by token: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("no active app for token: %w", ports.ErrNotFound)
	}
	if err := store.SetAppActive(ctx, app.ID, false); err != nil {
		return nil, err
	}
	app.IsActive = false
	return app, nil
}

// RegisterApp creates an active app with a single token and returns the app.
func RegisterApp(ctx context.Context, store ports.AppStore, name, token string) (*domain.App, error) {
	app := &domain.App{Name: name, IsActive: true}
	if err := store.CreateApp(ctx, app); err != nil {
		return nil, err
	}
	if err := store.AddAppToken(ctx, &domain.AppToken{
		AppID:     app.ID,
		Name:      "default",
		TokenHash: HashToken(token),
	}); err != nil {
		return nil, err
	}
	return app, nil
}
