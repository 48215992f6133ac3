package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/storage/memory"
)

func TestAppTokens_FindActiveByToken(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	app, err := RegisterApp(ctx, store, "erp", "plain-token")
	if err != nil {
		t.Fatalf("RegisterApp() error = %v", err)
	}

	finder := NewAppTokens(store)

	got, err := finder.FindActiveByToken(ctx, "plain-token")
	if err != nil {
		t.Fatalf("FindActiveByToken() error = %v", err)
	}
	if got == nil || got.ID != app.ID {
		t.Errorf("FindActiveByToken() = %v, want %s", got, app.ID)
	}

	got, err = finder.FindActiveByToken(ctx, "other-token")
	if err != nil {
		t.Fatalf("FindActiveByToken() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindActiveByToken(unknown) = %v, want nil", got)
	}
}

func TestDeactivateApp(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	registered, err := RegisterApp(ctx, store, "erp", "plain-token")
	if err != nil {
		t.Fatalf("RegisterApp() error = %v", err)
	}

	app, err := DeactivateApp(ctx, store, "plain-token")
	if err != nil {
		t.Fatalf("DeactivateApp() error = %v", err)
	}
	if app.ID != registered.ID || app.IsActive {
		t.Errorf("DeactivateApp() = %+v", app)
	}

	got, err := NewAppTokens(store).FindActiveByToken(ctx, "plain-token")
	if err != nil {
		t.Fatalf("FindActiveByToken() error = %v", err)
	}
	if got != nil {
		t.Errorf("deactivated app still resolves: %v", got.ID)
	}

	if _, err := DeactivateApp(ctx, store, "plain-token"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second DeactivateApp() error = %v, want ErrNotFound", err)
	}
}
