package ports

import (
	"context"
	"errors"

	"github.com/tjfontaine/shopgate/internal/core/domain"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore persists user accounts.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

// AppStore persists API clients and their tokens.
type AppStore interface {
	// FindActiveAppByTokenHash returns the first active app owning a token
	// with the given hash, or nil when there is none.
	FindActiveAppByTokenHash(ctx context.Context, tokenHash string) (*domain.App, error)
	CreateApp(ctx context.Context, app *domain.App) error
	AddAppToken(ctx context.Context, token *domain.AppToken) error
	// SetAppActive flips an app's active flag. ErrNotFound when no app has id.
	SetAppActive(ctx context.Context, id string, active bool) error
}

// ChannelStore persists storefront channels.
type ChannelStore interface {
	ListChannels(ctx context.Context) ([]*domain.Channel, error)
	GetChannelBySlug(ctx context.Context, slug string) (*domain.Channel, error)
	CountChannels(ctx context.Context) (int, error)
	CreateChannel(ctx context.Context, ch *domain.Channel) error
}

// ProductStore persists catalog products.
type ProductStore interface {
	ListProducts(ctx context.Context, channelSlug string) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
}

// CheckoutStore persists checkouts.
type CheckoutStore interface {
	CreateCheckout(ctx context.Context, c *domain.Checkout) error
}

// StorageProvider manages all storage operations.
// Implementations: SQLite (default), in-memory.
type StorageProvider interface {
	UserStore
	AppStore
	ChannelStore
	ProductStore
	CheckoutStore

	Close() error
}
