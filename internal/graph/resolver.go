package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tjfontaine/shopgate/internal/auth"
	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/gqlmiddleware"
)

var errAuthNotConfigured = domain.NewAPIError(domain.ErrorTypeServer, "authentication is not configured")

// Resolver serves the storefront schema. Request-scoped state (user,
// channel, app) is read through the gqlmiddleware accessors so it is
// computed at most once per request.
type Resolver struct {
	Store  ports.StorageProvider
	Auth   *auth.Authenticator
	Logger *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Resolver) queryFields() map[string]fieldResolver {
	return map[string]fieldResolver{
		"me":       r.me,
		"channel":  r.channel,
		"channels": r.channels,
		"products": r.products,
		"app":      r.app,
	}
}

func (r *Resolver) mutationFields() map[string]fieldResolver {
	return map[string]fieldResolver{
		"tokenCreate":    r.tokenCreate,
		"tokenVerify":    r.tokenVerify,
		"checkoutCreate": r.checkoutCreate,
		"productCreate":  r.productCreate,
	}
}

func (r *Resolver) me(ctx context.Context, _ map[string]any) (any, error) {
	user, err := gqlmiddleware.UserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if user.IsAnonymous() {
		return nil, nil
	}
	return userObject(user), nil
}

func (r *Resolver) channel(ctx context.Context, args map[string]any) (any, error) {
	slug, _ := args["slug"].(string)
	ch, err := r.visibleChannel(ctx, slug)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.Type == domain.ErrorTypeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return channelObject(ch), nil
}

func (r *Resolver) channels(ctx context.Context, _ map[string]any) (any, error) {
	channels, err := r.Store.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	staff, err := r.isStaff(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(channels))
	for _, ch := range channels {
		if ch.IsActive || staff {
			out = append(out, channelObject(ch))
		}
	}
	return out, nil
}

func (r *Resolver) products(ctx context.Context, _ map[string]any) (any, error) {
	ch, err := r.currentChannel(ctx)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return []any{}, nil
	}

	products, err := r.Store.ListProducts(ctx, ch.Slug)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]any, 0, len(products))
	for _, p := range products {
		out = append(out, productObject(p))
	}
	return out, nil
}

func (r *Resolver) app(ctx context.Context, _ map[string]any) (any, error) {
	app, err := gqlmiddleware.AppFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, nil
	}
	return map[string]any{
		"id":       app.ID,
		"name":     app.Name,
		"isActive": app.IsActive,
	}, nil
}

func (r *Resolver) tokenCreate(ctx context.Context, args map[string]any) (any, error) {
	if r.Auth == nil {
		return nil, errAuthNotConfigured
	}
	email, _ := args["email"].(string)
	password, _ := args["password"].(string)

	user, token, err := r.Auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	r.logger().InfoContext(ctx, "token issued", slog.String("user_id", user.ID))

	return map[string]any{
		"token": token,
		"user":  userObject(user),
	}, nil
}

func (r *Resolver) tokenVerify(ctx context.Context, args map[string]any) (any, error) {
	if r.Auth == nil {
		return nil, errAuthNotConfigured
	}
	token, _ := args["token"].(string)

	user, err := r.Auth.VerifyToken(ctx, token)
	if errors.Is(err, auth.ErrInvalidToken) {
		return map[string]any{"isValid": false, "user": nil}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"isValid": true, "user": userObject(user)}, nil
}

func (r *Resolver) checkoutCreate(ctx context.Context, args map[string]any) (any, error) {
	input, _ := args["input"].(map[string]any)

	ch, err := r.currentChannel(ctx)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, domain.ErrMissingChannelArgument
	}

	checkout := &domain.Checkout{ChannelSlug: ch.Slug}
	if email, ok := input["email"].(string); ok {
		checkout.Email = email
	} else if user, err := gqlmiddleware.UserFromContext(ctx); err != nil {
		return nil, err
	} else if !user.IsAnonymous() {
		checkout.Email = user.Email
	}

	if err := r.Store.CreateCheckout(ctx, checkout); err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	r.logger().InfoContext(ctx, "checkout created",
		slog.String("checkout_id", checkout.ID),
		slog.String("channel", ch.Slug),
	)

	var email any
	if checkout.Email != "" {
		email = checkout.Email
	}
	return map[string]any{
		"id":      checkout.ID,
		"channel": checkout.ChannelSlug,
		"email":   email,
		"created": checkout.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (r *Resolver) productCreate(ctx context.Context, args map[string]any) (any, error) {
	staff, err := r.isStaff(ctx)
	if err != nil {
		return nil, err
	}
	if !staff {
		return nil, domain.ErrPermissionDenied
	}

	input, _ := args["input"].(map[string]any)
	name, _ := input["name"].(string)

	ch, err := r.currentChannel(ctx)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, domain.ErrMissingChannelArgument
	}

	product := &domain.Product{ChannelSlug: ch.Slug, Name: name}
	if err := r.Store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	r.logger().InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("channel", ch.Slug),
	)
	return productObject(product), nil
}

// currentChannel loads the channel the request operates in. It returns nil
// when the deployment has no channel at all.
func (r *Resolver) currentChannel(ctx context.Context) (*domain.Channel, error) {
	slug, err := gqlmiddleware.ChannelSlugFromContext(ctx)
	if err != nil || slug == nil {
		return nil, err
	}
	return r.visibleChannel(ctx, *slug)
}

// visibleChannel loads a channel by slug. Inactive channels are only
// visible to staff.
func (r *Resolver) visibleChannel(ctx context.Context, slug string) (*domain.Channel, error) {
	ch, err := r.Store.GetChannelBySlug(ctx, slug)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.ErrChannelNotFound(slug)
	}
	if err != nil {
		return nil, fmt.Errorf("load channel %s: %w", slug, err)
	}
	if ch.IsActive {
		return ch, nil
	}

	staff, err := r.isStaff(ctx)
	if err != nil {
		return nil, err
	}
	if !staff {
		return nil, domain.ErrChannelNotFound(slug)
	}
	return ch, nil
}

func (r *Resolver) isStaff(ctx context.Context) (bool, error) {
	user, err := gqlmiddleware.UserFromContext(ctx)
	if err != nil {
		return false, err
	}
	return !user.IsAnonymous() && user.IsStaff, nil
}

func userObject(u *domain.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"email":    u.Email,
		"isActive": u.IsActive,
		"isStaff":  u.IsStaff,
	}
}

func channelObject(ch *domain.Channel) map[string]any {
	return map[string]any{
		"id":           ch.ID,
		"slug":         ch.Slug,
		"name":         ch.Name,
		"currencyCode": ch.Currency,
		"isActive":     ch.IsActive,
	}
}

func productObject(p *domain.Product) map[string]any {
	return map[string]any{
		"id":      p.ID,
		"name":    p.Name,
		"channel": p.ChannelSlug,
		"created": p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
