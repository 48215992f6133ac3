package gqlmiddleware

import (
	"context"
	"errors"

	"github.com/99designs/gqlgen/graphql"

	"github.com/tjfontaine/shopgate/internal/channel"
	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/lazy"
	"github.com/tjfontaine/shopgate/internal/reqctx"
	"github.com/tjfontaine/shopgate/internal/server"
)

// ChannelSlugger lets typed inputs report their channel slug. Schemas whose
// input types are bound to Go structs implement it on those structs; inputs
// decoded as maps are read from their "channelSlug" or "channel_slug" key.
type ChannelSlugger interface {
	GetChannelSlug() string
}

// Channel resolves the channel slug a request operates in.
//
// A slug passed by the field (input.channelSlug, then the channel argument)
// replaces a slot that has not been read yet. Once read, the slot keeps its
// value for the rest of the request.
type Channel struct {
	defaults ports.DefaultChannelResolver
}

// NewChannel creates the interceptor. defaults may be nil, in which case a
// request without an explicit slug has no channel.
func NewChannel(defaults ports.DefaultChannelResolver) *Channel {
	return &Channel{defaults: defaults}
}

// Intercept applies the field's explicit slug, if any, to the request slot.
func (c *Channel) Intercept(ctx context.Context, next graphql.Resolver) (any, error) {
	rc := reqctx.FromContext(ctx)
	if rc == nil {
		return next(ctx)
	}

	var args map[string]any
	if fc := graphql.GetFieldContext(ctx); fc != nil {
		args = fc.Args
	}
	slug := explicitChannelSlug(args)

	if slug != "" {
		rc.ChannelSlug.Replace(c.resolveSlug(slug))
	}
	rc.ChannelSlug.Install(c.resolveSlug(slug))

	return next(ctx)
}

func (c *Channel) resolveSlug(explicit string) lazy.Thunk[*string] {
	return func(ctx context.Context) (*string, error) {
		if explicit != "" {
			server.AddLogField(ctx, "channel", explicit)
			return &explicit, nil
		}
		if c.defaults == nil {
			return nil, nil
		}

		slug, err := c.defaults.DefaultSlug(ctx)
		switch {
		case errors.Is(err, channel.ErrSlugNotPassed):
			return nil, domain.ErrMissingChannelArgument
		case errors.Is(err, channel.ErrNoChannel):
			return nil, nil
		case err != nil:
			return nil, err
		}
		server.AddLogField(ctx, "channel", slug)
		return &slug, nil
	}
}

// explicitChannelSlug reads the slug a field was called with. A non-empty
// input argument wins over the channel argument even when it carries no slug.
func explicitChannelSlug(args map[string]any) string {
	if input, ok := args["input"]; ok && input != nil {
		switch in := input.(type) {
		case map[string]any:
			if len(in) > 0 {
				for _, key := range []string{"channelSlug", "channel_slug"} {
					if s := stringArg(in[key]); s != "" {
						return s
					}
				}
				return ""
			}
		case ChannelSlugger:
			return in.GetChannelSlug()
		}
	}
	return stringArg(args["channel"])
}

func stringArg(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}

// ChannelSlugFromContext forces and returns the request's channel slug. A
// nil slug means no channel applies.
func ChannelSlugFromContext(ctx context.Context) (*string, error) {
	rc := reqctx.FromContext(ctx)
	if rc == nil {
		return nil, nil
	}
	slug, err := rc.ChannelSlug.Force(ctx)
	if errors.Is(err, lazy.ErrUnset) {
		return nil, nil
	}
	return slug, err
}
