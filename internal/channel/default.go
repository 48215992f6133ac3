// Package channel picks the channel a request operates in when the caller
// does not name one.
package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/tjfontaine/shopgate/internal/core/ports"
)

var (
	// ErrSlugNotPassed means several channels exist and the caller must
	// pass one explicitly.
	ErrSlugNotPassed = errors.New("channel slug not passed")

	// ErrNoChannel means the deployment has no channels at all.
	ErrNoChannel = errors.New("no channel configured")
)

// Resolver derives the default channel from the channel store.
type Resolver struct {
	store ports.ChannelStore
}

// NewResolver creates a default channel resolver.
func NewResolver(store ports.ChannelStore) *Resolver {
	return &Resolver{store: store}
}

// DefaultSlug returns the slug of the only channel. It returns ErrNoChannel
// when there is none and ErrSlugNotPassed when there are several.
func (r *Resolver) DefaultSlug(ctx context.Context) (string, error) {
	n, err := r.store.CountChannels(ctx)
	if err != nil {
		return "", fmt.Errorf("count channels: %w", err)
	}

	switch {
	case n == 0:
		return "", ErrNoChannel
	case n > 1:
		return "", ErrSlugNotPassed
	}

	channels, err := r.store.ListChannels(ctx)
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	if len(channels) == 0 {
		return "", ErrNoChannel
	}
	return channels[0].Slug, nil
}
