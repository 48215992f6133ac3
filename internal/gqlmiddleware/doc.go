/*
Package gqlmiddleware provides the interceptors that wrap every GraphQL field
resolution.

# Pipeline

A Pipeline is an ordered list of Interceptors composed once at startup and
installed on the gqlgen server as a handler extension:

	pipeline := gqlmiddleware.Chain(cfg, deps)
	srv := handler.New(schema)
	srv.Use(pipeline)

For each field the interceptors run in order; each one either calls next or
returns an error. Errors from next are returned unchanged.

# Interceptors

The standard chain built by Chain is:
 1. Authentication: lazy user slot, authenticator called at most once
 2. Channel: lazy channel slug from input.channelSlug, the channel argument or the default channel
 3. Tracing: one OpenTelemetry span per traced field
 4. AppToken: lazy app lookup for "Bearer <token>" on the GraphQL path
 5. ReadOnly: mutation allow-list (only when read-only mode is enabled)

# Request state

Values computed by the interceptors live in the reqctx.Context installed by
reqctx.Middleware. Resolvers read them through UserFromContext,
ChannelSlugFromContext and AppFromContext, which force the slot on first use.
*/
package gqlmiddleware
