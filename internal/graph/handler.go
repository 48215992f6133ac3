package graph

import (
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/tjfontaine/shopgate/internal/gqlmiddleware"
)

// HandlerOptions configure the GraphQL handler.
type HandlerOptions struct {
	// Pipeline wraps every field resolution. Nil runs resolvers bare.
	Pipeline *gqlmiddleware.Pipeline

	// Introspection enables __schema and __type queries.
	Introspection bool
}

// NewHandler builds the gqlgen server for r.
func NewHandler(r *Resolver, opts HandlerOptions) *handler.Server {
	srv := handler.New(NewExecutableSchema(r))

	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.AutomaticPersistedQuery{Cache: lru.New[string](100)})
	if opts.Introspection {
		srv.Use(extension.Introspection{})
	}
	if opts.Pipeline != nil {
		srv.Use(opts.Pipeline)
	}

	srv.SetErrorPresenter(gqlmiddleware.PresentError)
	return srv
}
