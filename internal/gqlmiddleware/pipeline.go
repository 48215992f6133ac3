package gqlmiddleware

import (
	"context"
	"log/slog"

	"github.com/99designs/gqlgen/graphql"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/telemetry"
)

// Interceptor wraps a single field resolution. The field being resolved is
// available through graphql.GetFieldContext and the operation through
// graphql.GetOperationContext. Implementations either call next or return
// an error; they never swallow an error returned by next.
type Interceptor interface {
	Intercept(ctx context.Context, next graphql.Resolver) (any, error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, next graphql.Resolver) (any, error)

func (f InterceptorFunc) Intercept(ctx context.Context, next graphql.Resolver) (any, error) {
	return f(ctx, next)
}

// Pipeline runs an ordered list of interceptors around every field
// resolution. It is a gqlgen handler extension; install it with srv.Use.
type Pipeline struct {
	interceptors []Interceptor
}

var (
	_ graphql.HandlerExtension = (*Pipeline)(nil)
	_ graphql.FieldInterceptor = (*Pipeline)(nil)
)

// NewPipeline creates a pipeline running interceptors in the given order.
func NewPipeline(interceptors ...Interceptor) *Pipeline {
	return &Pipeline{interceptors: append([]Interceptor(nil), interceptors...)}
}

// Len returns the number of interceptors.
func (p *Pipeline) Len() int {
	return len(p.interceptors)
}

func (p *Pipeline) ExtensionName() string {
	return "RequestMiddleware"
}

func (p *Pipeline) Validate(graphql.ExecutableSchema) error {
	return nil
}

// InterceptField runs the interceptors in order, ending with next.
func (p *Pipeline) InterceptField(ctx context.Context, next graphql.Resolver) (any, error) {
	return p.run(ctx, 0, next)
}

func (p *Pipeline) run(ctx context.Context, i int, final graphql.Resolver) (any, error) {
	if i == len(p.interceptors) {
		return final(ctx)
	}
	return p.interceptors[i].Intercept(ctx, func(ctx context.Context) (any, error) {
		return p.run(ctx, i+1, final)
	})
}

// Config holds the settings the interceptors read. It is copied into the
// pipeline at construction and never changes afterwards.
type Config struct {
	// GraphQLPath is the only request path on which app tokens are resolved.
	GraphQLPath string

	// ReadOnly enables the mutation allow-list.
	ReadOnly bool

	// RootEmail names the user exempt from read-only mode. Empty disables the bypass.
	RootEmail string
}

// Deps are the collaborators the interceptors delegate to.
type Deps struct {
	Authenticator  ports.Authenticator
	DefaultChannel ports.DefaultChannelResolver
	Apps           ports.AppFinder

	// Tracer defaults to telemetry.Tracer().
	Tracer      trace.Tracer
	TracePolicy *telemetry.TracePolicy

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Chain builds the standard pipeline: authentication, channel, tracing,
// app token and, when enabled, the read-only guard.
func Chain(cfg Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}

	interceptors := []Interceptor{
		NewAuthentication(deps.Authenticator),
		NewChannel(deps.DefaultChannel),
		NewTracing(tracer, deps.TracePolicy),
		NewAppToken(cfg.GraphQLPath, deps.Apps, logger),
	}
	if cfg.ReadOnly {
		interceptors = append(interceptors, NewReadOnly(cfg.RootEmail, logger))
	}

	return NewPipeline(interceptors...)
}
