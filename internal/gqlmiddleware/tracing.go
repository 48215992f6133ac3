package gqlmiddleware

import (
	"context"

	"github.com/99designs/gqlgen/graphql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/shopgate/internal/telemetry"
)

// Tracing opens a span named "{ParentType}.{field}" around field
// resolutions selected by the trace policy.
type Tracing struct {
	tracer trace.Tracer
	policy *telemetry.TracePolicy
}

// NewTracing creates the interceptor.
func NewTracing(tracer trace.Tracer, policy *telemetry.TracePolicy) *Tracing {
	return &Tracing{tracer: tracer, policy: policy}
}

func (t *Tracing) Intercept(ctx context.Context, next graphql.Resolver) (any, error) {
	fc := graphql.GetFieldContext(ctx)
	if !t.policy.ShouldTrace(fc) {
		return next(ctx)
	}

	ctx, span := t.tracer.Start(ctx, fc.Object+"."+fc.Field.Name,
		trace.WithAttributes(
			attribute.String("component", "graphql"),
			attribute.String("graphql.parent_type", fc.Object),
			attribute.String("graphql.field_name", fc.Field.Name),
		),
	)
	defer span.End()

	res, err := next(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}
