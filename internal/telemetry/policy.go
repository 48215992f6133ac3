package telemetry

import (
	"strings"

	"github.com/99designs/gqlgen/graphql"
)

// TracePolicy decides which GraphQL field resolutions get their own span.
type TracePolicy struct {
	exclude map[string]struct{}
}

// NewTracePolicy creates a policy that never traces the given
// "Type.field" coordinates.
func NewTracePolicy(exclude []string) *TracePolicy {
	p := &TracePolicy{exclude: make(map[string]struct{}, len(exclude))}
	for _, coord := range exclude {
		p.exclude[strings.TrimSpace(coord)] = struct{}{}
	}
	return p
}

// ShouldTrace reports whether fc deserves a span. Introspection fields and
// plain struct field reads are skipped.
func (p *TracePolicy) ShouldTrace(fc *graphql.FieldContext) bool {
	if fc == nil || fc.Field.Field == nil {
		return false
	}
	if isIntrospection(fc) {
		return false
	}
	if !fc.IsResolver && !fc.IsMethod {
		return false
	}
	if p != nil {
		if _, skip := p.exclude[fc.Object+"."+fc.Field.Name]; skip {
			return false
		}
	}
	return true
}

func isIntrospection(fc *graphql.FieldContext) bool {
	return strings.HasPrefix(fc.Field.Name, "__") || strings.HasPrefix(fc.Object, "__")
}
