package gqlmiddleware

import (
	"context"
	"log/slog"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/tjfontaine/shopgate/internal/core/domain"
)

// readOnlyAllowedMutations are the mutations a storefront needs to keep
// selling while the catalog is frozen.
var readOnlyAllowedMutations = map[string]struct{}{
	"checkoutAddPromoCode":          {},
	"checkoutBillingAddressUpdate":  {},
	"checkoutComplete":              {},
	"checkoutCreate":                {},
	"checkoutCustomerAttach":        {},
	"checkoutCustomerDetach":        {},
	"checkoutEmailUpdate":           {},
	"checkoutLineDelete":            {},
	"checkoutLinesAdd":              {},
	"checkoutLinesUpdate":           {},
	"checkoutRemovePromoCode":       {},
	"checkoutPaymentCreate":         {},
	"checkoutShippingAddressUpdate": {},
	"checkoutShippingMethodUpdate":  {},
	"tokenCreate":                   {},
	"tokenVerify":                   {},
}

// MutationAllowedInReadOnly reports whether name may run in read-only mode.
func MutationAllowedInReadOnly(name string) bool {
	_, ok := readOnlyAllowedMutations[name]
	return ok
}

// ReadOnly rejects mutations outside the allow-list. The whole operation
// fails as soon as one top-level selection is not allowed.
type ReadOnly struct {
	rootEmail string
	logger    *slog.Logger
}

// NewReadOnly creates the guard. An empty rootEmail disables the bypass.
func NewReadOnly(rootEmail string, logger *slog.Logger) *ReadOnly {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadOnly{rootEmail: rootEmail, logger: logger}
}

// Intercept checks every top-level selection of a mutation operation.
func (g *ReadOnly) Intercept(ctx context.Context, next graphql.Resolver) (any, error) {
	if !graphql.HasOperationContext(ctx) {
		return next(ctx)
	}
	oc := graphql.GetOperationContext(ctx)
	if oc.Operation == nil || oc.Operation.Operation != ast.Mutation {
		return next(ctx)
	}

	if g.rootEmail != "" {
		user, err := UserFromContext(ctx)
		if err != nil {
			return nil, err
		}
		if !user.IsAnonymous() && user.Email == g.rootEmail {
			return next(ctx)
		}
	}

	for _, field := range graphql.CollectFields(oc, oc.Operation.SelectionSet, []string{"Mutation"}) {
		if !MutationAllowedInReadOnly(field.Name) {
			g.logger.DebugContext(ctx, "mutation blocked by read-only mode",
				slog.String("mutation", field.Name),
				slog.String("operation", oc.OperationName),
			)
			return nil, domain.ErrReadOnlyMode
		}
	}

	return next(ctx)
}
