package gqlmiddleware

import (
	"errors"
	"testing"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/tjfontaine/shopgate/internal/core/domain"
)

func TestMutationAllowedInReadOnly(t *testing.T) {
	allowed := []string{
		"checkoutAddPromoCode", "checkoutBillingAddressUpdate", "checkoutComplete",
		"checkoutCreate", "checkoutCustomerAttach", "checkoutCustomerDetach",
		"checkoutEmailUpdate", "checkoutLineDelete", "checkoutLinesAdd",
		"checkoutLinesUpdate", "checkoutRemovePromoCode", "checkoutPaymentCreate",
		"checkoutShippingAddressUpdate", "checkoutShippingMethodUpdate",
		"tokenCreate", "tokenVerify",
	}
	for _, name := range allowed {
		if !MutationAllowedInReadOnly(name) {
			t.Errorf("%s should be allowed", name)
		}
	}
	if len(readOnlyAllowedMutations) != len(allowed) {
		t.Errorf("allow-list has %d entries, want %d", len(readOnlyAllowedMutations), len(allowed))
	}

	for _, name := range []string{"productCreate", "checkoutDelete", "TokenCreate", ""} {
		if MutationAllowedInReadOnly(name) {
			t.Errorf("%q should not be allowed", name)
		}
	}
}

func TestReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		op      ast.Operation
		fields  []string
		user    *domain.User
		root    string
		wantErr bool
	}{
		{
			name:   "allowed mutation",
			op:     ast.Mutation,
			fields: []string{"tokenCreate"},
		},
		{
			name:   "several allowed mutations",
			op:     ast.Mutation,
			fields: []string{"checkoutCreate", "checkoutLinesAdd"},
		},
		{
			name:    "one blocked selection fails the operation",
			op:      ast.Mutation,
			fields:  []string{"tokenCreate", "productCreate"},
			wantErr: true,
		},
		{
			name:   "queries pass",
			op:     ast.Query,
			fields: []string{"products"},
		},
		{
			name:   "root user bypasses",
			op:     ast.Mutation,
			fields: []string{"productCreate"},
			user:   &domain.User{ID: "u1", Email: "root@example.com"},
			root:   "root@example.com",
		},
		{
			name:    "other user is blocked",
			op:      ast.Mutation,
			fields:  []string{"productCreate"},
			user:    &domain.User{ID: "u2", Email: "staff@example.com"},
			root:    "root@example.com",
			wantErr: true,
		},
		{
			name:    "anonymous user is blocked",
			op:      ast.Mutation,
			fields:  []string{"productCreate"},
			root:    "root@example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newRequest(testGraphQLPath, "")
			ctx = withOperation(ctx, tt.op, tt.fields...)
			ctx = withField(ctx, "Mutation", tt.fields[0], nil)

			p := NewPipeline(
				NewAuthentication(&fakeAuthenticator{user: tt.user}),
				NewReadOnly(tt.root, nil),
			)

			called := false
			_, err := p.InterceptField(ctx, okResolver(&called))
			if tt.wantErr {
				if !errors.Is(err, domain.ErrReadOnlyMode) {
					t.Fatalf("error = %v, want ErrReadOnlyMode", err)
				}
				if called {
					t.Error("resolver ran for a blocked mutation")
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if !called {
				t.Error("resolver was not called")
			}
		})
	}
}

func TestReadOnly_DoesNotAuthenticateWithoutRootEmail(t *testing.T) {
	authn := &fakeAuthenticator{user: &domain.User{ID: "u1", Email: "root@example.com"}}
	ctx, _ := newRequest(testGraphQLPath, "")
	ctx = withOperation(ctx, ast.Mutation, "tokenCreate")

	p := NewPipeline(NewAuthentication(authn), NewReadOnly("", nil))
	called := false
	if _, err := p.InterceptField(ctx, okResolver(&called)); err != nil {
		t.Fatal(err)
	}
	if authn.Calls() != 0 {
		t.Errorf("authenticator calls = %d, want 0", authn.Calls())
	}
}

func TestReadOnly_Message(t *testing.T) {
	if domain.ErrReadOnlyMode.Message != "Be aware admin pirate! API runs in read-only mode!" {
		t.Errorf("Message = %q", domain.ErrReadOnlyMode.Message)
	}
}
