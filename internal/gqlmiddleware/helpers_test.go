package gqlmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/reqctx"
)

const testGraphQLPath = "/graphql/"

// newRequest returns a context carrying a fresh request context for a POST
// to path with the given Authorization header.
func newRequest(path, authorization string) (context.Context, *reqctx.Context) {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rc := reqctx.New(req)
	return reqctx.NewContext(req.Context(), rc), rc
}

func withField(ctx context.Context, object, field string, args map[string]any) context.Context {
	return graphql.WithFieldContext(ctx, &graphql.FieldContext{
		Object:     object,
		Field:      graphql.CollectedField{Field: &ast.Field{Name: field, Alias: field}},
		Args:       args,
		IsResolver: true,
	})
}

func withOperation(ctx context.Context, op ast.Operation, fields ...string) context.Context {
	var selections ast.SelectionSet
	for _, name := range fields {
		selections = append(selections, &ast.Field{Name: name, Alias: name})
	}
	return graphql.WithOperationContext(ctx, &graphql.OperationContext{
		Operation: &ast.OperationDefinition{
			Operation:    op,
			SelectionSet: selections,
		},
	})
}

// okResolver is a terminal resolver that records it ran.
func okResolver(called *bool) graphql.Resolver {
	return func(ctx context.Context) (any, error) {
		*called = true
		return "ok", nil
	}
}

type fakeAuthenticator struct {
	mu    sync.Mutex
	user  *domain.User
	err   error
	calls int
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.user, f.err
}

func (f *fakeAuthenticator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDefaultChannel struct {
	slug  string
	err   error
	calls int
}

func (f *fakeDefaultChannel) DefaultSlug(ctx context.Context) (string, error) {
	f.calls++
	return f.slug, f.err
}

type fakeApps struct {
	apps  map[string]*domain.App
	err   error
	calls int
}

func (f *fakeApps) FindActiveByToken(ctx context.Context, token string) (*domain.App, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.apps[token], nil
}
