package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tjfontaine/shopgate/internal/auth"
	"github.com/tjfontaine/shopgate/internal/channel"
	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
	"github.com/tjfontaine/shopgate/internal/gqlmiddleware"
	"github.com/tjfontaine/shopgate/internal/reqctx"
	"github.com/tjfontaine/shopgate/internal/storage/memory"
)

const (
	testPath     = "/graphql/"
	testPassword = "s3cret-pass"
	rootEmail    = "root@example.com"
	staffEmail   = "staff@example.com"
	appToken     = "app-secret-token"
)

// countingUsers counts user loads by id, which happen once per
// authenticated request.
type countingUsers struct {
	ports.UserStore
	loads atomic.Int32
}

func (c *countingUsers) GetUser(ctx context.Context, id string) (*domain.User, error) {
	c.loads.Add(1)
	return c.UserStore.GetUser(ctx, id)
}

type harness struct {
	t       *testing.T
	store   *memory.Store
	users   *countingUsers
	authn   *auth.Authenticator
	handler http.Handler
}

type harnessOptions struct {
	channels      []string
	readOnly      bool
	rootEmail     string
	introspection bool
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	for _, slug := range opts.channels {
		if err := store.CreateChannel(ctx, &domain.Channel{Slug: slug, Name: slug, Currency: "USD", IsActive: true}); err != nil {
			t.Fatal(err)
		}
	}

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	for _, email := range []string{rootEmail, staffEmail} {
		if err := store.CreateUser(ctx, &domain.User{Email: email, PasswordHash: hash, IsActive: true, IsStaff: true}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := auth.RegisterApp(ctx, store, "Storefront", appToken); err != nil {
		t.Fatal(err)
	}

	users := &countingUsers{UserStore: store}
	authn, err := auth.NewAuthenticator(users, "test-secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	pipeline := gqlmiddleware.Chain(gqlmiddleware.Config{
		GraphQLPath: testPath,
		ReadOnly:    opts.readOnly,
		RootEmail:   opts.rootEmail,
	}, gqlmiddleware.Deps{
		Authenticator:  authn,
		DefaultChannel: channel.NewResolver(store),
		Apps:           auth.NewAppTokens(store),
	})

	srv := NewHandler(&Resolver{Store: store, Auth: authn}, HandlerOptions{
		Pipeline:      pipeline,
		Introspection: opts.introspection,
	})

	return &harness{
		t:       t,
		store:   store,
		users:   users,
		authn:   authn,
		handler: reqctx.Middleware(srv),
	}
}

type gqlError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path"`
	Extensions map[string]any `json:"extensions"`
}

type gqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []gqlError     `json:"errors"`
}

func (h *harness) do(authorization, query string, variables map[string]any) gqlResponse {
	h.t.Helper()
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		h.t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, testPath, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var resp gqlResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		h.t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func (h *harness) login(email string) string {
	h.t.Helper()
	_, token, err := h.authn.Login(context.Background(), email, testPassword)
	if err != nil {
		h.t.Fatal(err)
	}
	return token
}

func (h *harness) addProduct(slug, name string) {
	h.t.Helper()
	if err := h.store.CreateProduct(context.Background(), &domain.Product{ChannelSlug: slug, Name: name}); err != nil {
		h.t.Fatal(err)
	}
}

func productNames(t *testing.T, resp gqlResponse) []string {
	t.Helper()
	list, ok := resp.Data["products"].([]any)
	if !ok {
		t.Fatalf("products = %#v", resp.Data["products"])
	}
	var names []string
	for _, p := range list {
		names = append(names, p.(map[string]any)["name"].(string))
	}
	return names
}

func TestProducts_DefaultChannel(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"default-channel"}})
	h.addProduct("default-channel", "Juice")

	resp := h.do("", `{ products { name channel } }`, nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	names := productNames(t, resp)
	if len(names) != 1 || names[0] != "Juice" {
		t.Errorf("products = %v, want [Juice]", names)
	}
}

func TestProducts_MissingChannelArgument(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"eu", "us"}})

	resp := h.do("", `{ products { name } }`, nil)
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %+v, want one", resp.Errors)
	}
	got := resp.Errors[0]
	if got.Message != "Argument 'channel' not passed." {
		t.Errorf("message = %q", got.Message)
	}
	if got.Extensions["code"] != "MISSING_CHANNEL_ARGUMENT" {
		t.Errorf("extensions = %v", got.Extensions)
	}
	if resp.Data != nil {
		t.Errorf("data = %v, want null", resp.Data)
	}
}

func TestProducts_ExplicitChannel(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"eu", "us"}})
	h.addProduct("eu", "Croissant")
	h.addProduct("us", "Bagel")

	resp := h.do("", `query($ch: String) { products(channel: $ch) { name } }`, map[string]any{"ch": "us"})
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	names := productNames(t, resp)
	if len(names) != 1 || names[0] != "Bagel" {
		t.Errorf("products = %v, want [Bagel]", names)
	}
}

func TestProducts_NoChannels(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.do("", `{ products { name } }`, nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	if names := productNames(t, resp); len(names) != 0 {
		t.Errorf("products = %v, want none", names)
	}
}

func TestProducts_UnknownChannel(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"eu"}})

	resp := h.do("", `{ products(channel: "mars") { name } }`, nil)
	if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != "CHANNEL_NOT_FOUND" {
		t.Fatalf("errors = %+v", resp.Errors)
	}
}

func TestTokenCreateAndMe(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"default-channel"}})

	resp := h.do("", `mutation($e: String!, $p: String!) { tokenCreate(email: $e, password: $p) { token user { email } } }`,
		map[string]any{"e": staffEmail, "p": testPassword})
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	payload := resp.Data["tokenCreate"].(map[string]any)
	token := payload["token"].(string)

	me := h.do("JWT "+token, `{ me { email isStaff } }`, nil)
	if len(me.Errors) != 0 {
		t.Fatalf("errors = %+v", me.Errors)
	}
	user := me.Data["me"].(map[string]any)
	if user["email"] != staffEmail || user["isStaff"] != true {
		t.Errorf("me = %v", user)
	}
}

func TestTokenCreate_InvalidCredentials(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	resp := h.do("", `mutation { tokenCreate(email: "staff@example.com", password: "wrong") { token } }`, nil)
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %+v, want one", resp.Errors)
	}
	if resp.Errors[0].Message != "Please, enter valid credentials" {
		t.Errorf("message = %q", resp.Errors[0].Message)
	}
}

func TestTokenVerify(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	token := h.login(staffEmail)

	resp := h.do("", `query { __typename }`, nil)
	if resp.Data["__typename"] != "Query" {
		t.Errorf("__typename = %v", resp.Data["__typename"])
	}

	valid := h.do("", `mutation($t: String!) { tokenVerify(token: $t) { isValid user { email } } }`, map[string]any{"t": token})
	got := valid.Data["tokenVerify"].(map[string]any)
	if got["isValid"] != true {
		t.Errorf("tokenVerify = %v", got)
	}

	invalid := h.do("", `mutation { tokenVerify(token: "garbage") { isValid user { email } } }`, nil)
	got = invalid.Data["tokenVerify"].(map[string]any)
	if got["isValid"] != false || got["user"] != nil {
		t.Errorf("tokenVerify = %v", got)
	}
}

func TestMe_Anonymous(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	for _, header := range []string{"", "JWT not-a-token", "Basic Zm9vOmJhcg=="} {
		resp := h.do(header, `{ me { email } }`, nil)
		if len(resp.Errors) != 0 {
			t.Fatalf("%q: errors = %+v", header, resp.Errors)
		}
		if resp.Data["me"] != nil {
			t.Errorf("%q: me = %v, want null", header, resp.Data["me"])
		}
	}
}

func TestUserLoadedOncePerRequest(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"eu", "us"}})
	token := h.login(staffEmail)
	h.users.loads.Store(0)

	resp := h.do("JWT "+token, `{ a: me { id } b: me { email } channels { slug } }`, nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	if got := h.users.loads.Load(); got != 1 {
		t.Errorf("user loads = %d, want 1", got)
	}
}

func TestApp(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	tests := []struct {
		name   string
		header string
		want   any
	}{
		{name: "bearer token", header: "Bearer " + appToken, want: "Storefront"},
		{name: "unknown token", header: "Bearer nope", want: nil},
		{name: "basic scheme", header: "Basic " + appToken, want: nil},
		{name: "no header", header: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(tt.header, `{ app { name } }`, nil)
			if len(resp.Errors) != 0 {
				t.Fatalf("errors = %+v", resp.Errors)
			}
			var got any
			if app, ok := resp.Data["app"].(map[string]any); ok {
				got = app["name"]
			}
			if got != tt.want {
				t.Errorf("app name = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckoutCreate_InputChannel(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"eu", "us"}})

	resp := h.do("", `mutation { checkoutCreate(input: {channelSlug: "eu", email: "buyer@example.com"}) { id channel email } }`, nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	checkout := resp.Data["checkoutCreate"].(map[string]any)
	if checkout["channel"] != "eu" || checkout["email"] != "buyer@example.com" {
		t.Errorf("checkout = %v", checkout)
	}
}

func TestProductCreate_RequiresStaff(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"eu"}})

	resp := h.do("", `mutation { productCreate(input: {name: "Tea"}) { id } }`, nil)
	if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != "PERMISSION_DENIED" {
		t.Fatalf("errors = %+v", resp.Errors)
	}

	token := h.login(staffEmail)
	resp = h.do("JWT "+token, `mutation { productCreate(input: {name: "Tea"}) { name channel } }`, nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	product := resp.Data["productCreate"].(map[string]any)
	if product["name"] != "Tea" || product["channel"] != "eu" {
		t.Errorf("product = %v", product)
	}
}

func TestReadOnlyMode(t *testing.T) {
	h := newHarness(t, harnessOptions{
		channels:  []string{"eu"},
		readOnly:  true,
		rootEmail: rootEmail,
	})
	staff := h.login(staffEmail)
	root := h.login(rootEmail)
	const readOnlyMsg = "Be aware admin pirate! API runs in read-only mode!"

	t.Run("allowed mutation", func(t *testing.T) {
		resp := h.do("", `mutation($e: String!, $p: String!) { tokenCreate(email: $e, password: $p) { token } }`,
			map[string]any{"e": staffEmail, "p": testPassword})
		if len(resp.Errors) != 0 {
			t.Fatalf("errors = %+v", resp.Errors)
		}
	})

	t.Run("blocked mutation", func(t *testing.T) {
		resp := h.do("JWT "+staff, `mutation { productCreate(input: {name: "Tea"}) { id } }`, nil)
		if len(resp.Errors) == 0 || resp.Errors[0].Message != readOnlyMsg {
			t.Fatalf("errors = %+v", resp.Errors)
		}
	})

	t.Run("one blocked selection fails the operation", func(t *testing.T) {
		resp := h.do("JWT "+staff, `mutation { tokenVerify(token: "x") { isValid } productCreate(input: {name: "Tea"}) { id } }`, nil)
		if len(resp.Errors) == 0 || resp.Errors[0].Message != readOnlyMsg {
			t.Fatalf("errors = %+v", resp.Errors)
		}
		products, err := h.store.ListProducts(context.Background(), "eu")
		if err != nil {
			t.Fatal(err)
		}
		if len(products) != 0 {
			t.Errorf("products = %d, want 0", len(products))
		}
	})

	t.Run("root user bypasses", func(t *testing.T) {
		resp := h.do("JWT "+root, `mutation { productCreate(input: {name: "Tea"}) { name } }`, nil)
		if len(resp.Errors) != 0 {
			t.Fatalf("errors = %+v", resp.Errors)
		}
	})

	t.Run("queries pass", func(t *testing.T) {
		resp := h.do("", `{ channels { slug } }`, nil)
		if len(resp.Errors) != 0 {
			t.Fatalf("errors = %+v", resp.Errors)
		}
	})
}

func TestIntrospection(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		h := newHarness(t, harnessOptions{introspection: true})
		resp := h.do("", `{ __schema { queryType { name } mutationType { name } } __type(name: "Product") { fields { name } } }`, nil)
		if len(resp.Errors) != 0 {
			t.Fatalf("errors = %+v", resp.Errors)
		}
		schema := resp.Data["__schema"].(map[string]any)
		if schema["queryType"].(map[string]any)["name"] != "Query" {
			t.Errorf("__schema = %v", schema)
		}
		fields := resp.Data["__type"].(map[string]any)["fields"].([]any)
		if len(fields) != 4 {
			t.Errorf("Product fields = %v", fields)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t, harnessOptions{})
		resp := h.do("", `{ __schema { queryType { name } } }`, nil)
		if len(resp.Errors) == 0 {
			t.Error("expected introspection to be rejected")
		}
	})
}

func TestFragmentsAndAliases(t *testing.T) {
	h := newHarness(t, harnessOptions{channels: []string{"eu"}})

	resp := h.do("", `
		query {
			first: channels { ...ch }
			second: channel(slug: "eu") { ...ch }
		}
		fragment ch on Channel { slug currencyCode }
	`, nil)
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	second := resp.Data["second"].(map[string]any)
	if second["slug"] != "eu" || second["currencyCode"] != "USD" {
		t.Errorf("second = %v", second)
	}
	if first := resp.Data["first"].([]any); len(first) != 1 {
		t.Errorf("first = %v", first)
	}
}
