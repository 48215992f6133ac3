package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var schemaSDL string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSDL})

// Schema returns the storefront schema.
func Schema() *ast.Schema {
	return parsedSchema
}

type fieldResolver func(ctx context.Context, args map[string]any) (any, error)

// executableSchema executes operations against a Resolver. Every field,
// root or nested, runs through the operation's field middleware so handler
// extensions observe each resolution.
type executableSchema struct {
	// Complexity is left to the embedded nil interface; no complexity
	// limit extension is installed on the handler.
	graphql.ExecutableSchema

	schema *ast.Schema
	roots  map[string]map[string]fieldResolver
}

// NewExecutableSchema creates an executable schema backed by r.
func NewExecutableSchema(r *Resolver) graphql.ExecutableSchema {
	return &executableSchema{
		schema: parsedSchema,
		roots: map[string]map[string]fieldResolver{
			"Query":    r.queryFields(),
			"Mutation": r.mutationFields(),
		},
	}
}

func (e *executableSchema) Schema() *ast.Schema {
	return e.schema
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	oc := graphql.GetOperationContext(ctx)

	var root *ast.Definition
	switch oc.Operation.Operation {
	case ast.Query:
		root = e.schema.Query
	case ast.Mutation:
		root = e.schema.Mutation
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		data, _ := e.completeObject(ctx, oc, root, nil, oc.Operation.SelectionSet)
		raw, err := json.Marshal(data)
		if err != nil {
			return graphql.ErrorResponse(ctx, "marshal response: %v", err)
		}
		return &graphql.Response{Data: raw}
	}
}

// completeObject resolves the selections of an object value. It reports
// false when a non-null field resolved to null, which nulls the object.
func (e *executableSchema) completeObject(ctx context.Context, oc *graphql.OperationContext, def *ast.Definition, parent any, selections ast.SelectionSet) (*object, bool) {
	out := &object{}
	for _, field := range graphql.CollectFields(oc, selections, []string{def.Name}) {
		if field.Name == "__typename" {
			out.set(field.Alias, def.Name)
			continue
		}

		fd := field.Definition
		if fd == nil {
			fd = def.Fields.ForName(field.Name)
		}
		if fd == nil {
			graphql.AddErrorf(ctx, "unknown field %s.%s", def.Name, field.Name)
			out.set(field.Alias, nil)
			continue
		}

		value, ok := e.execField(ctx, oc, def.Name, field, fd, parent)
		if !ok {
			return nil, false
		}
		out.set(field.Alias, value)
	}
	return out, true
}

func (e *executableSchema) execField(ctx context.Context, oc *graphql.OperationContext, objectName string, field graphql.CollectedField, fd *ast.FieldDefinition, parent any) (any, bool) {
	var args map[string]any
	if field.Definition != nil {
		args = field.ArgumentMap(oc.Variables)
	}

	fc := &graphql.FieldContext{
		Object: objectName,
		Field:  field,
		Args:   args,
	}

	var resolve graphql.Resolver
	if root, ok := e.roots[objectName]; ok {
		fc.IsMethod = true
		fc.IsResolver = true
		resolve = func(ctx context.Context) (any, error) {
			return e.resolveRoot(ctx, oc, root, field.Name, args)
		}
	} else {
		fc.IsMethod = hasMethod(parent, field.Name)
		resolve = func(ctx context.Context) (any, error) {
			return readField(parent, field.Name, args), nil
		}
	}
	ctx = graphql.WithFieldContext(ctx, fc)

	value, err := invoke(ctx, oc, resolve)
	if err != nil {
		graphql.AddError(ctx, err)
		return nil, !fd.Type.NonNull
	}
	fc.Result = value

	return e.complete(ctx, oc, fd.Type, value, field)
}

func (e *executableSchema) resolveRoot(ctx context.Context, oc *graphql.OperationContext, fields map[string]fieldResolver, name string, args map[string]any) (any, error) {
	switch name {
	case "__schema":
		if oc.DisableIntrospection {
			return nil, fmt.Errorf("introspection disabled")
		}
		return introspection.WrapSchema(e.schema), nil
	case "__type":
		if oc.DisableIntrospection {
			return nil, fmt.Errorf("introspection disabled")
		}
		typeName, _ := args["name"].(string)
		return introspection.WrapTypeFromDef(e.schema, e.schema.Types[typeName]), nil
	}

	resolve, ok := fields[name]
	if !ok {
		return nil, fmt.Errorf("no resolver for field %s", name)
	}
	return resolve(ctx, args)
}

// complete projects value onto the field's type and sub-selection.
func (e *executableSchema) complete(ctx context.Context, oc *graphql.OperationContext, typ *ast.Type, value any, field graphql.CollectedField) (any, bool) {
	if isNil(value) {
		return nil, !typ.NonNull
	}

	if typ.Elem != nil {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			graphql.AddErrorf(ctx, "expected a list, got %T", value)
			return nil, !typ.NonNull
		}
		list := make([]any, rv.Len())
		for i := range list {
			index := i
			ictx := graphql.WithFieldContext(ctx, &graphql.FieldContext{Index: &index})
			item, ok := e.complete(ictx, oc, typ.Elem, element(rv, i), field)
			if !ok {
				return nil, !typ.NonNull
			}
			list[i] = item
		}
		return list, true
	}

	def := e.schema.Types[typ.Name()]
	if def == nil || def.Kind != ast.Object {
		return value, true
	}
	obj, ok := e.completeObject(ctx, oc, def, value, field.Selections)
	if !ok {
		return nil, !typ.NonNull
	}
	return obj, true
}

func invoke(ctx context.Context, oc *graphql.OperationContext, next graphql.Resolver) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oc.Recover(ctx, r)
		}
	}()
	return oc.ResolverMiddleware(ctx, next)
}

// readField reads name from a resolved value. Maps are indexed by field
// name; other values expose the field as an exported method or struct
// field, which covers the introspection types.
func readField(parent any, name string, args map[string]any) any {
	if m, ok := parent.(map[string]any); ok {
		return m[name]
	}

	goName := strings.ToUpper(name[:1]) + name[1:]
	rv := reflect.ValueOf(parent)
	if method := rv.MethodByName(goName); method.IsValid() {
		mt := method.Type()
		in := make([]reflect.Value, mt.NumIn())
		for i := range in {
			in[i] = reflect.Zero(mt.In(i))
			if include, ok := args["includeDeprecated"].(bool); ok && mt.In(i).Kind() == reflect.Bool {
				in[i] = reflect.ValueOf(include)
			}
		}
		out := method.Call(in)
		if len(out) == 0 {
			return nil
		}
		return out[0].Interface()
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName(goName); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return nil
}

func hasMethod(parent any, name string) bool {
	if parent == nil {
		return false
	}
	if _, ok := parent.(map[string]any); ok {
		return false
	}
	return reflect.ValueOf(parent).MethodByName(strings.ToUpper(name[:1]) + name[1:]).IsValid()
}

// element returns the i-th list item, addressed when it is a struct so
// pointer-receiver methods stay reachable.
func element(list reflect.Value, i int) any {
	item := list.Index(i)
	if item.Kind() == reflect.Struct && item.CanAddr() {
		return item.Addr().Interface()
	}
	return item.Interface()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// object is a JSON object that keeps the selection order of its keys.
type object struct {
	keys   []string
	values []any
}

func (o *object) set(key string, value any) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
