/*
Package server provides the HTTP transport for the storefront GraphQL API.

# Middleware Chain Order

Every request passes through, in order:
 1. RequestIDMiddleware (first, so every log line carries the ID)
 2. LoggingMiddleware (one structured line per request)
 3. reqctx.Middleware (installs the per-request cache read by the GraphQL interceptors)
 4. TimeoutMiddleware (bounds the request context)
 5. Recoverer (catches panics)
 6. OTel instrumentation (OpenTelemetry)

# Routes

  - graphql.path (default /graphql/): the GraphQL endpoint, GET and POST
  - /playground: GraphQL explorer, only when debug is enabled
  - /health: liveness probe

# Log Fields

Code running inside a request may enrich the request log with AddLogField.
The GraphQL interceptors record user_id, channel and app_id once the
corresponding request state is resolved, and the error presenter records
error and error_code.

# Example Usage

	srv := server.New(server.Config{Port: 8000, GraphQLPath: "/graphql/"}, logger, gqlHandler)
	go srv.Start()
	defer srv.Shutdown(ctx)
*/
package server
