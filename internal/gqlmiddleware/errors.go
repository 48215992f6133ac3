package gqlmiddleware

import (
	"context"
	"errors"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/server"
)

// PresentError is a gqlgen error presenter. Client-facing domain errors keep
// their message and expose their code as extensions.code and the matching
// HTTP status as extensions.status. Anything else is presented the gqlgen way.
func PresentError(ctx context.Context, err error) *gqlerror.Error {
	gqlErr := graphql.DefaultErrorPresenter(ctx, err)

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		gqlErr.Message = apiErr.Message
		if gqlErr.Extensions == nil {
			gqlErr.Extensions = make(map[string]any)
		}
		gqlErr.Extensions["status"] = apiErr.HTTPStatusCode()
		if apiErr.Code != "" {
			gqlErr.Extensions["code"] = string(apiErr.Code)
			server.AddLogField(ctx, "error_code", string(apiErr.Code))
		}
		if apiErr.Param != "" {
			gqlErr.Extensions["field"] = apiErr.Param
		}
	}

	server.AddLogField(ctx, "error", gqlErr.Message)
	return gqlErr
}
