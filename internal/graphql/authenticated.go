package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/security/middleware"
)

// Authenticated wraps a resolver that requires a caller identity. Without a
// resolved session the wrapped resolver never runs; with one, the public
// user is handed over as an explicit argument instead of being re-derived
// from context inside every operation.
func Authenticated(fn func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error)) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		user := middleware.CurrentUser(p.Context)
		if user == nil {
			return nil, domain.ErrUnauthenticated
		}
		return fn(p, user)
	}
}
