package auth

import (
	"context"

	"github.com/ovozbot/finance-service/internal/domain/entities"
)

// key is an unexported type for keys defined in this package.
// This prevents collisions with keys defined in other packages.
type key int

// adminKey is the key for entities.Admin values in Contexts. It is
// unexported; clients use auth.NewContext and auth.FromContext
// instead of using this key directly.
var adminKey key

// NewContext returns a new Context that carries value a.
func NewContext(ctx context.Context, a *entities.Admin) context.Context {
	return context.WithValue(ctx, adminKey, a)
}

// FromContext returns the Admin value stored in ctx, if any.
func FromContext(ctx context.Context) (*entities.Admin, bool) {
	a, ok := ctx.Value(adminKey).(*entities.Admin)
	return a, ok
}
