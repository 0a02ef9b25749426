package auth

import (
	"context"
	"fmt"

	"github.com/username-escrow/backend/internal/models"
)

// Authorizer confirms that the current call controls the given address.
type Authorizer interface {
	Require(ctx context.Context, address string) error
}

type addressKey struct{}

// WithAddress stores the authenticated wallet address in ctx.
func WithAddress(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, addressKey{}, address)
}

func AddressFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(addressKey{}).(string)
	return addr, ok && addr != ""
}

// ContextAuthorizer trusts the address put into the context by the auth
// middleware after JWT validation.
type ContextAuthorizer struct{}

func (ContextAuthorizer) Require(ctx context.Context, address string) error {
	authed, ok := AddressFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: no authenticated address", models.ErrUnauthorized)
	}
	if address == "" || authed != address {
		return fmt.Errorf("%w: session is bound to a different address", models.ErrUnauthorized)
	}
	return nil
}
