package auth

import "context"

// Identity is the authenticated caller. Operations that need an owner take it
// explicitly; transport code moves it through the request context.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) IsZero() bool { return i.UserID == "" }

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && !id.IsZero()
}
