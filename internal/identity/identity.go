// Package identity carries the caller identity through the service.  The
// booking core only needs equality and a distinguished anonymous value; how
// the identity was proven (password, one-time code) stays with the auth
// handlers that mint tokens.
package identity

import "context"

// Identity is an opaque reference to an authenticated caller.
type Identity string

// Anonymous is the unauthenticated sentinel.
const Anonymous Identity = ""

// IsAnonymous reports whether id is the unauthenticated sentinel.
func (id Identity) IsAnonymous() bool { return id == Anonymous }

func (id Identity) String() string { return string(id) }

// Provider answers who is calling.
type Provider interface {
	CurrentIdentity(ctx context.Context) Identity
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Anonymous
}

// ContextProvider reads the identity that middleware placed on the request
// context.
type ContextProvider struct{}

func (ContextProvider) CurrentIdentity(ctx context.Context) Identity { return FromContext(ctx) }

