// Package auth implements auth scheme resolution and request signing
// (spec.md §4.3): a scheme catalog, the per-call resolver, identity
// resolvers (static, and AWS including profile-file; bearer-token, API-key
// and login identities have no dedicated resolver type and are served by
// the static resolver), and the SigV4, API-key, bearer, and basic signers.
package auth

import (
	"context"
	"net/http"
)

// Properties is a small typed-by-convention bag a scheme publishes to its
// signer and identity resolver (spec.md §4.3 "signer_properties(context)"
// and "identity_properties(context)"); keys are scheme-specific.
type Properties map[string]any

// Scheme is one auth mechanism a service supports: a stable id, the signer
// that applies it, and the property sets it publishes for that signer and
// for identity resolution (spec.md §4.3 "Scheme").
type Scheme struct {
	ID     string
	Signer Signer

	SignerProperties   func(ctx context.Context) Properties
	IdentityProperties func(ctx context.Context) Properties
}

// props evaluates f against ctx, returning an empty Properties if f is nil.
func props(ctx context.Context, f func(context.Context) Properties) Properties {
	if f == nil {
		return Properties{}
	}
	return f(ctx)
}

// Signer applies a resolved identity to an outgoing request (spec.md §4.3).
type Signer interface {
	SignRequest(ctx context.Context, req *http.Request, identity any, props Properties) error
}

// SignerFunc adapts a plain function to Signer.
type SignerFunc func(ctx context.Context, req *http.Request, identity any, props Properties) error

// SignRequest implements Signer.
func (f SignerFunc) SignRequest(ctx context.Context, req *http.Request, identity any, props Properties) error {
	return f(ctx, req, identity, props)
}

// IdentityResolver resolves the identity a scheme's signer needs (spec.md
// §4.3 "Identity resolver"). Resolvers return an error when they cannot
// produce an identity; the caller (Resolve, or a ChainIdentityResolver) may
// fall through to another resolver.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, props Properties) (any, error)
}

// IdentityResolverFunc adapts a plain function to IdentityResolver.
type IdentityResolverFunc func(ctx context.Context, props Properties) (any, error)

// ResolveIdentity implements IdentityResolver.
func (f IdentityResolverFunc) ResolveIdentity(ctx context.Context, props Properties) (any, error) {
	return f(ctx, props)
}
