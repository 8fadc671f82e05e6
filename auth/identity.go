package auth

import "context"

// APIKeyIdentity is the identity APIKeySigner expects.
type APIKeyIdentity struct {
	Key string
}

// BearerTokenIdentity is the identity BearerSigner expects.
type BearerTokenIdentity struct {
	Token string
}

// LoginIdentity is the identity BasicSigner expects (spec.md §4.3 "login
// (user+password)").
type LoginIdentity struct {
	Username string
	Password string
}

// StaticIdentityResolver always resolves to the same, pre-known identity
// (spec.md §4.3 "static credentials").
type StaticIdentityResolver struct {
	identity any
}

// NewStaticIdentityResolver builds a StaticIdentityResolver over identity.
func NewStaticIdentityResolver(identity any) *StaticIdentityResolver {
	return &StaticIdentityResolver{identity: identity}
}

// ResolveIdentity implements IdentityResolver.
func (r *StaticIdentityResolver) ResolveIdentity(context.Context, Properties) (any, error) {
	return r.identity, nil
}
