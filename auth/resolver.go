package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NoAuthSchemeID is the sentinel scheme that is always present and never
// fails to resolve (spec.md §4.3 "A sentinel no-auth scheme exists and is
// always present").
const NoAuthSchemeID = "no-auth"

// NoAuthScheme returns the sentinel scheme whose signer is a no-op.
func NoAuthScheme() *Scheme {
	return &Scheme{
		ID:     NoAuthSchemeID,
		Signer: SignerFunc(func(context.Context, *http.Request, any, Properties) error { return nil }),
	}
}

// Option is one candidate scheme a resolver offers for a call, in priority
// order (spec.md §4.3 "ordered list of scheme options").
type Option struct {
	SchemeID           string
	SignerProperties   Properties
	IdentityProperties Properties
}

// Params carries what a Resolver needs to rank scheme options for one call.
type Params struct {
	Operation string
}

// Resolver produces the ordered scheme options for a call (spec.md §4.3
// "resolve_auth_scheme(params) -> ordered list of scheme options").
type Resolver interface {
	ResolveAuthSchemes(ctx context.Context, params Params) ([]Option, error)
}

// StaticResolver always returns the same ordered options, the common case
// where an operation's supported scheme ids are known at build time. It
// always appends a trailing NoAuthSchemeID option so a client with no
// identity configured for any scheme degrades to no-auth rather than
// failing resolution outright.
type StaticResolver struct {
	options []Option
}

// NewStaticResolver builds a StaticResolver over options, in priority order.
func NewStaticResolver(options ...Option) *StaticResolver {
	cp := make([]Option, len(options), len(options)+1)
	copy(cp, options)
	cp = append(cp, Option{SchemeID: NoAuthSchemeID})
	return &StaticResolver{options: cp}
}

// ResolveAuthSchemes implements Resolver.
func (r *StaticResolver) ResolveAuthSchemes(context.Context, Params) ([]Option, error) {
	return r.options, nil
}

// ChainIdentityResolver tries each resolver in order, returning the first
// identity resolved successfully (spec.md §4.3 "failures fall through to
// the next resolver in order").
type ChainIdentityResolver struct {
	resolvers []IdentityResolver
}

// NewChainIdentityResolver builds a ChainIdentityResolver over resolvers.
func NewChainIdentityResolver(resolvers ...IdentityResolver) *ChainIdentityResolver {
	return &ChainIdentityResolver{resolvers: resolvers}
}

// ResolveIdentity implements IdentityResolver.
func (c *ChainIdentityResolver) ResolveIdentity(ctx context.Context, props Properties) (any, error) {
	var lastErr error
	for _, r := range c.resolvers {
		identity, err := r.ResolveIdentity(ctx, props)
		if err == nil {
			return identity, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("auth: empty identity resolver chain")
	}
	return nil, lastErr
}

// Catalog maps a scheme id to the Scheme and the IdentityResolver the
// client has configured for it.
type Catalog struct {
	Schemes    map[string]*Scheme
	Identities map[string]IdentityResolver
}

// NewCatalog builds a Catalog seeded with the always-present no-auth
// scheme, whose identity resolves trivially to nil.
func NewCatalog() *Catalog {
	c := &Catalog{Schemes: map[string]*Scheme{}, Identities: map[string]IdentityResolver{}}
	c.Schemes[NoAuthSchemeID] = NoAuthScheme()
	c.Identities[NoAuthSchemeID] = IdentityResolverFunc(func(context.Context, Properties) (any, error) { return nil, nil })
	return c
}

// Register adds scheme and its identity resolver to the catalog.
func (c *Catalog) Register(scheme *Scheme, identity IdentityResolver) {
	c.Schemes[scheme.ID] = scheme
	c.Identities[scheme.ID] = identity
}

// Resolve implements spec.md §4.3 resolve_auth_scheme's selection rule: the
// first option whose scheme is in the catalog and whose identity resolves
// wins. It returns the winning scheme, the resolved identity, and the
// signer/identity properties published for that option.
func Resolve(ctx context.Context, options []Option, catalog *Catalog) (*Scheme, any, Properties, error) {
	var lastErr error
	for _, opt := range options {
		scheme, ok := catalog.Schemes[opt.SchemeID]
		if !ok {
			continue
		}
		resolver, ok := catalog.Identities[opt.SchemeID]
		if !ok {
			lastErr = fmt.Errorf("auth: no identity resolver configured for scheme %q", opt.SchemeID)
			continue
		}
		identityProps := opt.IdentityProperties
		if identityProps == nil {
			identityProps = props(ctx, scheme.IdentityProperties)
		}
		identity, err := resolver.ResolveIdentity(ctx, identityProps)
		if err != nil {
			lastErr = err
			continue
		}
		signerProps := opt.SignerProperties
		if signerProps == nil {
			signerProps = props(ctx, scheme.SignerProperties)
		}
		return scheme, identity, signerProps, nil
	}
	if lastErr == nil {
		lastErr = errors.New("auth: no auth scheme option resolved")
	}
	return nil, nil, nil, lastErr
}
