package client

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Each key type is an unexported empty struct, one per context slot, the
// same idiom the teacher uses for its workflow/activity context keys
// (runtime/agent/engine/context.go).
type (
	operationCtxKey        struct{}
	idempotencyTokenCtxKey struct{}
	clockCtxKey            struct{}
	featureIDsCtxKey       struct{}
	endpointOverrideCtxKey struct{}
	regionCtxKey           struct{}
	retryScopeCtxKey       struct{}
	authIdentityCtxKey     struct{}
)

// WithOperation attaches the current operation's absolute shape id.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationCtxKey{}, operation)
}

// OperationFromContext returns the operation id attached by WithOperation.
func OperationFromContext(ctx context.Context) string {
	op, _ := ctx.Value(operationCtxKey{}).(string)
	return op
}

// NewIdempotencyToken generates a fresh idempotency token.
func NewIdempotencyToken() string { return uuid.NewString() }

// WithIdempotencyToken attaches an idempotency token, generating one via
// NewIdempotencyToken if token is empty (spec.md §4.4 classifier:
// "idempotency_token set" upgrades 5xx retry safety).
func WithIdempotencyToken(ctx context.Context, token string) context.Context {
	if token == "" {
		token = NewIdempotencyToken()
	}
	return context.WithValue(ctx, idempotencyTokenCtxKey{}, token)
}

// IdempotencyTokenFromContext returns the attached token, or "" if none.
func IdempotencyTokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(idempotencyTokenCtxKey{}).(string)
	return tok
}

// WithClock overrides the pipeline's notion of "now", for deterministic
// tests of retry-after and timeout handling.
func WithClock(ctx context.Context, now func() time.Time) context.Context {
	return context.WithValue(ctx, clockCtxKey{}, now)
}

// ClockFromContext returns the attached clock, defaulting to time.Now.
func ClockFromContext(ctx context.Context) func() time.Time {
	if now, ok := ctx.Value(clockCtxKey{}).(func() time.Time); ok && now != nil {
		return now
	}
	return time.Now
}

// WithFeatureIDs attaches the feature-id set the user-agent builder renders
// into the "m/<feature-csv>" segment (spec.md §6 "User-agent").
func WithFeatureIDs(ctx context.Context, ids []string) context.Context {
	return context.WithValue(ctx, featureIDsCtxKey{}, ids)
}

// FeatureIDsFromContext returns the attached feature ids, or nil.
func FeatureIDsFromContext(ctx context.Context) []string {
	ids, _ := ctx.Value(featureIDsCtxKey{}).([]string)
	return ids
}

// WithEndpointOverride attaches a call-scoped static URI that completely
// replaces resolver-provided paths (spec.md §6 "Endpoint override").
func WithEndpointOverride(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, endpointOverrideCtxKey{}, uri)
}

// EndpointOverrideFromContext returns the attached override URI, or "".
func EndpointOverrideFromContext(ctx context.Context) string {
	uri, _ := ctx.Value(endpointOverrideCtxKey{}).(string)
	return uri
}

// WithRegion attaches the call's region, consumed by region-aware endpoint
// resolvers and the SigV4 signer.
func WithRegion(ctx context.Context, region string) context.Context {
	return context.WithValue(ctx, regionCtxKey{}, region)
}

// RegionFromContext returns the attached region, or "".
func RegionFromContext(ctx context.Context) string {
	region, _ := ctx.Value(regionCtxKey{}).(string)
	return region
}

// ContextWithRetryScope attaches the free-form scope key the retry
// strategy's bucket is keyed by (spec.md §3 "Retry token").
func ContextWithRetryScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, retryScopeCtxKey{}, scope)
}

// RetryScopeFromContext returns the attached retry scope, or "".
func RetryScopeFromContext(ctx context.Context) string {
	scope, _ := ctx.Value(retryScopeCtxKey{}).(string)
	return scope
}

// AuthView is the only auth-related state interceptors reading the context
// may see: the winning scheme id. The resolved identity itself (credentials,
// tokens) is stashed under a separate, unexported key with no exported
// reader, so an interceptor cannot retrieve raw secrets off the context even
// though the pipeline itself needs them to sign the request.
type AuthView struct {
	SchemeID string
}

// WithAuthIdentity attaches the resolved identity and its scheme id. Callers
// outside this package cannot read the identity back; see identityFromContext.
func WithAuthIdentity(ctx context.Context, schemeID string, identity any) context.Context {
	ctx = context.WithValue(ctx, authIdentityCtxKey{}, identity)
	return context.WithValue(ctx, authViewCtxKey{}, AuthView{SchemeID: schemeID})
}

type authViewCtxKey struct{}

// AuthViewFromContext returns the non-sensitive view of the current call's
// resolved auth scheme.
func AuthViewFromContext(ctx context.Context) (AuthView, bool) {
	v, ok := ctx.Value(authViewCtxKey{}).(AuthView)
	return v, ok
}

// identityFromContext returns the raw resolved identity. Unexported: only
// pipeline code in this package may read it back to pass to a Signer.
func identityFromContext(ctx context.Context) any {
	return ctx.Value(authIdentityCtxKey{})
}
