package client

import (
	"context"
	"errors"
	"fmt"

	"goa.design/schemarpc/auth"
	"goa.design/schemarpc/endpoint"
	"goa.design/schemarpc/interceptor"
	"goa.design/schemarpc/internal/telemetry"
	"goa.design/schemarpc/retry"
	"goa.design/schemarpc/schema"
)

// Config is the immutable, structurally-copyable call configuration snapshot
// spec.md §3 "Call configuration" describes. Values are only ever produced
// by Builder.Build or Config.Override, never mutated in place.
type Config struct {
	ServiceSchema    *schema.Schema
	Protocol         Protocol
	Transport        Transport
	EndpointResolver endpoint.Resolver
	Interceptors     *interceptor.Chain
	AuthCatalog      *auth.Catalog
	AuthResolver     auth.Resolver
	RetryStrategy    retry.Strategy
	RetryScope       string
	Context          context.Context

	Logger  telemetry.Logger
	Tracer  telemetry.Tracer
	Metrics telemetry.Metrics
}

// Override produces a new Config with opts applied over cfg's existing
// values by structural copy-on-write (spec.md §3: "Any per-call override
// produces a new snapshot by structural copy-on-write"): cfg is copied by
// value (its pointer/interface fields are shared, not deep-copied) and opts
// mutate only the copy.
func (cfg Config) Override(opts ...Option) (Config, error) {
	b := &Builder{cfg: cfg, appliedPlugins: map[string]bool{}}
	b.Apply(opts...)
	return b.Build()
}

// Option configures a Builder, following the teacher's functional-options
// idiom (runtime/a2a/httpclient.Option).
type Option func(*Builder)

// WithServiceSchema sets the service's root schema.
func WithServiceSchema(s *schema.Schema) Option {
	return func(b *Builder) { b.cfg.ServiceSchema = s }
}

// WithProtocol sets the protocol engine.
func WithProtocol(p Protocol) Option { return func(b *Builder) { b.cfg.Protocol = p } }

// WithTransport sets the message-exchange transport.
func WithTransport(t Transport) Option { return func(b *Builder) { b.cfg.Transport = t } }

// WithEndpointResolver sets the endpoint resolver.
func WithEndpointResolver(r endpoint.Resolver) Option {
	return func(b *Builder) { b.cfg.EndpointResolver = r }
}

// WithInterceptors replaces the interceptor chain with one built from ics,
// in the given order.
func WithInterceptors(ics ...interceptor.Interceptor) Option {
	return func(b *Builder) { b.cfg.Interceptors = interceptor.NewChain(ics...) }
}

// WithExtraInterceptors appends ics after any interceptors already
// configured, rather than replacing them; useful for a per-call override
// that adds one interceptor without disturbing the base chain.
func WithExtraInterceptors(ics ...interceptor.Interceptor) Option {
	return func(b *Builder) {
		base := []interceptor.Interceptor{}
		if b.cfg.Interceptors != nil {
			base = b.cfg.Interceptors.Interceptors()
		}
		b.cfg.Interceptors = interceptor.NewChain(append(base, ics...)...)
	}
}

// WithAuthCatalog sets the scheme catalog and its identity resolvers.
func WithAuthCatalog(c *auth.Catalog) Option { return func(b *Builder) { b.cfg.AuthCatalog = c } }

// WithAuthResolver sets the per-call auth scheme resolver.
func WithAuthResolver(r auth.Resolver) Option { return func(b *Builder) { b.cfg.AuthResolver = r } }

// WithRetryStrategy sets the retry token strategy.
func WithRetryStrategy(s retry.Strategy) Option { return func(b *Builder) { b.cfg.RetryStrategy = s } }

// WithRetryScope sets the scope key the retry strategy's bucket is keyed by.
func WithRetryScope(scope string) Option { return func(b *Builder) { b.cfg.RetryScope = scope } }

// WithContext sets the base context threaded into the pipeline.
func WithContext(ctx context.Context) Option { return func(b *Builder) { b.cfg.Context = ctx } }

// WithLogger sets the structured logger the pipeline reports through.
func WithLogger(l telemetry.Logger) Option { return func(b *Builder) { b.cfg.Logger = l } }

// WithTracer sets the span tracer each attempt is wrapped in.
func WithTracer(t telemetry.Tracer) Option { return func(b *Builder) { b.cfg.Tracer = t } }

// WithMetrics sets the counters/histograms sink.
func WithMetrics(m telemetry.Metrics) Option { return func(b *Builder) { b.cfg.Metrics = m } }

// Plugin configures a Builder exactly once per plugin class per build
// (spec.md §3: "Plugins configure a mutable builder exactly once per plugin
// class per build (idempotence is required)"). ID identifies the plugin
// class; applying two Plugins with the same ID to one Builder only the
// first's Apply runs.
type Plugin interface {
	ID() string
	Apply(b *Builder)
}

// Builder incrementally assembles a Config (spec.md §3 "Call configuration"
// is built via a mutable builder).
type Builder struct {
	cfg            Config
	appliedPlugins map[string]bool
}

// NewBuilder starts a Builder with no fields set; Build fills required
// defaults and validates the rest.
func NewBuilder() *Builder {
	return &Builder{appliedPlugins: map[string]bool{}}
}

// Apply runs each option against the builder in order.
func (b *Builder) Apply(opts ...Option) *Builder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ApplyPlugin applies plugin unless a plugin with the same ID has already
// been applied to this Builder, making repeated application idempotent.
func (b *Builder) ApplyPlugin(plugin Plugin) *Builder {
	if b.appliedPlugins[plugin.ID()] {
		return b
	}
	plugin.Apply(b)
	b.appliedPlugins[plugin.ID()] = true
	return b
}

// Build validates required fields, fills defaults for the rest, and
// produces the immutable Config snapshot.
func (b *Builder) Build() (Config, error) {
	cfg := b.cfg
	if cfg.ServiceSchema == nil {
		return Config{}, errors.New("client: service schema is required")
	}
	if cfg.Protocol == nil {
		return Config{}, errors.New("client: protocol is required")
	}
	if cfg.Transport == nil {
		return Config{}, errors.New("client: transport is required")
	}
	if cfg.Protocol.ExchangeKind() != cfg.Transport.ExchangeKind() {
		return Config{}, fmt.Errorf("client: protocol exchange kind %q does not match transport exchange kind %q",
			cfg.Protocol.ExchangeKind(), cfg.Transport.ExchangeKind())
	}
	if cfg.EndpointResolver == nil {
		return Config{}, errors.New("client: endpoint resolver is required")
	}
	if cfg.AuthCatalog == nil {
		cfg.AuthCatalog = auth.NewCatalog()
	}
	if cfg.AuthResolver == nil {
		cfg.AuthResolver = auth.NewStaticResolver()
	}
	if cfg.RetryStrategy == nil {
		cfg.RetryStrategy = retry.NewTokenBucketStrategy(3, 5, 1.0, 1, 1)
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NoopLogger{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = telemetry.NoopTracer{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NoopMetrics{}
	}

	userInterceptors := []interceptor.Interceptor{}
	if cfg.Interceptors != nil {
		for _, ic := range cfg.Interceptors.Interceptors() {
			if _, isAttemptHeader := ic.(*attemptHeaderInterceptor); isAttemptHeader {
				continue
			}
			userInterceptors = append(userInterceptors, ic)
		}
	}
	strategy := cfg.RetryStrategy
	attemptHeader := newAttemptHeaderInterceptor(strategy.MaxAttempts)
	cfg.Interceptors = interceptor.NewChain(append([]interceptor.Interceptor{attemptHeader}, userInterceptors...)...)
	return cfg, nil
}
