// Package file loads client defaults from a YAML file, the same shape as a
// deployment config file (SPEC_FULL.md §2.3), using gopkg.in/yaml.v3 the way
// the teacher's integration test framework loads scenario files
// (integration_tests/framework/runner.go).
package file

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"goa.design/schemarpc/client"
	"goa.design/schemarpc/endpoint"
	"goa.design/schemarpc/retry"
)

// Config is the on-disk shape of a client's default settings.
type Config struct {
	// Endpoint overrides the service endpoint's base URI.
	Endpoint string `yaml:"endpoint"`
	// Region selects the region-aware endpoint/signing defaults, applied to
	// the call context rather than the Builder (region is a per-call value,
	// see client.WithRegion).
	Region string `yaml:"region"`
	// MaxAttempts caps the number of attempts the retry strategy allows,
	// including the first. Zero means "leave the strategy's default".
	MaxAttempts int `yaml:"maxAttempts"`
	// RetryScope keys the retry token bucket, overriding the operation-name
	// default.
	RetryScope string `yaml:"retryScope"`
}

// Load reads and parses path as a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-supplied client config path
	if err != nil {
		return nil, fmt.Errorf("config/file: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config/file: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Options renders cfg as client.Options for a Builder, leaving fields the
// file left zero untouched so callers can layer a file config under
// programmatic overrides.
func (cfg *Config) Options() []client.Option {
	var opts []client.Option
	if cfg.Endpoint != "" {
		opts = append(opts, client.WithEndpointResolver(endpoint.NewStatic(cfg.Endpoint, nil)))
	}
	if cfg.RetryScope != "" {
		opts = append(opts, client.WithRetryScope(cfg.RetryScope))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, client.WithRetryStrategy(retry.NewTokenBucketStrategy(cfg.MaxAttempts, 5, 1.0, 1, 1)))
	}
	return opts
}

// WithContextDefaults attaches cfg's region to ctx, when set, for resolvers
// and signers that read client.RegionFromContext.
func (cfg *Config) WithContextDefaults(ctx context.Context) context.Context {
	if cfg.Region != "" {
		ctx = client.WithRegion(ctx, cfg.Region)
	}
	return ctx
}
