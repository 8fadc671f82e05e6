package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/schemarpc/client"
	"goa.design/schemarpc/config/file"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadParsesAllFields(t *testing.T) {
	path := writeConfig(t, `
endpoint: https://api.example.com
region: us-west-2
maxAttempts: 5
retryScope: widgets
`)

	cfg, err := file.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Endpoint)
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "widgets", cfg.RetryScope)
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := file.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOptionsOmitsUnsetFields(t *testing.T) {
	cfg := &file.Config{}
	assert.Empty(t, cfg.Options())

	cfg = &file.Config{Endpoint: "https://api.example.com", RetryScope: "widgets", MaxAttempts: 5}
	assert.Len(t, cfg.Options(), 3)
}

func TestWithContextDefaultsAttachesRegionOnlyWhenSet(t *testing.T) {
	cfg := &file.Config{}
	ctx := cfg.WithContextDefaults(context.Background())
	assert.Equal(t, "", client.RegionFromContext(ctx))

	cfg = &file.Config{Region: "us-west-2"}
	ctx = cfg.WithContextDefaults(context.Background())
	assert.Equal(t, "us-west-2", client.RegionFromContext(ctx))
}
