package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsRegistryWhenUnset(t *testing.T) {
	t.Setenv(EnvRegistry, "")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultRegistry, cfg.RegistryBase)
}

func TestNewTrimsTrailingSlashFromRegistryOverride(t *testing.T) {
	t.Setenv(EnvRegistry, "https://example.com/registry/")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/registry", cfg.RegistryBase)
}

func TestNewStoreRootUnderHomeDotRpm(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Contains(t, cfg.StoreRoot.ToString(), ".rpm")
}

func TestNewNoColorRespectsForceColorOverride(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("FORCE_COLOR", "1")
	cfg, err := New()
	require.NoError(t, err)
	assert.False(t, cfg.NoColor)
}
