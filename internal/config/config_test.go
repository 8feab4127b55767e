package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-tomboot/internal/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "TOM.OS", cfg.KernelName)
	assert.Equal(t, types.DefaultRootPartitionIndex, cfg.RootPartitionIndex)
	assert.Equal(t, PolicyOrdinal, cfg.SelectionPolicy)
	assert.Equal(t, uint64(0x80200000), cfg.LoadAddress)
	assert.Equal(t, types.RootPartitionTypeGUID, cfg.RootType().String())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tomboot-config.yaml")
	content := `image: /var/lib/tomboot/sd.img
kernel_name: KERNEL.BIN
selection_policy: guid
root_partition_index: 1
load_address: 0x40000000
memory_size: 1048576
log_level: info
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tomboot/sd.img", cfg.Image)
	assert.Equal(t, "KERNEL.BIN", cfg.KernelName)
	assert.Equal(t, PolicyGUID, cfg.SelectionPolicy)
	assert.Equal(t, 1, cfg.RootPartitionIndex)
	assert.Equal(t, uint64(0x40000000), cfg.LoadAddress)
	assert.Equal(t, uint64(1<<20), cfg.MemorySize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ReadOnly)
	assert.Equal(t, types.DefaultTickHz, cfg.TickHz)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("TOMBOOT_KERNEL_NAME", "ALT.OS")
	t.Setenv("TOMBOOT_SELECTION_POLICY", "guid")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "ALT.OS", cfg.KernelName)
	assert.Equal(t, PolicyGUID, cfg.SelectionPolicy)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root_partition_type: not-a-guid\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty kernel name", func(c *Config) { c.KernelName = "" }, true},
		{"bad guid", func(c *Config) { c.RootPartitionType = "xyz" }, true},
		{"negative index", func(c *Config) { c.RootPartitionIndex = -1 }, true},
		{"index too large", func(c *Config) { c.RootPartitionIndex = 128 }, true},
		{"unknown policy", func(c *Config) { c.SelectionPolicy = "first" }, true},
		{"upper case policy", func(c *Config) { c.SelectionPolicy = "GUID" }, false},
		{"zero memory", func(c *Config) { c.MemorySize = 0 }, true},
		{"address overflow", func(c *Config) { c.LoadAddress = ^uint64(0) }, true},
		{"zero tick rate", func(c *Config) { c.TickHz = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
