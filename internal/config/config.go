// Package config loads loader settings from a tomboot-config.yaml file and
// TOMBOOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// Selection policies for the root partition
const (
	PolicyOrdinal = "ordinal"
	PolicyGUID    = "guid"
)

// Config holds the boot configuration
type Config struct {
	// Image is the disk image path backing the boot device
	Image    string `mapstructure:"image"`
	ReadOnly bool   `mapstructure:"read_only"`

	KernelName         string `mapstructure:"kernel_name"`
	RootPartitionType  string `mapstructure:"root_partition_type"`
	RootPartitionIndex int    `mapstructure:"root_partition_index"`
	SelectionPolicy    string `mapstructure:"selection_policy"`

	LoadAddress uint64 `mapstructure:"load_address"`
	MemorySize  uint64 `mapstructure:"memory_size"`

	LogLevel string `mapstructure:"log_level"`
	TickHz   uint64 `mapstructure:"tick_hz"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ReadOnly:           true,
		KernelName:         types.KernelFileName,
		RootPartitionType:  types.RootPartitionTypeGUID,
		RootPartitionIndex: types.DefaultRootPartitionIndex,
		SelectionPolicy:    PolicyOrdinal,
		LoadAddress:        types.DefaultLoadAddress,
		MemorySize:         types.DefaultMemorySize,
		LogLevel:           "info",
		TickHz:             types.DefaultTickHz,
	}
}

// LoadConfig reads configFile, or searches the standard locations for
// tomboot-config.yaml when configFile is empty. A missing config file is not
// an error.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tomboot-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.tomboot")
		v.AddConfigPath("/etc/tomboot")
	}

	defaults := Default()
	v.SetDefault("image", defaults.Image)
	v.SetDefault("read_only", defaults.ReadOnly)
	v.SetDefault("kernel_name", defaults.KernelName)
	v.SetDefault("root_partition_type", defaults.RootPartitionType)
	v.SetDefault("root_partition_index", defaults.RootPartitionIndex)
	v.SetDefault("selection_policy", defaults.SelectionPolicy)
	v.SetDefault("load_address", defaults.LoadAddress)
	v.SetDefault("memory_size", defaults.MemorySize)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("tick_hz", defaults.TickHz)

	// Allow environment variables
	v.SetEnvPrefix("TOMBOOT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks field values
func (c *Config) Validate() error {
	if c.KernelName == "" {
		return errors.New("kernel_name must not be empty")
	}
	if _, err := uuid.Parse(c.RootPartitionType); err != nil {
		return fmt.Errorf("root_partition_type %q: %w", c.RootPartitionType, err)
	}
	if c.RootPartitionIndex < 0 || c.RootPartitionIndex >= types.GPTMaxPartitionEntries {
		return fmt.Errorf("root_partition_index %d out of range [0,%d)", c.RootPartitionIndex, types.GPTMaxPartitionEntries)
	}

	switch strings.ToLower(c.SelectionPolicy) {
	case PolicyOrdinal, PolicyGUID:
	default:
		return fmt.Errorf("selection_policy %q must be %q or %q", c.SelectionPolicy, PolicyOrdinal, PolicyGUID)
	}

	if c.MemorySize == 0 {
		return errors.New("memory_size must be positive")
	}
	if c.LoadAddress+c.MemorySize < c.LoadAddress {
		return fmt.Errorf("load_address %#x with memory_size %d overflows", c.LoadAddress, c.MemorySize)
	}
	if c.TickHz == 0 {
		return errors.New("tick_hz must be positive")
	}
	return nil
}

// RootType returns the parsed root partition type GUID
func (c *Config) RootType() uuid.UUID {
	return uuid.MustParse(c.RootPartitionType)
}
