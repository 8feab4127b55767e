package boot

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-tomboot/internal/config"
	"github.com/deploymenttheory/go-tomboot/internal/device"
	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/logger"
	"github.com/deploymenttheory/go-tomboot/internal/memory"
	"github.com/deploymenttheory/go-tomboot/internal/timer"
)

// Environment is the initialized boot environment. It owns the storage
// device, the console logger, the tick source and physical memory.
type Environment struct {
	Config *Config
	Log    *zap.Logger
	Device interfaces.BlockDevice
	Ticker interfaces.Ticker
	Arena  *memory.Arena

	image *device.ImageDevice
}

// Config is the boot configuration
type Config = config.Config

// Init brings up the console logger, opens the boot image, starts the tick
// source and maps physical memory at the load address.
func Init(cfg *Config, console io.Writer) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewLogger(logger.LoggerConfig{Console: console, Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}

	if cfg.Image == "" {
		return nil, errors.New("no boot image configured")
	}
	image, err := device.OpenImage(cfg.Image, cfg.ReadOnly)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Config: cfg,
		Log:    log,
		Device: image,
		Ticker: timer.NewHostCycleTicker(cfg.TickHz),
		Arena:  memory.NewArena(cfg.LoadAddress, cfg.MemorySize),
		image:  image,
	}

	log.Named("boot").Info("environment initialized",
		zap.String("image", cfg.Image),
		zap.String("storage", humanize.IBytes(image.TotalBlocks()*uint64(image.BlockSize()))),
		zap.String("memory", humanize.IBytes(cfg.MemorySize)),
		zap.String("tick_rate", humanize.SI(float64(cfg.TickHz), "Hz")))

	return env, nil
}

// Loader returns a loader configured from the environment
func (e *Environment) Loader(opts ...LoaderOption) (*Loader, error) {
	sel, err := SelectorFromConfig(e.Config)
	if err != nil {
		return nil, err
	}

	base := []LoaderOption{
		WithSelector(sel),
		WithKernelName(e.Config.KernelName),
		WithTicker(e.Ticker),
		WithLoaderLogger(e.Log.Named("boot")),
	}
	return NewLoader(e.Device, e.Arena, append(base, opts...)...), nil
}

// SelectorFromConfig builds the root partition selector from cfg
func SelectorFromConfig(cfg *Config) (Selector, error) {
	policy, err := ParsePolicy(cfg.SelectionPolicy)
	if err != nil {
		return Selector{}, err
	}
	return Selector{
		Policy: policy,
		Index:  cfg.RootPartitionIndex,
		Type:   cfg.RootType(),
	}, nil
}

// Close releases the boot image
func (e *Environment) Close() error {
	_ = e.Log.Sync()
	return e.image.Close()
}
