package boot

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-tomboot/internal/fat"
	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/memory"
	"github.com/deploymenttheory/go-tomboot/internal/partition"
	"github.com/deploymenttheory/go-tomboot/internal/types"
	"github.com/deploymenttheory/go-tomboot/internal/volume"
)

// Loader runs the boot sequence: partition discovery, mount, kernel copy
type Loader struct {
	dev        interfaces.BlockDevice
	arena      *memory.Arena
	mounter    interfaces.Mounter
	selector   Selector
	kernelName string
	ticker     interfaces.Ticker
	log        *zap.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithMounter replaces the FAT mounter
func WithMounter(mounter interfaces.Mounter) LoaderOption {
	return func(l *Loader) {
		l.mounter = mounter
	}
}

// WithSelector sets how the root partition is chosen
func WithSelector(sel Selector) LoaderOption {
	return func(l *Loader) {
		l.selector = sel
	}
}

// WithKernelName sets the short name of the kernel file
func WithKernelName(name string) LoaderOption {
	return func(l *Loader) {
		l.kernelName = name
	}
}

// WithTicker sets the tick source used to time the load
func WithTicker(ticker interfaces.Ticker) LoaderOption {
	return func(l *Loader) {
		l.ticker = ticker
	}
}

// WithLoaderLogger sets the logger
func WithLoaderLogger(log *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a loader that reads from dev and writes into arena
func NewLoader(dev interfaces.BlockDevice, arena *memory.Arena, opts ...LoaderOption) *Loader {
	l := &Loader{
		dev:        dev,
		arena:      arena,
		selector:   DefaultSelector(),
		kernelName: types.KernelFileName,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.mounter == nil {
		l.mounter = fat.Mounter(fat.WithLogger(l.log.Named("fat")))
	}
	return l
}

// Report describes a completed load
type Report struct {
	Partition partition.Entry
	Kernel    string
	Address   uint64
	// Bytes is zero when the kernel was not found
	Bytes   int
	Elapsed time.Duration
	Volume  volume.Stats
}

// LoadKernel copies the kernel to addr and returns the number of bytes
// loaded, or 0 if the root directory holds no kernel file.
func (l *Loader) LoadKernel(addr uint64) (int, error) {
	report, err := l.Load(addr)
	if err != nil {
		return 0, err
	}
	return report.Bytes, nil
}

// Load runs the boot sequence and reports what it did
func (l *Loader) Load(addr uint64) (*Report, error) {
	var start uint64
	if l.ticker != nil {
		start = l.ticker.Tick()
	}

	entry, err := FindRootPartition(l.dev, l.selector, l.log)
	if err != nil {
		return nil, err
	}

	fs, vol, err := Mount(l.dev, entry, l.mounter, l.log)
	if err != nil {
		return nil, err
	}

	n, err := LoadFile(fs, l.kernelName, l.arena, addr, l.log)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Partition: entry,
		Kernel:    l.kernelName,
		Address:   addr,
		Bytes:     n,
		Volume:    vol.Stats(),
	}
	if l.ticker != nil {
		report.Elapsed = l.ticker.TicksToDuration(l.ticker.Tick() - start)
	}

	l.log.Info(fmt.Sprintf("kernel loaded at %#x", addr),
		zap.String("size", humanize.IBytes(uint64(n))),
		zap.Uint64("block_loads", report.Volume.BlockLoads),
		zap.Duration("elapsed", report.Elapsed))

	return report, nil
}
