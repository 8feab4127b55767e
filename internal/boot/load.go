package boot

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/memory"
	"github.com/deploymenttheory/go-tomboot/internal/partition"
	"github.com/deploymenttheory/go-tomboot/internal/types"
	"github.com/deploymenttheory/go-tomboot/internal/volume"
)

var (
	// ErrShortRead is returned when a file cannot deliver its declared size
	ErrShortRead = errors.New("short read")

	// ErrKernelNotFound reports a missing kernel to callers that treat it as
	// a failure. LoadFile itself returns zero bytes instead.
	ErrKernelNotFound = errors.New("kernel not found")
)

// Mount builds a volume over the partition's block range and hands it to
// mounter. The volume takes over the device from this point.
func Mount(dev interfaces.BlockDevice, entry partition.Entry, mounter interfaces.Mounter, log *zap.Logger) (interfaces.FileSystem, *volume.Volume, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("init fat file system",
		zap.Stringer("window", entry.Window()),
		zap.String("size", humanize.IBytes(entry.Blocks()*types.BlockSize)))

	vol, err := volume.New(dev, entry.StartBlock(), entry.EndBlock(), volume.WithLogger(log.Named("volume")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open partition %d: %w", entry.Index, err)
	}

	fs, err := mounter(vol)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to mount partition %d: %w", entry.Index, err)
	}
	return fs, vol, nil
}

// LoadFile scans the root directory of fs in on-disk order and copies the
// first regular file named name to physical address addr. It returns the
// number of bytes loaded, or 0 without touching memory when no file matches.
func LoadFile(fs interfaces.FileSystem, name string, arena *memory.Arena, addr uint64, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	root, err := fs.RootDir()
	if err != nil {
		return 0, fmt.Errorf("failed to open root directory: %w", err)
	}

	for {
		entry, err := root.Next()
		if errors.Is(err, io.EOF) {
			log.Warn("kernel not found", zap.String("name", name))
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read root directory: %w", err)
		}
		if !entry.IsFile() {
			continue
		}

		log.Info("file name: " + entry.Name())
		if entry.Name() != name {
			continue
		}

		log.Info("load kernel "+entry.Name(), zap.String("size", humanize.IBytes(entry.Size())))
		return copyFile(entry, arena, addr)
	}
}

func copyFile(entry interfaces.DirEntry, arena *memory.Arena, addr uint64) (int, error) {
	file, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", entry.Name(), err)
	}

	size := file.Size()
	region, err := arena.Region(addr, size)
	if err != nil {
		return 0, fmt.Errorf("cannot load %s: %w", entry.Name(), err)
	}

	if err := file.ReadFull(region.Bytes()); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrShortRead, entry.Name(), err)
	}
	return int(size), nil
}
