// Package fat is a read-only FAT12/16/32 reader over a seekable byte stream.
//
// The reader never asks the stream for bytes beyond the end of the current
// storage block: every access seeks to its position and then reads at most
// the remainder of that block. This makes it safe to drive a single-block
// volume that does not read across block boundaries.
package fat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

var (
	// ErrCorruptChain is returned for a cluster chain that points at a free,
	// reserved, bad or out-of-range cluster, or that loops
	ErrCorruptChain = errors.New("corrupt FAT cluster chain")

	// ErrIsDirectory is returned when opening a directory entry as a file
	ErrIsDirectory = errors.New("entry is a directory")
)

// FileSystem is a mounted FAT volume
type FileSystem struct {
	stream io.ReadWriteSeeker
	geo    *Geometry
	log    *zap.Logger
}

var _ interfaces.FileSystem = (*FileSystem)(nil)

// Option configures a FileSystem
type Option func(*FileSystem)

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(fs *FileSystem) {
		fs.log = log
	}
}

// Mount reads the boot sector from the start of stream and returns the
// mounted file system
func Mount(stream io.ReadWriteSeeker, opts ...Option) (*FileSystem, error) {
	fs := &FileSystem{stream: stream, log: zap.NewNop()}
	for _, opt := range opts {
		opt(fs)
	}

	sector := make([]byte, types.BlockSize)
	if err := fs.readAt(sector, 0); err != nil {
		return nil, fmt.Errorf("failed to read boot sector: %w", err)
	}

	geo, err := parseBootSector(sector)
	if err != nil {
		return nil, err
	}
	fs.geo = geo

	fs.log.Debug("mounted FAT volume",
		zap.Stringer("type", geo.Type),
		zap.Uint32("cluster_size", geo.ClusterSize),
		zap.Uint32("clusters", geo.ClusterCount),
		zap.String("label", geo.VolumeLabel))

	return fs, nil
}

// Mounter returns an interfaces.Mounter that mounts with the given options
func Mounter(opts ...Option) interfaces.Mounter {
	return func(stream io.ReadWriteSeeker) (interfaces.FileSystem, error) {
		return Mount(stream, opts...)
	}
}

// Geometry returns the decoded volume layout
func (fs *FileSystem) Geometry() Geometry {
	return *fs.geo
}

// Type returns the FAT variant
func (fs *FileSystem) Type() Type {
	return fs.geo.Type
}

// RootDir implements interfaces.FileSystem
func (fs *FileSystem) RootDir() (interfaces.Directory, error) {
	if fs.geo.Type == FAT32 {
		return &Directory{fs: fs, cluster: fs.geo.RootCluster}, nil
	}
	return &Directory{fs: fs, fixed: true}, nil
}

// readAt fills p from absolute stream offset off, one block at a time.
func (fs *FileSystem) readAt(p []byte, off int64) error {
	for len(p) > 0 {
		if _, err := fs.stream.Seek(off, io.SeekStart); err != nil {
			return err
		}

		chunk := types.BlockSize - int(off%types.BlockSize)
		if chunk > len(p) {
			chunk = len(p)
		}
		if _, err := io.ReadFull(fs.stream, p[:chunk]); err != nil {
			return err
		}

		p = p[chunk:]
		off += int64(chunk)
	}
	return nil
}

// clusterOffset returns the stream offset of a data cluster
func (fs *FileSystem) clusterOffset(cluster uint32) (int64, error) {
	if cluster < 2 || cluster >= fs.geo.ClusterCount+2 {
		return 0, fmt.Errorf("%w: cluster %d out of range", ErrCorruptChain, cluster)
	}
	return fs.geo.DataOffset + int64(cluster-2)*int64(fs.geo.ClusterSize), nil
}

// next returns the successor of cluster and whether the chain ends there
func (fs *FileSystem) next(cluster uint32) (uint32, bool, error) {
	if cluster < 2 || cluster >= fs.geo.ClusterCount+2 {
		return 0, false, fmt.Errorf("%w: cluster %d out of range", ErrCorruptChain, cluster)
	}

	var value, eoc, bad uint32
	switch fs.geo.Type {
	case FAT12:
		var raw [2]byte
		if err := fs.readAt(raw[:], fs.geo.FATOffset+int64(cluster)+int64(cluster/2)); err != nil {
			return 0, false, err
		}
		value = uint32(binary.LittleEndian.Uint16(raw[:]))
		if cluster&1 == 1 {
			value >>= 4
		} else {
			value &= 0x0FFF
		}
		eoc, bad = types.FAT12EndOfChain, types.FAT12EndOfChain-1
	case FAT16:
		var raw [2]byte
		if err := fs.readAt(raw[:], fs.geo.FATOffset+int64(cluster)*2); err != nil {
			return 0, false, err
		}
		value = uint32(binary.LittleEndian.Uint16(raw[:]))
		eoc, bad = types.FAT16EndOfChain, types.FAT16EndOfChain-1
	default:
		var raw [4]byte
		if err := fs.readAt(raw[:], fs.geo.FATOffset+int64(cluster)*4); err != nil {
			return 0, false, err
		}
		value = binary.LittleEndian.Uint32(raw[:]) & types.FAT32ClusterMask
		eoc, bad = types.FAT32EndOfChain, types.FAT32EndOfChain-1
	}

	switch {
	case value >= eoc:
		return 0, true, nil
	case value == bad:
		return 0, false, fmt.Errorf("%w: cluster %d links to a bad cluster", ErrCorruptChain, cluster)
	case value < 2 || value >= fs.geo.ClusterCount+2:
		return 0, false, fmt.Errorf("%w: cluster %d links to %#x", ErrCorruptChain, cluster, value)
	}
	return value, false, nil
}
