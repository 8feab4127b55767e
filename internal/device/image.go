package device

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// ImageDevice provides block access to a raw disk image file through a
// memory mapping
type ImageDevice struct {
	file     *os.File
	mmap     mmap.MMap
	path     string
	blocks   uint64
	readOnly bool
	stats    interfaces.BlockDeviceStats
	mu       sync.RWMutex
}

var _ interfaces.BlockDevice = (*ImageDevice)(nil)

// OpenImage maps a disk image. Trailing bytes beyond the last whole block are
// not addressable.
func OpenImage(path string, readOnly bool) (*ImageDevice, error) {
	flag, prot := os.O_RDWR, mmap.RDWR
	if readOnly {
		flag, prot = os.O_RDONLY, mmap.RDONLY
	}

	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open disk image: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat disk image: %w", err)
	}

	blocks := uint64(stat.Size()) / types.BlockSize
	if blocks == 0 {
		file.Close()
		return nil, fmt.Errorf("disk image %s is smaller than one block", path)
	}

	mm, err := mmap.Map(file, prot, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to map disk image: %w", err)
	}

	return &ImageDevice{
		file:     file,
		mmap:     mm,
		path:     path,
		blocks:   blocks,
		readOnly: readOnly,
	}, nil
}

// ReadBlock implements interfaces.BlockDevice
func (d *ImageDevice) ReadBlock(address types.Lba, buf []byte) error {
	off, err := d.offset(address, buf)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	copy(buf, d.mmap[off:off+types.BlockSize])
	d.stats.BlocksRead++
	return nil
}

// WriteBlock implements interfaces.BlockDevice
func (d *ImageDevice) WriteBlock(address types.Lba, buf []byte) error {
	if d.readOnly {
		return fmt.Errorf("%w: %s", ErrReadOnly, d.path)
	}
	off, err := d.offset(address, buf)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	copy(d.mmap[off:off+types.BlockSize], buf)
	d.stats.BlocksWritten++
	return nil
}

// BlockSize implements interfaces.BlockDevice
func (d *ImageDevice) BlockSize() uint32 {
	return types.BlockSize
}

// TotalBlocks implements interfaces.BlockDevice
func (d *ImageDevice) TotalBlocks() uint64 {
	return d.blocks
}

// Path returns the image path
func (d *ImageDevice) Path() string {
	return d.path
}

// Stats returns the access counters
func (d *ImageDevice) Stats() interfaces.BlockDeviceStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.stats
}

// Sync flushes written blocks back to the image file
func (d *ImageDevice) Sync() error {
	if d.readOnly {
		return nil
	}
	return d.mmap.Flush()
}

// Close flushes and unmaps the image
func (d *ImageDevice) Close() error {
	flushErr := d.Sync()
	mmapErr := d.mmap.Unmap()
	closeErr := d.file.Close()

	return errors.Join(flushErr, mmapErr, closeErr)
}

func (d *ImageDevice) offset(address types.Lba, buf []byte) (uint64, error) {
	if len(buf) != types.BlockSize {
		return 0, fmt.Errorf("%w: got %d bytes", ErrBadBufferSize, len(buf))
	}
	if uint64(address) >= d.blocks {
		return 0, fmt.Errorf("%w: block %d of %d", ErrBlockOutOfRange, address, d.blocks)
	}
	return uint64(address) * types.BlockSize, nil
}
