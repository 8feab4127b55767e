package device

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// MemoryDevice is a block device held entirely in memory. It records which
// blocks have been written so callers can observe write-back behaviour.
type MemoryDevice struct {
	data    []byte
	written *bitset.BitSet
	stats   interfaces.BlockDeviceStats
	mu      sync.RWMutex
}

var _ interfaces.BlockDevice = (*MemoryDevice)(nil)

// NewMemoryDevice creates a zero-filled device of the given number of blocks.
func NewMemoryDevice(blocks uint64) *MemoryDevice {
	return &MemoryDevice{
		data:    make([]byte, blocks*types.BlockSize),
		written: bitset.New(uint(blocks)),
	}
}

// NewMemoryDeviceFromImage wraps an existing disk image. The image length is
// rounded down to a whole number of blocks. The slice is used in place.
func NewMemoryDeviceFromImage(image []byte) *MemoryDevice {
	blocks := uint64(len(image)) / types.BlockSize
	return &MemoryDevice{
		data:    image[:blocks*types.BlockSize],
		written: bitset.New(uint(blocks)),
	}
}

// ReadBlock implements interfaces.BlockDevice
func (m *MemoryDevice) ReadBlock(address types.Lba, buf []byte) error {
	off, err := m.offset(address, buf)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(buf, m.data[off:off+types.BlockSize])
	m.stats.BlocksRead++
	return nil
}

// WriteBlock implements interfaces.BlockDevice
func (m *MemoryDevice) WriteBlock(address types.Lba, buf []byte) error {
	off, err := m.offset(address, buf)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.data[off:off+types.BlockSize], buf)
	m.written.Set(uint(address))
	m.stats.BlocksWritten++
	return nil
}

// BlockSize implements interfaces.BlockDevice
func (m *MemoryDevice) BlockSize() uint32 {
	return types.BlockSize
}

// TotalBlocks implements interfaces.BlockDevice
func (m *MemoryDevice) TotalBlocks() uint64 {
	return uint64(len(m.data)) / types.BlockSize
}

// Block returns a copy of a block's current contents without counting a read.
func (m *MemoryDevice) Block(address types.Lba) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	off := uint64(address) * types.BlockSize
	return append([]byte{}, m.data[off:off+types.BlockSize]...)
}

// Bytes exposes the backing image.
func (m *MemoryDevice) Bytes() []byte {
	return m.data
}

// WasWritten reports whether WriteBlock has ever targeted the address.
func (m *MemoryDevice) WasWritten(address types.Lba) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.written.Test(uint(address))
}

// WrittenBlocks returns every address written so far in ascending order.
func (m *MemoryDevice) WrittenBlocks() []types.Lba {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Lba, 0, m.written.Count())
	for i, ok := m.written.NextSet(0); ok; i, ok = m.written.NextSet(i + 1) {
		out = append(out, types.Lba(i))
	}
	return out
}

// Stats returns the access counters.
func (m *MemoryDevice) Stats() interfaces.BlockDeviceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.stats
}

func (m *MemoryDevice) offset(address types.Lba, buf []byte) (uint64, error) {
	if len(buf) != types.BlockSize {
		return 0, fmt.Errorf("%w: got %d bytes", ErrBadBufferSize, len(buf))
	}
	if uint64(address) >= m.TotalBlocks() {
		return 0, fmt.Errorf("%w: block %d of %d", ErrBlockOutOfRange, address, m.TotalBlocks())
	}
	return uint64(address) * types.BlockSize, nil
}
