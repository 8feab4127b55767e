// File: internal/interfaces/block_device.go
package interfaces

import (
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// BlockDevice is raw fixed-size-block storage. It is the only entity that
// performs physical I/O.
type BlockDevice interface {
	// ReadBlock reads the block at the absolute address into buf.
	// buf must be exactly BlockSize bytes.
	ReadBlock(address types.Lba, buf []byte) error

	// WriteBlock writes buf to the block at the absolute address.
	// buf must be exactly BlockSize bytes.
	WriteBlock(address types.Lba, buf []byte) error

	// BlockSize returns the size of a single block in bytes
	BlockSize() uint32

	// TotalBlocks returns the total number of blocks on the device
	TotalBlocks() uint64
}

// BlockDeviceStats contains device access counters
type BlockDeviceStats struct {
	// Number of blocks read
	BlocksRead uint64

	// Number of blocks written
	BlocksWritten uint64
}
