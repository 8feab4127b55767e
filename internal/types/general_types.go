// Package types holds the on-disk constants and small value types shared by the
// loader layers: block geometry, GPT layout, FAT layout and boot literals.
package types

import "fmt"

// BlockSize is the size, in bytes, of every block on the boot device.
// It is fixed for the whole system.
const BlockSize = 512

// Lba is an absolute logical block address on the boot device.
type Lba uint64

// Window is a half-open range of absolute block addresses [Start, End)
// that a volume is scoped to.
type Window struct {
	// First block of the window.
	Start Lba
	// One past the last block of the window.
	End Lba
}

// Validate checks that the window contains at least one block.
func (w Window) Validate() error {
	if w.End < w.Start {
		return fmt.Errorf("window end %d precedes start %d", w.End, w.Start)
	}
	if w.End == w.Start {
		return fmt.Errorf("window [%d,%d) is empty", w.Start, w.End)
	}
	return nil
}

// Blocks returns the number of blocks in the window.
func (w Window) Blocks() uint64 {
	if w.End < w.Start {
		return 0
	}
	return uint64(w.End - w.Start)
}

// Bytes returns the byte length of the window.
func (w Window) Bytes() int64 {
	return int64(w.Blocks()) * BlockSize
}

// Contains reports whether lba falls inside the window.
func (w Window) Contains(lba Lba) bool {
	return lba >= w.Start && lba < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}
