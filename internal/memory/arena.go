// Package memory models physical RAM as an address-checked arena. Loaders
// receive a Region, a capability to write exactly N bytes at physical address
// A, instead of a raw pointer.
package memory

import (
	"errors"
	"fmt"
)

// ErrOutOfArena is returned when a requested region is not fully inside the
// arena.
var ErrOutOfArena = errors.New("region outside physical memory arena")

// Arena is the physical address range [Base, Base+len) backed by host memory.
type Arena struct {
	base uint64
	mem  []byte
}

// NewArena allocates a zero-filled arena of size bytes starting at base.
func NewArena(base, size uint64) *Arena {
	return &Arena{base: base, mem: make([]byte, size)}
}

// NewArenaOver wraps existing memory as the arena starting at base.
func NewArenaOver(base uint64, mem []byte) *Arena {
	return &Arena{base: base, mem: mem}
}

// Base returns the first physical address of the arena.
func (a *Arena) Base() uint64 {
	return a.base
}

// Size returns the arena size in bytes.
func (a *Arena) Size() uint64 {
	return uint64(len(a.mem))
}

// Region returns the capability to access n bytes at physical address addr.
func (a *Arena) Region(addr, n uint64) (Region, error) {
	if addr < a.base {
		return Region{}, fmt.Errorf("%w: address %#x below base %#x", ErrOutOfArena, addr, a.base)
	}
	off := addr - a.base
	if off > a.Size() || n > a.Size()-off {
		return Region{}, fmt.Errorf("%w: %d bytes at %#x, arena [%#x,%#x)",
			ErrOutOfArena, n, addr, a.base, a.base+a.Size())
	}
	return Region{addr: addr, buf: a.mem[off : off+n : off+n]}, nil
}

// Region is a writable window of physical memory.
type Region struct {
	addr uint64
	buf  []byte
}

// Addr returns the physical start address.
func (r Region) Addr() uint64 {
	return r.addr
}

// Len returns the region length in bytes.
func (r Region) Len() uint64 {
	return uint64(len(r.buf))
}

// Bytes returns the backing memory of the region.
func (r Region) Bytes() []byte {
	return r.buf
}
