package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaRegion(t *testing.T) {
	arena := NewArena(0x8000_0000, 64)

	region, err := arena.Region(0x8000_0010, 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x8000_0010), region.Addr())
	assert.Equal(t, uint64(16), region.Len())

	copy(region.Bytes(), "kernel")

	whole, err := arena.Region(arena.Base(), arena.Size())
	require.NoError(t, err)
	assert.Equal(t, "kernel", string(whole.Bytes()[16:22]))
}

func TestArenaRegionBounds(t *testing.T) {
	arena := NewArenaOver(0x1000, make([]byte, 32))

	tests := []struct {
		name string
		addr uint64
		n    uint64
		ok   bool
	}{
		{"exact fit", 0x1000, 32, true},
		{"empty at end", 0x1020, 0, true},
		{"below base", 0x0fff, 1, false},
		{"past end", 0x1010, 17, false},
		{"start past end", 0x1021, 0, false},
		{"overflowing length", 0x1001, ^uint64(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := arena.Region(tt.addr, tt.n)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrOutOfArena)
			}
		})
	}
}

func TestRegionCannotGrowIntoNeighbour(t *testing.T) {
	arena := NewArena(0, 8)

	region, err := arena.Region(0, 4)
	require.NoError(t, err)

	grown := append(region.Bytes(), 0xFF)
	grown[0] = 1

	whole, err := arena.Region(0, 8)
	require.NoError(t, err)
	assert.Equal(t, byte(0), whole.Bytes()[4])
}
