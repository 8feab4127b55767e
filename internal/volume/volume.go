// Package volume adapts a block device into a seekable byte stream scoped to
// one partition window, backed by a single cached block.
//
// The volume holds exactly one block in memory. Reads and writes operate on
// that block only and never cross its end; a caller moves to another block
// with Seek. Writes stay in memory until Flush. Seek into another block
// replaces the buffer without writing it back, so a caller that has written
// to the resident block must Flush before seeking away or the write is lost.
package volume

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

var (
	// ErrInvalidWindow is returned when constructing a volume over an empty
	// or inverted window, or one that does not fit the device.
	ErrInvalidWindow = errors.New("invalid partition window")

	// ErrInvalidSeek is returned for a seek outside [0, Len()].
	ErrInvalidSeek = errors.New("seek outside partition window")

	// ErrCrossesBlock is returned when a read or write would run past the end
	// of the resident block.
	ErrCrossesBlock = errors.New("transfer crosses cached block boundary")

	// ErrOutOfWindow is returned when writing at the end of the window.
	ErrOutOfWindow = errors.New("write past end of partition window")

	// ErrDeviceIO wraps failures of the underlying block device.
	ErrDeviceIO = errors.New("block device I/O error")
)

// Stats counts volume activity
type Stats struct {
	BlockLoads   uint64
	BlockFlushes uint64
	BytesRead    uint64
	BytesWritten uint64
}

// Volume is a byte stream over the partition window [start, end) of a block
// device. It implements io.ReadWriteSeeker.
type Volume struct {
	dev    interfaces.BlockDevice
	window types.Window
	size   int64

	buf [types.BlockSize]byte
	// cached is the window-relative index of the block held in buf.
	cached uint64
	// offset is the stream position in bytes from the window start.
	offset int64

	stats Stats
	log   *zap.Logger
}

var _ io.ReadWriteSeeker = (*Volume)(nil)

// Option configures a Volume
type Option func(*Volume)

// WithLogger routes per-operation debug logging to log
func WithLogger(log *zap.Logger) Option {
	return func(v *Volume) {
		v.log = log
	}
}

// New creates a volume over [start, end) of dev and primes the buffer with
// block start. The device is borrowed for the lifetime of the volume.
func New(dev interfaces.BlockDevice, start, end types.Lba, opts ...Option) (*Volume, error) {
	window := types.Window{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if uint64(end) > dev.TotalBlocks() {
		return nil, fmt.Errorf("%w: window %s exceeds device of %d blocks", ErrInvalidWindow, window, dev.TotalBlocks())
	}

	v := &Volume{
		dev:    dev,
		window: window,
		size:   window.Bytes(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if err := v.load(0); err != nil {
		return nil, err
	}
	v.log.Debug("volume ready",
		zap.Uint64("start_block", uint64(start)),
		zap.Uint64("end_block", uint64(end)),
		zap.Int64("bytes", v.size))

	return v, nil
}

// Read copies len(p) bytes from the resident block at the current position.
// The transfer must end within the resident block. At the end of the window
// Read returns io.EOF.
func (v *Volume) Read(p []byte) (int, error) {
	v.log.Debug("read", zap.Uint64("block_index", v.cached), zap.Int("len", len(p)))

	if len(p) == 0 {
		return 0, nil
	}
	if v.offset >= v.size {
		return 0, io.EOF
	}
	cursor, err := v.span(len(p))
	if err != nil {
		return 0, err
	}

	n := copy(p, v.buf[cursor:cursor+len(p)])
	v.offset += int64(n)
	v.stats.BytesRead += uint64(n)
	return n, nil
}

// Write copies p into the resident block at the current position. The
// device is not touched; call Flush to persist the block.
func (v *Volume) Write(p []byte) (int, error) {
	v.log.Debug("write", zap.Uint64("block_index", v.cached), zap.Int("len", len(p)))

	if len(p) == 0 {
		return 0, nil
	}
	if v.offset >= v.size {
		return 0, ErrOutOfWindow
	}
	cursor, err := v.span(len(p))
	if err != nil {
		return 0, err
	}

	n := copy(v.buf[cursor:cursor+len(p)], p)
	v.offset += int64(n)
	v.stats.BytesWritten += uint64(n)
	return n, nil
}

// Flush writes the resident block back to the device unconditionally.
func (v *Volume) Flush() error {
	v.log.Debug("flush", zap.Uint64("block_index", v.cached))

	addr := v.window.Start + types.Lba(v.cached)
	if err := v.dev.WriteBlock(addr, v.buf[:]); err != nil {
		return fmt.Errorf("%w: write block %d: %w", ErrDeviceIO, addr, err)
	}
	v.stats.BlockFlushes++
	return nil
}

// Seek sets the stream position. io.SeekEnd is relative to the window length.
// The resulting position must lie in [0, Len()]; Len() itself is a valid
// position at which reads return io.EOF.
//
// Moving into a different block loads it from the device, replacing the
// buffer. Unflushed writes to the previous block are discarded.
func (v *Volume) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = v.offset
	case io.SeekEnd:
		base = v.size
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", ErrInvalidSeek, whence)
	}

	v.log.Debug("seek",
		zap.Int64("offset", v.offset),
		zap.Uint64("block_index", v.cached),
		zap.Int("whence", whence),
		zap.Int64("delta", offset))

	target := base + offset
	if (offset > 0 && target < base) || (offset < 0 && target > base) {
		return 0, fmt.Errorf("%w: offset overflow", ErrInvalidSeek)
	}
	if target < 0 || target > v.size {
		return 0, fmt.Errorf("%w: %d not in [0,%d]", ErrInvalidSeek, target, v.size)
	}

	block := uint64(target / types.BlockSize)
	if block != v.cached && block < v.window.Blocks() {
		if err := v.load(block); err != nil {
			return 0, err
		}
	}

	v.offset = target
	return v.offset, nil
}

// Offset returns the current stream position
func (v *Volume) Offset() int64 {
	return v.offset
}

// Len returns the window length in bytes
func (v *Volume) Len() int64 {
	return v.size
}

// Window returns the absolute block range the volume is scoped to
func (v *Volume) Window() types.Window {
	return v.window
}

// CachedBlock returns the window-relative index of the resident block
func (v *Volume) CachedBlock() uint64 {
	return v.cached
}

// Stats returns the activity counters
func (v *Volume) Stats() Stats {
	return v.stats
}

// span checks that n bytes fit in the resident block at the current position
// and returns the in-buffer cursor.
func (v *Volume) span(n int) (int, error) {
	cursor := v.offset - int64(v.cached)*types.BlockSize
	if cursor < 0 || cursor+int64(n) > types.BlockSize {
		return 0, fmt.Errorf("%w: %d bytes at cursor %d of block %d",
			ErrCrossesBlock, n, cursor, v.cached)
	}
	return int(cursor), nil
}

// load replaces the buffer with window-relative block index.
func (v *Volume) load(index uint64) error {
	addr := v.window.Start + types.Lba(index)
	if err := v.dev.ReadBlock(addr, v.buf[:]); err != nil {
		return fmt.Errorf("%w: read block %d: %w", ErrDeviceIO, addr, err)
	}
	v.cached = index
	v.stats.BlockLoads++
	return nil
}
