package device

import "errors"

var (
	// ErrBlockOutOfRange is returned for an address past the end of the device.
	ErrBlockOutOfRange = errors.New("block address out of range")

	// ErrBadBufferSize is returned when a buffer is not exactly one block.
	ErrBadBufferSize = errors.New("buffer is not exactly one block")

	// ErrReadOnly is returned when writing to a device opened read-only.
	ErrReadOnly = errors.New("device is read-only")

	// ErrInjectedFault is returned by FaultyDevice for a faulted block.
	ErrInjectedFault = errors.New("injected device fault")
)
