package device

import (
	"fmt"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// FaultyDevice wraps a block device and fails reads or writes of selected
// blocks.
type FaultyDevice struct {
	interfaces.BlockDevice
	readFaults  map[types.Lba]bool
	writeFaults map[types.Lba]bool
}

// NewFaultyDevice wraps dev with no faults armed.
func NewFaultyDevice(dev interfaces.BlockDevice) *FaultyDevice {
	return &FaultyDevice{
		BlockDevice: dev,
		readFaults:  make(map[types.Lba]bool),
		writeFaults: make(map[types.Lba]bool),
	}
}

// FailRead arms a read fault for each address.
func (f *FaultyDevice) FailRead(addresses ...types.Lba) *FaultyDevice {
	for _, a := range addresses {
		f.readFaults[a] = true
	}
	return f
}

// FailWrite arms a write fault for each address.
func (f *FaultyDevice) FailWrite(addresses ...types.Lba) *FaultyDevice {
	for _, a := range addresses {
		f.writeFaults[a] = true
	}
	return f
}

// ReadBlock implements interfaces.BlockDevice
func (f *FaultyDevice) ReadBlock(address types.Lba, buf []byte) error {
	if f.readFaults[address] {
		return fmt.Errorf("%w: read block %d", ErrInjectedFault, address)
	}
	return f.BlockDevice.ReadBlock(address, buf)
}

// WriteBlock implements interfaces.BlockDevice
func (f *FaultyDevice) WriteBlock(address types.Lba, buf []byte) error {
	if f.writeFaults[address] {
		return fmt.Errorf("%w: write block %d", ErrInjectedFault, address)
	}
	return f.BlockDevice.WriteBlock(address, buf)
}
