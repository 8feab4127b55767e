// Package boot locates the root partition on the boot device, mounts its file
// system through a single-block volume and copies the kernel image into
// physical memory.
package boot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/partition"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// ErrRootPartitionNotFound is returned when no entry qualifies as the root
// partition under the selection policy
var ErrRootPartitionNotFound = errors.New("root partition not found")

// Policy decides which GPT entry is the root partition
type Policy int

const (
	// PolicyOrdinal selects the entry at a fixed index. The type GUID is
	// only compared for logging.
	PolicyOrdinal Policy = iota
	// PolicyGUID selects the first entry whose type GUID matches.
	PolicyGUID
)

func (p Policy) String() string {
	switch p {
	case PolicyOrdinal:
		return "ordinal"
	case PolicyGUID:
		return "guid"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "ordinal" or "guid"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "ordinal":
		return PolicyOrdinal, nil
	case "guid":
		return PolicyGUID, nil
	default:
		return 0, fmt.Errorf("unknown selection policy %q", s)
	}
}

// Selector describes the root partition to look for
type Selector struct {
	Policy Policy
	// Index is the zero-based entry ordinal used by PolicyOrdinal
	Index int
	// Type is the expected root partition type GUID
	Type uuid.UUID
}

// DefaultSelector selects the fifth entry and expects the basic data type
func DefaultSelector() Selector {
	return Selector{
		Policy: PolicyOrdinal,
		Index:  types.DefaultRootPartitionIndex,
		Type:   uuid.MustParse(types.RootPartitionTypeGUID),
	}
}

// ReadTable reads the primary GPT header and the first n entries straight
// from dev. Only the entry-array blocks that hold those entries are read. n is
// capped at the header's entry count.
func ReadTable(dev interfaces.BlockDevice, n uint32) (*partition.Table, error) {
	buf := make([]byte, types.BlockSize)
	if err := dev.ReadBlock(types.GPTPrimaryHeaderLBA, buf); err != nil {
		return nil, fmt.Errorf("failed to read GPT header block: %w", err)
	}

	header, err := partition.ParseHeader(buf)
	if err != nil {
		return nil, err
	}

	if n > header.EntryCount {
		n = header.EntryCount
	}
	blocks := header.EntryBlocks(n)
	data := make([]byte, blocks*types.BlockSize)
	for i := uint64(0); i < blocks; i++ {
		lba := header.EntryLBA + types.Lba(i)
		if err := dev.ReadBlock(lba, data[i*types.BlockSize:(i+1)*types.BlockSize]); err != nil {
			return nil, fmt.Errorf("failed to read partition entry block %d: %w", lba, err)
		}
	}

	entries, err := partition.ParseEntries(data, n, header.EntrySize)
	if err != nil {
		return nil, err
	}
	return &partition.Table{Header: header, Entries: entries}, nil
}

// FindRootPartition selects the root partition from the GPT on dev. It uses
// raw block reads only, so it must run before any volume owns the device.
func FindRootPartition(dev interfaces.BlockDevice, sel Selector, log *zap.Logger) (partition.Entry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("find root partition...", zap.Stringer("policy", sel.Policy))

	switch sel.Policy {
	case PolicyOrdinal:
		if sel.Index < 0 {
			return partition.Entry{}, fmt.Errorf("%w: negative index %d", ErrRootPartitionNotFound, sel.Index)
		}
		table, err := ReadTable(dev, uint32(sel.Index)+1)
		if err != nil {
			return partition.Entry{}, err
		}
		entry, err := table.Partition(sel.Index)
		if err != nil {
			return partition.Entry{}, fmt.Errorf("%w: %w", ErrRootPartitionNotFound, err)
		}
		if entry.HasType(sel.Type) {
			log.Info("find root partition", zap.Int("index", entry.Index))
		} else {
			log.Warn("root partition type mismatch",
				zap.Int("index", entry.Index),
				zap.Stringer("type", entry.TypeGUID),
				zap.Stringer("expected", sel.Type))
		}
		return entry, nil

	case PolicyGUID:
		table, err := ReadTable(dev, types.GPTMaxPartitionEntries)
		if err != nil {
			return partition.Entry{}, err
		}
		entry, err := table.FindByType(sel.Type)
		if err != nil {
			return partition.Entry{}, fmt.Errorf("%w: %w", ErrRootPartitionNotFound, err)
		}
		log.Info("find root partition", zap.Int("index", entry.Index))
		return entry, nil

	default:
		return partition.Entry{}, fmt.Errorf("unknown selection policy %s", sel.Policy)
	}
}
