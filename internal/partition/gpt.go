// File: internal/partition/gpt.go
package partition

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-tomboot/internal/types"
)

var (
	// ErrInvalidHeader is returned when a block does not hold a GPT header
	ErrInvalidHeader = errors.New("invalid GPT header")

	// ErrPartitionNotFound is returned for a missing or unused entry index
	ErrPartitionNotFound = errors.New("partition not found")
)

// gptHeader represents the fields of the GPT Header.
// Based on UEFI Specification 2.10, Section 5.3.2
type gptHeader struct {
	Signature                [8]byte  // Offset 0
	Revision                 uint32   // Offset 8
	HeaderSize               uint32   // Offset 12
	HeaderCRC32              uint32   // Offset 16 (unverified)
	Reserved                 uint32   // Offset 20
	MyLBA                    uint64   // Offset 24
	AlternateLBA             uint64   // Offset 32
	FirstUsableLBA           uint64   // Offset 40
	LastUsableLBA            uint64   // Offset 48
	DiskGUID                 [16]byte // Offset 56
	PartitionEntryLBA        uint64   // Offset 72
	NumberOfPartitionEntries uint32   // Offset 80
	SizeOfPartitionEntry     uint32   // Offset 84
	PartitionEntryArrayCRC32 uint32   // Offset 88 (unverified)
}

// gptPartitionEntry represents a GPT Partition Entry.
// Based on UEFI Specification 2.10, Section 5.3.3
type gptPartitionEntry struct {
	PartitionTypeGUID   [16]byte                           // Offset 0
	UniquePartitionGUID [16]byte                           // Offset 16
	FirstLBA            uint64                             // Offset 32
	LastLBA             uint64                             // Offset 40
	Attributes          uint64                             // Offset 48
	PartitionName       [types.GPTPartitionNameLength]byte // Offset 56
}

// Header is the decoded primary GPT header
type Header struct {
	Revision       uint32
	MyLBA          types.Lba
	AlternateLBA   types.Lba
	FirstUsableLBA types.Lba
	LastUsableLBA  types.Lba
	DiskGUID       uuid.UUID
	// EntryLBA is the block where the partition entry array begins
	EntryLBA types.Lba
	// EntryCount is the number of slots in the entry array
	EntryCount uint32
	// EntrySize is the size of one slot in bytes
	EntrySize uint32
}

// EntryBlocks returns how many blocks hold the first n entries.
func (h *Header) EntryBlocks(n uint32) uint64 {
	bytesNeeded := uint64(n) * uint64(h.EntrySize)
	return (bytesNeeded + types.BlockSize - 1) / types.BlockSize
}

// Entry is one partition entry
type Entry struct {
	// Index is the zero-based ordinal within the entry array
	Index      int
	TypeGUID   uuid.UUID
	UniqueGUID uuid.UUID
	FirstLBA   types.Lba
	// LastLBA is inclusive
	LastLBA    types.Lba
	Attributes uint64
	Name       string
}

// IsEmpty reports whether the slot is unused (all-zero type GUID)
func (e Entry) IsEmpty() bool {
	return e.TypeGUID == uuid.Nil
}

// StartBlock returns the first block of the partition
func (e Entry) StartBlock() types.Lba {
	return e.FirstLBA
}

// EndBlock returns one past the last block of the partition
func (e Entry) EndBlock() types.Lba {
	return e.LastLBA + 1
}

// Window returns the half-open block range of the partition
func (e Entry) Window() types.Window {
	return types.Window{Start: e.StartBlock(), End: e.EndBlock()}
}

// Blocks returns the partition length in blocks
func (e Entry) Blocks() uint64 {
	if e.LastLBA < e.FirstLBA {
		return 0
	}
	return uint64(e.LastLBA-e.FirstLBA) + 1
}

// HasType reports whether the entry type GUID equals guid
func (e Entry) HasType(guid uuid.UUID) bool {
	return e.TypeGUID == guid
}

// ParseHeader decodes the primary GPT header from a raw block
func ParseHeader(block []byte) (*Header, error) {
	if len(block) < types.GPTHeaderSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidHeader, types.GPTHeaderSize, len(block))
	}

	var raw gptHeader
	if err := binary.Read(bytes.NewReader(block[:types.GPTHeaderSize]), binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse GPT header binary data: %w", err)
	}

	if string(raw.Signature[:]) != types.GPTHeaderSignature {
		return nil, fmt.Errorf("%w: bad signature %q", ErrInvalidHeader, raw.Signature[:])
	}
	if raw.SizeOfPartitionEntry < types.GPTPartitionEntrySize || raw.SizeOfPartitionEntry%8 != 0 {
		return nil, fmt.Errorf("%w: partition entry size %d", ErrInvalidHeader, raw.SizeOfPartitionEntry)
	}
	if raw.NumberOfPartitionEntries > types.GPTMaxPartitionEntries {
		return nil, fmt.Errorf("%w: %d partition entries exceeds %d",
			ErrInvalidHeader, raw.NumberOfPartitionEntries, types.GPTMaxPartitionEntries)
	}

	return &Header{
		Revision:       raw.Revision,
		MyLBA:          types.Lba(raw.MyLBA),
		AlternateLBA:   types.Lba(raw.AlternateLBA),
		FirstUsableLBA: types.Lba(raw.FirstUsableLBA),
		LastUsableLBA:  types.Lba(raw.LastUsableLBA),
		DiskGUID:       DecodeGUID(raw.DiskGUID),
		EntryLBA:       types.Lba(raw.PartitionEntryLBA),
		EntryCount:     raw.NumberOfPartitionEntries,
		EntrySize:      raw.SizeOfPartitionEntry,
	}, nil
}

// ParseEntries decodes up to count entries of entrySize bytes from data.
// Entries that do not fit in data are not returned.
func ParseEntries(data []byte, count uint32, entrySize uint32) ([]Entry, error) {
	if entrySize < types.GPTPartitionEntrySize {
		return nil, fmt.Errorf("partition entry size %d below minimum %d", entrySize, types.GPTPartitionEntrySize)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		off := uint64(i) * uint64(entrySize)
		if off+types.GPTPartitionEntrySize > uint64(len(data)) {
			break
		}

		var raw gptPartitionEntry
		reader := bytes.NewReader(data[off : off+types.GPTPartitionEntrySize])
		if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse partition entry %d: %w", i, err)
		}

		entries = append(entries, Entry{
			Index:      int(i),
			TypeGUID:   DecodeGUID(raw.PartitionTypeGUID),
			UniqueGUID: DecodeGUID(raw.UniquePartitionGUID),
			FirstLBA:   types.Lba(raw.FirstLBA),
			LastLBA:    types.Lba(raw.LastLBA),
			Attributes: raw.Attributes,
			Name:       decodeUTF16LE(raw.PartitionName[:]),
		})
	}

	return entries, nil
}

// Table is a parsed header with its entry array
type Table struct {
	Header  *Header
	Entries []Entry
}

// Partition returns the entry at index, failing if it is absent or unused
func (t *Table) Partition(index int) (Entry, error) {
	if index < 0 || index >= len(t.Entries) {
		return Entry{}, fmt.Errorf("%w: index %d of %d entries", ErrPartitionNotFound, index, len(t.Entries))
	}
	entry := t.Entries[index]
	if entry.IsEmpty() {
		return Entry{}, fmt.Errorf("%w: index %d is unused", ErrPartitionNotFound, index)
	}
	return entry, nil
}

// FindByType returns the first used entry whose type GUID equals guid
func (t *Table) FindByType(guid uuid.UUID) (Entry, error) {
	for _, entry := range t.Entries {
		if !entry.IsEmpty() && entry.HasType(guid) {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: no partition of type %s", ErrPartitionNotFound, guid)
}

// DecodeGUID converts the on-disk mixed-endian GUID layout into a UUID.
// The first three fields are stored little-endian.
func DecodeGUID(g [16]byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

// EncodeGUID converts a UUID into the on-disk mixed-endian GUID layout
func EncodeGUID(u uuid.UUID) [16]byte {
	var g [16]byte
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return g
}

// decodeUTF16LE decodes a UTF-16 Little Endian byte slice into a Go string, stopping at the first null character (0x0000).
func decodeUTF16LE(b []byte) string {
	u16s := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		val := binary.LittleEndian.Uint16(b[i : i+2])
		if val == 0 {
			break
		}
		u16s = append(u16s, val)
	}
	return string(utf16.Decode(u16s))
}

// EncodeName encodes a partition name as null-padded UTF-16LE
func EncodeName(name string) [types.GPTPartitionNameLength]byte {
	var buf [types.GPTPartitionNameLength]byte
	for i, r := range utf16.Encode([]rune(name)) {
		if i*2+1 >= len(buf) {
			break
		}
		binary.LittleEndian.PutUint16(buf[i*2:], r)
	}
	return buf
}
