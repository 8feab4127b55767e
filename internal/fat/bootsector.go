package fat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// ErrInvalidBootSector is returned when the first sector is not a FAT boot
// sector this reader understands
var ErrInvalidBootSector = errors.New("invalid FAT boot sector")

// Type is the FAT variant
type Type int

const (
	FAT12 Type = 12
	FAT16 Type = 16
	FAT32 Type = 32
)

func (t Type) String() string {
	return fmt.Sprintf("FAT%d", int(t))
}

// biosParameterBlock is the common part of the boot sector (offset 0-35)
type biosParameterBlock struct {
	JmpBoot     [3]byte
	OEMName     [8]byte
	BytesPerSec uint16
	SecPerClus  uint8
	RsvdSecCnt  uint16
	NumFATs     uint8
	RootEntCnt  uint16
	TotSec16    uint16
	Media       uint8
	FATSz16     uint16
	SecPerTrk   uint16
	NumHeads    uint16
	HiddSec     uint32
	TotSec32    uint32
}

// extendedBPB16 follows the common BPB on FAT12/16 volumes (offset 36)
type extendedBPB16 struct {
	DrvNum     uint8
	Reserved1  uint8
	BootSig    uint8
	VolID      uint32
	VolLab     [11]byte
	FilSysType [8]byte
}

// extendedBPB32 follows the common BPB on FAT32 volumes (offset 36)
type extendedBPB32 struct {
	FATSz32    uint32
	ExtFlags   uint16
	FSVer      uint16
	RootClus   uint32
	FSInfo     uint16
	BkBootSec  uint16
	Reserved   [12]byte
	DrvNum     uint8
	Reserved1  uint8
	BootSig    uint8
	VolID      uint32
	VolLab     [11]byte
	FilSysType [8]byte
}

// Geometry is the decoded layout of a FAT volume, in bytes from the start of
// the volume unless noted
type Geometry struct {
	Type         Type
	BytesPerSec  uint32
	ClusterSize  uint32
	FATOffset    int64
	FATSize      int64
	RootOffset   int64
	RootEntries  uint32
	RootCluster  uint32
	DataOffset   int64
	ClusterCount uint32
	VolumeID     uint32
	VolumeLabel  string
}

// parseBootSector decodes the boot sector. The FAT type is FAT32 when the
// BPB has no fixed root directory and no 16-bit FAT size; otherwise it follows
// the cluster count thresholds.
func parseBootSector(sector []byte) (*Geometry, error) {
	if len(sector) < types.BlockSize {
		return nil, fmt.Errorf("%w: short sector of %d bytes", ErrInvalidBootSector, len(sector))
	}
	if sig := binary.LittleEndian.Uint16(sector[510:512]); sig != types.FATBootSignature {
		return nil, fmt.Errorf("%w: signature %#04x", ErrInvalidBootSector, sig)
	}

	reader := bytes.NewReader(sector)
	var bpb biosParameterBlock
	if err := binary.Read(reader, binary.LittleEndian, &bpb); err != nil {
		return nil, fmt.Errorf("failed to parse BPB: %w", err)
	}

	if !isPowerOfTwo(uint32(bpb.BytesPerSec)) || bpb.BytesPerSec < types.BlockSize || bpb.BytesPerSec > 4096 {
		return nil, fmt.Errorf("%w: bytes per sector %d", ErrInvalidBootSector, bpb.BytesPerSec)
	}
	if !isPowerOfTwo(uint32(bpb.SecPerClus)) {
		return nil, fmt.Errorf("%w: sectors per cluster %d", ErrInvalidBootSector, bpb.SecPerClus)
	}
	if bpb.RsvdSecCnt == 0 || bpb.NumFATs == 0 {
		return nil, fmt.Errorf("%w: reserved sectors %d, FAT count %d", ErrInvalidBootSector, bpb.RsvdSecCnt, bpb.NumFATs)
	}

	g := &Geometry{
		BytesPerSec: uint32(bpb.BytesPerSec),
		ClusterSize: uint32(bpb.BytesPerSec) * uint32(bpb.SecPerClus),
		RootEntries: uint32(bpb.RootEntCnt),
	}

	fatSz := uint32(bpb.FATSz16)
	isFAT32 := bpb.RootEntCnt == 0 && bpb.FATSz16 == 0
	if isFAT32 {
		var ext extendedBPB32
		if err := binary.Read(reader, binary.LittleEndian, &ext); err != nil {
			return nil, fmt.Errorf("failed to parse FAT32 BPB: %w", err)
		}
		fatSz = ext.FATSz32
		g.RootCluster = ext.RootClus
		g.VolumeID = ext.VolID
		g.VolumeLabel = strings.TrimRight(string(ext.VolLab[:]), " ")
	} else {
		var ext extendedBPB16
		if err := binary.Read(reader, binary.LittleEndian, &ext); err != nil {
			return nil, fmt.Errorf("failed to parse FAT16 BPB: %w", err)
		}
		g.VolumeID = ext.VolID
		g.VolumeLabel = strings.TrimRight(string(ext.VolLab[:]), " ")
	}
	if fatSz == 0 {
		return nil, fmt.Errorf("%w: FAT size is zero", ErrInvalidBootSector)
	}

	totSec := uint32(bpb.TotSec16)
	if totSec == 0 {
		totSec = bpb.TotSec32
	}

	secSize := int64(bpb.BytesPerSec)
	rootDirSectors := (uint32(bpb.RootEntCnt)*types.FATDirEntrySize + g.BytesPerSec - 1) / g.BytesPerSec
	firstDataSector := uint64(bpb.RsvdSecCnt) + uint64(bpb.NumFATs)*uint64(fatSz) + uint64(rootDirSectors)
	if firstDataSector >= uint64(totSec) {
		return nil, fmt.Errorf("%w: no data region (first data sector %d, total %d)",
			ErrInvalidBootSector, firstDataSector, totSec)
	}

	g.ClusterCount = uint32((uint64(totSec) - firstDataSector) / uint64(bpb.SecPerClus))
	g.FATOffset = int64(bpb.RsvdSecCnt) * secSize
	g.FATSize = int64(fatSz) * secSize
	g.RootOffset = g.FATOffset + int64(bpb.NumFATs)*g.FATSize
	g.DataOffset = int64(firstDataSector) * secSize

	switch {
	case isFAT32:
		g.Type = FAT32
		if g.RootCluster < 2 || g.RootCluster >= g.ClusterCount+2 {
			return nil, fmt.Errorf("%w: root cluster %d", ErrInvalidBootSector, g.RootCluster)
		}
	case g.ClusterCount < types.FAT12MaxClusters:
		g.Type = FAT12
	case g.ClusterCount < types.FAT16MaxClusters:
		g.Type = FAT16
	default:
		return nil, fmt.Errorf("%w: %d clusters with a fixed root directory", ErrInvalidBootSector, g.ClusterCount)
	}

	// Every cluster must have a FAT slot.
	if need := fatBytes(g.Type, g.ClusterCount+2); need > g.FATSize {
		return nil, fmt.Errorf("%w: FAT of %d bytes cannot map %d clusters",
			ErrInvalidBootSector, g.FATSize, g.ClusterCount)
	}

	return g, nil
}

// fatBytes returns the bytes needed to hold n FAT entries
func fatBytes(t Type, n uint32) int64 {
	switch t {
	case FAT12:
		return (int64(n)*3 + 1) / 2
	case FAT16:
		return int64(n) * 2
	default:
		return int64(n) * 4
	}
}

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}
