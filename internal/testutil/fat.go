package testutil

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// FATFile is one root directory entry to lay out
type FATFile struct {
	// Name is an 8.3 name such as "TOM.OS"; case is preserved
	Name string
	Data []byte
	Dir  bool
	// Deleted writes the entry with the 0xE5 marker
	Deleted bool
	// LongName precedes the entry with a long-name fragment
	LongName bool
}

// FATOptions configures BuildFAT
type FATOptions struct {
	// Bits is 12, 16 or 32
	Bits int
	// TotalSectors defaults to a size that yields the requested FAT type
	TotalSectors uint32
	// SectorsPerCluster defaults to 1
	SectorsPerCluster uint8
	// Fragment leaves a free cluster between consecutive file clusters
	Fragment bool
	// Label adds a volume label entry at the start of the root directory
	Label string
}

type fatBuilder struct {
	opts        FATOptions
	image       []byte
	fat         []byte
	fatSectors  uint32
	rsvd        uint32
	rootEntries uint32
	dataOffset  uint64
	clusterSize uint64
	clusters    uint32
	nextFree    uint32
}

// BuildFAT formats a FAT volume holding files in its root directory
func BuildFAT(opts FATOptions, files []FATFile) ([]byte, error) {
	b := &fatBuilder{opts: opts}
	if b.opts.SectorsPerCluster == 0 {
		b.opts.SectorsPerCluster = 1
	}

	switch opts.Bits {
	case 12:
		b.rsvd, b.rootEntries = 1, 64
		if b.opts.TotalSectors == 0 {
			b.opts.TotalSectors = 400
		}
	case 16:
		b.rsvd, b.rootEntries = 1, 512
		if b.opts.TotalSectors == 0 {
			b.opts.TotalSectors = 4400
		}
	case 32:
		b.rsvd, b.rootEntries = 8, 0
		if b.opts.TotalSectors == 0 {
			b.opts.TotalSectors = 600
		}
	default:
		return nil, fmt.Errorf("unsupported FAT width %d", opts.Bits)
	}

	b.layout()
	b.image = make([]byte, uint64(b.opts.TotalSectors)*types.BlockSize)
	b.fat = make([]byte, b.fatSectors*types.BlockSize)
	b.nextFree = 2

	b.set(0, 0x0FFFFFF8)
	b.set(1, 0x0FFFFFFF)

	entries, err := b.entries(files)
	if err != nil {
		return nil, err
	}

	var rootCluster uint32
	if opts.Bits == 32 {
		perCluster := int(b.clusterSize / types.FATDirEntrySize)
		n := (len(entries) + 1 + perCluster - 1) / perCluster
		chain, err := b.allocate(n)
		if err != nil {
			return nil, err
		}
		rootCluster = chain[0]
		b.writeChain(chain, flatten(entries))
	} else {
		if len(entries) >= int(b.rootEntries) {
			return nil, fmt.Errorf("%d entries exceed root directory of %d", len(entries), b.rootEntries)
		}
		rootOffset := uint64(b.rsvd+2*b.fatSectors) * types.BlockSize
		copy(b.image[rootOffset:], flatten(entries))
	}

	for i := 0; i < 2; i++ {
		copy(b.image[uint64(b.rsvd+uint32(i)*b.fatSectors)*types.BlockSize:], b.fat)
	}
	b.bootSector(rootCluster)

	return b.image, nil
}

// layout sizes the FAT so it maps every data cluster
func (b *fatBuilder) layout() {
	spc := uint32(b.opts.SectorsPerCluster)
	rootSectors := b.rootEntries * types.FATDirEntrySize / types.BlockSize
	estimate := (b.opts.TotalSectors - b.rsvd - rootSectors) / spc

	var entryBits uint32
	switch b.opts.Bits {
	case 12:
		entryBits = 12
	case 16:
		entryBits = 16
	default:
		entryBits = 32
	}
	b.fatSectors = ((estimate+2)*entryBits/8 + 1 + types.BlockSize - 1) / types.BlockSize

	firstData := b.rsvd + 2*b.fatSectors + rootSectors
	b.dataOffset = uint64(firstData) * types.BlockSize
	b.clusterSize = uint64(spc) * types.BlockSize
	b.clusters = (b.opts.TotalSectors - firstData) / spc
}

func (b *fatBuilder) entries(files []FATFile) ([][]byte, error) {
	var out [][]byte
	if b.opts.Label != "" {
		out = append(out, rawEntry(pad83(b.opts.Label, ""), types.FATAttrVolumeID, 0, 0))
	}

	for _, f := range files {
		base, ext, _ := strings.Cut(f.Name, ".")
		if len(base) == 0 || len(base) > 8 || len(ext) > 3 {
			return nil, fmt.Errorf("invalid 8.3 name %q", f.Name)
		}
		name := pad83(base, ext)

		if f.LongName {
			lfn := make([]byte, types.FATDirEntrySize)
			lfn[0] = 0x41
			copy(lfn[1:11], []byte{'t', 0, 'o', 0, 'm', 0, 0, 0, 0xFF, 0xFF})
			lfn[11] = types.FATAttrLongName
			out = append(out, lfn)
		}

		var cluster uint32
		attr := types.FATAttrArchive
		size := uint32(len(f.Data))
		switch {
		case f.Dir:
			attr = types.FATAttrDirectory
			size = 0
			chain, err := b.allocate(1)
			if err != nil {
				return nil, err
			}
			cluster = chain[0]
		case len(f.Data) > 0:
			n := int((uint64(len(f.Data)) + b.clusterSize - 1) / b.clusterSize)
			chain, err := b.allocate(n)
			if err != nil {
				return nil, err
			}
			cluster = chain[0]
			b.writeChain(chain, f.Data)
		}

		entry := rawEntry(name, attr, cluster, size)
		if f.Deleted {
			entry[0] = types.FATEntryDeleted
		}
		out = append(out, entry)
	}
	return out, nil
}

// allocate links n clusters into a chain and returns them in order
func (b *fatBuilder) allocate(n int) ([]uint32, error) {
	step := uint32(1)
	if b.opts.Fragment {
		step = 2
	}

	chain := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		if b.nextFree >= b.clusters+2 {
			return nil, fmt.Errorf("volume full after %d clusters", b.clusters)
		}
		chain = append(chain, b.nextFree)
		b.nextFree += step
	}
	for i, c := range chain {
		if i+1 < len(chain) {
			b.set(c, chain[i+1])
		} else {
			b.set(c, 0x0FFFFFFF)
		}
	}
	return chain, nil
}

func (b *fatBuilder) writeChain(chain []uint32, data []byte) {
	for _, c := range chain {
		off := b.dataOffset + uint64(c-2)*b.clusterSize
		n := copy(b.image[off:off+b.clusterSize], data)
		data = data[n:]
	}
}

// set stores a FAT entry, truncated to the entry width
func (b *fatBuilder) set(cluster, value uint32) {
	switch b.opts.Bits {
	case 12:
		off := cluster + cluster/2
		v := binary.LittleEndian.Uint16(b.fat[off:])
		if cluster&1 == 1 {
			v = v&0x000F | uint16(value&0x0FFF)<<4
		} else {
			v = v&0xF000 | uint16(value&0x0FFF)
		}
		binary.LittleEndian.PutUint16(b.fat[off:], v)
	case 16:
		binary.LittleEndian.PutUint16(b.fat[cluster*2:], uint16(value))
	default:
		binary.LittleEndian.PutUint32(b.fat[cluster*4:], value&0x0FFFFFFF)
	}
}

// SetFATEntry overwrites a FAT entry in every FAT copy of a FAT16 image built
// by BuildFAT with default options
func SetFATEntry(image []byte, cluster uint32, value uint16) {
	rsvd := uint32(binary.LittleEndian.Uint16(image[14:16]))
	fatSectors := uint32(binary.LittleEndian.Uint16(image[22:24]))
	for i := uint32(0); i < uint32(image[16]); i++ {
		off := (rsvd+i*fatSectors)*types.BlockSize + cluster*2
		binary.LittleEndian.PutUint16(image[off:], value)
	}
}

func (b *fatBuilder) bootSector(rootCluster uint32) {
	bs := b.image[:types.BlockSize]
	copy(bs[0:3], []byte{0xEB, 0x3C, 0x90})
	copy(bs[3:11], "TOMBOOT ")
	binary.LittleEndian.PutUint16(bs[11:13], types.BlockSize)
	bs[13] = b.opts.SectorsPerCluster
	binary.LittleEndian.PutUint16(bs[14:16], uint16(b.rsvd))
	bs[16] = 2
	binary.LittleEndian.PutUint16(bs[17:19], uint16(b.rootEntries))
	if b.opts.TotalSectors < 0x10000 && b.opts.Bits != 32 {
		binary.LittleEndian.PutUint16(bs[19:21], uint16(b.opts.TotalSectors))
	} else {
		binary.LittleEndian.PutUint32(bs[32:36], b.opts.TotalSectors)
	}
	bs[21] = 0xF8

	label := pad83(b.opts.Label, "")
	if b.opts.Label == "" {
		label = pad83("NO NAME", "")
	}

	if b.opts.Bits == 32 {
		binary.LittleEndian.PutUint32(bs[36:40], b.fatSectors)
		binary.LittleEndian.PutUint32(bs[44:48], rootCluster)
		bs[66] = 0x29
		binary.LittleEndian.PutUint32(bs[67:71], 0x70B00720)
		copy(bs[71:82], label[:])
		copy(bs[82:90], "FAT32   ")
	} else {
		binary.LittleEndian.PutUint16(bs[22:24], uint16(b.fatSectors))
		bs[38] = 0x29
		binary.LittleEndian.PutUint32(bs[39:43], 0x70B00720)
		copy(bs[43:54], label[:])
		copy(bs[54:62], fmt.Sprintf("FAT%-5d", b.opts.Bits))
	}
	binary.LittleEndian.PutUint16(bs[510:512], types.FATBootSignature)
}

func rawEntry(name [11]byte, attr uint8, cluster, size uint32) []byte {
	e := make([]byte, types.FATDirEntrySize)
	copy(e[0:11], name[:])
	e[11] = attr
	binary.LittleEndian.PutUint16(e[20:22], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(e[26:28], uint16(cluster))
	binary.LittleEndian.PutUint32(e[28:32], size)
	return e
}

func pad83(base, ext string) [11]byte {
	var n [11]byte
	for i := range n {
		n[i] = ' '
	}
	copy(n[0:8], base)
	copy(n[8:11], ext)
	return n
}

func flatten(entries [][]byte) []byte {
	out := make([]byte, 0, len(entries)*types.FATDirEntrySize)
	for _, e := range entries {
		out = append(out, e...)
	}
	return out
}
