package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// dirEntry is the on-disk short directory entry
type dirEntry struct {
	Name         [11]byte
	Attr         uint8
	NTRes        uint8
	CrtTimeTenth uint8
	CrtTime      uint16
	CrtDate      uint16
	LstAccDate   uint16
	FstClusHI    uint16
	WrtTime      uint16
	WrtDate      uint16
	FstClusLO    uint16
	FileSize     uint32
}

// Directory iterates the entries of one directory in on-disk order. Deleted
// entries, long-name fragments and the volume label are skipped.
type Directory struct {
	fs *FileSystem

	// fixed is set for the FAT12/16 root directory region
	fixed bool
	// index counts entries consumed from the start of the directory
	index uint32
	// cluster and within locate the next entry of a cluster-chained directory
	cluster uint32
	within  uint32
	steps   uint32
	done    bool
}

var _ interfaces.Directory = (*Directory)(nil)

// Next implements interfaces.Directory
func (d *Directory) Next() (interfaces.DirEntry, error) {
	for !d.done {
		off, ok, err := d.position()
		if err != nil {
			return nil, err
		}
		if !ok {
			d.done = true
			break
		}

		raw := make([]byte, types.FATDirEntrySize)
		if err := d.fs.readAt(raw, off); err != nil {
			return nil, fmt.Errorf("failed to read directory entry %d: %w", d.index, err)
		}
		d.advance()

		var de dirEntry
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &de); err != nil {
			return nil, fmt.Errorf("failed to parse directory entry: %w", err)
		}

		switch {
		case de.Name[0] == types.FATEntryEnd:
			d.done = true
		case de.Name[0] == types.FATEntryDeleted:
		case de.Attr&types.FATAttrLongName == types.FATAttrLongName:
		case de.Attr&types.FATAttrVolumeID != 0:
		default:
			return d.entry(de), nil
		}
	}
	return nil, io.EOF
}

// position returns the stream offset of the next entry slot, or false when
// the directory storage is exhausted
func (d *Directory) position() (int64, bool, error) {
	if d.fixed {
		if d.index >= d.fs.geo.RootEntries {
			return 0, false, nil
		}
		return d.fs.geo.RootOffset + int64(d.index)*types.FATDirEntrySize, true, nil
	}

	perCluster := d.fs.geo.ClusterSize / types.FATDirEntrySize
	if d.within == perCluster {
		next, end, err := d.fs.next(d.cluster)
		if err != nil {
			return 0, false, err
		}
		if end {
			return 0, false, nil
		}
		d.steps++
		if d.steps > d.fs.geo.ClusterCount {
			return 0, false, fmt.Errorf("%w: directory chain loops", ErrCorruptChain)
		}
		d.cluster, d.within = next, 0
	}

	base, err := d.fs.clusterOffset(d.cluster)
	if err != nil {
		return 0, false, err
	}
	return base + int64(d.within)*types.FATDirEntrySize, true, nil
}

func (d *Directory) advance() {
	d.index++
	if !d.fixed {
		d.within++
	}
}

func (d *Directory) entry(de dirEntry) *DirEntry {
	cluster := uint32(de.FstClusLO)
	if d.fs.geo.Type == FAT32 {
		cluster |= uint32(de.FstClusHI) << 16
	}
	return &DirEntry{
		fs:      d.fs,
		name:    shortName(de.Name),
		attr:    de.Attr,
		cluster: cluster,
		size:    de.FileSize,
	}
}

// shortName renders an 8.3 name as NAME.EXT with padding removed
func shortName(raw [11]byte) string {
	name := raw
	if name[0] == types.FATEntryKanji {
		name[0] = types.FATEntryDeleted
	}
	base := strings.TrimRight(string(name[:8]), " ")
	ext := strings.TrimRight(string(name[8:]), " ")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// DirEntry is a live directory entry
type DirEntry struct {
	fs      *FileSystem
	name    string
	attr    uint8
	cluster uint32
	size    uint32
}

var _ interfaces.DirEntry = (*DirEntry)(nil)

// Name implements interfaces.DirEntry
func (e *DirEntry) Name() string {
	return e.name
}

// IsDir implements interfaces.DirEntry
func (e *DirEntry) IsDir() bool {
	return e.attr&types.FATAttrDirectory != 0
}

// IsFile implements interfaces.DirEntry
func (e *DirEntry) IsFile() bool {
	return !e.IsDir()
}

// Size implements interfaces.DirEntry
func (e *DirEntry) Size() uint64 {
	if e.IsDir() {
		return 0
	}
	return uint64(e.size)
}

// Attributes returns the raw attribute byte
func (e *DirEntry) Attributes() uint8 {
	return e.attr
}

// FirstCluster returns the first data cluster of the entry
func (e *DirEntry) FirstCluster() uint32 {
	return e.cluster
}

// Open implements interfaces.DirEntry
func (e *DirEntry) Open() (interfaces.File, error) {
	if e.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, e.name)
	}
	return &File{fs: e.fs, name: e.name, cluster: e.cluster, size: e.size}, nil
}
