package boot

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
	"github.com/deploymenttheory/go-tomboot/internal/types"
)

// flatFS is a minimal file system for loader tests. Block 0 holds up to 16
// 32-byte entries: an 11-byte padded name, an attribute byte (0x10 marks a
// directory), the data block at offset 26 and the size at offset 28. A zero
// first name byte ends the directory.
type flatFS struct {
	stream io.ReadWriteSeeker
}

func mountFlat(stream io.ReadWriteSeeker) (interfaces.FileSystem, error) {
	return &flatFS{stream: stream}, nil
}

func (f *flatFS) RootDir() (interfaces.Directory, error) {
	return &flatDir{fs: f}, nil
}

// read seeks to off and reads len(p) bytes, which must not cross a block
func (f *flatFS) read(p []byte, off int64) error {
	if _, err := f.stream.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(f.stream, p)
	return err
}

type flatDir struct {
	fs    *flatFS
	index int
}

func (d *flatDir) Next() (interfaces.DirEntry, error) {
	for d.index < types.BlockSize/32 {
		raw := make([]byte, 32)
		if err := d.fs.read(raw, int64(d.index)*32); err != nil {
			return nil, err
		}
		d.index++
		if raw[0] == 0 {
			break
		}
		return &flatEntry{
			fs:    d.fs,
			name:  strings.TrimRight(string(raw[:8]), " ") + "." + strings.TrimRight(string(raw[8:11]), " "),
			dir:   raw[11]&0x10 != 0,
			block: binary.LittleEndian.Uint16(raw[26:28]),
			size:  binary.LittleEndian.Uint32(raw[28:32]),
		}, nil
	}
	d.index = types.BlockSize / 32
	return nil, io.EOF
}

type flatEntry struct {
	fs    *flatFS
	name  string
	dir   bool
	block uint16
	size  uint32
}

func (e *flatEntry) Name() string { return e.name }
func (e *flatEntry) IsDir() bool  { return e.dir }
func (e *flatEntry) IsFile() bool { return !e.dir }
func (e *flatEntry) Size() uint64 { return uint64(e.size) }
func (e *flatEntry) Open() (interfaces.File, error) {
	if e.dir {
		return nil, fmt.Errorf("%s is a directory", e.name)
	}
	return e, nil
}

func (e *flatEntry) ReadFull(buf []byte) error {
	off := int64(e.block) * types.BlockSize
	for len(buf) > 0 {
		chunk := types.BlockSize - int(off%types.BlockSize)
		if chunk > len(buf) {
			chunk = len(buf)
		}
		if err := e.fs.read(buf[:chunk], off); err != nil {
			return err
		}
		buf = buf[chunk:]
		off += int64(chunk)
	}
	return nil
}

// flatEntryBytes encodes one flatFS directory entry
func flatEntryBytes(base, ext string, dir bool, block uint16, size uint32) []byte {
	raw := make([]byte, 32)
	copy(raw[:11], fmt.Sprintf("%-8s%-3s", base, ext))
	if dir {
		raw[11] = 0x10
	}
	binary.LittleEndian.PutUint16(raw[26:28], block)
	binary.LittleEndian.PutUint32(raw[28:32], size)
	return raw
}
