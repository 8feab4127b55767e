package fat

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-tomboot/internal/interfaces"
)

// File is an open regular file
type File struct {
	fs      *FileSystem
	name    string
	cluster uint32
	size    uint32
}

var _ interfaces.File = (*File)(nil)

// Size implements interfaces.File
func (f *File) Size() uint64 {
	return uint64(f.size)
}

// ReadFull implements interfaces.File. It reads len(buf) bytes from the start
// of the file by following the cluster chain.
func (f *File) ReadFull(buf []byte) error {
	if uint64(len(buf)) > uint64(f.size) {
		return fmt.Errorf("%s: %d bytes requested from %d byte file: %w",
			f.name, len(buf), f.size, io.ErrUnexpectedEOF)
	}

	clusterSize := int(f.fs.geo.ClusterSize)
	cluster := f.cluster
	var steps uint32

	for len(buf) > 0 {
		off, err := f.fs.clusterOffset(cluster)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}

		chunk := clusterSize
		if chunk > len(buf) {
			chunk = len(buf)
		}
		if err := f.fs.readAt(buf[:chunk], off); err != nil {
			return fmt.Errorf("%s: failed to read cluster %d: %w", f.name, cluster, err)
		}
		buf = buf[chunk:]
		if len(buf) == 0 {
			break
		}

		next, end, err := f.fs.next(cluster)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		if end {
			return fmt.Errorf("%s: cluster chain ends with %d bytes unread: %w",
				f.name, len(buf), io.ErrUnexpectedEOF)
		}
		steps++
		if steps > f.fs.geo.ClusterCount {
			return fmt.Errorf("%s: %w: file chain loops", f.name, ErrCorruptChain)
		}
		cluster = next
	}
	return nil
}
