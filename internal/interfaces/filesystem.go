// File: internal/interfaces/filesystem.go
package interfaces

import (
	"io"
)

// FileSystem is a read-only file-system view over a seekable byte stream
type FileSystem interface {
	// RootDir opens the root directory for iteration
	RootDir() (Directory, error)
}

// Directory iterates directory entries in on-disk order
type Directory interface {
	// Next returns the next entry, or io.EOF once the directory is exhausted
	Next() (DirEntry, error)
}

// DirEntry describes one entry of a directory
type DirEntry interface {
	// Name returns the entry name as stored on disk
	Name() string

	// IsDir reports whether the entry is a directory
	IsDir() bool

	// IsFile reports whether the entry is a regular file
	IsFile() bool

	// Size returns the declared size in bytes; zero for directories
	Size() uint64

	// Open returns the file behind the entry
	Open() (File, error)
}

// File is an open regular file
type File interface {
	// Size returns the declared size in bytes
	Size() uint64

	// ReadFull fills buf from the start of the file. It fails if the file
	// cannot deliver len(buf) bytes.
	ReadFull(buf []byte) error
}

// Mounter builds a file-system reader over a byte stream, typically a volume
// scoped to one partition.
type Mounter func(stream io.ReadWriteSeeker) (FileSystem, error)
