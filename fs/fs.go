// Package fs defines the file system the system call layer delegates
// to. The kernel never touches file contents itself.
package fs

import (
	"io"
)

// File is an open handle. Every Open returns a fresh handle with its
// own position.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Seek(pos uint32)
	Tell() uint32
	Length() uint32
	Name() string
}

type FileSys interface {
	// Create makes an empty file of size bytes; fails with TErrExists
	// if name is taken and TErrInval if name is unusable.
	Create(name string, size uint32) error
	// Open fails with TErrNotfound if there is no such file.
	Open(name string) (File, error)
	// Remove unlinks name. Open handles keep working.
	Remove(name string) error
}
