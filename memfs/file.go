package memfs

import (
	"fmt"
	"io"

	db "ukern/debug"
	"ukern/serr"
)

// File is an open handle on an inode with its own position.
type File struct {
	mfs    *MemFs
	inode  *Inode
	name   string
	pos    uint32
	closed bool
}

func newFile(mfs *MemFs, name string, inode *Inode) *File {
	return &File{mfs: mfs, inode: inode, name: name}
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Read(b []byte) (int, error) {
	if f.closed {
		return 0, serr.NewErr(serr.TErrBadFd, f.name)
	}
	n := f.inode.readAt(b, f.pos)
	f.pos += uint32(n)
	if n == 0 && len(b) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (f *File) Write(b []byte) (int, error) {
	if f.closed {
		return 0, serr.NewErr(serr.TErrBadFd, f.name)
	}
	n := f.inode.writeAt(b, f.pos)
	f.pos += uint32(n)
	if n < len(b) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Seek may move past the end of the file; reads there return EOF and
// writes write nothing.
func (f *File) Seek(pos uint32) {
	f.pos = pos
}

func (f *File) Tell() uint32 {
	return f.pos
}

func (f *File) Length() uint32 {
	return f.inode.Len()
}

func (f *File) Close() error {
	if f.closed {
		db.DPrintf(db.MEMFS_ERR, "Close %v twice", f.name)
		return serr.NewErr(serr.TErrBadFd, f.name)
	}
	f.closed = true
	f.mfs.close(f.inode)
	return nil
}

func (f *File) String() string {
	return fmt.Sprintf("{%q %v pos %d}", f.name, f.inode, f.pos)
}
