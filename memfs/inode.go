package memfs

import (
	"fmt"
	"sync"
	"time"
)

type Tinum uint64

// Inode holds a file's bytes. Files are created with a fixed length and
// never grow; writes stop at the end of the file.
type Inode struct {
	mu    sync.Mutex
	inum  Tinum
	data  []byte
	Mtime int64

	// guarded by the file system's lock
	nopen   int
	removed bool
}

func newInode(inum Tinum, sz uint32) *Inode {
	return &Inode{
		inum:  inum,
		data:  make([]byte, sz),
		Mtime: time.Now().Unix(),
	}
}

func (inode *Inode) String() string {
	return fmt.Sprintf("{inum %d len %d}", inode.inum, len(inode.data))
}

func (inode *Inode) Len() uint32 {
	inode.mu.Lock()
	defer inode.mu.Unlock()
	return uint32(len(inode.data))
}

func (inode *Inode) readAt(b []byte, off uint32) int {
	inode.mu.Lock()
	defer inode.mu.Unlock()

	if off >= uint32(len(inode.data)) {
		return 0
	}
	return copy(b, inode.data[off:])
}

func (inode *Inode) writeAt(b []byte, off uint32) int {
	inode.mu.Lock()
	defer inode.mu.Unlock()

	if off >= uint32(len(inode.data)) {
		return 0
	}
	n := copy(inode.data[off:], b)
	inode.Mtime = time.Now().Unix()
	return n
}
