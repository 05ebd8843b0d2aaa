// Package memfs is a flat, in-memory file system whose files have a
// length fixed at creation.
package memfs

import (
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/slices"

	db "ukern/debug"
	"ukern/fs"
	"ukern/serr"
)

type MemFs struct {
	sync.Mutex
	maxname int
	ndisk   uint64 // capacity in bytes
	nused   uint64 // sum of file lengths
	next    Tinum
	entries map[string]*Inode
}

func NewMemFs(maxname int, ndisk uint64) *MemFs {
	return &MemFs{
		maxname: maxname,
		ndisk:   ndisk,
		next:    1,
		entries: make(map[string]*Inode),
	}
}

func (mfs *MemFs) checkName(name string) error {
	if name == "" || len(name) > mfs.maxname || strings.ContainsRune(name, '/') {
		return serr.NewErr(serr.TErrInval, name)
	}
	return nil
}

func (mfs *MemFs) Create(name string, sz uint32) error {
	if err := mfs.checkName(name); err != nil {
		db.DPrintf(db.MEMFS_ERR, "Create %q: %v", name, err)
		return err
	}

	mfs.Lock()
	defer mfs.Unlock()

	if _, ok := mfs.entries[name]; ok {
		return serr.NewErr(serr.TErrExists, name)
	}
	if mfs.nused+uint64(sz) > mfs.ndisk {
		db.DPrintf(db.MEMFS_ERR, "Create %q %v: %v of %v in use", name, humanize.IBytes(uint64(sz)), humanize.IBytes(mfs.nused), humanize.IBytes(mfs.ndisk))
		return serr.NewErr(serr.TErrNoSpace, name)
	}
	mfs.entries[name] = newInode(mfs.next, sz)
	mfs.nused += uint64(sz)
	mfs.next += 1
	db.DPrintf(db.MEMFS, "Create %q %v", name, humanize.IBytes(uint64(sz)))
	return nil
}

func (mfs *MemFs) Open(name string) (fs.File, error) {
	mfs.Lock()
	defer mfs.Unlock()

	inode, ok := mfs.entries[name]
	if !ok {
		db.DPrintf(db.MEMFS, "Open %q: not found", name)
		return nil, serr.NewErr(serr.TErrNotfound, name)
	}
	inode.nopen += 1
	db.DPrintf(db.MEMFS, "Open %q %v", name, inode)
	return newFile(mfs, name, inode), nil
}

func (mfs *MemFs) Remove(name string) error {
	mfs.Lock()
	defer mfs.Unlock()

	inode, ok := mfs.entries[name]
	if !ok {
		return serr.NewErr(serr.TErrNotfound, name)
	}
	delete(mfs.entries, name)
	inode.removed = true
	db.DPrintf(db.MEMFS, "Remove %q %v", name, inode)
	mfs.freeL(inode)
	return nil
}

// close drops an open reference on inode.
func (mfs *MemFs) close(inode *Inode) {
	mfs.Lock()
	defer mfs.Unlock()

	inode.nopen -= 1
	mfs.freeL(inode)
}

// Open handles keep a removed file's data, and its space, until the
// last one is closed.
//
// Caller holds lock
func (mfs *MemFs) freeL(inode *Inode) {
	if !inode.removed || inode.nopen > 0 {
		return
	}
	mfs.nused -= uint64(inode.Len())
	db.DPrintf(db.MEMFS, "free %v", inode)
}

// Used is the number of bytes taken by files.
func (mfs *MemFs) Used() uint64 {
	mfs.Lock()
	defer mfs.Unlock()
	return mfs.nused
}

// Names returns the file names in sorted order.
func (mfs *MemFs) Names() []string {
	mfs.Lock()
	defer mfs.Unlock()

	ns := make([]string, 0, len(mfs.entries))
	for n := range mfs.entries {
		ns = append(ns, n)
	}
	slices.Sort(ns)
	return ns
}

// PutFile creates name holding exactly b; used to seed a disk image.
func (mfs *MemFs) PutFile(name string, b []byte) error {
	if err := mfs.Create(name, uint32(len(b))); err != nil {
		return err
	}
	f, err := mfs.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(b)
	return err
}
