package fdtable

import (
	"fmt"
	"math/bits"
	"sync"

	"ukern/abi"
	db "ukern/debug"
	"ukern/serr"
)

type Tfd int

//
// Per-process table of open handles. Slots are a fixed arena indexed by
// descriptor with an occupancy bitmap; slots 0 and 1 name the console
// and never hold a handle. The owning process is the only user, the
// lock only keeps the scan and the release atomic.
//

type FdTable[H any] struct {
	sync.Mutex
	fds  []H
	used []uint64
	n    int
}

// NewFdTable makes a table with nslot slots, the reserved ones included.
func NewFdTable[H any](nslot int) *FdTable[H] {
	if nslot <= abi.NRESERVED {
		db.DFatalf("NewFdTable: %d slots leaves none usable", nslot)
	}
	fdt := &FdTable[H]{
		fds:  make([]H, nslot),
		used: make([]uint64, (nslot+63)/64),
	}
	// The reserved slots are permanently marked used.
	for fd := 0; fd < abi.NRESERVED; fd++ {
		fdt.set(fd)
	}
	return fdt
}

func IsReserved(fd Tfd) bool {
	return fd >= 0 && fd < abi.NRESERVED
}

func (fdt *FdTable[H]) set(fd int) {
	fdt.used[fd/64] |= 1 << (uint(fd) % 64)
}

func (fdt *FdTable[H]) clear(fd int) {
	fdt.used[fd/64] &^= 1 << (uint(fd) % 64)
}

func (fdt *FdTable[H]) isset(fd int) bool {
	return fdt.used[fd/64]&(1<<(uint(fd)%64)) != 0
}

// Caller holds lock
func (fdt *FdTable[H]) lowestFreeL() (int, bool) {
	for i, w := range fdt.used {
		if w == ^uint64(0) {
			continue
		}
		fd := i*64 + bits.TrailingZeros64(^w)
		if fd < len(fdt.fds) {
			return fd, true
		}
	}
	return -1, false
}

// Alloc binds h to the lowest free non-reserved slot.
func (fdt *FdTable[H]) Alloc(h H) (Tfd, error) {
	fdt.Lock()
	defer fdt.Unlock()

	fd, ok := fdt.lowestFreeL()
	if !ok {
		db.DPrintf(db.FDTABLE, "Alloc: table full (%d open)", fdt.n)
		return -1, serr.NewErr(serr.TErrMFile, fdt.n)
	}
	fdt.set(fd)
	fdt.fds[fd] = h
	fdt.n += 1
	db.DPrintf(db.FDTABLE, "Alloc fd %d", fd)
	return Tfd(fd), nil
}

// Caller holds lock
func (fdt *FdTable[H]) lookupL(fd Tfd) (int, error) {
	if fd < 0 || int(fd) >= len(fdt.fds) || IsReserved(fd) {
		return 0, serr.NewErr(serr.TErrBadFd, fd)
	}
	if !fdt.isset(int(fd)) {
		return 0, serr.NewErr(serr.TErrBadFd, fd)
	}
	return int(fd), nil
}

func (fdt *FdTable[H]) Lookup(fd Tfd) (H, error) {
	fdt.Lock()
	defer fdt.Unlock()

	var h H
	i, err := fdt.lookupL(fd)
	if err != nil {
		return h, err
	}
	return fdt.fds[i], nil
}

// Release detaches the handle in fd and frees the slot. The caller
// closes the handle.
func (fdt *FdTable[H]) Release(fd Tfd) (H, error) {
	fdt.Lock()
	defer fdt.Unlock()

	var zero H
	i, err := fdt.lookupL(fd)
	if err != nil {
		db.DPrintf(db.FDTABLE, "Release fd %d: %v", fd, err)
		return zero, err
	}
	h := fdt.fds[i]
	fdt.fds[i] = zero
	fdt.clear(i)
	fdt.n -= 1
	db.DPrintf(db.FDTABLE, "Release fd %d", fd)
	return h, nil
}

// ReleaseAll empties the table and returns the handles it held, in
// descriptor order.
func (fdt *FdTable[H]) ReleaseAll() []H {
	fdt.Lock()
	defer fdt.Unlock()

	var zero H
	hs := make([]H, 0, fdt.n)
	for fd := abi.NRESERVED; fd < len(fdt.fds); fd++ {
		if !fdt.isset(fd) {
			continue
		}
		hs = append(hs, fdt.fds[fd])
		fdt.fds[fd] = zero
		fdt.clear(fd)
	}
	fdt.n = 0
	return hs
}

// Len is the number of open handles.
func (fdt *FdTable[H]) Len() int {
	fdt.Lock()
	defer fdt.Unlock()
	return fdt.n
}

// Cap is the number of usable slots.
func (fdt *FdTable[H]) Cap() int {
	return len(fdt.fds) - abi.NRESERVED
}

func (fdt *FdTable[H]) String() string {
	fdt.Lock()
	defer fdt.Unlock()
	return fmt.Sprintf("{open %d/%d}", fdt.n, len(fdt.fds)-abi.NRESERVED)
}
