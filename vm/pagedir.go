package vm

import (
	"fmt"

	"ukern/abi"
	db "ukern/debug"
	"ukern/serr"
)

// AddrSpace is the view of a process's page table the validator needs.
// Translate returns the bytes from va to the end of va's page, or false
// if va's page isn't mapped.
type AddrSpace interface {
	Translate(va abi.Tva) ([]byte, bool)
	Top() abi.Tva
}

type page [abi.PGSIZE]byte

// Pagedir is a per-process page table mapping user page numbers to
// zero-filled physical pages. Only the owning process mutates it.
type Pagedir struct {
	top   abi.Tva
	pages map[uint32]*page
}

func NewPagedir(top abi.Tva) *Pagedir {
	return &Pagedir{
		top:   abi.PgRoundDown(top),
		pages: make(map[uint32]*page),
	}
}

func (pd *Pagedir) Top() abi.Tva {
	return pd.top
}

// Map maps every page overlapping [va, va+n).
func (pd *Pagedir) Map(va abi.Tva, n uint32) error {
	if n == 0 {
		return nil
	}
	end := uint64(va) + uint64(n)
	if end > uint64(pd.top) {
		return serr.NewErr(serr.TErrInval, fmt.Sprintf("map %#x+%d above %#x", uint32(va), n, uint32(pd.top)))
	}
	for pg := uint64(abi.PgRoundDown(va)); pg < end; pg += abi.PGSIZE {
		pn := abi.PgNo(abi.Tva(pg))
		if _, ok := pd.pages[pn]; !ok {
			pd.pages[pn] = &page{}
		}
	}
	db.DPrintf(db.VM, "Map [%#x, %#x)", uint32(abi.PgRoundDown(va)), end)
	return nil
}

// Unmap removes the page containing va.
func (pd *Pagedir) Unmap(va abi.Tva) {
	db.DPrintf(db.VM, "Unmap %#x", uint32(abi.PgRoundDown(va)))
	delete(pd.pages, abi.PgNo(va))
}

func (pd *Pagedir) Translate(va abi.Tva) ([]byte, bool) {
	if va >= pd.top {
		return nil, false
	}
	pg, ok := pd.pages[abi.PgNo(va)]
	if !ok {
		return nil, false
	}
	off := uint32(va) & (abi.PGSIZE - 1)
	return pg[off:], true
}

func (pd *Pagedir) Npages() int {
	return len(pd.pages)
}

func (pd *Pagedir) String() string {
	return fmt.Sprintf("{top %#x npages %d}", uint32(pd.top), len(pd.pages))
}
