package proc

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	db "ukern/debug"
	"ukern/fdtable"
	"ukern/fs"
	"ukern/vm"
)

// Proc is the kernel's descriptor of one user process. Apart from the
// exit bookkeeping, only the process's own kernel thread touches it.
type Proc struct {
	Pid  Tpid
	Name string
	AS   *vm.Pagedir
	Fds  *fdtable.FdTable[fs.File]

	parent   *ChildRec // shared with the parent; not owned
	children map[Tpid]*ChildRec

	mu       sync.Mutex
	handling bool
	exited   bool
	status   Tstatus
}

func NewProc(pid Tpid, name string, as *vm.Pagedir, nslot int, parent *ChildRec) *Proc {
	return &Proc{
		Pid:      pid,
		Name:     name,
		AS:       as,
		Fds:      fdtable.NewFdTable[fs.File](nslot),
		parent:   parent,
		children: make(map[Tpid]*ChildRec),
	}
}

func (p *Proc) String() string {
	return fmt.Sprintf("%v[%v]", p.Name, p.Pid)
}

// Enter moves the process from idle to handling a system call. A
// second Enter before Leave means the kernel re-entered itself.
func (p *Proc) Enter() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handling {
		db.DFatalf("%v: re-entered system call layer", p)
	}
	p.handling = true
}

func (p *Proc) Leave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handling = false
}

// Exit marks the process dead with status. It returns false if the
// process was already dead; the status is then left untouched.
func (p *Proc) Exit(status Tstatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exited {
		return false
	}
	p.exited = true
	p.status = status
	return true
}

func (p *Proc) IsExited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// Status is only meaningful once IsExited is true.
func (p *Proc) Status() Tstatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Proc) Parent() *ChildRec {
	return p.parent
}

func (p *Proc) AddChild(cr *ChildRec) {
	p.children[cr.Pid()] = cr
}

// TakeChild removes pid from the children the process may still wait
// for.
func (p *Proc) TakeChild(pid Tpid) (*ChildRec, bool) {
	cr, ok := p.children[pid]
	if ok {
		delete(p.children, pid)
	}
	return cr, ok
}

// DetachChildren drops every child record, for the exit path.
func (p *Proc) DetachChildren() []*ChildRec {
	crs := make([]*ChildRec, 0, len(p.children))
	for _, pid := range p.Children() {
		crs = append(crs, p.children[pid])
	}
	p.children = make(map[Tpid]*ChildRec)
	return crs
}

// Children returns the pids not yet waited for, in order.
func (p *Proc) Children() []Tpid {
	pids := make([]Tpid, 0, len(p.children))
	for pid := range p.children {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}
