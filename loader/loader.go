// Package loader turns a command line into a runnable user image:
// it maps the process's segments, lays out argv on the initial stack
// and hands back the program's entry point.
package loader

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"ukern/abi"
	"ukern/config"
	db "ukern/debug"
	"ukern/proc"
	"ukern/serr"
	"ukern/ulib"
	"ukern/vm"
)

const (
	CODE_BASE abi.Tva = 0x08048000
)

type Image struct {
	Entry   ulib.Program
	Esp     abi.Tva
	Heap    abi.Tva
	HeapEnd abi.Tva
}

type Loader interface {
	Load(p *proc.Proc, argv []string) (*Image, error)
}

// Registry loads programs linked into the kernel, by name.
type Registry struct {
	sync.Mutex
	conf  *config.Config
	progs map[string]ulib.Program
}

func NewRegistry(conf *config.Config) *Registry {
	return &Registry{
		conf:  conf,
		progs: make(map[string]ulib.Program),
	}
}

func (r *Registry) Register(name string, prog ulib.Program) {
	r.Lock()
	defer r.Unlock()
	r.progs[name] = prog
}

func (r *Registry) Names() []string {
	r.Lock()
	defer r.Unlock()

	ns := make([]string, 0, len(r.progs))
	for n := range r.progs {
		ns = append(ns, n)
	}
	slices.Sort(ns)
	return ns
}

func (r *Registry) lookup(name string) (ulib.Program, bool) {
	r.Lock()
	defer r.Unlock()
	prog, ok := r.progs[name]
	return prog, ok
}

func (r *Registry) Load(p *proc.Proc, argv []string) (*Image, error) {
	if len(argv) == 0 {
		return nil, serr.NewErr(serr.TErrNoLoad, "empty command line")
	}
	prog, ok := r.lookup(argv[0])
	if !ok {
		db.DPrintf(db.LOADER, "load: %v: open failed", argv[0])
		return nil, serr.NewErr(serr.TErrNoLoad, argv[0])
	}
	top := r.conf.UserTop()
	bottom := top - abi.Tva(r.conf.StackBytes())
	heap := CODE_BASE + abi.PGSIZE
	hend := heap + abi.Tva(r.conf.HeapBytes())
	if uint64(hend) > uint64(bottom) {
		return nil, serr.NewErr(serr.TErrNoLoad, fmt.Sprintf("heap %#x overlaps stack %#x", uint32(hend), uint32(bottom)))
	}
	// text page, heap, stack
	if err := p.AS.Map(CODE_BASE, abi.PGSIZE+r.conf.HeapBytes()); err != nil {
		return nil, err
	}
	if err := p.AS.Map(bottom, r.conf.StackBytes()); err != nil {
		return nil, err
	}
	esp, err := setupStack(p.AS, top, bottom, argv)
	if err != nil {
		db.DPrintf(db.LOADER, "load: %v: %v", argv[0], err)
		return nil, err
	}
	db.DPrintf(db.LOADER, "load %v: esp %#x heap %#x-%#x", argv, uint32(esp), uint32(heap), uint32(hend))
	return &Image{Entry: prog, Esp: esp, Heap: heap, HeapEnd: hend}, nil
}

// setupStack pushes the argument strings, a word-aligned NULL-terminated
// argv array, argv, argc and a fake return address.
func setupStack(as vm.AddrSpace, top, bottom abi.Tva, argv []string) (abi.Tva, error) {
	need := uint64(0)
	for _, a := range argv {
		need += uint64(len(a)) + 1
	}
	need += abi.WORDSZ - 1 + uint64(len(argv)+4)*abi.WORDSZ
	if need > uint64(top-bottom) {
		return 0, serr.NewErr(serr.TErrNoLoad, "arguments too long")
	}
	sp := top
	addrs := make([]abi.Tword, len(argv))
	for i := len(argv) - 1; i >= 0; i-- {
		sp -= abi.Tva(len(argv[i]) + 1)
		if err := vm.CopyOut(as, sp, append([]byte(argv[i]), 0)); err != nil {
			return 0, err
		}
		addrs[i] = abi.Tword(sp)
	}
	sp &^= abi.WORDSZ - 1
	push := func(w abi.Tword) error {
		sp -= abi.WORDSZ
		return vm.WriteWord(as, sp, w)
	}
	if err := push(0); err != nil {
		return 0, err
	}
	for i := len(addrs) - 1; i >= 0; i-- {
		if err := push(addrs[i]); err != nil {
			return 0, err
		}
	}
	argvp := abi.Tword(sp)
	for _, w := range []abi.Tword{argvp, abi.Tword(len(argv)), 0} {
		if err := push(w); err != nil {
			return 0, err
		}
	}
	return sp, nil
}
