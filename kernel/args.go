package kernel

import (
	"fmt"

	"ukern/abi"
	db "ukern/debug"
	"ukern/proc"
	"ukern/serr"
	"ukern/vm"
)

// Targ is the kind of one system call argument.
type Targ int

const (
	ARG_INT Targ = iota + 1 // one slot, used as is
	ARG_STR                 // one slot, pointer to a NUL-terminated string
	ARG_BUF                 // two slots, pointer and length
)

func (a Targ) String() string {
	switch a {
	case ARG_INT:
		return "int"
	case ARG_STR:
		return "str"
	case ARG_BUF:
		return "buf"
	default:
		return "unknown"
	}
}

// Args are the arguments of one call, already copied or validated.
// No call takes more than one string or one buffer.
type Args struct {
	Ints []int32
	Str  string
	Buf  *vm.Userbuf
}

func (a *Args) String() string {
	return fmt.Sprintf("{ints %v str %q buf %v}", a.Ints, a.Str, a.Buf)
}

// fetchArgs is the single place user-supplied arguments enter the
// kernel. Each stack slot is validated before it is read and each
// pointer argument is validated before any handler sees it.
func fetchArgs(p *proc.Proc, esp abi.Tva, kinds []Targ) (*Args, error) {
	a := &Args{}
	slot := esp + abi.WORDSZ
	next := func() (abi.Tword, error) {
		if uint64(slot)+abi.WORDSZ > uint64(p.AS.Top()) {
			return 0, serr.NewErr(serr.TErrBadAddr, fmt.Sprintf("slot %#x", uint64(slot)))
		}
		w, err := vm.ReadWord(p.AS, slot)
		slot += abi.WORDSZ
		return w, err
	}
	for _, kind := range kinds {
		switch kind {
		case ARG_INT:
			w, err := next()
			if err != nil {
				return nil, err
			}
			a.Ints = append(a.Ints, int32(w))
		case ARG_STR:
			w, err := next()
			if err != nil {
				return nil, err
			}
			s, err := vm.CopyInString(p.AS, abi.Tva(w))
			if err != nil {
				return nil, err
			}
			a.Str = s
		case ARG_BUF:
			va, err := next()
			if err != nil {
				return nil, err
			}
			n, err := next()
			if err != nil {
				return nil, err
			}
			ub, err := vm.NewUserbuf(p.AS, abi.Tva(va), uint32(n))
			if err != nil {
				return nil, err
			}
			a.Buf = ub
		default:
			db.DFatalf("fetchArgs: unknown kind %v", kind)
		}
	}
	return a, nil
}
