// Package ulib is the user side of the system call interface: it
// lays call numbers and arguments out on the process's own stack and
// traps into the kernel, the way a C library stub would.
package ulib

import (
	"fmt"
	"runtime"

	"ukern/abi"
	db "ukern/debug"
	"ukern/proc"
	"ukern/vm"
)

// Trapper is the trap entry into the kernel.
type Trapper interface {
	Syscall(p *proc.Proc, tf *abi.Frame)
	// Fault reports a page fault taken in user mode at va.
	Fault(p *proc.Proc, va abi.Tva)
}

// Program is a user program's entry point; its return value is the
// argument of the implicit exit.
type Program func(u *U) int32

// U is the user-mode context of one process: its registers (sp) and
// a bump allocator over its heap segment.
type U struct {
	p    *proc.Proc
	trap Trapper
	sp   abi.Tva
	brk  abi.Tva
	hend abi.Tva
}

func NewU(p *proc.Proc, trap Trapper, sp, heap, hend abi.Tva) *U {
	return &U{p: p, trap: trap, sp: sp, brk: heap, hend: hend}
}

func (u *U) Proc() *proc.Proc {
	return u.p
}

func (u *U) Sp() abi.Tva {
	return u.sp
}

// Trap delivers a raw frame, returning the result slot. If the kernel
// terminated the process the calling goroutine ends here.
func (u *U) Trap(esp abi.Tva) abi.Tword {
	tf := &abi.Frame{Esp: esp}
	u.trap.Syscall(u.p, tf)
	if u.p.IsExited() {
		db.DPrintf(db.UPROG, "%v: terminated in trap", u.p)
		runtime.Goexit()
	}
	return tf.Eax
}

// Syscall pushes args and the call number below sp and traps.
func (u *U) Syscall(no abi.Tsysno, args ...abi.Tword) abi.Tword {
	sp := u.sp
	for i := len(args) - 1; i >= 0; i-- {
		sp -= abi.WORDSZ
		u.mustWriteWord(sp, args[i])
	}
	sp -= abi.WORDSZ
	u.mustWriteWord(sp, abi.Tword(no))
	return u.Trap(sp)
}

func (u *U) mustWriteWord(va abi.Tva, w abi.Tword) {
	if err := vm.WriteWord(u.p.AS, va, w); err != nil {
		// A user stack overflow faults in user mode.
		u.fault(va, err)
	}
}

// fault models a page fault taken in user mode; the kernel kills the
// process and the goroutine never comes back.
func (u *U) fault(va abi.Tva, err error) {
	db.DPrintf(db.UPROG, "%v: user fault at %#x: %v", u.p, uint32(va), err)
	u.trap.Fault(u.p, va)
	runtime.Goexit()
}

// Alloc reserves n bytes of heap, word aligned.
func (u *U) Alloc(n uint32) abi.Tva {
	va := u.brk
	end := uint64(va) + uint64((n+abi.WORDSZ-1)&^(abi.WORDSZ-1))
	if end > uint64(u.hend) {
		u.fault(va, fmt.Errorf("heap exhausted"))
	}
	u.brk = abi.Tva(end)
	return va
}

// PutBytes copies b into fresh heap memory.
func (u *U) PutBytes(b []byte) abi.Tva {
	va := u.Alloc(uint32(len(b)))
	if err := vm.CopyOut(u.p.AS, va, b); err != nil {
		u.fault(va, err)
	}
	return va
}

// PutString copies s and a NUL terminator into fresh heap memory.
func (u *U) PutString(s string) abi.Tva {
	return u.PutBytes(append([]byte(s), 0))
}

// Peek reads n bytes of the process's memory at va.
func (u *U) Peek(va abi.Tva, n uint32) []byte {
	b, err := vm.CopyIn(u.p.AS, va, n)
	if err != nil {
		u.fault(va, err)
	}
	return b
}

// Argv reads the arguments the loader left on the initial stack:
// sp -> return address, argc, argv.
func (u *U) Argv() []string {
	argc, err := vm.ReadWord(u.p.AS, u.sp+abi.WORDSZ)
	if err != nil {
		u.fault(u.sp, err)
	}
	argv, err := vm.ReadWord(u.p.AS, u.sp+2*abi.WORDSZ)
	if err != nil {
		u.fault(u.sp, err)
	}
	args := make([]string, 0, argc)
	for i := abi.Tword(0); i < argc; i++ {
		a, err := vm.ReadWord(u.p.AS, abi.Tva(argv+i*abi.WORDSZ))
		if err != nil {
			u.fault(abi.Tva(argv), err)
		}
		s, err := vm.CopyInString(u.p.AS, abi.Tva(a))
		if err != nil {
			u.fault(abi.Tva(a), err)
		}
		args = append(args, s)
	}
	return args
}
