package kernel

import (
	"fmt"
	"time"

	"ukern/abi"
	db "ukern/debug"
	"ukern/proc"
	"ukern/serr"
	"ukern/vm"
)

type sysfn func(k *Kernel, p *proc.Proc, a *Args) (int32, error)

type sysent struct {
	args []Targ
	fn   sysfn
	void bool // no result is written back
}

var systab [abi.NSYSCALL]sysent

func init() {
	systab = [abi.NSYSCALL]sysent{
		abi.SYS_HALT:     {nil, sysHalt, true},
		abi.SYS_EXIT:     {[]Targ{ARG_INT}, sysExit, true},
		abi.SYS_EXEC:     {[]Targ{ARG_STR}, sysExec, false},
		abi.SYS_WAIT:     {[]Targ{ARG_INT}, sysWait, false},
		abi.SYS_CREATE:   {[]Targ{ARG_STR, ARG_INT}, sysCreate, false},
		abi.SYS_REMOVE:   {[]Targ{ARG_STR}, sysRemove, false},
		abi.SYS_OPEN:     {[]Targ{ARG_STR}, sysOpen, false},
		abi.SYS_FILESIZE: {[]Targ{ARG_INT}, sysFilesize, false},
		abi.SYS_READ:     {[]Targ{ARG_INT, ARG_BUF}, sysRead, false},
		abi.SYS_WRITE:    {[]Targ{ARG_INT, ARG_BUF}, sysWrite, false},
		abi.SYS_SEEK:     {[]Targ{ARG_INT, ARG_INT}, sysSeek, true},
		abi.SYS_TELL:     {[]Targ{ARG_INT}, sysTell, false},
		abi.SYS_CLOSE:    {[]Targ{ARG_INT}, sysClose, true},
	}
}

// Syscall services one trap from p. On return either tf.Eax holds the
// result or p is dead; a dead process is never served again.
func (k *Kernel) Syscall(p *proc.Proc, tf *abi.Frame) {
	if p.IsExited() {
		db.DPrintf(db.SYSCALL_ERR, "%v: trap from dead process", p)
		return
	}
	if k.IsHalted() {
		p.Exit(proc.StatusKilled)
		return
	}

	p.Enter()
	defer p.Leave()

	start := time.Now()
	sysno, ent, ret, err := k.dispatch(p, tf)
	k.st.Record(sysno, time.Since(start))

	if err != nil {
		if serr.IsFatal(err) {
			db.DPrintf(db.SYSCALL_ERR, "%v: %v: %v", p, sysno, err)
			k.kill(p)
			return
		}
		db.DPrintf(db.SYSCALL, "%v: %v: %v", p, sysno, err)
		k.st.Error()
		ret = abi.ERROR
	}
	if p.IsExited() || ent.void {
		return
	}
	tf.Eax = abi.Tword(ret)
}

// dispatch decodes the call and runs its handler. A panic raised while
// serving the call is turned into an error that kills the caller.
func (k *Kernel) dispatch(p *proc.Proc, tf *abi.Frame) (sysno abi.Tsysno, ent *sysent, ret int32, err error) {
	sysno = abi.NSYSCALL
	ent = &sysent{void: true}
	defer func() {
		if r := recover(); r != nil {
			db.DPrintf(db.KERNEL_ERR, "%v: fault serving %v: %v", p, sysno, r)
			err = serr.NewErrError(fmt.Errorf("%v", r))
		}
	}()

	if !vm.IsValidRange(p.AS, tf.Esp, abi.WORDSZ) {
		return sysno, ent, 0, serr.NewErr(serr.TErrBadAddr, fmt.Sprintf("esp %#x", uint32(tf.Esp)))
	}
	w, err := vm.ReadWord(p.AS, tf.Esp)
	if err != nil {
		return sysno, ent, 0, err
	}
	if abi.Tsysno(w) >= abi.NSYSCALL {
		return sysno, ent, 0, serr.NewErr(serr.TErrBadCall, w)
	}
	sysno = abi.Tsysno(w)
	ent = &systab[sysno]
	a, err := fetchArgs(p, tf.Esp, ent.args)
	if err != nil {
		return sysno, ent, 0, err
	}
	db.DPrintf(db.SYSCALL, "%v: %v %v", p, sysno, a)
	ret, err = ent.fn(k, p, a)
	return sysno, ent, ret, err
}
