package proc

import (
	"fmt"
	"sync"

	db "ukern/debug"
	"ukern/serr"
)

type Tcstate uint8

const (
	CS_RUNNING  Tcstate = iota + 1
	CS_EXITED           // status is valid
	CS_CONSUMED         // parent has collected status
)

func (s Tcstate) String() string {
	switch s {
	case CS_RUNNING:
		return "RUNNING"
	case CS_EXITED:
		return "EXITED"
	case CS_CONSUMED:
		return "CONSUMED"
	default:
		return "unknown state"
	}
}

// ChildRec is the record a parent and one child share. The child
// completes the load future once and posts its exit status once; the
// parent may collect that status once. The kernel reference counts the
// record on behalf of both sides.
type ChildRec struct {
	sync.Mutex
	cond    *sync.Cond
	pid     Tpid
	state   Tcstate
	status  Tstatus
	loaded  bool
	loadErr error
}

func NewChildRec(pid Tpid) *ChildRec {
	cr := &ChildRec{
		pid:   pid,
		state: CS_RUNNING,
	}
	cr.cond = sync.NewCond(&cr.Mutex)
	return cr
}

func (cr *ChildRec) Pid() Tpid {
	return cr.pid
}

// Started completes the load future with the outcome of loading the
// child's program.
func (cr *ChildRec) Started(err error) {
	cr.Lock()
	defer cr.Unlock()

	// Sanity check that completions only happen once.
	if cr.loaded {
		db.DFatalf("Double-completed load of %v", cr.pid)
	}
	cr.loaded = true
	cr.loadErr = err
	cr.cond.Broadcast()
}

// WaitStarted blocks until the child has loaded or failed to.
func (cr *ChildRec) WaitStarted() error {
	cr.Lock()
	defer cr.Unlock()

	for !cr.loaded {
		cr.cond.Wait()
	}
	return cr.loadErr
}

// Exited posts the child's status and wakes the parent if it waits.
func (cr *ChildRec) Exited(status Tstatus) {
	cr.Lock()
	defer cr.Unlock()

	if cr.state != CS_RUNNING {
		db.DFatalf("Exited %v twice: state %v", cr.pid, cr.state)
	}
	cr.status = status
	cr.state = CS_EXITED
	db.DPrintf(db.CHILDREC, "Exited %v status %v", cr.pid, status)
	cr.cond.Broadcast()
}

// Wait blocks until the child has exited and collects its status. Only
// the first collection succeeds; later ones fail without blocking.
func (cr *ChildRec) Wait() (Tstatus, error) {
	cr.Lock()
	defer cr.Unlock()

	if cr.state == CS_CONSUMED {
		db.DPrintf(db.CHILDREC, "Wait %v: already consumed", cr.pid)
		return StatusKilled, serr.NewErr(serr.TErrChild, cr.pid)
	}
	for cr.state == CS_RUNNING {
		cr.cond.Wait()
	}
	cr.state = CS_CONSUMED
	db.DPrintf(db.CHILDREC, "Wait %v: status %v", cr.pid, cr.status)
	return cr.status, nil
}

func (cr *ChildRec) State() Tcstate {
	cr.Lock()
	defer cr.Unlock()
	return cr.state
}

func (cr *ChildRec) String() string {
	cr.Lock()
	defer cr.Unlock()
	return fmt.Sprintf("{pid %v state %v status %v}", cr.pid, cr.state, cr.status)
}
