package kernel

import (
	"fmt"
	"strings"
	"sync"

	"ukern/abi"
	"ukern/config"
	"ukern/console"
	db "ukern/debug"
	"ukern/fs"
	"ukern/kstats"
	"ukern/loader"
	"ukern/proc"
	"ukern/serr"
	"ukern/ulib"
	"ukern/util/refmap"
	"ukern/vm"
)

// Kernel ties the system call layer to its collaborators: the file
// system, the console, the loader, and one goroutine per process
// standing in for its kernel thread.
type Kernel struct {
	sync.Mutex
	conf    *config.Config
	fsys    fs.FileSys
	cons    console.Dev
	ldr     loader.Loader
	procs   map[proc.Tpid]*proc.Proc
	crecs   *refmap.RefTable[proc.Tpid, *proc.ChildRec]
	nextpid proc.Tpid
	kproc   *proc.Proc // parent of the first process
	halted  bool
	haltc   chan struct{}
	st      *kstats.Stats
	wg      sync.WaitGroup
}

func NewKernel(conf *config.Config, fsys fs.FileSys, cons console.Dev, ldr loader.Loader) *Kernel {
	k := &Kernel{
		conf:    conf,
		fsys:    fsys,
		cons:    cons,
		ldr:     ldr,
		procs:   make(map[proc.Tpid]*proc.Proc),
		crecs:   refmap.NewRefTable[proc.Tpid, *proc.ChildRec](db.CHILDREC),
		nextpid: proc.KERN_PID + 1,
		haltc:   make(chan struct{}),
		st:      kstats.NewStats(),
	}
	k.kproc = proc.NewProc(proc.KERN_PID, "kernel", nil, abi.NRESERVED+1, nil)
	db.DPrintf(db.KERNEL, "NewKernel %v", conf)
	return k
}

func (k *Kernel) Stats() *kstats.Stats {
	return k.st
}

func (k *Kernel) Config() *config.Config {
	return k.conf
}

// RunInit starts cmdline as the first process and waits for it. It
// returns early with TErrHalted if some process halts the machine.
func (k *Kernel) RunInit(cmdline string) (proc.Tstatus, error) {
	pid, err := k.Exec(k.kproc, cmdline)
	if err != nil {
		return proc.StatusKilled, err
	}
	type res struct {
		status proc.Tstatus
		err    error
	}
	ch := make(chan res, 1)
	go func() {
		status, err := k.Wait(k.kproc, pid)
		ch <- res{status, err}
	}()
	select {
	case r := <-ch:
		return r.status, r.err
	case <-k.haltc:
		return proc.StatusKilled, serr.NewErr(serr.TErrHalted, cmdline)
	}
}

// Exec creates a process running cmdline as a child of parent and
// returns once the child has loaded, or failed to.
func (k *Kernel) Exec(parent *proc.Proc, cmdline string) (proc.Tpid, error) {
	argv := strings.Fields(cmdline)
	if len(argv) == 0 {
		return proc.NO_PID, serr.NewErr(serr.TErrNoLoad, "empty command line")
	}

	k.Lock()
	if k.halted {
		k.Unlock()
		return proc.NO_PID, serr.NewErr(serr.TErrHalted, cmdline)
	}
	if len(k.procs) >= k.conf.MaxProcs {
		k.Unlock()
		db.DPrintf(db.PROC_ERR, "Exec %q: %d processes", cmdline, len(k.procs))
		return proc.NO_PID, serr.NewErr(serr.TErrNoProc, cmdline)
	}
	pid := k.nextpid
	k.nextpid += 1
	// one reference for the parent, one for the child
	cr, _ := k.crecs.Insert(pid, func() *proc.ChildRec { return proc.NewChildRec(pid) })
	k.crecs.Insert(pid, nil)
	child := proc.NewProc(pid, argv[0], vm.NewPagedir(k.conf.UserTop()), k.conf.Slots(), cr)
	k.procs[pid] = child
	k.Unlock()

	db.DPrintf(db.PROC, "Exec %v: %v", parent, child)
	k.wg.Add(1)
	go k.run(child, argv)

	if err := cr.WaitStarted(); err != nil {
		db.DPrintf(db.PROC_ERR, "Exec %q: %v", cmdline, err)
		k.release(pid)
		// The child's failure is never the parent's fault.
		if !serr.IsErrCode(err, serr.TErrNoLoad) {
			err = &serr.Err{ErrCode: serr.TErrNoLoad, Obj: cmdline, Err: err}
		}
		return proc.NO_PID, err
	}
	parent.AddChild(cr)
	return pid, nil
}

// run is the kernel thread of p.
func (k *Kernel) run(p *proc.Proc, argv []string) {
	defer k.wg.Done()

	img, err := k.ldr.Load(p, argv)
	if err != nil {
		// Tear down before the parent learns of the failure, so the
		// process no longer counts against max_procs.
		k.terminate(p, proc.StatusKilled, false)
		p.Parent().Started(err)
		return
	}
	p.Parent().Started(nil)

	defer func() {
		if r := recover(); r != nil {
			db.DPrintf(db.PROC_ERR, "%v: fault in user code: %v", p, r)
		}
		// A program that never called exit, or faulted.
		if !p.IsExited() {
			k.kill(p)
		}
	}()
	u := ulib.NewU(p, k, img.Esp, img.Heap, img.HeapEnd)
	status := img.Entry(u)
	u.Exit(status)
}

// kill terminates p for misbehaving.
func (k *Kernel) kill(p *proc.Proc) {
	db.DPrintf(db.PROC_ERR, "kill %v", p)
	k.st.Kill()
	k.terminate(p, proc.StatusKilled, true)
}

// terminate is the one exit path: it closes every descriptor, lets go
// of the children, posts status to the parent and drops the process.
// Only the first call for a process has any effect.
func (k *Kernel) terminate(p *proc.Proc, status proc.Tstatus, loaded bool) {
	if !p.Exit(status) {
		db.DPrintf(db.PROC, "terminate %v again; ignored", p)
		return
	}
	if loaded && k.conf.PrintExit {
		k.cons.Write([]byte(fmt.Sprintf("%s: exit(%d)\n", p.Name, status)))
	}
	for _, f := range p.Fds.ReleaseAll() {
		if err := f.Close(); err != nil {
			db.DPrintf(db.PROC_ERR, "%v: close %v: %v", p, f.Name(), err)
		}
	}
	for _, cr := range p.DetachChildren() {
		k.release(cr.Pid())
	}

	k.Lock()
	delete(k.procs, p.Pid)
	k.Unlock()
	db.DPrintf(db.PROC, "terminate %v status %v", p, status)

	// Last, so a parent woken by the status sees the process gone.
	if cr := p.Parent(); cr != nil {
		cr.Exited(status)
		k.release(p.Pid)
	}
}

// release drops one reference on pid's child record.
func (k *Kernel) release(pid proc.Tpid) {
	k.Lock()
	defer k.Unlock()

	del, err := k.crecs.Delete(pid)
	if err != nil {
		db.DFatalf("release %v: %v", pid, err)
	}
	if del {
		db.DPrintf(db.CHILDREC, "reclaimed record %v", pid)
	}
}

// Wait collects the status of parent's child pid, blocking until it
// exits.
func (k *Kernel) Wait(parent *proc.Proc, pid proc.Tpid) (proc.Tstatus, error) {
	cr, ok := parent.TakeChild(pid)
	if !ok {
		db.DPrintf(db.PROC, "Wait %v: %v not a child", parent, pid)
		return proc.StatusKilled, serr.NewErr(serr.TErrChild, pid)
	}
	status, err := cr.Wait()
	k.release(pid)
	return status, err
}

// Halt powers the machine off. Processes blocked in wait stay blocked;
// any other process dies at its next trap.
func (k *Kernel) Halt() {
	k.Lock()
	defer k.Unlock()

	if k.halted {
		return
	}
	k.halted = true
	close(k.haltc)
	db.DPrintf(db.ALWAYS, "power off")
	db.DPrintf(db.KSTATS, "\n%v", k.st)
}

func (k *Kernel) IsHalted() bool {
	k.Lock()
	defer k.Unlock()
	return k.halted
}

func (k *Kernel) Halted() <-chan struct{} {
	return k.haltc
}

// Fault handles a page fault taken in user mode: the process dies.
func (k *Kernel) Fault(p *proc.Proc, va abi.Tva) {
	db.DPrintf(db.VM_ERR, "%v: page fault at %#x", p, uint32(va))
	k.kill(p)
}

// Nproc is the number of live processes.
func (k *Kernel) Nproc() int {
	k.Lock()
	defer k.Unlock()
	return len(k.procs)
}

// Nrecords is the number of child records still referenced.
func (k *Kernel) Nrecords() int {
	k.Lock()
	defer k.Unlock()
	return k.crecs.Len()
}

// Refcnt is the number of references on pid's child record.
func (k *Kernel) Refcnt(pid proc.Tpid) int {
	k.Lock()
	defer k.Unlock()
	return k.crecs.Refcnt(pid)
}

// Quiesce waits for every kernel thread that can still finish to do
// so; use only after the last process has exited.
func (k *Kernel) Quiesce() {
	k.wg.Wait()
}
