package test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thanhpk/randstr"

	"ukern/config"
	"ukern/console"
	db "ukern/debug"
	"ukern/kernel"
	"ukern/loader"
	"ukern/memfs"
	"ukern/proc"
	"ukern/ulib"
	"ukern/userprogs"
)

// Tstate is a freshly booted machine: an empty disk, a console whose
// display is a buffer, and the built-in programs.
type Tstate struct {
	T    *testing.T
	Conf *config.Config
	K    *kernel.Kernel
	Fs   *memfs.MemFs
	Cons *console.Console
	Out  *bytes.Buffer
	Reg  *loader.Registry
}

func NewTstate(t *testing.T) *Tstate {
	return NewTstateConf(t, config.DefaultConfig())
}

func NewTstateConf(t *testing.T, conf *config.Config) *Tstate {
	if err := conf.Validate(); err != nil {
		db.DFatalf("NewTstateConf: %v", err)
	}
	ts := &Tstate{T: t, Conf: conf}
	ts.Fs = memfs.NewMemFs(conf.MaxNameLen, uint64(conf.DiskBytes()))
	ts.Cons, ts.Out = console.NewBufConsole()
	ts.Reg = loader.NewRegistry(conf)
	userprogs.Register(ts.Reg)
	ts.K = kernel.NewKernel(conf, ts.Fs, ts.Cons, ts.Reg)
	return ts
}

// Register links an extra program into this machine's image.
func (ts *Tstate) Register(name string, prog ulib.Program) {
	ts.Reg.Register(name, prog)
}

// Run boots cmdline as the first process and waits for it.
func (ts *Tstate) Run(cmdline string) (proc.Tstatus, error) {
	db.DPrintf(db.TEST, "Run %q", cmdline)
	return ts.K.RunInit(cmdline)
}

// RunOK runs cmdline and expects it to exit with want.
func (ts *Tstate) RunOK(cmdline string, want proc.Tstatus) bool {
	status, err := ts.Run(cmdline)
	return assert.Nil(ts.T, err, "Run %q", cmdline) && assert.Equal(ts.T, want, status, "Run %q", cmdline)
}

// Output is everything written to the display so far.
func (ts *Tstate) Output() string {
	return ts.Out.String()
}

// RandName is a file name unlikely to clash with any other.
func (ts *Tstate) RandName() string {
	n := ts.Conf.MaxNameLen
	return randstr.Hex(n)[:n]
}

// Shutdown closes the keyboard so blocked readers return, and waits
// for every kernel thread that can finish to do so.
func (ts *Tstate) Shutdown() {
	ts.Cons.CloseInput()
	if !ts.K.IsHalted() {
		ts.K.Quiesce()
	}
	db.DPrintf(db.TEST, "Shutdown\n%v", ts.K.Stats())
}
