package kernel

import (
	"errors"
	"io"

	"github.com/dustin/go-humanize"

	"ukern/abi"
	db "ukern/debug"
	"ukern/fdtable"
	"ukern/proc"
	"ukern/serr"
)

func bool2ret(ok bool) int32 {
	if ok {
		return 1
	}
	return 0
}

// create and remove report failure as false, never as a fault.
func sysCreate(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	if a.Ints[0] < 0 {
		return 0, nil
	}
	if err := k.fsys.Create(a.Str, uint32(a.Ints[0])); err != nil {
		db.DPrintf(db.SYSCALL, "%v: create %q: %v", p, a.Str, err)
		return 0, nil
	}
	return 1, nil
}

func sysRemove(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	return bool2ret(k.fsys.Remove(a.Str) == nil), nil
}

func sysOpen(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	f, err := k.fsys.Open(a.Str)
	if err != nil {
		return -1, err
	}
	fd, err := p.Fds.Alloc(f)
	if err != nil {
		// Don't leak the handle when the table is full.
		f.Close()
		return -1, err
	}
	return int32(fd), nil
}

func sysFilesize(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	f, err := p.Fds.Lookup(fdtable.Tfd(a.Ints[0]))
	if err != nil {
		return -1, err
	}
	return int32(f.Length()), nil
}

func sysRead(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	fd := fdtable.Tfd(a.Ints[0])
	ub := a.Buf
	switch fd {
	case abi.STDIN_FILENO:
		n := 0
		for ub.Remain() > 0 {
			c, err := k.cons.ReadByte()
			if err != nil {
				break
			}
			if _, err := ub.Uiowrite([]byte{c}); err != nil {
				return -1, err
			}
			n += 1
		}
		return int32(n), nil
	case abi.STDOUT_FILENO:
		return -1, serr.NewErr(serr.TErrPerm, "read stdout")
	}
	f, err := p.Fds.Lookup(fd)
	if err != nil {
		return -1, err
	}
	kbuf := make([]byte, ub.Remain())
	n, err := f.Read(kbuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return -1, err
	}
	if _, err := ub.Uiowrite(kbuf[:n]); err != nil {
		return -1, err
	}
	db.DPrintf(db.SYSCALL, "%v: read %v from %v", p, humanize.Bytes(uint64(n)), f.Name())
	return int32(n), nil
}

func sysWrite(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	fd := fdtable.Tfd(a.Ints[0])
	ub := a.Buf
	if fd == abi.STDIN_FILENO {
		return -1, serr.NewErr(serr.TErrPerm, "write stdin")
	}
	var w io.Writer
	if fd == abi.STDOUT_FILENO {
		w = k.cons
	} else {
		f, err := p.Fds.Lookup(fd)
		if err != nil {
			return -1, err
		}
		w = f
	}
	kbuf := make([]byte, ub.Remain())
	if _, err := ub.Uioread(kbuf); err != nil {
		return -1, err
	}
	n, err := w.Write(kbuf)
	if err != nil && !errors.Is(err, io.ErrShortWrite) {
		return -1, err
	}
	db.DPrintf(db.SYSCALL, "%v: wrote %v to fd %d", p, humanize.Bytes(uint64(n)), fd)
	return int32(n), nil
}

func sysSeek(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	f, err := p.Fds.Lookup(fdtable.Tfd(a.Ints[0]))
	if err != nil {
		return -1, err
	}
	f.Seek(uint32(a.Ints[1]))
	return 0, nil
}

func sysTell(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	f, err := p.Fds.Lookup(fdtable.Tfd(a.Ints[0]))
	if err != nil {
		return -1, err
	}
	return int32(f.Tell()), nil
}

func sysClose(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	f, err := p.Fds.Release(fdtable.Tfd(a.Ints[0]))
	if err != nil {
		return -1, err
	}
	if err := f.Close(); err != nil {
		db.DPrintf(db.SYSCALL_ERR, "%v: close %v: %v", p, f.Name(), err)
	}
	return 0, nil
}
