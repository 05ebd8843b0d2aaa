package ulib

import (
	"ukern/abi"
	"ukern/proc"
)

func bool2word(b bool) abi.Tword {
	if b {
		return 1
	}
	return 0
}

func (u *U) Halt() {
	u.Syscall(abi.SYS_HALT)
	panic("halt returned")
}

func (u *U) Exit(status int32) {
	u.Syscall(abi.SYS_EXIT, abi.Tword(status))
	panic("exit returned")
}

func (u *U) Exec(cmdline string) proc.Tpid {
	return proc.Tpid(int32(u.Syscall(abi.SYS_EXEC, abi.Tword(u.PutString(cmdline)))))
}

func (u *U) Wait(pid proc.Tpid) int32 {
	return int32(u.Syscall(abi.SYS_WAIT, abi.Tword(pid)))
}

func (u *U) Create(name string, size uint32) bool {
	return u.Syscall(abi.SYS_CREATE, abi.Tword(u.PutString(name)), abi.Tword(size)) != 0
}

func (u *U) Remove(name string) bool {
	return u.Syscall(abi.SYS_REMOVE, abi.Tword(u.PutString(name))) != 0
}

func (u *U) Open(name string) int32 {
	return int32(u.Syscall(abi.SYS_OPEN, abi.Tword(u.PutString(name))))
}

func (u *U) Filesize(fd int32) int32 {
	return int32(u.Syscall(abi.SYS_FILESIZE, abi.Tword(fd)))
}

// ReadVa reads into user memory at va.
func (u *U) ReadVa(fd int32, va abi.Tva, n uint32) int32 {
	return int32(u.Syscall(abi.SYS_READ, abi.Tword(fd), abi.Tword(va), abi.Tword(n)))
}

// Read reads up to n bytes through a heap buffer.
func (u *U) Read(fd int32, n uint32) ([]byte, int32) {
	va := u.Alloc(n)
	r := u.ReadVa(fd, va, n)
	if r <= 0 {
		return nil, r
	}
	return u.Peek(va, uint32(r)), r
}

// WriteVa writes n bytes of user memory at va.
func (u *U) WriteVa(fd int32, va abi.Tva, n uint32) int32 {
	return int32(u.Syscall(abi.SYS_WRITE, abi.Tword(fd), abi.Tword(va), abi.Tword(n)))
}

func (u *U) Write(fd int32, b []byte) int32 {
	return u.WriteVa(fd, u.PutBytes(b), uint32(len(b)))
}

func (u *U) Puts(s string) int32 {
	return u.Write(abi.STDOUT_FILENO, []byte(s))
}

func (u *U) Seek(fd int32, pos uint32) {
	u.Syscall(abi.SYS_SEEK, abi.Tword(fd), abi.Tword(pos))
}

func (u *U) Tell(fd int32) uint32 {
	return uint32(u.Syscall(abi.SYS_TELL, abi.Tword(fd)))
}

func (u *U) Close(fd int32) {
	u.Syscall(abi.SYS_CLOSE, abi.Tword(fd))
}
