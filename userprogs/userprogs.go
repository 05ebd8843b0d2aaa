// Package userprogs is the set of programs linked into the kernel
// image. Each one runs in user mode and talks to the kernel only
// through the system call stubs in ulib.
package userprogs

import (
	"strconv"
	"strings"

	"ukern/abi"
	"ukern/loader"
	"ukern/ulib"
)

const BUFSZ = 512

var progs = map[string]ulib.Program{
	"echo":     echo,
	"cat":      cat,
	"cp":       cp,
	"halt":     halt,
	"exit":     exit,
	"spawn":    spawn,
	"wait2":    wait2,
	"badptr":   badptr,
	"badesp":   badesp,
	"badcall":  badcall,
	"openmany": openmany,
	"rw":       rw,
	"loop":     loop,
}

// Register adds every built-in program to r.
func Register(r *loader.Registry) {
	for n, p := range progs {
		r.Register(n, p)
	}
}

func atoi(s string) int32 {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

// echo ARGS...
func echo(u *ulib.U) int32 {
	argv := u.Argv()
	u.Puts(strings.Join(argv[1:], " ") + "\n")
	return abi.EXIT_SUCCESS
}

// cat [FILE...] copies each file, or the console if none, to stdout.
func cat(u *ulib.U) int32 {
	argv := u.Argv()
	if len(argv) == 1 {
		copyFd(u, abi.STDIN_FILENO, abi.STDOUT_FILENO)
		return abi.EXIT_SUCCESS
	}
	for _, n := range argv[1:] {
		fd := u.Open(n)
		if fd < 0 {
			u.Puts("cat: " + n + ": open failed\n")
			return 1
		}
		copyFd(u, fd, abi.STDOUT_FILENO)
		u.Close(fd)
	}
	return abi.EXIT_SUCCESS
}

// cp SRC DST creates DST with SRC's size and copies SRC into it.
func cp(u *ulib.U) int32 {
	argv := u.Argv()
	if len(argv) != 3 {
		u.Puts("usage: cp src dst\n")
		return 1
	}
	src := u.Open(argv[1])
	if src < 0 {
		return 1
	}
	if !u.Create(argv[2], uint32(u.Filesize(src))) {
		return 1
	}
	dst := u.Open(argv[2])
	if dst < 0 {
		return 1
	}
	copyFd(u, src, dst)
	u.Close(src)
	u.Close(dst)
	return abi.EXIT_SUCCESS
}

func copyFd(u *ulib.U, src, dst int32) {
	va := u.Alloc(BUFSZ)
	for {
		n := u.ReadVa(src, va, BUFSZ)
		if n <= 0 {
			return
		}
		if u.WriteVa(dst, va, uint32(n)) != n {
			return
		}
	}
}

func halt(u *ulib.U) int32 {
	u.Halt()
	return abi.EXIT_SUCCESS
}

// exit N
func exit(u *ulib.U) int32 {
	argv := u.Argv()
	if len(argv) < 2 {
		u.Exit(abi.EXIT_SUCCESS)
	}
	u.Exit(atoi(argv[1]))
	return abi.EXIT_SUCCESS
}

// spawn CMDLINE runs CMDLINE as a child and exits with its status.
func spawn(u *ulib.U) int32 {
	argv := u.Argv()
	pid := u.Exec(strings.Join(argv[1:], " "))
	if pid < 0 {
		u.Puts("spawn: exec failed\n")
		return abi.ERROR
	}
	return u.Wait(pid)
}

// wait2 CMDLINE waits for the same child twice and prints both
// results.
func wait2(u *ulib.U) int32 {
	argv := u.Argv()
	pid := u.Exec(strings.Join(argv[1:], " "))
	if pid < 0 {
		return abi.ERROR
	}
	s1 := u.Wait(pid)
	s2 := u.Wait(pid)
	u.Puts("wait2: " + strconv.Itoa(int(s1)) + " " + strconv.Itoa(int(s2)) + "\n")
	return abi.EXIT_SUCCESS
}

// badptr hands the kernel a buffer above the user/kernel split.
func badptr(u *ulib.U) int32 {
	u.WriteVa(abi.STDOUT_FILENO, abi.PHYS_BASE, 4)
	return abi.EXIT_SUCCESS
}

// badesp traps with the stack pointer straddling the user top.
func badesp(u *ulib.U) int32 {
	u.Trap(abi.PHYS_BASE - 2)
	return abi.EXIT_SUCCESS
}

func badcall(u *ulib.U) int32 {
	u.Syscall(abi.NSYSCALL + 100)
	return abi.EXIT_SUCCESS
}

// openmany NAME opens NAME until the descriptor table is full and
// exits with the number of successful opens.
func openmany(u *ulib.U) int32 {
	argv := u.Argv()
	if len(argv) != 2 {
		return abi.ERROR
	}
	n := int32(0)
	for u.Open(argv[1]) >= 0 {
		n += 1
	}
	return n
}

// rw NAME writes a pattern to NAME, reads it back and checks it.
func rw(u *ulib.U) int32 {
	argv := u.Argv()
	if len(argv) != 2 {
		return abi.ERROR
	}
	msg := []byte("0123456789")
	if !u.Create(argv[1], uint32(len(msg))) {
		return 1
	}
	fd := u.Open(argv[1])
	if fd < 0 {
		return 2
	}
	if u.Write(fd, msg) != int32(len(msg)) {
		return 3
	}
	if u.Tell(fd) != uint32(len(msg)) {
		return 4
	}
	u.Seek(fd, 0)
	b, n := u.Read(fd, uint32(len(msg)))
	if n != int32(len(msg)) || string(b) != string(msg) {
		return 5
	}
	u.Close(fd)
	return abi.EXIT_SUCCESS
}

// loop blocks in read on the console until it is closed.
func loop(u *ulib.U) int32 {
	va := u.Alloc(1)
	for u.ReadVa(abi.STDIN_FILENO, va, 1) > 0 {
	}
	return abi.EXIT_SUCCESS
}
