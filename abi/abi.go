// Package abi holds the contract shared by user programs and the
// kernel: system call numbers, the trap frame, reserved descriptors and
// the exit status conventions. None of it is negotiable by the kernel.
package abi

import (
	"fmt"
)

type Tva uint32   // user virtual address
type Tword uint32 // one stack slot
type Tsysno uint32

const (
	WORDSZ = 4
	PGSIZE = 4096
	PGBITS = 12

	// Default kernel/user split; user addresses lie strictly below it.
	PHYS_BASE Tva = 0xC0000000
)

// Reserved descriptors.
const (
	STDIN_FILENO  = 0
	STDOUT_FILENO = 1
	NRESERVED     = 2
)

// Exit statuses.
const (
	EXIT_SUCCESS int32 = 0
	KILLED       int32 = -1 // killed by the kernel for misbehaving
	ERROR        int32 = -1 // failure sentinel returned in Eax
)

// System call numbers.
const (
	SYS_HALT Tsysno = iota
	SYS_EXIT
	SYS_EXEC
	SYS_WAIT
	SYS_CREATE
	SYS_REMOVE
	SYS_OPEN
	SYS_FILESIZE
	SYS_READ
	SYS_WRITE
	SYS_SEEK
	SYS_TELL
	SYS_CLOSE
	NSYSCALL
)

var sysnames = map[Tsysno]string{
	SYS_HALT:     "halt",
	SYS_EXIT:     "exit",
	SYS_EXEC:     "exec",
	SYS_WAIT:     "wait",
	SYS_CREATE:   "create",
	SYS_REMOVE:   "remove",
	SYS_OPEN:     "open",
	SYS_FILESIZE: "filesize",
	SYS_READ:     "read",
	SYS_WRITE:    "write",
	SYS_SEEK:     "seek",
	SYS_TELL:     "tell",
	SYS_CLOSE:    "close",
}

func (n Tsysno) String() string {
	if s, ok := sysnames[n]; ok {
		return s
	}
	return fmt.Sprintf("{Tsysno %d}", uint32(n))
}

// Frame is the part of the saved user context the system call layer
// looks at: the user stack pointer at trap time and the result slot.
type Frame struct {
	Esp Tva
	Eax Tword
}

func (tf *Frame) String() string {
	return fmt.Sprintf("{esp %#x eax %#x}", uint32(tf.Esp), uint32(tf.Eax))
}

func PgRoundDown(va Tva) Tva {
	return va &^ (PGSIZE - 1)
}

func PgNo(va Tva) uint32 {
	return uint32(va) >> PGBITS
}
