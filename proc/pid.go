package proc

import (
	"strconv"
)

type Tpid int32

const (
	NO_PID   Tpid = 0
	KERN_PID Tpid = 0 // the kernel is the parent of the first process
)

func (pid Tpid) String() string {
	return strconv.Itoa(int(pid))
}
