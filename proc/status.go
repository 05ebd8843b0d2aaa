package proc

import (
	"strconv"

	"ukern/abi"
)

// Tstatus is a process exit status: 0 is success, KILLED means the
// kernel killed the process, anything else is up to the program.
type Tstatus int32

const (
	StatusOK     Tstatus = Tstatus(abi.EXIT_SUCCESS)
	StatusKilled Tstatus = Tstatus(abi.KILLED)
)

func (status Tstatus) String() string {
	return strconv.Itoa(int(status))
}

func (status Tstatus) IsStatusOK() bool {
	return status == StatusOK
}
