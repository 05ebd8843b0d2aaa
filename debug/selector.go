package debug

type Tselector string

// ALWAYS
const (
	ALWAYS Tselector = "ALWAYS"
	ERROR            = "ERROR"
	NEVER            = "NEVER"
)

// ERR
const (
	ERR Tselector = "_ERR"
)

// Tests
const (
	TEST  Tselector = "TEST"
	TEST1           = "TEST1"
)

// Kernel
const (
	KERNEL      Tselector = "KERNEL"
	KERNEL_ERR            = KERNEL + ERR
	SYSCALL               = "SYSCALL"
	SYSCALL_ERR           = SYSCALL + ERR
	KSTATS                = "KSTATS"
)

// User memory
const (
	VM     Tselector = "VM"
	VM_ERR           = VM + ERR
)

// Processes
const (
	PROC          Tselector = "PROC"
	PROC_ERR                = PROC + ERR
	CHILDREC                = "CHILDREC"
	FDTABLE                 = "FDTABLE"
	LOADER                  = "LOADER"
	REFMAP_SUFFIX           = "_REFMAP"
)

// Devices and file system
const (
	MEMFS     Tselector = "MEMFS"
	MEMFS_ERR           = MEMFS + ERR
	CONSOLE             = "CONSOLE"
)

// User programs
const (
	UPROG Tselector = "UPROG"
)
