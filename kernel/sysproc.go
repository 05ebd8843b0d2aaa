package kernel

import (
	"ukern/proc"
)

func sysHalt(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	k.Halt()
	p.Exit(proc.StatusKilled)
	return 0, nil
}

func sysExit(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	k.terminate(p, proc.Tstatus(a.Ints[0]), true)
	return 0, nil
}

func sysExec(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	pid, err := k.Exec(p, a.Str)
	if err != nil {
		return -1, err
	}
	return int32(pid), nil
}

func sysWait(k *Kernel, p *proc.Proc, a *Args) (int32, error) {
	status, err := k.Wait(p, proc.Tpid(a.Ints[0]))
	if err != nil {
		return -1, err
	}
	return int32(status), nil
}
