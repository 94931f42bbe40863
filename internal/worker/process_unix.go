//go:build !windows

package worker

import (
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"
)

func startProcess(ctx context.Context, pc processConfig) (*processHandle, io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, pc.binary, pc.args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	return launch(cmd, pc)
}

func stopProcess(proc *processHandle) {
	if proc == nil || proc.cmd == nil || proc.cmd.Process == nil {
		return
	}

	pgid, err := syscall.Getpgid(proc.cmd.Process.Pid)
	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		_ = proc.cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-proc.done:
		return
	case <-time.After(stopTimeout):
		if pgid > 0 {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			_ = proc.cmd.Process.Kill()
		}
		<-proc.done
	}
}
