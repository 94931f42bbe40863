//go:build windows

package worker

import (
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

func startProcess(ctx context.Context, pc processConfig) (*processHandle, io.ReadCloser, error) {
	job, err := createJobObject()
	if err != nil {
		job = 0
	}

	cmd := exec.CommandContext(ctx, pc.binary, pc.args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}

	proc, stdout, err := launch(cmd, pc)
	if err != nil {
		if job != 0 {
			windows.CloseHandle(job)
		}
		return nil, nil, err
	}

	if job != 0 {
		if err := assignProcessToJob(job, cmd.Process.Pid); err != nil {
			windows.CloseHandle(job)
			job = 0
		}
	}
	proc.job = uintptr(job)

	return proc, stdout, nil
}

func stopProcess(proc *processHandle) {
	if proc == nil || proc.cmd == nil || proc.cmd.Process == nil {
		return
	}

	if proc.job != 0 {
		windows.CloseHandle(windows.Handle(proc.job))
		proc.job = 0
	} else {
		_ = proc.cmd.Process.Kill()
	}

	select {
	case <-proc.done:
		return
	case <-time.After(stopTimeout):
		_ = proc.cmd.Process.Kill()
		<-proc.done
	}
}

func createJobObject() (windows.Handle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return 0, err
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{}
	info.BasicLimitInformation.LimitFlags = windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE
	_, err = windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		windows.CloseHandle(job)
		return 0, err
	}

	return job, nil
}

func assignProcessToJob(job windows.Handle, pid int) error {
	handle, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(handle)

	return windows.AssignProcessToJobObject(job, handle)
}
