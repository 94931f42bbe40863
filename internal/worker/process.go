package worker

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"time"
)

const stopTimeout = 5 * time.Second

type processConfig struct {
	binary string
	args   []string
	dir    string
	env    []string
	stdin  []byte
	stderr io.Writer
}

type processHandle struct {
	cmd  *exec.Cmd
	job  uintptr
	done chan struct{}
	err  error
}

// launch starts cmd with the worker's stdio wired and reaps it in the
// background.
func launch(cmd *exec.Cmd, pc processConfig) (*processHandle, io.ReadCloser, error) {
	cmd.Dir = pc.dir
	cmd.Env = pc.env
	cmd.Stdin = bytes.NewReader(pc.stdin)
	cmd.Stderr = pc.stderr
	// stopProcess owns shutdown
	cmd.Cancel = func() error { return nil }

	// reaping the child must not close the read side
	stdout, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	cmd.Stdout = w
	if err := cmd.Start(); err != nil {
		stdout.Close()
		w.Close()
		return nil, nil, err
	}
	w.Close()

	proc := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		proc.err = cmd.Wait()
		close(proc.done)
	}()
	return proc, stdout, nil
}
