package worker

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/kosmojs/dev/internal/errors"
)

// Transport starts workers.
type Transport interface {
	Start(ctx context.Context, data Data) (*Conn, error)
}

// Conn is a running worker.
type Conn struct {
	// Messages is the worker's protocol stream.
	Messages io.Reader

	stop   func()
	exited chan struct{}
	err    error
}

func newConn(messages io.Reader, stop func()) *Conn {
	return &Conn{Messages: messages, stop: stop, exited: make(chan struct{})}
}

func (c *Conn) exit(err error) {
	c.err = err
	close(c.exited)
}

// Stop asks the worker to exit and returns once it has.
func (c *Conn) Stop() {
	c.stop()
	<-c.exited
}

// Wait blocks until the worker exits and returns its error.
func (c *Conn) Wait() error {
	<-c.exited
	return c.err
}

// Exited is closed when the worker has exited.
func (c *Conn) Exited() <-chan struct{} {
	return c.exited
}

// Goroutine runs workers inside the host process.
type Goroutine struct {
	Options Options
}

// Start implements Transport.
func (t Goroutine) Start(ctx context.Context, data Data) (*Conn, error) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)

	conn := newConn(outR, cancel)

	go func() {
		err := Serve(ctx, inR, outW, t.Options)
		inR.Close()
		outW.Close()
		conn.exit(err)
	}()

	go func() {
		_ = json.NewEncoder(inW).Encode(data)
		inW.Close()
	}()

	return conn, nil
}

// Process runs every worker in a child process.
type Process struct {
	// Executable defaults to the running binary.
	Executable string

	// Args default to "worker".
	Args []string

	// Env is appended to the host environment.
	Env []string

	// Stderr receives the worker's log output. Defaults to os.Stderr.
	Stderr io.Writer
}

// Start implements Transport.
func (t Process) Start(ctx context.Context, data Data) (*Conn, error) {
	exe := t.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, errors.New("E230").Wrap(err)
		}
	}
	args := t.Args
	if len(args) == 0 {
		args = []string{"worker"}
	}
	stderr := t.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, errors.New("E230").Wrap(err)
	}

	proc, stdout, err := startProcess(ctx, processConfig{
		binary: exe,
		args:   args,
		dir:    data.AppRoot,
		env:    append(os.Environ(), t.Env...),
		stdin:  payload,
		stderr: stderr,
	})
	if err != nil {
		return nil, errors.New("E230").WithDetailf("failed to start %s", exe).Wrap(err)
	}

	var once sync.Once
	conn := newConn(stdout, func() {
		once.Do(func() { stopProcess(proc) })
	})

	go func() {
		<-proc.done
		if proc.err != nil {
			conn.exit(errors.New("E232").Wrap(proc.err))
			return
		}
		conn.exit(nil)
	}()

	return conn, nil
}
