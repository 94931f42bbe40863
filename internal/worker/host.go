package worker

import (
	"context"
	stderrors "errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/metrics"
	"github.com/kosmojs/dev/internal/progress"
)

// HostOptions configures a Host.
type HostOptions struct {
	Transport Transport

	// Reporter renders the worker's spinners. Defaults to progress.Discard.
	Reporter progress.Reporter

	Metrics *metrics.Metrics

	// OnMessage, if set, sees every message after the host handled it.
	OnMessage func(Message)

	// OnExit is called once when the worker exits. err is nil after
	// Terminate or a clean shutdown.
	OnExit func(err error)
}

// Host is the parent side of a worker session.
type Host struct {
	opts HostOptions
	conn *Conn
	log  *zap.SugaredLogger

	mu       sync.Mutex
	spinners map[string]progress.Spinner

	ready     chan struct{}
	readyOnce sync.Once

	done       chan struct{}
	err        error
	terminated bool
}

// StartHost starts a worker with data and begins reading its messages.
func StartHost(ctx context.Context, data Data, opts HostOptions) (*Host, error) {
	if opts.Transport == nil {
		opts.Transport = Process{}
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Discard
	}

	conn, err := opts.Transport.Start(ctx, data)
	if err != nil {
		return nil, err
	}

	h := &Host{
		opts:     opts,
		conn:     conn,
		log:      logger.Named("host"),
		spinners: make(map[string]progress.Spinner),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.read()
	return h, nil
}

func (h *Host) read() {
	dec := NewDecoder(h.conn.Messages)
	for {
		m, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.HasCode(err, "E231") {
				h.log.Warnw("dropping worker message", "error", err)
				continue
			}
			h.log.Warnw("worker stream failed", "error", err)
			break
		}
		h.handle(m)
	}

	// drain so a worker blocked on a full pipe can exit
	go io.Copy(io.Discard, h.conn.Messages)

	err := h.conn.Wait()
	h.opts.Metrics.WorkerExit()

	h.mu.Lock()
	if h.terminated || stderrors.Is(err, context.Canceled) {
		err = nil
	}
	h.err = err
	h.spinners = make(map[string]progress.Spinner)
	h.mu.Unlock()

	if err != nil {
		h.log.Errorw("worker exited", "error", err)
	} else {
		h.log.Debugw("worker exited")
	}
	close(h.done)

	if h.opts.OnExit != nil {
		h.opts.OnExit(err)
	}
}

func (h *Host) handle(m Message) {
	h.opts.Metrics.WorkerMessage(m.Kind())

	switch {
	case m.Spinner != nil:
		h.spinner(*m.Spinner)
	case m.Error != nil:
		h.log.Errorw(m.Error.Message, "name", m.Error.Name, "stack", m.Error.Stack)
	case m.Ready:
		h.readyOnce.Do(func() { close(h.ready) })
	}

	if h.opts.OnMessage != nil {
		h.opts.OnMessage(m)
	}
}

func (h *Host) spinner(u progress.Update) {
	h.mu.Lock()
	s, ok := h.spinners[u.ID]
	if !ok {
		s = h.opts.Reporter.Start(u.StartText)
		h.spinners[u.ID] = s
	}
	if u.Method == progress.MethodSucceed || u.Method == progress.MethodFailed {
		delete(h.spinners, u.ID)
	}
	h.mu.Unlock()

	progress.Apply(s, u)
}

// Ready is closed once the worker finished its initial pass.
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Done is closed once the worker exited.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Err returns the exit error once Done is closed.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// WaitReady blocks until the worker is ready. A worker that exits first
// yields an E232 error.
func (h *Host) WaitReady(ctx context.Context) error {
	select {
	case <-h.ready:
		return nil
	case <-h.done:
		select {
		case <-h.ready:
			return nil
		default:
		}
		return errors.New("E232").WithDetail("worker exited before it was ready").Wrap(h.Err())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Terminate stops the worker and waits for it to exit.
func (h *Host) Terminate() {
	h.mu.Lock()
	h.terminated = true
	h.mu.Unlock()

	h.conn.Stop()
	<-h.done
}

// Pending returns the number of spinners that have not finished.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.spinners)
}
