package watcher

import (
	"sync"
	"time"

	"github.com/kosmojs/dev/pkg/route"
)

// Debouncer holds back events for a path until the path has been quiet
// for the stability delay. Events for the same path within the window
// collapse into one.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*pendingEvent
	output  chan route.Event
	done    chan struct{}
	once    sync.Once
}

type pendingEvent struct {
	kind  route.EventKind
	timer *time.Timer
}

// NewDebouncer returns a debouncer with the given stability delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
		output:  make(chan route.Event, 64),
		done:    make(chan struct{}),
	}
}

// Output returns the channel receiving settled events.
func (d *Debouncer) Output() <-chan route.Event {
	return d.output
}

// Add records an event for file, restarting its quiet period.
func (d *Debouncer) Add(file string, kind route.EventKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[file]; ok {
		p.timer.Stop()
		merged, keep := merge(p.kind, kind)
		if !keep {
			delete(d.pending, file)
			return
		}
		p.kind = merged
		p.timer = time.AfterFunc(d.delay, func() { d.flush(file) })
		return
	}

	d.pending[file] = &pendingEvent{
		kind:  kind,
		timer: time.AfterFunc(d.delay, func() { d.flush(file) }),
	}
}

// merge collapses two consecutive events of one path. keep is false when
// the pair cancels out.
func merge(prev, next route.EventKind) (kind route.EventKind, keep bool) {
	switch {
	case prev == route.Created && next == route.Updated:
		return route.Created, true
	case prev == route.Created && next == route.Deleted:
		// never seen by anyone
		return 0, false
	case prev == route.Deleted && next == route.Created:
		// atomic save: the file was replaced
		return route.Updated, true
	default:
		return next, true
	}
}

func (d *Debouncer) flush(file string) {
	d.mu.Lock()
	p, ok := d.pending[file]
	if ok {
		delete(d.pending, file)
	}
	d.mu.Unlock()

	if !ok {
		return
	}

	select {
	case d.output <- route.Event{Kind: p.kind, File: file}:
	case <-d.done:
	}
}

// Pending returns the number of events waiting for their quiet period.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop drops pending events. Output is not closed.
func (d *Debouncer) Stop() {
	d.once.Do(func() {
		close(d.done)
		d.mu.Lock()
		for file, p := range d.pending {
			p.timer.Stop()
			delete(d.pending, file)
		}
		d.mu.Unlock()
	})
}
