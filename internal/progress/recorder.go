package progress

import "sync"

// Recorder is a Reporter that keeps every update in memory.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
	errs    []error
	emitter *Emitter
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.emitter = &Emitter{
		Emit: func(u Update) {
			r.mu.Lock()
			r.updates = append(r.updates, u)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	}
	return r
}

// Start implements Reporter.
func (r *Recorder) Start(startText string) Spinner {
	return r.emitter.Start(startText)
}

// Updates returns a copy of the recorded updates.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// Errors returns the errors passed to Failed.
func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Texts returns the texts of updates with method m.
func (r *Recorder) Texts(m Method) []string {
	var out []string
	for _, u := range r.Updates() {
		if u.Method == m {
			out = append(out, u.Text)
		}
	}
	return out
}
