// Package progress reports long-running pipeline tasks.
//
// A Reporter starts Spinners; each spinner has a start text, can have a
// suffix appended while it works, and ends with Succeed or Failed. The
// orchestrator only talks to these interfaces, so the same code drives a
// terminal, a worker protocol stream or a test recorder.
package progress

import (
	"github.com/google/uuid"
)

// Method names a spinner operation. The values are part of the worker
// protocol.
type Method string

const (
	MethodText    Method = "text"
	MethodAppend  Method = "append"
	MethodSucceed Method = "succeed"
	MethodFailed  Method = "failed"
)

// Update is one spinner operation.
type Update struct {
	ID        string `json:"id"`
	StartText string `json:"startText"`
	Method    Method `json:"method"`
	Text      string `json:"text,omitempty"`
}

// Spinner tracks one task.
type Spinner interface {
	// ID is unique per spinner.
	ID() string

	// Text replaces the spinner text.
	Text(text string)

	// Append shows text after the current text.
	Append(text string)

	// Succeed ends the task. A non-empty text is appended first.
	Succeed(text string)

	// Failed ends the task with err.
	Failed(err error)
}

// Reporter starts spinners.
type Reporter interface {
	Start(startText string) Spinner
}

// NewID returns a fresh spinner id.
func NewID() string {
	return uuid.NewString()
}

// Emitter is a Reporter that turns every spinner operation into an Update.
type Emitter struct {
	// Emit receives every update.
	Emit func(Update)

	// OnError, if set, receives the error passed to Failed before the
	// failed update is emitted.
	OnError func(error)
}

// Start implements Reporter.
func (e *Emitter) Start(startText string) Spinner {
	return &emitSpinner{emitter: e, id: NewID(), startText: startText}
}

type emitSpinner struct {
	emitter   *Emitter
	id        string
	startText string
}

func (s *emitSpinner) ID() string { return s.id }

func (s *emitSpinner) emit(m Method, text string) {
	if s.emitter.Emit != nil {
		s.emitter.Emit(Update{ID: s.id, StartText: s.startText, Method: m, Text: text})
	}
}

func (s *emitSpinner) Text(text string)    { s.emit(MethodText, text) }
func (s *emitSpinner) Append(text string)  { s.emit(MethodAppend, text) }
func (s *emitSpinner) Succeed(text string) { s.emit(MethodSucceed, text) }

func (s *emitSpinner) Failed(err error) {
	if s.emitter.OnError != nil {
		s.emitter.OnError(err)
	}
	text := ""
	if err != nil {
		text = err.Error()
	}
	s.emit(MethodFailed, text)
}

// Apply replays u onto s.
func Apply(s Spinner, u Update) {
	switch u.Method {
	case MethodText:
		s.Text(u.Text)
	case MethodAppend:
		s.Append(u.Text)
	case MethodSucceed:
		s.Succeed(u.Text)
	case MethodFailed:
		s.Failed(textError(u.Text))
	}
}

type textError string

func (e textError) Error() string { return string(e) }

// Discard is a Reporter that drops everything.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Start(string) Spinner { return nopSpinner{} }

type nopSpinner struct{}

func (nopSpinner) ID() string     { return "" }
func (nopSpinner) Text(string)    {}
func (nopSpinner) Append(string)  {}
func (nopSpinner) Succeed(string) {}
func (nopSpinner) Failed(error)   {}
