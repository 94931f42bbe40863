package progress

import (
	"sync"

	"github.com/pterm/pterm"
)

// Terminal renders spinners with pterm.
type Terminal struct {
	mu sync.Mutex
}

// NewTerminal returns a terminal reporter.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Start implements Reporter.
func (t *Terminal) Start(startText string) Spinner {
	t.mu.Lock()
	defer t.mu.Unlock()

	printer, err := pterm.DefaultSpinner.WithRemoveWhenDone(false).Start(startText)
	if err != nil {
		printer = nil
	}
	return &termSpinner{
		id:      NewID(),
		printer: printer,
		base:    startText,
		current: startText,
	}
}

type termSpinner struct {
	mu      sync.Mutex
	id      string
	printer *pterm.SpinnerPrinter
	base    string
	current string
	done    bool
}

func (s *termSpinner) ID() string { return s.id }

func (s *termSpinner) update(text string) {
	s.current = text
	if s.printer != nil && !s.done {
		s.printer.UpdateText(text)
	}
}

func (s *termSpinner) Text(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = text
	s.update(text)
}

func (s *termSpinner) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update(s.base + " › " + text)
}

func (s *termSpinner) Succeed(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	msg := s.base
	if text != "" {
		msg = s.base + " › " + text
	}
	s.done = true
	if s.printer != nil {
		s.printer.Success(msg)
		return
	}
	pterm.Success.Println(msg)
}

func (s *termSpinner) Failed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	msg := s.base
	if err != nil {
		msg = s.base + "\n" + err.Error()
	}
	s.done = true
	if s.printer != nil {
		s.printer.Fail(msg)
		return
	}
	pterm.Error.Println(msg)
}
