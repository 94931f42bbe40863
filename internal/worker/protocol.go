package worker

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"
	"sync"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/progress"
)

// MaxMessageSize bounds a single protocol line.
const MaxMessageSize = 4 << 20

// Data is everything a worker needs to start a session.
type Data struct {
	// AppRoot is the project root.
	AppRoot string `json:"appRoot"`

	// Config is the project configuration. Its generators and formatters
	// are ignored in favor of the module lists below.
	Config *config.Config `json:"config"`

	GeneratorModules []config.ModuleConfig `json:"generatorModules"`
	FormatterModules []config.ModuleConfig `json:"formatterModules"`
}

// NewData returns the Data of a loaded project.
func NewData(cfg *config.Config) Data {
	return Data{
		AppRoot:          cfg.AppRoot(),
		Config:           cfg,
		GeneratorModules: nonNil(cfg.Generators),
		FormatterModules: nonNil(cfg.Formatters),
	}
}

// ProjectConfig returns the configuration the worker runs with.
func (d Data) ProjectConfig() *config.Config {
	cfg := config.New()
	if d.Config != nil {
		c := *d.Config
		cfg = &c
	}
	cfg.SetAppRoot(d.AppRoot)
	cfg.Generators = d.GeneratorModules
	cfg.Formatters = d.FormatterModules
	return cfg
}

func nonNil(m []config.ModuleConfig) []config.ModuleConfig {
	if m == nil {
		return []config.ModuleConfig{}
	}
	return m
}

// ErrorInfo is a serialized error.
type ErrorInfo struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Error implements error.
func (e *ErrorInfo) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// NewErrorInfo serializes err. Coded errors keep their code as name and
// their detail as stack; otherwise the stack lists the wrapped chain, one
// error per line.
func NewErrorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{Name: "Error", Message: err.Error()}

	var ke *errors.KosmoError
	if stderrors.As(err, &ke) {
		info.Name = ke.Code
		info.Stack = ke.Detail
	}
	if info.Stack == "" {
		info.Stack = strings.Join(chain(err, nil), "\n")
	}
	return info
}

func chain(err error, out []string) []string {
	out = append(out, err.Error())
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		if next := u.Unwrap(); next != nil {
			return chain(next, out)
		}
	case interface{ Unwrap() []error }:
		for _, next := range u.Unwrap() {
			if next != nil {
				out = chain(next, out)
			}
		}
	}
	return out
}

// Message is one protocol line. Exactly one field is set.
type Message struct {
	Spinner *progress.Update `json:"spinner,omitempty"`
	Error   *ErrorInfo       `json:"error,omitempty"`
	Ready   bool             `json:"ready,omitempty"`
}

// Kind names the set field.
func (m Message) Kind() string {
	switch {
	case m.Spinner != nil:
		return "spinner"
	case m.Error != nil:
		return "error"
	case m.Ready:
		return "ready"
	default:
		return ""
	}
}

// Encoder writes messages. It is safe for concurrent use.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Encode writes m as one line.
func (e *Encoder) Encode(m Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(m)
}

// Decoder reads messages.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), MaxMessageSize)
	return &Decoder{scanner: s}
}

// Decode returns the next message. It returns io.EOF at the end of the
// stream and an E231 error for a line that is not a protocol message.
func (d *Decoder) Decode() (Message, error) {
	for d.scanner.Scan() {
		line := d.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			return Message{}, errors.New("E231").WithDetail(string(line)).Wrap(err)
		}
		if m.Kind() == "" {
			return Message{}, errors.New("E231").WithDetail(string(line))
		}
		return m, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Message{}, err
	}
	return Message{}, io.EOF
}
