package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kosmojs/dev/internal/errors"
)

// Formatter rewrites rendered text before it is written.
type Formatter interface {
	Name() string
	Format(ctx context.Context, file, text string) (string, error)
}

// FormatterFactory builds a formatter from its kosmo.json config.
type FormatterFactory func(config json.RawMessage) (Formatter, error)

var formatterFactories = map[string]FormatterFactory{
	"trim": newTrimFormatter,
	"exec": newExecFormatter,
}

// LoadFormatter builds the formatter registered under module.
func LoadFormatter(module string, config json.RawMessage) (Formatter, error) {
	factory, ok := formatterFactories[module]
	if !ok {
		names := make([]string, 0, len(formatterFactories))
		for name := range formatterFactories {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, errors.New("E224").
			WithDetail("Formatter '" + module + "' not found").
			WithSuggestion("Available formatters: " + strings.Join(names, ", "))
	}

	f, err := factory(config)
	if err != nil {
		return nil, errors.New("E224").WithDetailf("invalid config for formatter %s", module).Wrap(err)
	}
	return f, nil
}

// include filters files by base name. No patterns matches everything.
type include []string

func (inc include) match(file string) bool {
	if len(inc) == 0 {
		return true
	}
	base := filepath.Base(file)
	for _, pattern := range inc {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func decode(config json.RawMessage, v any) error {
	if len(bytes.TrimSpace(config)) == 0 || string(bytes.TrimSpace(config)) == "null" {
		return nil
	}
	return json.Unmarshal(config, v)
}

// trimFormatter removes trailing whitespace from every line and ends the
// text with exactly one newline.
type trimFormatter struct {
	Include include `json:"include"`
}

func newTrimFormatter(config json.RawMessage) (Formatter, error) {
	f := &trimFormatter{}
	if err := decode(config, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *trimFormatter) Name() string { return "trim" }

func (f *trimFormatter) Format(_ context.Context, file, text string) (string, error) {
	if !f.Include.match(file) {
		return text, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n", nil
}

// execFormatter pipes the text through an external command. The
// placeholder {file} in arguments is replaced with the target path.
type execFormatter struct {
	Command []string `json:"command"`
	Include include  `json:"include"`
}

func newExecFormatter(config json.RawMessage) (Formatter, error) {
	f := &execFormatter{}
	if err := decode(config, f); err != nil {
		return nil, err
	}
	if len(f.Command) == 0 {
		return nil, fmt.Errorf("command is required")
	}
	return f, nil
}

func (f *execFormatter) Name() string { return "exec" }

func (f *execFormatter) Format(ctx context.Context, file, text string) (string, error) {
	if !f.Include.match(file) {
		return text, nil
	}

	args := make([]string, len(f.Command)-1)
	for i, arg := range f.Command[1:] {
		args[i] = strings.ReplaceAll(arg, "{file}", file)
	}

	cmd := exec.CommandContext(ctx, f.Command[0], args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", f.Command[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", f.Command[0], err)
	}
	return stdout.String(), nil
}
