package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/kosmojs/dev/internal/errors"
)

// Template is a named built-in template.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Text is the text/template source.
	Text string
}

// Get returns a built-in template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := builtins[name]
	if !ok {
		return nil, errors.New("E227").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: " + strings.Join(List(), ", "))
	}
	return tmpl, nil
}

// List returns all built-in template names, sorted.
func List() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"join":  strings.Join,
	"quote": func(s string) string { b, _ := json.Marshal(s); return string(b) },
}

var (
	parsedMu sync.Mutex
	parsed   = map[string]*template.Template{}
)

func parse(tpl string) (*template.Template, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()

	if t, ok := parsed[tpl]; ok {
		return t, nil
	}
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return nil, err
	}
	parsed[tpl] = t
	return t, nil
}

// Render executes tpl against data.
func Render(tpl string, data any) (string, error) {
	t, err := parse(tpl)
	if err != nil {
		return "", errors.New("E225").WithDetail("invalid template").Wrap(err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.New("E225").Wrap(err)
	}
	return buf.String(), nil
}

// Option configures RenderToFile.
type Option func(*fileOptions)

type fileOptions struct {
	overwrite  func(existing string) bool
	formatters []Formatter
}

// WithOverwrite sets the predicate deciding whether an existing file may
// be replaced. It receives the current content.
func WithOverwrite(fn func(existing string) bool) Option {
	return func(o *fileOptions) {
		o.overwrite = fn
	}
}

// WithFormatters runs the rendered text through formatters, in order.
func WithFormatters(formatters ...Formatter) Option {
	return func(o *fileOptions) {
		o.formatters = append(o.formatters, formatters...)
	}
}

// Blank allows replacing only files with no content besides whitespace.
func Blank(existing string) bool {
	return strings.TrimSpace(existing) == ""
}

// Always allows replacing any file.
func Always(string) bool {
	return true
}

// RenderToFile renders tpl and writes it to file. See WriteFile.
func RenderToFile(ctx context.Context, file, tpl string, data any, opts ...Option) (bool, error) {
	text, err := Render(tpl, data)
	if err != nil {
		return false, errors.FromError(err, "E225").WithFile(file)
	}
	return WriteFile(ctx, file, text, opts...)
}

// WriteFile writes text to file, creating parent directories. It reports
// whether the file was written; a file whose content is unchanged or that
// the overwrite predicate protects is left untouched.
func WriteFile(ctx context.Context, file, text string, opts ...Option) (bool, error) {
	o := fileOptions{overwrite: Blank}
	for _, opt := range opts {
		opt(&o)
	}

	existing, err := os.ReadFile(file)
	switch {
	case err == nil:
		if !o.overwrite(string(existing)) {
			return false, nil
		}
	case !os.IsNotExist(err):
		return false, errors.New("E226").WithFile(file).Wrap(err)
	}

	for _, f := range o.formatters {
		if text, err = f.Format(ctx, file, text); err != nil {
			return false, errors.New("E226").
				WithFile(file).
				WithDetailf("formatter %s failed", f.Name()).
				Wrap(err)
		}
	}

	if existing != nil && string(existing) == text {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return false, errors.New("E226").WithFile(file).Wrap(err)
	}
	if err := os.WriteFile(file, []byte(text), 0o644); err != nil {
		return false, errors.New("E226").WithFile(file).Wrap(err)
	}
	return true, nil
}
