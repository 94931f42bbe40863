package errors

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
	CategoryResolve   Category = "resolve"
	CategoryCache     Category = "cache"
	CategoryGenerator Category = "generator"
	CategoryWorker    Category = "worker"
	CategoryWatcher   Category = "watcher"
)

// Location represents a source code location.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// KosmoError is a structured error with source location, suggestions, and documentation.
type KosmoError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (resolve, cache, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the source code location where the error occurred.
	Location *Location

	// Context contains surrounding source code lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *KosmoError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Location != nil {
		msg += " (" + e.Location.String() + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *KosmoError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds source location to the error.
func (e *KosmoError) WithLocation(file string, line, column int) *KosmoError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithFile records the file an error relates to without a line.
func (e *KosmoError) WithFile(file string) *KosmoError {
	e.Location = &Location{File: file}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *KosmoError) WithSuggestion(s string) *KosmoError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *KosmoError) WithDetail(d string) *KosmoError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *KosmoError) WithDetailf(format string, args ...any) *KosmoError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *KosmoError) Wrap(err error) *KosmoError {
	e.Wrapped = err
	return e
}

// MarshalJSON encodes the error for machine consumers.
func (e *KosmoError) MarshalJSON() ([]byte, error) {
	out := struct {
		Code       string    `json:"code,omitempty"`
		Category   Category  `json:"category"`
		Message    string    `json:"message"`
		Detail     string    `json:"detail,omitempty"`
		Location   *Location `json:"location,omitempty"`
		Suggestion string    `json:"suggestion,omitempty"`
		DocURL     string    `json:"docUrl,omitempty"`
		Cause      string    `json:"cause,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	return json.Marshal(out)
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	if targetLine <= 0 {
		return nil
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a KosmoError from a registered error code.
func New(code string) *KosmoError {
	template, ok := registry[code]
	if !ok {
		return &KosmoError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &KosmoError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new KosmoError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *KosmoError {
	return &KosmoError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a KosmoError. Errors that already
// are (or wrap) a KosmoError are returned as is.
func FromError(err error, code string) *KosmoError {
	if err == nil {
		return nil
	}
	var ke *KosmoError
	if errors.As(err, &ke) {
		return ke
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, a KosmoError with code.
// Joined errors are searched too.
func HasCode(err error, code string) bool {
	switch x := err.(type) {
	case nil:
		return false
	case *KosmoError:
		if x.Code == code {
			return true
		}
		return HasCode(x.Wrapped, code)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if HasCode(e, code) {
				return true
			}
		}
		return false
	default:
		return HasCode(errors.Unwrap(err), code)
	}
}
