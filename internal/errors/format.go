package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// DisableColors turns off ANSI styling for Format and Print.
func DisableColors() {
	pterm.DisableColor()
}

// EnableColors turns ANSI styling back on.
func EnableColors() {
	pterm.EnableColor()
}

// Format returns the error formatted for terminal display.
func (e *KosmoError) Format() string {
	var b strings.Builder

	title := e.Message
	if e.Code != "" {
		title = e.Code + ": " + e.Message
	}
	b.WriteString(pterm.Red(pterm.Bold.Sprint("ERROR ")) + pterm.Bold.Sprint(title) + "\n\n")

	if e.Location != nil {
		b.WriteString("  " + pterm.Cyan(e.Location.String()) + "\n\n")
		if len(e.Context) > 0 {
			e.writeContext(&b)
			b.WriteString("\n")
		}
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		b.WriteString("  " + pterm.Gray("Cause: ") + e.Wrapped.Error() + "\n\n")
	}
	if e.Suggestion != "" {
		b.WriteString("  " + pterm.Cyan("Hint: ") + e.Suggestion + "\n\n")
	}
	if e.DocURL != "" {
		b.WriteString("  " + pterm.Gray("Learn more: ") + pterm.Blue(e.DocURL) + "\n")
	}

	return b.String()
}

// writeContext renders the source lines around Location, marking the
// error line.
func (e *KosmoError) writeContext(b *strings.Builder) {
	first := e.Location.Line - len(e.Context)/2
	for i, line := range e.Context {
		n := first + i
		marker := "    "
		if n == e.Location.Line {
			marker = "  " + pterm.Red("→ ")
		}
		fmt.Fprintf(b, "%s%4d%s%s\n", marker, n, pterm.Gray(" │ "), line)

		if n == e.Location.Line && e.Location.Column > 0 {
			b.WriteString("       " + pterm.Gray("│ ") + strings.Repeat(" ", e.Location.Column-1) + pterm.Red("^") + "\n")
		}
	}
}

// FormatCompact returns a compact single-line error format.
func (e *KosmoError) FormatCompact() string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String() + ": ")
	}
	if e.Code != "" {
		b.WriteString(e.Code + ": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Print writes err to w. Joined errors are printed one by one.
func Print(w io.Writer, err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			Print(w, e)
		}
		return
	}

	var ke *KosmoError
	if errors.As(err, &ke) && ke.Code != "" {
		fmt.Fprint(w, "\n"+ke.Format()+"\n")
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", pterm.Red(pterm.Bold.Sprint("ERROR")), err.Error())
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
