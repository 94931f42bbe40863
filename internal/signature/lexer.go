package signature

import (
	"strings"
)

// source pairs a file's text with a masked copy in which comments and
// string literal bodies are blanked out. Offsets are shared, so structure
// is found on the mask and text is cut from the original.
type source struct {
	text string
	mask []byte
}

func newSource(text string) *source {
	return &source{text: text, mask: maskSource(text)}
}

// maskSource blanks comments and the inside of string and template
// literals, keeping quotes and newlines.
func maskSource(text string) []byte {
	m := []byte(text)
	n := len(m)

	for i := 0; i < n; i++ {
		switch c := m[i]; {
		case c == '/' && i+1 < n && m[i+1] == '/':
			for ; i < n && m[i] != '\n'; i++ {
				m[i] = ' '
			}
		case c == '/' && i+1 < n && m[i+1] == '*':
			j := i
			for ; j < n; j++ {
				if m[j] == '*' && j+1 < n && m[j+1] == '/' {
					j++
					break
				}
			}
			for k := i; k <= j && k < n; k++ {
				if m[k] != '\n' {
					m[k] = ' '
				}
			}
			i = j
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for ; j < n && m[j] != c; j++ {
				if m[j] == '\\' && j+1 < n {
					m[j] = ' '
					j++
				}
				if m[j] != '\n' {
					m[j] = ' '
				}
			}
			i = j
		}
	}
	return m
}

// statements splits the source into top-level chunks: each starts on an
// unindented line that begins, outside any bracket, with a character that
// does not close one. Continuation lines of formatted code are indented.
func (s *source) statements() []span {
	var starts []int
	depth := 0

	for i, c := range s.mask {
		if (i == 0 || s.mask[i-1] == '\n') && depth == 0 &&
			!isSpace(c) && !strings.ContainsRune(")]}>", rune(c)) {
			starts = append(starts, i)
		}
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}

	spans := make([]span, 0, len(starts))
	for i, start := range starts {
		end := len(s.mask)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		spans = append(spans, span{start, end})
	}
	return spans
}

type span struct {
	start, end int
}

func (s *source) cut(sp span) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s.text[sp.start:sp.end]), ";"))
}

func (s *source) masked(sp span) string {
	return string(s.mask[sp.start:sp.end])
}

// closeAngle returns the index just past the '>' matching the '<' at open,
// plus the spans of the top-level comma-separated arguments.
func (s *source) closeAngle(open int) (int, []span, bool) {
	angle, depth := 0, 0
	argStart := open + 1
	var args []span

	for i := open; i < len(s.mask); i++ {
		switch c := s.mask[i]; c {
		case '<':
			angle++
		case '>':
			if i > 0 && s.mask[i-1] == '=' {
				continue
			}
			angle--
			if angle == 0 {
				args = append(args, span{argStart, i})
				return i + 1, nonBlank(s, args), true
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if angle == 1 && depth == 0 {
				args = append(args, span{argStart, i})
				argStart = i + 1
			}
		}
	}
	return 0, nil, false
}

// closeBracket returns the index just past the bracket matching the one
// at open.
func (s *source) closeBracket(open int) (int, bool) {
	depth := 0
	for i := open; i < len(s.mask); i++ {
		switch s.mask[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// splitTopLevel splits the span at commas outside any bracket.
func (s *source) splitTopLevel(sp span) []span {
	var out []span
	depth, angle := 0, 0
	start := sp.start
	for i := sp.start; i < sp.end; i++ {
		switch c := s.mask[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '<':
			angle++
		case '>':
			if i > 0 && s.mask[i-1] == '=' {
				continue
			}
			angle--
		case ',':
			if depth == 0 && angle == 0 {
				out = append(out, span{start, i})
				start = i + 1
			}
		}
	}
	out = append(out, span{start, sp.end})
	return nonBlank(s, out)
}

func nonBlank(s *source, spans []span) []span {
	out := spans[:0]
	for _, sp := range spans {
		if strings.TrimSpace(string(s.mask[sp.start:sp.end])) != "" {
			out = append(out, sp)
		}
	}
	return out
}

// skipSpace returns the first non-space index at or after i.
func (s *source) skipSpace(i int) int {
	for i < len(s.mask) && isSpace(s.mask[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// stripComments removes comments from a type text and collapses
// whitespace.
func stripComments(text string) string {
	m := maskSource(text)
	var b strings.Builder
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			b.WriteByte(c)
			if m[i] == quote {
				quote = 0
			}
		case m[i] != c:
			// comment
		case c == '"' || c == '\'' || c == '`':
			quote = c
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// splitProperties splits an object type body at ';' and ',' outside any
// bracket.
func (s *source) splitProperties(sp span) []span {
	var out []span
	depth, angle := 0, 0
	start := sp.start
	for i := sp.start; i < sp.end; i++ {
		switch c := s.mask[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '<':
			angle++
		case '>':
			if i > 0 && s.mask[i-1] == '=' {
				continue
			}
			angle--
		case ';', ',':
			if depth == 0 && angle == 0 {
				out = append(out, span{start, i})
				start = i + 1
			}
		}
	}
	out = append(out, span{start, sp.end})
	return nonBlank(s, out)
}
