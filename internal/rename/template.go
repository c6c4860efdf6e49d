// Package rename compiles naming patterns and renders node display names.
//
// A pattern is plain text with placeholders like "{flag} {name}". Patterns
// are compiled once and reused across every node of a batch, so a bad
// pattern is rejected before any node is touched.
package rename

import (
	"fmt"
	"strings"

	"nodectl/internal/model"
)

type field int

const (
	fieldLiteral field = iota
	fieldName
	fieldFlag
	fieldIP
	fieldEntry
	fieldExit
)

var fields = map[string]field{
	"name":  fieldName,
	"flag":  fieldFlag,
	"ip":    fieldIP,
	"entry": fieldEntry,
	"exit":  fieldExit,
}

type segment struct {
	text string
	f    field
}

// Template is a compiled rename pattern. A Template is immutable and safe
// for concurrent use.
type Template struct {
	pattern  string
	segments []segment
}

// TemplateError reports a pattern rejected at compile time. Token carries
// the offending placeholder name and is empty for brace syntax errors.
type TemplateError struct {
	Pattern string
	Token   string
	Reason  string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("pattern %q: %s", e.Pattern, e.Reason)
}

// Parse compiles pattern. The placeholders {name}, {flag}, {ip}, {entry}
// and {exit} are recognized; {{ and }} emit literal braces. Any other
// placeholder, an empty one, an unterminated { or a bare } fails with a
// *TemplateError.
func Parse(pattern string) (*Template, error) {
	var segs []segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(pattern); {
		switch pattern[i] {
		case '{':
			if i+1 < len(pattern) && pattern[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(pattern[i+1:], '}')
			if end < 0 {
				return nil, &TemplateError{Pattern: pattern, Reason: "unterminated placeholder"}
			}
			token := pattern[i+1 : i+1+end]
			f, ok := fields[token]
			if !ok {
				return nil, &TemplateError{
					Pattern: pattern,
					Token:   token,
					Reason:  fmt.Sprintf("unknown placeholder %q", token),
				}
			}
			flush()
			segs = append(segs, segment{f: f})
			i += end + 2
		case '}':
			if i+1 < len(pattern) && pattern[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, &TemplateError{Pattern: pattern, Reason: "unmatched '}'"}
		default:
			lit.WriteByte(pattern[i])
			i++
		}
	}
	flush()
	return &Template{pattern: pattern, segments: segs}, nil
}

// Render produces the display name for n. Absent optional fields render as
// empty strings rather than failing, so a sparse node still gets a name.
func (t *Template) Render(n model.Node) string {
	var b strings.Builder
	b.Grow(len(t.pattern) + 16)
	for _, s := range t.segments {
		switch s.f {
		case fieldLiteral:
			b.WriteString(s.text)
		case fieldName:
			b.WriteString(n.Name)
		case fieldFlag:
			b.WriteString(deref(n.Flag))
		case fieldIP:
			b.WriteString(deref(n.IP))
		case fieldEntry:
			b.WriteString(deref(n.Entry))
		case fieldExit:
			b.WriteString(deref(n.Exit))
		}
	}
	return b.String()
}

// Record renders n and assembles the full output row around it.
func (t *Template) Record(n model.Node) model.Record {
	return model.Record{
		Name:         t.Render(n),
		OriginalName: n.Name,
		Flag:         n.Flag,
		IP:           n.IP,
		Entry:        n.Entry,
		Exit:         n.Exit,
		LatencyMs:    n.LatencyMs,
		Active:       n.Active,
		Route:        n.Route(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
