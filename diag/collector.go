// Package diag implements the severity-tagged, location-tagged diagnostic
// list every parser and validator in this module logs into (§4.L6).
package diag

import (
	"fmt"
	"strings"

	"github.com/lambda-doc/lambda/source"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one collected entry.
type Diagnostic struct {
	Severity Severity
	Pos      source.Position
	Message  string
	Snippet  string // optional source-line snippet
	Hint     string // optional suggestion
}

// DefaultMaxErrors is the collector's default backpressure cap (§4.L6).
const DefaultMaxErrors = 100

// Collector is a bounded diagnostic list.
type Collector struct {
	items     []Diagnostic
	maxErrors int
	errors    int
	warnings  int
}

// New creates a Collector with the default MaxErrors.
func New() *Collector {
	return &Collector{maxErrors: DefaultMaxErrors}
}

// SetMaxErrors overrides the backpressure cap. 0 means unlimited.
func (c *Collector) SetMaxErrors(n int) { c.maxErrors = n }

func (c *Collector) add(sev Severity, pos source.Position, snippet, hint, format string, args []any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	c.items = append(c.items, Diagnostic{
		Severity: sev, Pos: pos, Message: msg, Snippet: snippet, Hint: hint,
	})
	switch sev {
	case Error:
		c.errors++
	case Warning:
		c.warnings++
	}
}

// AddError records an error-severity diagnostic.
func (c *Collector) AddError(pos source.Position, format string, args ...any) {
	c.add(Error, pos, "", "", format, args)
}

// AddErrorHint is AddError with an attached suggestion.
func (c *Collector) AddErrorHint(pos source.Position, snippet, hint, format string, args ...any) {
	c.add(Error, pos, snippet, hint, format, args)
}

// AddWarning records a warning-severity diagnostic.
func (c *Collector) AddWarning(pos source.Position, format string, args ...any) {
	c.add(Warning, pos, "", "", format, args)
}

// AddNote records a note-severity diagnostic.
func (c *Collector) AddNote(pos source.Position, format string, args ...any) {
	c.add(Note, pos, "", "", format, args)
}

// Items returns every collected diagnostic, in insertion order.
func (c *Collector) Items() []Diagnostic { return c.items }

// TotalCount is the number of diagnostics of any severity.
func (c *Collector) TotalCount() int { return len(c.items) }

// ErrorCount is the number of Error-severity diagnostics.
func (c *Collector) ErrorCount() int { return c.errors }

// WarningCount is the number of Warning-severity diagnostics.
func (c *Collector) WarningCount() int { return c.warnings }

// ShouldStop reports whether the error cap has been reached. A parser must
// consult this in every recovery loop (§4.L6, §4.M2).
func (c *Collector) ShouldStop() bool {
	return c.maxErrors > 0 && c.errors >= c.maxErrors
}

// Format renders every diagnostic as one human-readable string, one block
// per diagnostic.
func (c *Collector) Format() string {
	var b strings.Builder
	for i, d := range c.items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s:%d:%d: %s: %s", "<input>", d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
		if d.Snippet != "" {
			fmt.Fprintf(&b, "\n    %s", d.Snippet)
		}
		if d.Hint != "" {
			fmt.Fprintf(&b, "\n    hint: %s", d.Hint)
		}
	}
	return b.String()
}
