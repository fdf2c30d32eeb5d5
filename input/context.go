// Package input implements the Input context of §4.M1: the aggregate that
// binds one parser invocation to a source buffer, a source tracker, an
// error collector, a Mark builder factory, and a scratch buffer. It also
// exposes the external dispatcher of §6.1 (FromSource).
package input

import (
	"fmt"
	"log/slog"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/diag"
	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/source"
	"github.com/lambda-doc/lambda/xlog"
)

// DefaultMaxDepth is the shared recursion-depth ceiling every parser
// checks against, replacing the old per-parser-only constant so that
// mixed-format recursion can't bypass the bound by switching formats
// mid-descent (§9.1 design note, SPEC_FULL.md §4.M2).
const DefaultMaxDepth = 512

// Context is the per-parse aggregate of §4.M1. It is non-copyable by
// convention: callers should always hold it by pointer and never assign
// through it by value (the noCopy marker documents this; go vet's
// copylocks check does not fire on it, since Context holds no sync
// primitives, but the convention mirrors the source's RAII lifetime).
type Context struct {
	noCopy  struct{}
	Base    string // base URL for resolving relative references
	Format  string
	Flavor  string
	Source  []byte
	Tracker *source.Tracker
	Diag    *diag.Collector
	Build   *builder.Factory
	Root    item.Item

	depth    int
	maxDepth int
	stopped  bool

	log *slog.Logger
}

// New creates a Context over src, with a fresh Tracker, Collector, and
// builder Factory.
func New(src []byte, base, format, flavor string) *Context {
	return &Context{
		Base:     base,
		Format:   format,
		Flavor:   flavor,
		Source:   src,
		Tracker:  source.New(src),
		Diag:     diag.New(),
		Build:    builder.NewFactory(),
		Root:     item.Null,
		maxDepth: DefaultMaxDepth,
		log:      xlog.Default(),
	}
}

// SetMaxErrors forwards to the error collector.
func (c *Context) SetMaxErrors(n int) { c.Diag.SetMaxErrors(n) }

// SetMaxDepth overrides the shared recursion-depth ceiling.
func (c *Context) SetMaxDepth(n int) { c.maxDepth = n }

func (c *Context) pos() source.Position { return c.Tracker.Position() }

// AddError records an error at the tracker's current position.
func (c *Context) AddError(format string, args ...any) {
	c.Diag.AddError(c.pos(), format, args...)
}

// AddErrorAt records an error at an explicit position.
func (c *Context) AddErrorAt(pos source.Position, format string, args ...any) {
	c.Diag.AddError(pos, format, args...)
}

// AddWarning records a warning at the tracker's current position.
func (c *Context) AddWarning(format string, args ...any) {
	c.Diag.AddWarning(c.pos(), format, args...)
}

// AddNote records a note at the tracker's current position.
func (c *Context) AddNote(format string, args ...any) {
	c.Diag.AddNote(c.pos(), format, args...)
}

// HasErrors reports whether any error-severity diagnostic was collected.
func (c *Context) HasErrors() bool { return c.Diag.ErrorCount() > 0 }

// ErrorCount is the number of error-severity diagnostics collected.
func (c *Context) ErrorCount() int { return c.Diag.ErrorCount() }

// ShouldStopParsing is the cooperative-cancellation predicate every
// parser loop head must consult (§4.M2, §5): true once the error
// collector's cap is reached, or once EnterDepth has reported the shared
// recursion ceiling exceeded.
func (c *Context) ShouldStopParsing() bool {
	return c.stopped || c.Diag.ShouldStop()
}

// EnterDepth increments the shared recursion-depth counter and reports
// whether the ceiling was exceeded; callers must pair it with a deferred
// ExitDepth. On overflow it records exactly one error and marks the
// context stopped, matching §8.2's "error count is exactly 1" property.
func (c *Context) EnterDepth() bool {
	c.depth++
	if c.depth > c.maxDepth {
		if !c.stopped {
			c.AddError("maximum nesting depth %d exceeded", c.maxDepth)
			c.stopped = true
		}
		return false
	}
	return true
}

// ExitDepth decrements the shared recursion-depth counter.
func (c *Context) ExitDepth() { c.depth-- }

// FormatErrors renders every collected diagnostic as one string.
func (c *Context) FormatErrors() string { return c.Diag.Format() }

// LogErrors is a diagnostic convenience (§7): it is never required for
// correctness, only for operator visibility.
func (c *Context) LogErrors() {
	for _, d := range c.Diag.Items() {
		msg := fmt.Sprintf("%s:%d:%d: %s", c.Format, d.Pos.Line, d.Pos.Column, d.Message)
		switch d.Severity {
		case diag.Error:
			c.log.Error(msg)
		case diag.Warning:
			c.log.Warn(msg)
		default:
			c.log.Debug(msg)
		}
	}
}

// Release drops this Context's reference to its name pool, per the
// retain/release discipline of §3.5: destroying the last reference frees
// every name transitively. Shape and item data are plain Go values and
// are reclaimed by the garbage collector once unreferenced; Release exists
// so hosts that share a namepool.Pool across several Contexts (parsing
// many small documents against one interning pool) can release their
// share deterministically instead of waiting on GC.
func (c *Context) Release() {
	c.Build.Names.Release()
}

// StripBOM removes a leading UTF-8 byte-order mark, per §6.4: every
// parser accepts and discards one.
func StripBOM(src []byte) []byte {
	const bom = "\xef\xbb\xbf"
	if len(src) >= 3 && string(src[:3]) == bom {
		return src[3:]
	}
	return src
}
