// Package emit declares the inverse of package input's dispatcher: the
// Emitter boundary of spec.md §6.2. Concrete emitters are an out-of-scope
// collaborator for this module — only the interface and the registry
// plumbing that a future emitter package would hook into are declared
// here, mirroring the way package input's Register/FromSource pair lets
// parser/* packages wire themselves in from an init() without input
// itself knowing their names.
package emit

import (
	"io"

	"github.com/lambda-doc/lambda/item"
)

// Emitter is format_data's Go shape (spec.md §6.2): produce it in the
// target syntax, writing the rendered text to w. flavor selects a
// dialect the way Parse's flavor parameter does on the input side (for
// example "commonmark" vs "markdown" for the markup format); it is
// empty when the format has no dialect.
//
// The core's only guarantee about an Emitter's output is the round-trip
// property of §6.2: an item produced by format F's parser, emitted by
// F's Emitter and parsed again by F, must be an equal item — same tags,
// same container shapes — even though surface formatting (whitespace,
// key order for formats with no ordering requirement, quoting style) may
// differ. No Emitter implementation lives in this module; a host wires
// one in the same way parser packages wire themselves into
// input.Register.
type Emitter interface {
	Emit(w io.Writer, it item.Item, flavor string) error
}

// EmitterFunc adapts a plain function to the Emitter interface, the same
// convenience shape as http.HandlerFunc in the standard library.
type EmitterFunc func(w io.Writer, it item.Item, flavor string) error

func (f EmitterFunc) Emit(w io.Writer, it item.Item, flavor string) error { return f(w, it, flavor) }

// registry maps a format identifier to its Emitter, the emit-side mirror
// of package input's parser registry. Nothing in this module calls
// Register from an init(): it exists so a future emitter package (or a
// host application) can participate in the same format-name namespace
// input.FromSource already defines, without this module needing to name
// or depend on that package.
var registry = map[string]Emitter{}

// Register installs e as the emitter for format. Safe to call from an
// init() the same way parser/* packages call input.Register.
func Register(format string, e Emitter) { registry[format] = e }

// Lookup returns the registered Emitter for format, or nil if none has
// been registered.
func Lookup(format string) Emitter { return registry[format] }

// For writes it to w using the emitter registered for format, returning
// ErrNoEmitter if none is registered. This is the entry point a CLI or
// library caller uses in place of calling format_data directly.
func For(w io.Writer, it item.Item, format, flavor string) error {
	e := Lookup(format)
	if e == nil {
		return &NoEmitterError{Format: format}
	}
	return e.Emit(w, it, flavor)
}

// NoEmitterError reports that no Emitter is registered for a format.
type NoEmitterError struct{ Format string }

func (e *NoEmitterError) Error() string {
	return "emit: no emitter registered for format " + e.Format
}
