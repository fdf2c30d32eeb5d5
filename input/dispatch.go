package input

import "github.com/lambda-doc/lambda/item"

// ParseFunc is the shared contract every format parser package implements
// (§4.M2): drive ctx.Build to construct the root item from src, reporting
// recoverable issues through ctx's collector and advancing ctx.Tracker in
// lock-step.
type ParseFunc func(ctx *Context, src []byte) item.Item

// registry maps a format identifier (§6.1) to its parser. Parser packages
// register themselves from an init() func, so importing "parser/json" for
// side effect is what wires "json" into FromSource — the same pattern
// used by database/sql drivers in the standard library, which the
// teacher's own ecosystem (cobra/pflag plugin registration) also follows.
var registry = map[string]ParseFunc{}

// Register installs fn as the parser for format. Called from each
// parser/* package's init().
func Register(format string, fn ParseFunc) { registry[format] = fn }

// FromSource is the dispatcher of §6.1: it binds src to a new Context and
// drives the registered parser for format. Unknown formats return a
// null-item Context with a collected error.
func FromSource(src []byte, baseURL, format, flavor string) *Context {
	ctx := New(StripBOM(src), baseURL, format, flavor)
	fn, ok := registry[format]
	if !ok {
		ctx.AddError("unrecognized input format %q", format)
		return ctx
	}
	if len(ctx.Source) == 0 {
		ctx.Root = item.Null
		return ctx
	}
	ctx.Root = fn(ctx, ctx.Source)
	return ctx
}
