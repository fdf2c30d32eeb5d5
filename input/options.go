package input

// Option configures a Context at construction time, in the functional-
// options style SPEC_FULL §10 grounds on MacroPower-x's profile/profiler
// Config structs, rather than a mutable global.
type Option func(*Context)

// WithMaxErrors overrides the error collector's backpressure cap.
func WithMaxErrors(n int) Option {
	return func(c *Context) { c.SetMaxErrors(n) }
}

// WithMaxDepth overrides the shared recursion-depth ceiling.
func WithMaxDepth(n int) Option {
	return func(c *Context) { c.SetMaxDepth(n) }
}

// NewWithOptions is New plus a variadic Option list, for callers that want
// non-default limits without reaching into the Context's fields directly.
func NewWithOptions(src []byte, base, format, flavor string, opts ...Option) *Context {
	c := New(src, base, format, flavor)
	for _, o := range opts {
		o(c)
	}
	return c
}
