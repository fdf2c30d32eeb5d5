// Package reader implements the Mark reader, the read-side cursor over an
// item that external consumers (formatters, renderers, test harnesses)
// use (§4.L8). Readers never mutate the underlying data and never outlive
// the Pool that owns it.
package reader

import (
	"github.com/lambda-doc/lambda/datetime"
	"github.com/lambda-doc/lambda/item"
)

// ItemReader wraps a single item with type-safe predicates and
// projections. Projections on the wrong tag return a defined empty
// sentinel; they never panic.
type ItemReader struct{ it item.Item }

// Of wraps it as an ItemReader.
func Of(it item.Item) ItemReader { return ItemReader{it: it} }

func (r ItemReader) Item() item.Item { return r.it }

func (r ItemReader) IsNull() bool    { return r.it.Tag() == item.TagNull }
func (r ItemReader) IsBool() bool    { return r.it.Tag() == item.TagBool }
func (r ItemReader) IsInt() bool {
	t := r.it.Tag()
	return t == item.TagInt56 || t == item.TagInt64
}
func (r ItemReader) IsFloat() bool   { return r.it.Tag() == item.TagFloat64 }
func (r ItemReader) IsString() bool  { return r.it.Tag() == item.TagString }
func (r ItemReader) IsSymbol() bool  { return r.it.Tag() == item.TagSymbol }
func (r ItemReader) IsArray() bool   { return r.it.Tag() == item.TagArray }
func (r ItemReader) IsList() bool    { return r.it.Tag() == item.TagList }
func (r ItemReader) IsMap() bool     { return r.it.Tag() == item.TagMap }
func (r ItemReader) IsElement() bool { return r.it.Tag() == item.TagElement }
func (r ItemReader) IsDateTime() bool { return r.it.Tag() == item.TagDateTime }

func (r ItemReader) AsDateTime() datetime.DateTime {
	if !r.IsDateTime() {
		return datetime.DateTime{}
	}
	return r.it.AsDateTime()
}

func (r ItemReader) AsString() string {
	if !r.IsString() {
		return ""
	}
	return string(r.it.AsString())
}

func (r ItemReader) AsSymbol() string {
	if !r.IsSymbol() {
		return ""
	}
	return string(r.it.AsSymbol())
}

func (r ItemReader) AsBool() bool {
	if !r.IsBool() {
		return false
	}
	return r.it.AsBool()
}

func (r ItemReader) AsInt32() int32 {
	if !r.IsInt() {
		return 0
	}
	return int32(r.it.AsInt())
}

func (r ItemReader) AsInt64() int64 {
	if !r.IsInt() {
		return 0
	}
	return r.it.AsInt()
}

func (r ItemReader) AsFloat() float64 {
	if !r.IsFloat() {
		return 0
	}
	return r.it.AsFloat()
}

// CString returns a borrowed, NUL-free-on-read textual view, matching the
// source's `cstring` accessor. Go strings are never NUL-terminated, so the
// "NUL for interop" detail of §3.2 is a non-concern here; this is plain
// string text.
func (r ItemReader) CString() string {
	switch {
	case r.IsString():
		return r.AsString()
	case r.IsSymbol():
		return r.AsSymbol()
	default:
		return ""
	}
}

func (r ItemReader) AsArray() ArrayReader {
	if r.it.Tag() == item.TagArray {
		return ArrayReader{items: r.it.AsArray().Items}
	}
	if r.it.Tag() == item.TagList {
		return ArrayReader{items: r.it.AsList().Items}
	}
	return ArrayReader{}
}

func (r ItemReader) AsMap() MapReader {
	if !r.IsMap() {
		return MapReader{}
	}
	return MapReader{m: r.it.AsMap()}
}

func (r ItemReader) AsElement() ElementReader {
	if !r.IsElement() {
		return ElementReader{}
	}
	return ElementReader{e: r.it.AsElement()}
}

// ArrayReader is a read-only cursor over an array or list item.
type ArrayReader struct{ items []item.Item }

func (a ArrayReader) Length() int { return len(a.items) }

// Get returns element i, or the null item if out of range.
func (a ArrayReader) Get(i int) item.Item {
	if i < 0 || i >= len(a.items) {
		return item.Null
	}
	return a.items[i]
}

// Items yields every element in order (Go 1.23 range-over-func iterator),
// the idiomatic rendering of the source's "single-pass or restartable"
// array iterator (§4.L8).
func (a ArrayReader) Items() func(yield func(int, item.Item) bool) {
	return func(yield func(int, item.Item) bool) {
		for i, v := range a.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// MapReader is a read-only cursor over a map item.
type MapReader struct{ m *item.Map }

func (m MapReader) Length() int {
	if m.m == nil {
		return 0
	}
	return len(m.m.Data)
}

// Has reports whether key is declared in the shape.
func (m MapReader) Has(key string) bool {
	if m.m == nil {
		return false
	}
	return shapeIndex(m.m.ShapePtr, key) >= 0
}

// Get performs a shape-indexed lookup, average O(shape length) per §4.L8.
// Returns the null item if key is absent.
func (m MapReader) Get(key string) item.Item {
	if m.m == nil {
		return item.Null
	}
	idx := shapeIndex(m.m.ShapePtr, key)
	if idx < 0 {
		return item.Null
	}
	return m.m.Data[idx]
}

// Keys yields every declared key in shape order.
func (m MapReader) Keys() func(yield func(string) bool) {
	return func(yield func(string) bool) {
		if m.m == nil {
			return
		}
		for _, name := range shapeNames(m.m.ShapePtr) {
			if !yield(name) {
				return
			}
		}
	}
}

// Entries yields every (key, value) pair in shape order.
func (m MapReader) Entries() func(yield func(string, item.Item) bool) {
	return func(yield func(string, item.Item) bool) {
		if m.m == nil {
			return
		}
		names := shapeNames(m.m.ShapePtr)
		for i, name := range names {
			if i >= len(m.m.Data) {
				return
			}
			if !yield(name, m.m.Data[i]) {
				return
			}
		}
	}
}

// ElementReader is a read-only cursor over an element item.
type ElementReader struct{ e *item.Element }

func (e ElementReader) TagName() string {
	if e.e == nil {
		return ""
	}
	return e.e.TagName
}

func (e ElementReader) HasTag(name string) bool { return e.TagName() == name }

func (e ElementReader) ChildCount() int {
	if e.e == nil {
		return 0
	}
	return len(e.e.Children)
}

func (e ElementReader) ChildAt(i int) item.Item {
	if e.e == nil || i < 0 || i >= len(e.e.Children) {
		return item.Null
	}
	return e.e.Children[i]
}

// Children yields direct children only, in order.
func (e ElementReader) Children() func(yield func(int, item.Item) bool) {
	return func(yield func(int, item.Item) bool) {
		if e.e == nil {
			return
		}
		for i, c := range e.e.Children {
			if !yield(i, c) {
				return
			}
		}
	}
}

func (e ElementReader) HasAttr(name string) bool {
	if e.e == nil {
		return false
	}
	return shapeIndex(e.e.ShapePtr, name) >= 0
}

func (e ElementReader) GetAttr(name string) item.Item {
	if e.e == nil {
		return item.Null
	}
	idx := shapeIndex(e.e.ShapePtr, name)
	if idx < 0 {
		return item.Null
	}
	return e.e.Attrs[idx]
}

// GetStringAttr is the convenience form of §4.L8: read an attribute and
// coerce it to a string, returning "" if absent or not text-like.
func (e ElementReader) GetStringAttr(name string) string {
	return Of(e.GetAttr(name)).CString()
}

// Attrs yields every (name, value) attribute pair in shape order.
func (e ElementReader) Attrs() func(yield func(string, item.Item) bool) {
	return func(yield func(string, item.Item) bool) {
		if e.e == nil {
			return
		}
		names := shapeNames(e.e.ShapePtr)
		for i, name := range names {
			if i >= len(e.e.Attrs) {
				return
			}
			if !yield(name, e.e.Attrs[i]) {
				return
			}
		}
	}
}

// shapeIndex/shapeNames introspect the opaque item.Shape via the
// shapeIntrospector interface, satisfied by *shapepool.Shape without
// reader importing shapepool directly (avoiding a cycle risk as the
// packages grow); see shape_adapter.go.
func shapeIndex(s item.Shape, key string) int {
	if si, ok := s.(shapeIntrospector); ok {
		return si.FieldIndex(key)
	}
	return -1
}

func shapeNames(s item.Shape) []string {
	if si, ok := s.(shapeIntrospector); ok {
		return si.FieldNames()
	}
	return nil
}

type shapeIntrospector interface {
	FieldIndex(key string) int
	FieldNames() []string
}
