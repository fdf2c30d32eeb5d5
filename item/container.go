package item

import "github.com/lambda-doc/lambda/datetime"

// List is an ordered, growable sequence of items with no nominal element
// type (§3.3).
type List struct {
	Items []Item
}

// NewList wraps a slice as a list item.
func NewList(items []Item) Item { return Item{tag: TagPointer, ptr: &List{Items: items}} }

// AsList reads a TagList item; nil on tag mismatch.
func (it Item) AsList() *List {
	v, _ := it.ptr.(*List)
	return v
}

// Array is a List with a nominal element type, which may be AnyType.
type Array struct {
	ElemType Tag
	Items    []Item
}

// NewArray wraps a slice as an array item with the given nominal element type.
func NewArray(elemType Tag, items []Item) Item {
	return Item{tag: TagPointer, ptr: &Array{ElemType: elemType, Items: items}}
}

// AsArray reads a TagArray item; nil on tag mismatch.
func (it Item) AsArray() *Array {
	v, _ := it.ptr.(*Array)
	return v
}

// Range is an inclusive integer interval.
type Range struct {
	Lo, Hi int64
}

// NewRange builds an inclusive [lo,hi] range item.
func NewRange(lo, hi int64) Item { return Item{tag: TagPointer, ptr: &Range{Lo: lo, Hi: hi}} }

// AsRange reads a TagRange item; nil on tag mismatch.
func (it Item) AsRange() *Range {
	v, _ := it.ptr.(*Range)
	return v
}

// Int32Array, Int64Array, and FloatArray are unboxed numeric sequences.
type Int32Array struct{ Items []int32 }
type Int64Array struct{ Items []int64 }
type FloatArray struct{ Items []float64 }

func NewInt32Array(v []int32) Item   { return Item{tag: TagPointer, ptr: &Int32Array{v}} }
func NewInt64Array(v []int64) Item   { return Item{tag: TagPointer, ptr: &Int64Array{v}} }
func NewFloatArray(v []float64) Item { return Item{tag: TagPointer, ptr: &FloatArray{v}} }

func (it Item) AsInt32Array() *Int32Array {
	v, _ := it.ptr.(*Int32Array)
	return v
}

func (it Item) AsInt64Array() *Int64Array {
	v, _ := it.ptr.(*Int64Array)
	return v
}

func (it Item) AsFloatArray() *FloatArray {
	v, _ := it.ptr.(*FloatArray)
	return v
}

// Shape describes the field layout shared by maps and elements. It is the
// type the shapepool package hands back; item only needs to store and
// compare the pointer, so the field is declared as an opaque pointer here
// to avoid a dependency cycle (shapepool depends on item for FieldType,
// not the reverse).
type Shape = any

// Map is a shape-indexed field set: an ordered mapping from interned
// string keys to items, represented as a shape pointer plus a packed data
// buffer laid out per the shape (§3.3, §3.4). The packed buffer itself is
// kept as a plain []Item here — Go's GC makes the C-style byte-offset
// packing unnecessary for correctness, but the shape still dictates field
// order and membership, which is what every invariant in §3.4 is actually
// about.
type Map struct {
	ShapePtr Shape
	Data     []Item
}

// NewMap wraps a shape and its packed data as a map item.
func NewMap(shape Shape, data []Item) Item {
	return Item{tag: TagPointer, ptr: &Map{ShapePtr: shape, Data: data}}
}

// AsMap reads a TagMap item; nil on tag mismatch.
func (it Item) AsMap() *Map {
	v, _ := it.ptr.(*Map)
	return v
}

// Element extends a child List with an attribute Map and a tag name.
// Elements are deliberately not unified with Map behind one variant: an
// element's invariants (ordered children *and* a named attribute set)
// differ from a map's (§9.1).
type Element struct {
	TagName  string
	ShapePtr Shape // attribute shape
	Attrs    []Item
	Children []Item
}

// NewElement wraps a tag name, attribute shape/data, and children as an
// element item.
func NewElement(tagName string, shape Shape, attrs []Item, children []Item) Item {
	return Item{tag: TagPointer, ptr: &Element{
		TagName: tagName, ShapePtr: shape, Attrs: attrs, Children: children,
	}}
}

// AsElement reads a TagElement item; nil on tag mismatch.
func (it Item) AsElement() *Element {
	v, _ := it.ptr.(*Element)
	return v
}

// stringBox and symbolBox share the leading (data) layout on purpose: the
// Chars/Len accessors above read either uniformly (§4.L1).
type stringBox struct {
	data     []byte
	refCount int
}

type symbolBox struct {
	data      []byte
	refCount  int
	namespace *Target // may be nil for unqualified symbols
}

// Target is a resolved namespace identity: either a parsed URL or an
// opaque token, carrying a precomputed hash for O(1) equality (§3.2).
type Target struct {
	Canonical string
	Hash      uint64
}

// Equal reports whether two targets name the same namespace identity.
func (t *Target) Equal(o *Target) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Hash == o.Hash && t.Canonical == o.Canonical
}

// NewString boxes a UTF-8 byte sequence with an initial reference count of
// one, per the Mark builder's createString contract.
func NewString(data []byte) Item {
	return Item{tag: TagPointer, ptr: &stringBox{data: data, refCount: 1}}
}

// AsString reads a TagString item's bytes; nil on tag mismatch.
func (it Item) AsString() []byte {
	if b, ok := it.ptr.(*stringBox); ok {
		return b.data
	}
	return nil
}

// RetainString increments a string's reference count.
func (it Item) RetainString() {
	if b, ok := it.ptr.(*stringBox); ok {
		b.refCount++
	}
}

// ReleaseString decrements a string's reference count, returning what
// remains.
func (it Item) ReleaseString() int {
	if b, ok := it.ptr.(*stringBox); ok {
		if b.refCount > 0 {
			b.refCount--
		}
		return b.refCount
	}
	return 0
}

// NewSymbol boxes an interned identifier, optionally namespaced.
func NewSymbol(data []byte, ns *Target) Item {
	return Item{tag: TagPointer, ptr: &symbolBox{data: data, refCount: 1, namespace: ns}}
}

// AsSymbol reads a TagSymbol item's bytes; nil on tag mismatch.
func (it Item) AsSymbol() []byte {
	if b, ok := it.ptr.(*symbolBox); ok {
		return b.data
	}
	return nil
}

// SymbolNamespace returns the owning Target, or nil if unqualified or not
// a symbol.
func (it Item) SymbolNamespace() *Target {
	if b, ok := it.ptr.(*symbolBox); ok {
		return b.namespace
	}
	return nil
}

type dateTimeBox struct{ v datetime.DateTime }

// NewDateTime boxes a calendar value.
func NewDateTime(v datetime.DateTime) Item { return Item{tag: TagPointer, ptr: &dateTimeBox{v}} }

// AsDateTime reads a TagDateTime item.
func (it Item) AsDateTime() datetime.DateTime {
	if b, ok := it.ptr.(*dateTimeBox); ok {
		return b.v
	}
	return datetime.DateTime{}
}
