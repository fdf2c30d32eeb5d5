// Package builder implements the Mark builder, the write side of the core
// (§4.L7): every format parser drives it to construct items. Builders are
// consume-on-Final; calling anything on a builder after Final is undefined
// and will panic in this implementation rather than corrupt state silently.
package builder

import (
	"github.com/lambda-doc/lambda/datetime"
	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/namepool"
	"github.com/lambda-doc/lambda/shapepool"
)

// Factory owns the pools a parse invocation allocates through: a name
// pool for interning field/attribute/tag names, and a shape pool for
// deduplicating map/element layouts. One Factory is shared by every
// sub-builder created during a single input.Context's parse (§4.M1).
type Factory struct {
	Names  *namepool.Pool
	Shapes *shapepool.Pool
}

// NewFactory creates a Factory with fresh, unparented pools.
func NewFactory() *Factory {
	return &Factory{Names: namepool.New(), Shapes: shapepool.New()}
}

// --- atomic creators ---

// CreateNull returns the null item.
func (f *Factory) CreateNull() item.Item { return item.Null }

// CreateBool returns an inline boolean item.
func (f *Factory) CreateBool(b bool) item.Item { return item.NewBool(b) }

// CreateInt promotes to inline 56-bit or boxed int64 by magnitude.
func (f *Factory) CreateInt(v int64) item.Item { return item.NewInt(v) }

// CreateFloat boxes a double.
func (f *Factory) CreateFloat(v float64) item.Item { return item.NewFloat(v) }

// CreateDecimal boxes a decimal literal by its canonical text.
func (f *Factory) CreateDecimal(v string) item.Item { return item.NewDecimal(v) }

// CreateString allocates a pool-owned string with an initial reference
// count of one.
func (f *Factory) CreateString(b []byte) item.Item {
	return item.NewString(append([]byte(nil), b...))
}

// CreateBinary boxes an opaque byte payload.
func (f *Factory) CreateBinary(b []byte) item.Item {
	return item.NewBinary(append([]byte(nil), b...))
}

// CreateDateTime boxes a calendar value.
func (f *Factory) CreateDateTime(v datetime.DateTime) item.Item { return item.NewDateTime(v) }

// CreateName interns b through the factory's name pool and returns it as
// a string item sharing that interned storage.
func (f *Factory) CreateName(b []byte) item.Item {
	n := f.Names.CreateName(b)
	return item.NewString(n.Bytes)
}

// CreateSymbol interns b (up to the poolable-symbol limit) as a Symbol,
// optionally namespaced.
func (f *Factory) CreateSymbol(b []byte, ns *item.Target) item.Item {
	n := f.Names.CreateSymbol(b)
	return item.NewSymbol(n.Bytes, ns)
}

// emptyKeySentinel is the internal name JSON's empty key `""` is remapped
// to (§4.L7, §9.2): downstream identifier equality must not conflate an
// explicit empty key with a missing field.
const emptyKeySentinel = "''"

// NormalizeKey applies the empty-key remap a parser must perform before
// calling Put/Attr with a possibly-empty key.
func NormalizeKey(key string) string {
	if key == "" {
		return emptyKeySentinel
	}
	return key
}
