package builder

import (
	"fmt"

	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/shapepool"
)

// finalized is embedded by every sub-builder to enforce the
// consume-on-Final contract: any further call after Final panics instead
// of silently returning stale state.
type finalized struct{ done bool }

func (f *finalized) check(op string) {
	if f.done {
		panic(fmt.Sprintf("builder: %s called after Final", op))
	}
}

// ArrayBuilder is the fluent §4.L7 array sub-builder.
type ArrayBuilder struct {
	finalized
	elemType item.Tag
	items    []item.Item
}

// NewArrayBuilder creates an empty array builder. elemType is AnyType when
// the array holds mixed item tags.
func (f *Factory) NewArrayBuilder(elemType item.Tag) *ArrayBuilder {
	return &ArrayBuilder{elemType: elemType}
}

// Append adds v and returns the builder, for fluent chaining.
func (b *ArrayBuilder) Append(v item.Item) *ArrayBuilder {
	b.check("Append")
	b.items = append(b.items, v)
	return b
}

// Final consumes the builder and returns the built array item.
func (b *ArrayBuilder) Final() item.Item {
	b.check("Final")
	b.done = true
	return item.NewArray(b.elemType, b.items)
}

// MapBuilder is the fluent §4.L7 map sub-builder. It collects (key,
// value) pairs in insertion order and finalizes by obtaining a
// deduplicated shape from the factory's shape pool.
type MapBuilder struct {
	finalized
	f     *Factory
	order []string
	vals  map[string]item.Item
}

// NewMapBuilder creates an empty map builder.
func (f *Factory) NewMapBuilder() *MapBuilder {
	return &MapBuilder{f: f, vals: make(map[string]item.Item)}
}

// Put inserts or replaces key -> v. Empty keys are normalized through
// NormalizeKey, per §4.L7's JSON empty-key policy.
func (b *MapBuilder) Put(key string, v item.Item) *MapBuilder {
	b.check("Put")
	key = NormalizeKey(key)
	if _, exists := b.vals[key]; !exists {
		b.order = append(b.order, key)
	}
	b.vals[key] = v
	return b
}

// PutNull is Put with the null item.
func (b *MapBuilder) PutNull(key string) *MapBuilder { return b.Put(key, item.Null) }

// Final consumes the builder and returns the built map item, with a
// deduplicated shape sourced from the factory's shape pool.
func (b *MapBuilder) Final() item.Item {
	b.check("Final")
	b.done = true
	fields := make([]shapepool.FieldSpec, len(b.order))
	data := make([]item.Item, len(b.order))
	for i, k := range b.order {
		fields[i] = shapepool.FieldSpec{Name: b.f.Names.CreateName([]byte(k)), Type: fieldTypeOf(b.vals[k])}
		data[i] = b.vals[k]
	}
	shape, err := b.f.Shapes.GetMapShape(fields)
	if err != nil {
		return item.Err
	}
	return item.NewMap(shape, data)
}

// ElementBuilder is the fluent §4.L7 element sub-builder: attributes use
// the same shape-packed representation as a map; children are an ordered
// list.
type ElementBuilder struct {
	finalized
	f        *Factory
	tagName  string
	attrOrd  []string
	attrVals map[string]item.Item
	children []item.Item
}

// NewElementBuilder creates an empty element builder for the given tag
// name.
func (f *Factory) NewElementBuilder(tagName string) *ElementBuilder {
	return &ElementBuilder{f: f, tagName: tagName, attrVals: make(map[string]item.Item)}
}

// Attr sets an attribute, accepting either a raw string or an already
// built item.Item as the value.
func (b *ElementBuilder) Attr(name string, value any) *ElementBuilder {
	b.check("Attr")
	name = NormalizeKey(name)
	var v item.Item
	switch val := value.(type) {
	case item.Item:
		v = val
	case string:
		v = b.f.CreateString([]byte(val))
	case []byte:
		v = b.f.CreateString(val)
	default:
		v = item.Null
	}
	if _, exists := b.attrVals[name]; !exists {
		b.attrOrd = append(b.attrOrd, name)
	}
	b.attrVals[name] = v
	return b
}

// Child appends a child item.
func (b *ElementBuilder) Child(v item.Item) *ElementBuilder {
	b.check("Child")
	b.children = append(b.children, v)
	return b
}

// Final consumes the builder and returns the built element item.
func (b *ElementBuilder) Final() item.Item {
	b.check("Final")
	b.done = true
	fields := make([]shapepool.FieldSpec, len(b.attrOrd))
	data := make([]item.Item, len(b.attrOrd))
	for i, k := range b.attrOrd {
		fields[i] = shapepool.FieldSpec{Name: b.f.Names.CreateName([]byte(k)), Type: fieldTypeOf(b.attrVals[k])}
		data[i] = b.attrVals[k]
	}
	shape, err := b.f.Shapes.GetElementShape(b.tagName, fields)
	if err != nil {
		return item.Err
	}
	return item.NewElement(b.tagName, shape, data, b.children)
}

func fieldTypeOf(v item.Item) shapepool.FieldType {
	switch v.Tag() {
	case item.TagNull:
		return shapepool.FieldNull
	case item.TagBool:
		return shapepool.FieldBool
	case item.TagInt56, item.TagInt64:
		return shapepool.FieldInt
	case item.TagFloat64:
		return shapepool.FieldFloat
	case item.TagDecimal:
		return shapepool.FieldDecimal
	case item.TagString:
		return shapepool.FieldString
	case item.TagSymbol:
		return shapepool.FieldSymbol
	case item.TagDateTime:
		return shapepool.FieldDateTime
	case item.TagBinary:
		return shapepool.FieldBinary
	default:
		return shapepool.FieldContainer
	}
}
