package shapepool

import "github.com/lambda-doc/lambda/namepool"

// Builder is the stack-local, incremental constructor of §4.L4: it
// collects up to MaxShapeFields (name, type) pairs and finalizes through a
// Pool to obtain a deduplicated Shape.
type Builder struct {
	tag    string
	fields []FieldSpec
}

// NewBuilder creates an empty map-shape builder.
func NewBuilder() *Builder { return &Builder{} }

// NewElementBuilder creates an empty element-shape builder for tag.
func NewElementBuilder(tag string) *Builder { return &Builder{tag: tag} }

// AddField appends (name, typ), reporting ErrTooManyFields if the bound
// would be exceeded.
func (b *Builder) AddField(name *namepool.Name, typ FieldType) error {
	if len(b.fields) >= MaxShapeFields {
		return ErrTooManyFields
	}
	b.fields = append(b.fields, FieldSpec{Name: name, Type: typ})
	return nil
}

// RemoveField deletes the first field named name, if present.
func (b *Builder) RemoveField(name string) {
	for i, f := range b.fields {
		if string(f.Name.Bytes) == name {
			b.fields = append(b.fields[:i], b.fields[i+1:]...)
			return
		}
	}
}

// HasField reports whether name has been added.
func (b *Builder) HasField(name string) bool {
	for _, f := range b.fields {
		if string(f.Name.Bytes) == name {
			return true
		}
	}
	return false
}

// FieldType returns the declared type of name, and whether it was found.
func (b *Builder) FieldType(name string) (FieldType, bool) {
	for _, f := range b.fields {
		if string(f.Name.Bytes) == name {
			return f.Type, true
		}
	}
	return FieldAny, false
}

// ImportShape clones an existing shape's field list into the builder, so
// an edit can start from a prior layout and add/remove fields before
// finalizing a new one (used by editor.Editor).
func (b *Builder) ImportShape(s *Shape) {
	b.fields = b.fields[:0]
	for _, e := range s.Entries {
		b.fields = append(b.fields, FieldSpec{Name: e.Name, Type: e.Type})
	}
}

// Clear empties the builder for reuse.
func (b *Builder) Clear() { b.fields = b.fields[:0] }

// Fields returns the builder's current (name, type) pairs, in order.
func (b *Builder) Fields() []FieldSpec { return b.fields }

// Finalize deduplicates the collected fields through pool, returning the
// shared Shape.
func (b *Builder) Finalize(pool *Pool) (*Shape, error) {
	if b.tag != "" {
		return pool.GetElementShape(b.tag, b.fields)
	}
	return pool.GetMapShape(b.fields)
}
