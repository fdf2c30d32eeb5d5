// Package shapepool deduplicates the field-layout chains shared by maps
// and elements (§3.4, §4.L3). Two maps with identical field lists in the
// same order share one *Shape; this is a memory optimization, not a speed
// one — see SPEC_FULL.md's design notes on why deduplication must not be
// skipped.
package shapepool

import "github.com/lambda-doc/lambda/namepool"

// FieldType is the declared type of a shape entry. This mirrors the
// primitive tags a field may carry; container-typed fields use
// FieldContainer with no further structural detail recorded in the shape
// itself (the value's own tag carries that).
type FieldType uint8

const (
	FieldAny FieldType = iota
	FieldNull
	FieldBool
	FieldInt
	FieldFloat
	FieldDecimal
	FieldString
	FieldSymbol
	FieldDateTime
	FieldBinary
	FieldContainer
)

// byteWidth is the packed-data contribution of one field, per §3.4's
// "total shape size equals the sum of field byte widths" invariant. Every
// scalar is modeled as a single machine word here; containers and
// reference types are modeled as a pointer-width slot.
func (f FieldType) byteWidth() int {
	switch f {
	case FieldBool:
		return 1
	default:
		return 8
	}
}

// Entry is one field in a shape chain: an interned name, its declared
// type, and its byte offset within the packed data buffer (§3.4).
type Entry struct {
	Name   *namepool.Name
	Type   FieldType
	Offset int
}

// Shape is an immutable, ordered field layout, optionally tagged with an
// element name (§3.4's "two elements of different tags never share a
// shape").
type Shape struct {
	ElementTag string // "" for map shapes
	IsElement  bool
	Entries    []Entry
	Size       int // total packed-data size in bytes
	signature  uint64
}

// FieldIndex returns the index of name within the shape, or -1.
func (s *Shape) FieldIndex(name string) int {
	for i, e := range s.Entries {
		if string(e.Name.Bytes) == name {
			return i
		}
	}
	return -1
}

// HasField reports whether name is declared in the shape.
func (s *Shape) HasField(name string) bool { return s.FieldIndex(name) >= 0 }

// FieldNames returns every declared field name, in shape order. It
// satisfies the introspection interface the reader package uses to walk
// an opaque item.Shape without a direct import dependency on shapepool.
func (s *Shape) FieldNames() []string {
	names := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		names[i] = string(e.Name.Bytes)
	}
	return names
}

// Equal is structural shape equality: same signature and size implies the
// same field list in the same order (both are checked explicitly here
// rather than trusted from the signature alone, since a 64-bit hash can
// collide).
func (s *Shape) Equal(o *Shape) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.signature != o.signature || s.Size != o.Size || s.IsElement != o.IsElement || s.ElementTag != o.ElementTag {
		return false
	}
	if len(s.Entries) != len(o.Entries) {
		return false
	}
	for i := range s.Entries {
		if s.Entries[i].Type != o.Entries[i].Type || s.Entries[i].Offset != o.Entries[i].Offset {
			return false
		}
		if string(s.Entries[i].Name.Bytes) != string(o.Entries[i].Name.Bytes) {
			return false
		}
	}
	return true
}

// MaxShapeFields is the safety limit of §4.L3: the runtime targets small,
// uniform maps, not arbitrarily wide ones.
const MaxShapeFields = 64

// fibonacci64 is the mixing constant used by the signature algorithm
// (2^64 / golden ratio), per §4.L3.
const fibonacci64 = 0x9E3779B97F4A7C15

func rotl64(x uint64, k uint) uint64 { return x<<k | x>>(64-k) }

func mixSignature(sig uint64, name []byte, typ FieldType) uint64 {
	h := sig
	for _, b := range name {
		h ^= uint64(b)
		h = rotl64(h, 5) * fibonacci64
	}
	h ^= uint64(typ)
	return rotl64(h, 7) * fibonacci64
}

// Pool deduplicates shapes by signature.
type Pool struct {
	buckets map[uint64][]*Shape
}

// New creates an empty shape pool.
func New() *Pool { return &Pool{buckets: make(map[uint64][]*Shape)} }

// FieldSpec is one (name, type) pair supplied to GetMapShape /
// GetElementShape, prior to interning and offset assignment.
type FieldSpec struct {
	Name *namepool.Name
	Type FieldType
}

func buildShape(elementTag string, isElement bool, fields []FieldSpec) *Shape {
	s := &Shape{ElementTag: elementTag, IsElement: isElement}
	sig := fibonacci64
	if isElement {
		for _, c := range elementTag {
			sig ^= uint64(c)
			sig = rotl64(sig, 5) * fibonacci64
		}
	}
	offset := 0
	for _, f := range fields {
		s.Entries = append(s.Entries, Entry{Name: f.Name, Type: f.Type, Offset: offset})
		offset += f.Type.byteWidth()
		sig = mixSignature(sig, f.Name.Bytes, f.Type)
	}
	s.Size = offset
	s.signature = sig ^ uint64(offset)
	return s
}

// GetMapShape returns the deduplicated shape for fields, allocating a new
// chain only if no structurally equal shape already exists. A request
// exceeding MaxShapeFields is rejected (the runtime targets small,
// uniform maps).
func (p *Pool) GetMapShape(fields []FieldSpec) (*Shape, error) {
	return p.intern(buildShape("", false, fields))
}

// GetElementShape is GetMapShape with the element tag folded into the
// signature, so elements of different tags never share a shape even when
// their attribute lists coincide (§3.4).
func (p *Pool) GetElementShape(tag string, attrs []FieldSpec) (*Shape, error) {
	return p.intern(buildShape(tag, true, attrs))
}

func (p *Pool) intern(candidate *Shape) (*Shape, error) {
	if len(candidate.Entries) > MaxShapeFields {
		return nil, ErrTooManyFields
	}
	bucket := p.buckets[candidate.signature]
	for _, s := range bucket {
		if s.Equal(candidate) {
			return s, nil
		}
	}
	p.buckets[candidate.signature] = append(bucket, candidate)
	return candidate, nil
}

// Count is the number of distinct shapes currently interned.
func (p *Pool) Count() int {
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}

// ErrTooManyFields is returned when a shape request exceeds MaxShapeFields.
var ErrTooManyFields = shapeErr("shapepool: field count exceeds MaxShapeFields")

type shapeErr string

func (e shapeErr) Error() string { return string(e) }
