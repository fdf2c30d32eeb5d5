// Package schema implements the schema grammar types of §3.6/§4.U2 and the
// validator of §4.U3: a small closed type DSL built by a schema-text
// loader and walked (never mutated) by a Validator.
package schema

import "github.com/lambda-doc/lambda/item"

// Type is the closed grammar of §3.6: every concrete node below
// implements it. The validator switches on the concrete type, the direct
// Go translation of the source's `type_id` dispatch (§9.1 design note:
// "adding a new type tag is a single-site change").
type Type interface {
	typeNode()
}

// Primitive references one of the built-in scalar tags (§3.6 Primitive).
type Primitive struct {
	Tag item.Tag
}

func (Primitive) typeNode() {}

// The primitive singletons are the only global state this package needs
// (§9.1: "the only global is the set of type singletons").
var (
	AnyPrimitive      = Primitive{Tag: item.AnyType}
	NullPrimitive     = Primitive{Tag: item.TagNull}
	BoolPrimitive     = Primitive{Tag: item.TagBool}
	IntPrimitive      = Primitive{Tag: item.TagInt64}
	FloatPrimitive    = Primitive{Tag: item.TagFloat64}
	DecimalPrimitive  = Primitive{Tag: item.TagDecimal}
	StringPrimitive   = Primitive{Tag: item.TagString}
	SymbolPrimitive   = Primitive{Tag: item.TagSymbol}
	DateTimePrimitive = Primitive{Tag: item.TagDateTime}
	BinaryPrimitive   = Primitive{Tag: item.TagBinary}
)

// Array is an ordered, homogeneous sequence type (§3.6 TypeArray).
// Length is -1 when unconstrained.
type Array struct {
	Elem   Type
	Length int
}

func (Array) typeNode() {}

// Field is one declared entry of a Map or Elmt type. Optional controls
// the validator's missing/null handling (§4.U3 "Maps" walk).
type Field struct {
	Name     string
	Type     Type
	Optional bool
}

// Map is a chained field-entry list type (§3.6 TypeMap).
type Map struct {
	Fields []Field
}

func (Map) typeNode() {}

// Elmt extends Map with a tag name and an expected child count (§3.6
// TypeElmt). Fields describes attributes, not children; ContentLength is
// 0 when unconstrained, matching the source's "0 means unconstrained"
// convention.
type Elmt struct {
	Map
	Tag           string
	ContentLength int
}

func (Elmt) typeNode() {}

// UnaryOp is an occurrence operator (§3.6 TypeUnary).
type UnaryOp int

const (
	Optional  UnaryOp = iota // ?  == [0,1]
	OneOrMore                // +  == [1,-1]
	ZeroOrMore               // *  == [0,-1]
	Repeat                   // explicit [n] / [n+] / [n,m]
)

// Unary applies an occurrence operator to an operand type, with the
// resolved MinCount/MaxCount the shorthand operators expand to
// (MaxCount -1 means unbounded).
type Unary struct {
	Op       UnaryOp
	Operand  Type
	MinCount int
	MaxCount int
}

func (Unary) typeNode() {}

// BinaryOp is a set operator over two type operands (§3.6 TypeBinary).
type BinaryOp int

const (
	Union     BinaryOp = iota // |
	Intersect                 // &
	Exclude                   // \
)

// Binary combines two operand types with a set operator.
type Binary struct {
	Op          BinaryOp
	Left, Right Type
}

func (Binary) typeNode() {}

// Func is a named, user-extensible predicate (§3.6 TypeFunc). This
// implementation resolves a Func by validating the item against every
// declared argument type in turn (see DESIGN.md for the resolved open
// question on Func/SysFunc semantics, which is otherwise unspecified).
type Func struct {
	Name string
	Args []Type
}

func (Func) typeNode() {}

// SysFunc is a built-in predicate the validator resolves internally
// (§3.6 TypeSysFunc); see the fixed set documented in validator.go.
type SysFunc struct {
	Name string
	Args []Type
}

func (SysFunc) typeNode() {}

// TypeRef is a named type reference (§3.6 TypeType); the validator
// unwraps it transparently via validateBaseType. Resolution happens
// lazily against the Validator's registry, so forward and mutually
// recursive references between named types are possible (§3.6's
// invariant: unwrapping a TypeType chain must terminate).
type TypeRef struct {
	Name string
}

func (TypeRef) typeNode() {}

func primitiveByName(name string) (Primitive, bool) {
	switch name {
	case "any":
		return AnyPrimitive, true
	case "null":
		return NullPrimitive, true
	case "bool":
		return BoolPrimitive, true
	case "int":
		return IntPrimitive, true
	case "float":
		return FloatPrimitive, true
	case "decimal":
		return DecimalPrimitive, true
	case "string":
		return StringPrimitive, true
	case "symbol":
		return SymbolPrimitive, true
	case "datetime":
		return DateTimePrimitive, true
	case "binary":
		return BinaryPrimitive, true
	default:
		return Primitive{}, false
	}
}

func primitiveName(p Primitive) string {
	switch p.Tag {
	case item.AnyType:
		return "any"
	case item.TagNull:
		return "null"
	case item.TagBool:
		return "bool"
	case item.TagInt56, item.TagInt64:
		return "int"
	case item.TagFloat64:
		return "float"
	case item.TagDecimal:
		return "decimal"
	case item.TagString:
		return "string"
	case item.TagSymbol:
		return "symbol"
	case item.TagDateTime:
		return "datetime"
	case item.TagBinary:
		return "binary"
	default:
		return "unknown"
	}
}
