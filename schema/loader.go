package schema

import (
	"fmt"
	"strconv"

	"github.com/lambda-doc/lambda/source"
)

// parseNative parses the native schema-text grammar: a sequence of
// `type Name = <type-expr>` declarations, the default dialect of
// Validator.LoadSchema. The concrete surface syntax is an implementation
// decision (spec.md describes the grammar's value-type DSL, not its
// text encoding) grounded on the same hand-rolled recursive-descent style
// as parser/json: a byte cursor, no separate token stream, error messages
// carrying a source.Position.
//
// Grammar (informally):
//
//	decl        := "type" ident "=" type ";"?
//	type        := occurrence (("|"|"&"|"\") occurrence)*
//	occurrence  := primary ( "?" | "+" | "*" | "[" occursSpec "]" )*
//	primary     := primitiveName
//	             | "[" type (";" int)? "]"
//	             | "{" field ("," field)* "}"
//	             | "<" ident field* ">" ( "{" int "}" )?
//	             | "$" ident argList?
//	             | ident argList?
//	             | ident                      // type reference
//	field       := ident "?"? ":" type
//	argList     := "(" (type ("," type)*)? ")"
//
// A field's leading "?" marks the field itself optional (§4.U3's
// missing/null handling); a type's trailing "?"/"+"/"*" is the
// independent occurrence operator of §3.6 TypeUnary. Keeping these two
// "optional" concepts on opposite sides of the field's ":" avoids the
// ambiguity of overloading a single "?" for both.
func parseNative(src []byte) (map[string]Type, error) {
	p := &nativeParser{src: src, tracker: source.New(src)}
	defs := make(map[string]Type)
	p.skipSpace()
	for p.pos < len(p.src) {
		if !p.expectKeyword("type") {
			return nil, p.err("expected a %q declaration", "type")
		}
		name, ok := p.ident()
		if !ok {
			return nil, p.err("expected type name after %q", "type")
		}
		if !p.consume('=') {
			return nil, p.err("expected '=' after type name %q", name)
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		defs[name] = t
		p.skipSpace()
		p.consume(';')
		p.skipSpace()
	}
	return defs, nil
}

type nativeParser struct {
	src     []byte
	pos     int
	tracker *source.Tracker
}

func (p *nativeParser) peekByte() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// skipSpace consumes whitespace and "#"-prefixed line comments.
func (p *nativeParser) skipSpace() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *nativeParser) consume(c byte) bool {
	p.skipSpace()
	if p.peekByte() == c {
		p.pos++
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

func (p *nativeParser) ident() (string, bool) {
	p.skipSpace()
	if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
		return "", false
	}
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos]), true
}

func (p *nativeParser) integer() (int, bool) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	n, err := strconv.Atoi(string(p.src[start:p.pos]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p *nativeParser) expectKeyword(kw string) bool {
	save := p.pos
	name, ok := p.ident()
	if !ok || name != kw {
		p.pos = save
		return false
	}
	return true
}

func (p *nativeParser) err(format string, args ...any) error {
	cur := p.tracker.Position().Offset
	if p.pos > cur {
		p.tracker.Advance(p.pos - cur)
	}
	pos := p.tracker.Position()
	return fmt.Errorf("schema: %d:%d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))
}

func (p *nativeParser) parseType() (Type, error) {
	left, err := p.parseOccurrence()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		var op BinaryOp
		switch p.peekByte() {
		case '|':
			op = Union
		case '&':
			op = Intersect
		case '\\':
			op = Exclude
		default:
			return left, nil
		}
		p.pos++
		right, err := p.parseOccurrence()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func (p *nativeParser) parseOccurrence() (Type, error) {
	operand, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		switch p.peekByte() {
		case '?':
			p.pos++
			operand = Unary{Op: Optional, Operand: operand, MinCount: 0, MaxCount: 1}
		case '+':
			p.pos++
			operand = Unary{Op: OneOrMore, Operand: operand, MinCount: 1, MaxCount: -1}
		case '*':
			p.pos++
			operand = Unary{Op: ZeroOrMore, Operand: operand, MinCount: 0, MaxCount: -1}
		case '[':
			spec, err := p.parseOccursSpec()
			if err != nil {
				return nil, err
			}
			operand = Unary{Op: Repeat, Operand: operand, MinCount: spec.min, MaxCount: spec.max}
		default:
			return operand, nil
		}
	}
}

type occursSpec struct{ min, max int }

func (p *nativeParser) parseOccursSpec() (occursSpec, error) {
	p.pos++ // consume '['
	p.skipSpace()
	n, ok := p.integer()
	if !ok {
		return occursSpec{}, p.err("expected integer in occurrence spec")
	}
	p.skipSpace()
	switch p.peekByte() {
	case '+':
		p.pos++
		if !p.consume(']') {
			return occursSpec{}, p.err("expected ']' after '+' in occurrence spec")
		}
		return occursSpec{min: n, max: -1}, nil
	case ',':
		p.pos++
		m, ok := p.integer()
		if !ok {
			return occursSpec{}, p.err("expected integer after ',' in occurrence spec")
		}
		if !p.consume(']') {
			return occursSpec{}, p.err("expected ']' in occurrence spec")
		}
		return occursSpec{min: n, max: m}, nil
	case ']':
		p.pos++
		return occursSpec{min: n, max: n}, nil
	default:
		return occursSpec{}, p.err("malformed occurrence spec")
	}
}

func (p *nativeParser) parsePrimary() (Type, error) {
	p.skipSpace()
	switch p.peekByte() {
	case '[':
		return p.parseArrayType()
	case '{':
		return p.parseMapType()
	case '<':
		return p.parseElementType()
	case '$':
		p.pos++
		name, ok := p.ident()
		if !ok {
			return nil, p.err("expected system function name after '$'")
		}
		args, err := p.parseArgListIfPresent()
		if err != nil {
			return nil, err
		}
		return SysFunc{Name: name, Args: args}, nil
	case 0:
		return nil, p.err("unexpected end of schema text")
	default:
		name, ok := p.ident()
		if !ok {
			return nil, p.err("unexpected character %q in type expression", p.peekByte())
		}
		if prim, ok := primitiveByName(name); ok {
			return prim, nil
		}
		args, err := p.parseArgListIfPresent()
		if err != nil {
			return nil, err
		}
		if args != nil {
			return Func{Name: name, Args: args}, nil
		}
		return TypeRef{Name: name}, nil
	}
}

func (p *nativeParser) parseArrayType() (Type, error) {
	p.pos++ // '['
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	length := -1
	p.skipSpace()
	if p.peekByte() == ';' {
		p.pos++
		n, ok := p.integer()
		if !ok {
			return nil, p.err("expected integer array length after ';'")
		}
		length = n
	}
	if !p.consume(']') {
		return nil, p.err("expected ']' to close array type")
	}
	return Array{Elem: elem, Length: length}, nil
}

func (p *nativeParser) parseMapType() (Type, error) {
	p.pos++ // '{'
	p.skipSpace()
	var fields []Field
	if p.peekByte() == '}' {
		p.pos++
		return Map{Fields: fields}, nil
	}
	for {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		p.skipSpace()
		switch p.peekByte() {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
			return Map{Fields: fields}, nil
		default:
			return nil, p.err("expected ',' or '}' in map type")
		}
	}
}

func (p *nativeParser) parseField() (Field, error) {
	name, ok := p.ident()
	if !ok {
		return Field{}, p.err("expected field name")
	}
	optional := false
	if p.peekByte() == '?' {
		p.pos++
		optional = true
	}
	if !p.consume(':') {
		return Field{}, p.err("expected ':' after field name %q", name)
	}
	t, err := p.parseType()
	if err != nil {
		return Field{}, err
	}
	return Field{Name: name, Type: t, Optional: optional}, nil
}

func (p *nativeParser) parseElementType() (Type, error) {
	p.pos++ // '<'
	p.skipSpace()
	tag, ok := p.ident()
	if !ok {
		return nil, p.err("expected element tag name")
	}
	var attrs []Field
	p.skipSpace()
	for p.peekByte() != '>' && p.peekByte() != 0 {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, f)
		p.skipSpace()
		if p.peekByte() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}
	if !p.consume('>') {
		return nil, p.err("expected '>' to close element type <%s>", tag)
	}
	contentLength := 0
	p.skipSpace()
	if p.peekByte() == '{' {
		p.pos++
		n, ok := p.integer()
		if !ok {
			return nil, p.err("expected integer content length")
		}
		contentLength = n
		if !p.consume('}') {
			return nil, p.err("expected '}' after content length")
		}
	}
	return Elmt{Map: Map{Fields: attrs}, Tag: tag, ContentLength: contentLength}, nil
}

// parseArgListIfPresent parses a parenthesized, comma-separated type
// list if one follows immediately; returns (nil, nil) — not an empty
// slice — when no '(' is present, so callers can distinguish "no
// arg-list at all" (a bare type reference) from "an empty arg-list"
// (a zero-argument function call).
func (p *nativeParser) parseArgListIfPresent() ([]Type, error) {
	p.skipSpace()
	if p.peekByte() != '(' {
		return nil, nil
	}
	p.pos++
	p.skipSpace()
	args := []Type{}
	if p.peekByte() == ')' {
		p.pos++
		return args, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		p.skipSpace()
		if p.peekByte() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}
	if !p.consume(')') {
		return nil, p.err("expected ')' to close argument list")
	}
	return args, nil
}
