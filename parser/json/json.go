// Package json implements the JSON (ECMA-404) format parser of §4.M2: a
// straight recursive descent over the five JSON value kinds, with the
// module's own integer-promotion, empty-key, and error-recovery policies
// layered on top.
package json

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lambda-doc/lambda/entity"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() { input.Register("json", Parse) }

// MaxDepth is JSON's recursive-descent nesting bound (§4.M2).
const MaxDepth = 64

// Parse drives ctx.Build to construct an item tree from a JSON document.
func Parse(ctx *input.Context, src []byte) item.Item {
	p := &parser{ctx: ctx, src: src}
	p.skipWS()
	if p.pos >= len(p.src) {
		return item.Null
	}
	v := p.parseValue()
	p.sync()
	p.skipWS()
	if p.pos < len(p.src) {
		ctx.AddError("unexpected trailing content after JSON value")
	}
	return v
}

type parser struct {
	ctx   *input.Context
	src   []byte
	pos   int
	depth int
}

func (p *parser) sync() {
	cur := p.ctx.Tracker.Position().Offset
	if p.pos > cur {
		p.ctx.Tracker.Advance(p.pos - cur)
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipWS() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// recover scans forward to the next ',', ']', or '}' without consuming it,
// per §4.M2's JSON recovery policy.
func (p *parser) recover() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ',', ']', '}':
			return
		}
		p.pos++
	}
}

func (p *parser) enterContainer() bool {
	p.depth++
	ok := p.ctx.EnterDepth()
	if ok && p.depth > MaxDepth {
		p.ctx.AddError("maximum JSON nesting depth %d exceeded", MaxDepth)
		return false
	}
	return ok
}

// skipBalanced consumes one JSON value's source text without building
// it, honoring string quoting so bracket characters inside a string
// don't unbalance the scan. Used to resynchronize after a container is
// rejected for exceeding the nesting bound: unlike recover(), which
// stops at the first delimiter regardless of nesting, this consumes
// the whole rejected subtree so parsing can resume at its sibling.
func (p *parser) skipBalanced() {
	depth := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '"':
			p.pos++
			for p.pos < len(p.src) {
				if p.src[p.pos] == '\\' {
					p.pos += 2
					continue
				}
				if p.src[p.pos] == '"' {
					p.pos++
					break
				}
				p.pos++
			}
		case '{', '[':
			depth++
			p.pos++
		case '}', ']':
			depth--
			p.pos++
			if depth <= 0 {
				return
			}
		default:
			p.pos++
		}
	}
}

func (p *parser) exitContainer() {
	p.depth--
	p.ctx.ExitDepth()
}

func (p *parser) parseValue() item.Item {
	p.skipWS()
	p.sync()
	if p.ctx.ShouldStopParsing() {
		return item.Err
	}
	if p.pos >= len(p.src) {
		p.ctx.AddError("unexpected end of input")
		return item.Err
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s := p.parseRawString()
		return p.ctx.Build.CreateString([]byte(s))
	case c == 't' || c == 'f':
		return p.parseBoolLiteral()
	case c == 'n':
		return p.parseNullLiteral()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		p.ctx.AddError("unexpected character %q in JSON value", c)
		p.recover()
		return item.Err
	}
}

func (p *parser) parseObject() item.Item {
	entered := p.enterContainer()
	defer p.exitContainer()
	if !entered {
		p.skipBalanced()
		return item.Err
	}

	p.pos++ // consume '{'
	mb := p.ctx.Build.NewMapBuilder()
	p.skipWS()
	if p.peek() == '}' {
		p.pos++
		return mb.Final()
	}

	for {
		if p.ctx.ShouldStopParsing() {
			return item.Err
		}
		p.skipWS()
		if p.peek() != '"' {
			p.ctx.AddError("expected string key in JSON object")
			p.recover()
			if !p.resyncObject() {
				return mb.Final()
			}
			continue
		}
		key := p.parseRawString()
		p.skipWS()
		if p.peek() != ':' {
			p.ctx.AddError("expected ':' after JSON object key")
			p.recover()
			if !p.resyncObject() {
				return mb.Final()
			}
			continue
		}
		p.pos++ // consume ':'
		v := p.parseValue()
		mb.Put(key, v)
		p.skipWS()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
			return mb.Final()
		default:
			p.ctx.AddError("expected ',' or '}' in JSON object")
			p.recover()
			if !p.resyncObject() {
				return mb.Final()
			}
		}
	}
}

// resyncObject consumes the separator recover() stopped on and reports
// whether the caller should keep looping (true) or finalize (false).
func (p *parser) resyncObject() bool {
	switch p.peek() {
	case ',':
		p.pos++
		return true
	case '}':
		p.pos++
		return false
	default: // EOF
		return false
	}
}

func (p *parser) parseArray() item.Item {
	entered := p.enterContainer()
	defer p.exitContainer()
	if !entered {
		p.skipBalanced()
		return item.Err
	}

	p.pos++ // consume '['
	ab := p.ctx.Build.NewArrayBuilder(item.AnyType)
	p.skipWS()
	if p.peek() == ']' {
		p.pos++
		return ab.Final()
	}

	for {
		if p.ctx.ShouldStopParsing() {
			return item.Err
		}
		v := p.parseValue()
		ab.Append(v)
		p.skipWS()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
			return ab.Final()
		default:
			p.ctx.AddError("expected ',' or ']' in JSON array")
			p.recover()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case ']':
				p.pos++
				return ab.Final()
			default:
				return ab.Final()
			}
		}
	}
}

func (p *parser) parseBoolLiteral() item.Item {
	if strings.HasPrefix(string(p.src[p.pos:]), "true") {
		p.pos += 4
		return p.ctx.Build.CreateBool(true)
	}
	if strings.HasPrefix(string(p.src[p.pos:]), "false") {
		p.pos += 5
		return p.ctx.Build.CreateBool(false)
	}
	p.ctx.AddError("invalid literal in JSON value")
	p.recover()
	return item.Err
}

func (p *parser) parseNullLiteral() item.Item {
	if strings.HasPrefix(string(p.src[p.pos:]), "null") {
		p.pos += 4
		return item.Null
	}
	p.ctx.AddError("invalid literal in JSON value")
	p.recover()
	return item.Err
}

func (p *parser) parseNumber() item.Item {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	isFloat := false
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		isFloat = true
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	text := string(p.src[start:p.pos])
	if text == "" || text == "-" {
		p.ctx.AddError("invalid number literal in JSON value")
		p.recover()
		return item.Err
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.ctx.AddError("invalid number literal %q: %s", text, err)
		return item.Err
	}
	if !isFloat {
		// Integers: a double is parsed; if the value equals its integer
		// cast, stored as int (§4.M2).
		if iv := int64(f); float64(iv) == f {
			return p.ctx.Build.CreateInt(iv)
		}
	}
	return p.ctx.Build.CreateFloat(f)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseRawString consumes a JSON string literal (cursor on the opening
// quote) and returns its decoded text, applying §4.M2's surrogate-pair and
// lone-half policy. It always advances the cursor past the string, even
// on a malformed escape, so callers can keep resynchronizing.
func (p *parser) parseRawString() string {
	p.pos++ // consume opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return b.String()
		case c == '\\':
			p.pos++
			p.decodeEscape(&b)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	p.ctx.AddError("unterminated JSON string")
	return b.String()
}

func (p *parser) decodeEscape(b *strings.Builder) {
	if p.pos >= len(p.src) {
		p.ctx.AddError("unterminated escape in JSON string")
		return
	}
	c := p.src[p.pos]
	switch c {
	case '"', '\\', '/':
		b.WriteByte(c)
		p.pos++
	case 'b':
		b.WriteByte('\b')
		p.pos++
	case 'f':
		b.WriteByte('\f')
		p.pos++
	case 'n':
		b.WriteByte('\n')
		p.pos++
	case 'r':
		b.WriteByte('\r')
		p.pos++
	case 't':
		b.WriteByte('\t')
		p.pos++
	case 'u':
		p.pos++
		p.decodeUnicodeEscape(b)
	default:
		p.ctx.AddError("invalid escape sequence \\%c in JSON string", c)
		p.pos++
	}
}

// decodeUnicodeEscape decodes a \uXXXX escape, recognizing and combining
// surrogate pairs; a lone surrogate half becomes U+FFFD with a warning
// (§4.M2).
func (p *parser) decodeUnicodeEscape(b *strings.Builder) {
	cp, ok := p.readHex4()
	if !ok {
		return
	}
	if cp >= 0xD800 && cp <= 0xDBFF {
		if strings.HasPrefix(string(p.src[p.pos:]), `\u`) {
			save := p.pos
			p.pos += 2
			low, ok := p.readHex4()
			if ok && low >= 0xDC00 && low <= 0xDFFF {
				combined, err := entity.DecodeSurrogatePair(cp, low)
				if err == nil {
					b.WriteRune(combined)
					return
				}
			}
			p.pos = save
		}
		p.ctx.AddWarning("lone UTF-16 surrogate half %#x in JSON string", cp)
		b.WriteRune(entity.ReplacementChar)
		return
	}
	if cp >= 0xDC00 && cp <= 0xDFFF {
		p.ctx.AddWarning("lone UTF-16 surrogate half %#x in JSON string", cp)
		b.WriteRune(entity.ReplacementChar)
		return
	}
	if !utf8.ValidRune(cp) {
		b.WriteRune(entity.ReplacementChar)
		return
	}
	b.WriteRune(cp)
}

func (p *parser) readHex4() (rune, bool) {
	if p.pos+4 > len(p.src) {
		p.ctx.AddError("truncated \\u escape in JSON string")
		p.pos = len(p.src)
		return 0, false
	}
	v, err := strconv.ParseInt(string(p.src[p.pos:p.pos+4]), 16, 32)
	if err != nil {
		p.ctx.AddError("invalid \\u escape in JSON string")
		p.pos += 4
		return 0, false
	}
	p.pos += 4
	return rune(v), true
}
