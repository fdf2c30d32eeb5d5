// Package jsx implements the JSX dialect of §4.M2: an HTML-like markup
// grammar where tag case distinguishes a "component" reference from a
// plain element, and curly-brace expressions are scanned with nested
// string/template/escape awareness rather than parsed as JavaScript.
package jsx

import (
	"strings"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/entity"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("jsx", Parse)
}

// MaxDepth is fixed by §4.M2's depth-bound table.
const MaxDepth = 512

var resolver = entity.New()

// Parse builds a `document` element wrapping every top-level JSX node,
// mirroring parser/xml's synthetic-wrapper convention.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	p := &parser{ctx: ctx, src: src}
	doc := ctx.Build.NewElementBuilder("document")
	for p.pos < len(p.src) {
		if ctx.ShouldStopParsing() {
			break
		}
		p.skipWS()
		if p.pos >= len(p.src) {
			break
		}
		if p.peek() == '<' {
			if n := p.parseElement(); n != nil {
				doc.Child(n)
			}
		} else {
			p.parseTextInto(doc)
		}
	}
	ctx.Tracker.Advance(len(src))
	return doc.Final()
}

type parser struct {
	ctx   *input.Context
	src   []byte
	pos   int
	depth int
}

func (p *parser) enterElement() bool {
	p.depth++
	ok := p.ctx.EnterDepth()
	if ok && p.depth > MaxDepth {
		p.ctx.AddError("maximum JSX nesting depth %d exceeded", MaxDepth)
		return false
	}
	return ok
}

func (p *parser) exitElement() {
	p.depth--
	p.ctx.ExitDepth()
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) at(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *parser) skipWS() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c == '.' || c == ':' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

// parseElement parses `<Tag ...attrs>children</Tag>`, a self-closing
// `<Tag ... />`, or a fragment `<>...</>`. Returns nil on malformed
// input (the cursor is still advanced past the bad `<`).
func (p *parser) parseElement() item.Item {
	if !p.enterElement() {
		p.pos++
		return nil
	}
	defer p.exitElement()

	start := p.pos
	p.pos++ // '<'

	if p.peek() == '>' {
		// Fragment <>...</>
		p.pos++
		eb := p.ctx.Build.NewElementBuilder("fragment")
		p.parseChildren(eb, "")
		return eb.Final()
	}

	name := p.parseName()
	if name == "" {
		p.ctx.AddWarning("jsx: malformed tag at offset %d", start)
		p.pos = start + 1
		return nil
	}

	eb := p.ctx.Build.NewElementBuilder(name)
	if isUpper(name[0]) {
		eb.Attr("component", p.ctx.Build.CreateBool(true))
	}

	for {
		p.skipWS()
		c := p.peek()
		if c == '/' && p.at(1) == '>' {
			p.pos += 2
			return eb.Final()
		}
		if c == '>' || c == 0 {
			p.pos++
			break
		}
		if c == '{' {
			// spread attribute {...x}
			expr := p.scanBraceExpr()
			eb.Attr("spread", expr)
			continue
		}
		attrName := p.parseName()
		if attrName == "" {
			p.pos++
			continue
		}
		p.skipWS()
		if p.peek() == '=' {
			p.pos++
			p.skipWS()
			switch p.peek() {
			case '"', '\'':
				eb.Attr(attrName, decodeEntityText(p.ctx, p.parseQuoted()))
			case '{':
				eb.Attr(attrName, p.scanBraceExpr())
			default:
				eb.Attr(attrName, p.parseBareAttr())
			}
		} else {
			eb.Attr(attrName, p.ctx.Build.CreateBool(true))
		}
	}

	p.parseChildren(eb, name)
	return eb.Final()
}

func (p *parser) parseName() string {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) parseQuoted() string {
	q := p.src[p.pos]
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != q {
		p.pos++
	}
	s := string(p.src[start:p.pos])
	if p.pos < len(p.src) {
		p.pos++
	}
	return s
}

func (p *parser) parseBareAttr() string {
	start := p.pos
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && p.src[p.pos] != '>' && p.src[p.pos] != '/' {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// scanBraceExpr scans a `{...}` JSX expression with brace-depth-aware
// tracking that skips over nested quotes/templates/escapes so an
// embedded `}` inside a string literal doesn't terminate the scan
// early.
func (p *parser) scanBraceExpr() string {
	start := p.pos
	p.pos++ // '{'
	depth := 1
	for p.pos < len(p.src) && depth > 0 {
		c := p.src[p.pos]
		switch c {
		case '{':
			depth++
			p.pos++
		case '}':
			depth--
			p.pos++
		case '\\':
			p.pos += 2
		case '"', '\'', '`':
			p.pos++
			for p.pos < len(p.src) && p.src[p.pos] != c {
				if p.src[p.pos] == '\\' {
					p.pos++
				}
				p.pos++
			}
			p.pos++
		default:
			p.pos++
		}
	}
	return string(p.src[start+1 : max(start+1, p.pos-1)])
}

// parseChildren parses sibling nodes until a matching `</name>` close
// tag (or EOF), appending each as a child of eb.
func (p *parser) parseChildren(eb *builder.ElementBuilder, name string) {
	for p.pos < len(p.src) {
		if p.ctx.ShouldStopParsing() {
			return
		}
		if p.peek() == '<' && p.at(1) == '/' {
			closeStart := p.pos
			p.pos += 2
			closeName := p.parseName()
			p.skipWS()
			if p.peek() == '>' {
				p.pos++
			}
			if closeName != name {
				p.ctx.AddWarning("jsx: mismatched closing tag </%s> for <%s> at offset %d", closeName, name, closeStart)
			}
			return
		}
		if p.peek() == '<' {
			if n := p.parseElement(); n != nil {
				eb.Child(n)
			}
			continue
		}
		if p.peek() == '{' {
			expr := p.scanBraceExpr()
			eb.Child(p.ctx.Build.CreateString([]byte("{" + expr + "}")))
			continue
		}
		p.parseTextInto(eb)
	}
}

func (p *parser) parseTextInto(eb *builder.ElementBuilder) {
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			eb.Child(p.ctx.Build.CreateString([]byte(buf.String())))
			buf.Reset()
		}
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '<' || c == '{' {
			break
		}
		if c == '&' {
			p.scanEntity(&buf)
			continue
		}
		buf.WriteByte(c)
		p.pos++
	}
	flush()
}

func (p *parser) scanEntity(buf *strings.Builder) {
	end := strings.IndexByte(string(p.src[p.pos:]), ';')
	if end < 0 || end > 32 {
		buf.WriteByte('&')
		p.pos++
		return
	}
	ref := string(p.src[p.pos+1 : p.pos+end])
	p.pos += end + 1
	if strings.HasPrefix(ref, "#") {
		cp, err := entity.DecodeNumericRef(ref[1:])
		if err != nil {
			p.ctx.AddWarning("invalid numeric character reference &%s;", ref)
			buf.WriteRune(entity.ReplacementChar)
			return
		}
		buf.WriteRune(cp)
		return
	}
	e, ok := resolver.Lookup(ref)
	if !ok {
		buf.WriteString("&" + ref + ";")
		return
	}
	switch e.Kind {
	case entity.KindAscii, entity.KindUnicodeSpace, entity.KindNamed:
		buf.WriteRune(e.Codepoint)
	case entity.KindComposed:
		buf.WriteString(e.Text)
	}
}

func decodeEntityText(ctx *input.Context, s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var buf strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '&' {
			buf.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(s[i:], ';')
		if end < 0 || end > 32 {
			buf.WriteByte(c)
			i++
			continue
		}
		ref := s[i+1 : i+end]
		i += end + 1
		if strings.HasPrefix(ref, "#") {
			cp, err := entity.DecodeNumericRef(ref[1:])
			if err != nil {
				ctx.AddWarning("invalid numeric character reference &%s; in attribute value", ref)
				buf.WriteRune(entity.ReplacementChar)
				continue
			}
			buf.WriteRune(cp)
			continue
		}
		if e, ok := resolver.Lookup(ref); ok {
			switch e.Kind {
			case entity.KindAscii, entity.KindUnicodeSpace, entity.KindNamed:
				buf.WriteRune(e.Codepoint)
			case entity.KindComposed:
				buf.WriteString(e.Text)
			}
			continue
		}
		buf.WriteString("&" + ref + ";")
	}
	return buf.String()
}
