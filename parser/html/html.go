// Package html implements the HTML format parser of §4.M2: the same
// shared entity handling as XML (ascii, unicode-space, composed, and
// named entities all decode inline into the surrounding text, nbsp
// specifically included), adapted for HTML's permissive close-tag and
// void-element conventions.
package html

import (
	"strings"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/entity"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() { input.Register("html", Parse) }

// MaxDepth mirrors XML's nesting bound; HTML has no spec-named constant
// of its own, so it inherits the markup-family default (§4.M2).
const MaxDepth = 512

var resolver = entity.New()

// voidElements never carry children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parse drives ctx.Build to construct an item tree from an HTML
// fragment, wrapping multiple top-level nodes in a synthetic "document"
// element for consistency with the XML parser's contract.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	p := &parser{ctx: ctx, src: src}
	doc := ctx.Build.NewElementBuilder("document")
	for {
		p.skipWS()
		p.sync()
		if p.pos >= len(p.src) || p.ctx.ShouldStopParsing() {
			break
		}
		if p.peek() != '<' {
			p.parseTextInto(doc)
			continue
		}
		if child, ok := p.parseMarkupNode(); ok {
			doc.Child(child)
		}
	}
	p.sync()
	return doc.Final()
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

func (p *parser) at(s string) bool {
	return strings.HasPrefix(string(p.src[p.pos:]), s)
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

func (p *parser) enterElement() bool {
	p.depth++
	ok := p.ctx.EnterDepth()
	if ok && p.depth > MaxDepth {
		p.ctx.AddError("maximum HTML nesting depth %d exceeded", MaxDepth)
		return false
	}
	return ok
}

func (p *parser) exitElement() {
	p.depth--
	p.ctx.ExitDepth()
}

func (p *parser) parseMarkupNode() (item.Item, bool) {
	switch {
	case p.at("<!--"):
		return p.parseComment(), true
	case p.at("<!"):
		return p.parseDeclaration(), true
	case p.at("</"):
		p.ctx.AddWarning("unmatched closing tag")
		for p.pos < len(p.src) && p.src[p.pos] != '>' {
			p.pos++
		}
		if p.pos < len(p.src) {
			p.pos++
		}
		return item.Null, false
	default:
		return p.parseElement(), true
	}
}

func (p *parser) parseComment() item.Item {
	p.pos += len("<!--")
	start := p.pos
	end := strings.Index(string(p.src[p.pos:]), "-->")
	if end < 0 {
		p.ctx.AddError("unterminated HTML comment")
		p.pos = len(p.src)
		return p.ctx.Build.NewElementBuilder("!--").Final()
	}
	text := string(p.src[start : start+end])
	p.pos = start + end + len("-->")
	eb := p.ctx.Build.NewElementBuilder("!--")
	eb.Child(p.ctx.Build.CreateString([]byte(text)))
	return eb.Final()
}

func (p *parser) parseDeclaration() item.Item {
	p.pos++ // '<'
	p.pos++ // '!'
	nameStart := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	name := "!" + string(p.src[nameStart:p.pos])
	bodyStart := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '>' {
		p.pos++
	}
	body := strings.TrimSpace(string(p.src[bodyStart:p.pos]))
	if p.pos < len(p.src) {
		p.pos++
	}
	eb := p.ctx.Build.NewElementBuilder(name)
	if body != "" {
		eb.Child(p.ctx.Build.CreateString([]byte(body)))
	}
	return eb.Final()
}

func (p *parser) parseElement() item.Item {
	entered := p.enterElement()
	defer p.exitElement()
	if !entered {
		p.skipToNextTag()
		return item.Null
	}

	p.pos++ // consume '<'
	name := p.parseName()
	if name == "" {
		p.ctx.AddError("expected element name")
		p.skipToNextTag()
		return item.Null
	}
	eb := p.ctx.Build.NewElementBuilder(name)

	for {
		p.skipWS()
		switch {
		case p.peek() == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '>':
			p.pos += 2
			return eb.Final()
		case p.peek() == '>':
			p.pos++
			if !voidElements[name] {
				p.parseChildren(eb, name)
			}
			return eb.Final()
		case p.pos >= len(p.src):
			p.ctx.AddError("unterminated start tag <%s>", name)
			return eb.Final()
		default:
			attrName := p.parseName()
			if attrName == "" {
				p.pos++
				continue
			}
			p.skipWS()
			var val string
			if p.peek() == '=' {
				p.pos++
				p.skipWS()
				val = p.parseAttrValue()
			}
			eb.Attr(attrName, decodeEntityText(p.ctx, val))
		}
	}
}

func (p *parser) parseChildren(eb *builder.ElementBuilder, tagName string) {
	for {
		if p.pos >= len(p.src) {
			p.ctx.AddWarning("unclosed <%s>", tagName)
			return
		}
		if p.at("</") {
			save := p.pos
			p.pos += 2
			closeName := p.parseName()
			p.skipWS()
			if p.peek() == '>' {
				p.pos++
			}
			if closeName == tagName {
				return
			}
			// Permissive HTML recovery: if this close tag doesn't match,
			// assume it closes an ancestor and let the caller see it too.
			p.pos = save
			return
		}
		if p.ctx.ShouldStopParsing() {
			return
		}
		if p.peek() != '<' {
			p.parseTextInto(eb)
			continue
		}
		if child, ok := p.parseMarkupNode(); ok {
			eb.Child(child)
		}
	}
}

func (p *parser) skipToNextTag() {
	for p.pos < len(p.src) && p.src[p.pos] != '<' {
		p.pos++
	}
}

// parseTextInto mirrors the XML parser's text handling (§4.M2, §4.M3):
// the run up to the next '<' is trimmed of leading/trailing whitespace,
// then ascii, unicode-space, and named entities (including nbsp) all
// decode inline into one merged text child; unknown entities are
// preserved verbatim.
func (p *parser) parseTextInto(eb *builder.ElementBuilder) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '<' {
		p.pos++
	}
	end := p.pos
	for start < end && isSpace(p.src[start]) {
		start++
	}
	for end > start && isSpace(p.src[end-1]) {
		end--
	}
	if start >= end {
		return
	}

	run := p.src[start:end]
	var buf strings.Builder
	for i := 0; i < len(run); {
		c := run[i]
		if c != '&' {
			buf.WriteByte(c)
			i++
			continue
		}
		semi := strings.IndexByte(string(run[i:]), ';')
		if semi < 0 || semi > 32 {
			buf.WriteByte(c)
			i++
			continue
		}
		ref := string(run[i+1 : i+semi])
		i += semi + 1

		if strings.HasPrefix(ref, "#") {
			cp, err := entity.DecodeNumericRef(ref[1:])
			if err != nil {
				p.ctx.AddWarning("invalid numeric character reference &%s;", ref)
				buf.WriteRune(entity.ReplacementChar)
			} else {
				buf.WriteRune(cp)
			}
			continue
		}
		e, ok := resolver.Lookup(ref)
		if !ok {
			buf.WriteString("&" + ref + ";")
			continue
		}
		switch e.Kind {
		case entity.KindAscii, entity.KindUnicodeSpace, entity.KindNamed:
			buf.WriteRune(e.Codepoint)
		case entity.KindComposed:
			buf.WriteString(e.Text)
		}
	}
	if s := buf.String(); s != "" {
		eb.Child(p.ctx.Build.CreateString([]byte(s)))
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

func (p *parser) parseName() string {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) parseAttrValue() string {
	if p.pos >= len(p.src) {
		return ""
	}
	quote := p.src[p.pos]
	if quote != '"' && quote != '\'' {
		start := p.pos
		for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && p.src[p.pos] != '>' {
			p.pos++
		}
		return string(p.src[start:p.pos])
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		p.pos++
	}
	val := string(p.src[start:p.pos])
	if p.pos < len(p.src) {
		p.pos++
	}
	return val
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == ':' || c == '.':
		return true
	default:
		return false
	}
}
