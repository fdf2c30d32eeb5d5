// Package toml implements the TOML format parser of §4.M2: a
// character-cursor recursive-descent parser producing the same item
// tree shape as parser/json's objects, built bottom-up from a mutable
// scratch table tree so that out-of-order table headers (`[a.b]`
// appearing, then later `[a.c]`) resolve correctly before the final
// conversion into builder calls.
package toml

import (
	"math"
	"strconv"
	"strings"

	"github.com/lambda-doc/lambda/datetime"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() { input.Register("toml", Parse) }

// MaxDepth bounds inline array/table nesting (§4.M2 depth-limit family).
const MaxDepth = 256

// scratch table tree: built during the line/header scan, then converted
// to item.Item bottom-up once the whole document has been read, since a
// later [a.b] header can extend a table opened earlier in the file.
type table struct {
	order   []string
	entries map[string]*node
}

func newTable() *table { return &table{entries: make(map[string]*node)} }

type nodeKind int

const (
	nodeScalar nodeKind = iota
	nodeTable
	nodeArrayOfTables
)

type node struct {
	kind      nodeKind
	scalar    item.Item
	tbl       *table
	tableList []*table
}

// Parse drives ctx.Build to construct a map item from a TOML document.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	p := &parser{ctx: ctx, src: src}
	root := newTable()
	cur := root

	for {
		p.skipBlankAndComments()
		if p.pos >= len(p.src) || p.ctx.ShouldStopParsing() {
			break
		}
		switch {
		case p.peek() == '[' && p.peekAt(1) == '[':
			p.pos += 2
			path := p.parseKeyPath()
			p.expectInline(']')
			p.expectInline(']')
			tbl, ok := p.addArrayTable(root, path)
			if !ok {
				p.skipToEOL()
				continue
			}
			cur = tbl
		case p.peek() == '[':
			p.pos++
			path := p.parseKeyPath()
			p.expectInline(']')
			tbl, ok := p.getTable(root, path)
			if !ok {
				p.skipToEOL()
				continue
			}
			cur = tbl
		default:
			path := p.parseKeyPath()
			p.skipInlineWS()
			if !p.expectInline('=') {
				p.ctx.AddError("expected '=' after key")
				p.skipToEOL()
				continue
			}
			p.skipInlineWS()
			val := p.parseValue(0)
			p.setScalar(cur, path, val)
		}
		p.skipInlineWS()
		p.skipToEOL()
	}
	p.sync()
	return buildTable(ctx, root)
}

type parser struct {
	ctx *input.Context
	src []byte
	pos int
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

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *parser) skipInlineWS() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) skipToEOL() {
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}
	if p.pos < len(p.src) {
		p.pos++
	}
}

func (p *parser) skipBlankAndComments() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		case '#':
			p.skipToEOL()
		default:
			return
		}
	}
}

func (p *parser) expectInline(c byte) bool {
	p.skipInlineWS()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

// parseKeyPath reads a dotted key (bare or quoted segments).
func (p *parser) parseKeyPath() []string {
	var path []string
	for {
		p.skipInlineWS()
		path = append(path, p.parseKeySegment())
		p.skipInlineWS()
		if p.peek() == '.' {
			p.pos++
			continue
		}
		return path
	}
}

func (p *parser) parseKeySegment() string {
	switch p.peek() {
	case '"':
		return p.parseBasicString()
	case '\'':
		return p.parseLiteralString()
	default:
		start := p.pos
		for p.pos < len(p.src) && isBareKeyByte(p.src[p.pos]) {
			p.pos++
		}
		if start == p.pos {
			p.ctx.AddError("expected a key")
			return ""
		}
		return string(p.src[start:p.pos])
	}
}

func isBareKeyByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-':
		return true
	default:
		return false
	}
}

// getTable walks/creates plain [table.path] tables, erroring if a path
// segment already names a scalar or an array of tables.
func (p *parser) getTable(root *table, path []string) (*table, bool) {
	cur := root
	for _, seg := range path {
		n, exists := cur.entries[seg]
		switch {
		case !exists:
			n = &node{kind: nodeTable, tbl: newTable()}
			cur.entries[seg] = n
			cur.order = append(cur.order, seg)
		case n.kind == nodeArrayOfTables:
			n = &node{kind: nodeTable, tbl: n.tableList[len(n.tableList)-1]}
		case n.kind == nodeScalar:
			p.ctx.AddError("table path %q redefines a key as a table", strings.Join(path, "."))
			return nil, false
		}
		cur = n.tbl
	}
	return cur, true
}

// addArrayTable appends a new table to an [[array.of.tables]] path.
func (p *parser) addArrayTable(root *table, path []string) (*table, bool) {
	parentPath, last := path[:len(path)-1], path[len(path)-1]
	parent := root
	if len(parentPath) > 0 {
		var ok bool
		parent, ok = p.getTable(root, parentPath)
		if !ok {
			return nil, false
		}
	}
	n, exists := parent.entries[last]
	if !exists {
		n = &node{kind: nodeArrayOfTables}
		parent.entries[last] = n
		parent.order = append(parent.order, last)
	} else if n.kind != nodeArrayOfTables {
		p.ctx.AddError("key %q is already defined as a non-array-table", last)
		return nil, false
	}
	t := newTable()
	n.tableList = append(n.tableList, t)
	return t, true
}

func (p *parser) setScalar(cur *table, path []string, v item.Item) {
	t := cur
	for _, seg := range path[:len(path)-1] {
		n, exists := t.entries[seg]
		if !exists {
			n = &node{kind: nodeTable, tbl: newTable()}
			t.entries[seg] = n
			t.order = append(t.order, seg)
		} else if n.kind != nodeTable {
			p.ctx.AddError("dotted key %q crosses a non-table value", strings.Join(path, "."))
			return
		}
		t = n.tbl
	}
	last := path[len(path)-1]
	if _, exists := t.entries[last]; exists {
		p.ctx.AddError("duplicate key %q", strings.Join(path, "."))
		return
	}
	t.entries[last] = &node{kind: nodeScalar, scalar: v}
	t.order = append(t.order, last)
}

// parseValue dispatches on the next significant byte; depth bounds
// nested inline arrays/tables.
func (p *parser) parseValue(depth int) item.Item {
	if depth > MaxDepth {
		p.ctx.AddError("maximum TOML nesting depth %d exceeded", MaxDepth)
		return item.Null
	}
	switch c := p.peek(); {
	case c == '"':
		return p.ctx.Build.CreateString([]byte(p.parseBasicString()))
	case c == '\'':
		return p.ctx.Build.CreateString([]byte(p.parseLiteralString()))
	case c == '[':
		return p.parseArray(depth)
	case c == '{':
		return p.parseInlineTable(depth)
	case strings.HasPrefix(string(p.src[p.pos:]), "true"):
		p.pos += 4
		return p.ctx.Build.CreateBool(true)
	case strings.HasPrefix(string(p.src[p.pos:]), "false"):
		p.pos += 5
		return p.ctx.Build.CreateBool(false)
	default:
		return p.parseNumberOrDateTime()
	}
}

func (p *parser) parseArray(depth int) item.Item {
	p.pos++ // '['
	ab := p.ctx.Build.NewArrayBuilder(item.AnyType)
	for {
		p.skipArrayWS()
		if p.peek() == ']' {
			p.pos++
			return ab.Final()
		}
		if p.pos >= len(p.src) {
			p.ctx.AddError("unterminated TOML array")
			return ab.Final()
		}
		ab.Append(p.parseValue(depth + 1))
		p.skipArrayWS()
		if p.peek() == ',' {
			p.pos++
		}
	}
}

// skipArrayWS skips whitespace, newlines, and comments inside an inline
// array, which TOML allows to span multiple lines.
func (p *parser) skipArrayWS() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		case '#':
			p.skipToEOL()
		default:
			return
		}
	}
}

// parseInlineTable builds a scratch table exactly like the top-level
// document, so a dotted key inside `{ a.b = 1, a.c = 2 }` nests into one
// shared sub-table `a` instead of two literal "a.b"/"a.c" keys.
func (p *parser) parseInlineTable(depth int) item.Item {
	p.pos++ // '{'
	t := newTable()
	p.skipInlineWS()
	if p.peek() == '}' {
		p.pos++
		return buildTable(p.ctx, t)
	}
	for {
		p.skipInlineWS()
		path := p.parseKeyPath()
		p.skipInlineWS()
		p.expectInline('=')
		p.skipInlineWS()
		v := p.parseValue(depth + 1)
		p.setScalar(t, path, v)
		p.skipInlineWS()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipInlineWS()
	if p.peek() == '}' {
		p.pos++
	} else {
		p.ctx.AddError("unterminated inline table")
	}
	return buildTable(p.ctx, t)
}

// parseBasicString handles both the single-line `"..."` and multi-line
// `"""..."""` basic string forms, with standard backslash escapes.
func (p *parser) parseBasicString() string {
	if strings.HasPrefix(string(p.src[p.pos:]), `"""`) {
		p.pos += 3
		if p.peek() == '\n' {
			p.pos++
		}
		end := strings.Index(string(p.src[p.pos:]), `"""`)
		if end < 0 {
			p.ctx.AddError("unterminated multi-line basic string")
			p.pos = len(p.src)
			return ""
		}
		body := decodeBasicEscapes(p.ctx, string(p.src[p.pos:p.pos+end]))
		p.pos += end + 3
		return body
	}
	p.pos++ // '"'
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '"' {
		if p.src[p.pos] == '\\' {
			p.pos++
		}
		p.pos++
	}
	body := decodeBasicEscapes(p.ctx, string(p.src[start:p.pos]))
	if p.pos < len(p.src) {
		p.pos++
	} else {
		p.ctx.AddError("unterminated string")
	}
	return body
}

func decodeBasicEscapes(ctx *input.Context, s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'u':
			if i+4 < len(s) {
				if v, err := strconv.ParseInt(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 4
					continue
				}
			}
			ctx.AddWarning("invalid \\u escape in TOML string")
		case 'U':
			if i+8 < len(s) {
				if v, err := strconv.ParseInt(s[i+1:i+9], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 8
					continue
				}
			}
			ctx.AddWarning("invalid \\U escape in TOML string")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// parseLiteralString handles `'...'` and `'''...'''`: no escape
// processing at all, per TOML's literal-string rule.
func (p *parser) parseLiteralString() string {
	if strings.HasPrefix(string(p.src[p.pos:]), "'''") {
		p.pos += 3
		if p.peek() == '\n' {
			p.pos++
		}
		end := strings.Index(string(p.src[p.pos:]), "'''")
		if end < 0 {
			p.ctx.AddError("unterminated multi-line literal string")
			p.pos = len(p.src)
			return ""
		}
		body := string(p.src[p.pos : p.pos+end])
		p.pos += end + 3
		return body
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '\'' {
		p.pos++
	}
	body := string(p.src[start:p.pos])
	if p.pos < len(p.src) {
		p.pos++
	}
	return body
}

// parseNumberOrDateTime consumes the run of bytes that make up a bare
// value token and classifies it as a datetime, integer, or float.
func (p *parser) parseNumberOrDateTime() item.Item {
	start := p.pos
	for p.pos < len(p.src) && isValueByte(p.src[p.pos]) {
		p.pos++
	}
	text := string(p.src[start:p.pos])
	if text == "" {
		p.ctx.AddError("expected a value")
		p.pos++
		return item.Null
	}

	if looksLikeDateTime(text) {
		dt, err := datetime.ParseISO8601(text)
		if err == nil {
			return p.ctx.Build.CreateDateTime(dt)
		}
		p.ctx.AddWarning("TOML value %q looks like a datetime but could not be parsed: %s", text, err)
		return p.ctx.Build.CreateString([]byte(text))
	}

	clean := strings.ReplaceAll(text, "_", "")
	if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return p.ctx.Build.CreateInt(v)
	}
	switch clean {
	case "inf", "+inf":
		return p.ctx.Build.CreateFloat(math.Inf(1))
	case "-inf":
		return p.ctx.Build.CreateFloat(math.Inf(-1))
	case "nan", "+nan", "-nan":
		return p.ctx.Build.CreateFloat(math.NaN())
	}
	if v, err := strconv.ParseFloat(clean, 64); err == nil {
		return p.ctx.Build.CreateFloat(v)
	}
	p.ctx.AddError("invalid TOML value %q", text)
	return item.Null
}

func isValueByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c == '+' || c == '-' || c == '.' || c == '_' || c == ':':
		return true
	default:
		return false
	}
}

func looksLikeDateTime(s string) bool {
	return len(s) >= 8 && s[4] == '-' && s[7] == '-'
}

func buildTable(ctx *input.Context, t *table) item.Item {
	mb := ctx.Build.NewMapBuilder()
	for _, k := range t.order {
		n := t.entries[k]
		switch n.kind {
		case nodeScalar:
			mb.Put(k, n.scalar)
		case nodeTable:
			mb.Put(k, buildTable(ctx, n.tbl))
		case nodeArrayOfTables:
			ab := ctx.Build.NewArrayBuilder(item.TagMap)
			for _, sub := range n.tableList {
				ab.Append(buildTable(ctx, sub))
			}
			mb.Put(k, ab.Final())
		}
	}
	return mb.Final()
}
