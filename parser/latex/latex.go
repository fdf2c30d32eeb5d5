// Package latex implements the LaTeX format (§4.M2), a recursive-descent
// scanner over TeX's own lightweight grammar: control sequences,
// brace-delimited groups, environments, math mode, and comments. It
// shares the markup family's MaxDepth/entity conventions where they
// apply (there are no named entities in LaTeX, but nesting is bounded
// the same way XML/HTML/JSX nesting is).
package latex

import (
	"strings"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("latex", Parse)
}

// MaxDepth bounds group/environment/math nesting, paired with the
// shared recursion-depth counter on input.Context.
const MaxDepth = 512

// Flavor "ts" selects the tree-sitter-grammar-compatible subset: the
// same token grammar, but `%` comments are not stripped from the tree
// (tree-sitter-latex keeps comment nodes), so round-tripping preserves
// them as `comment` elements instead of discarding them.
const flavorTS = "ts"

type parser struct {
	ctx      *input.Context
	s        string
	pos      int
	depth    int
	keepComm bool
}

func (p *parser) enter() bool {
	p.depth++
	ok := p.ctx.EnterDepth()
	if ok && p.depth > MaxDepth {
		p.ctx.AddError("latex: maximum nesting depth %d exceeded", MaxDepth)
		return false
	}
	return ok
}

func (p *parser) exit() {
	p.depth--
	p.ctx.ExitDepth()
}

// Parse builds a synthetic `document` element whose children are the
// top-level commands, environments, math spans, and text runs of src.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	p := &parser{ctx: ctx, s: string(src), keepComm: ctx.Flavor == flavorTS}
	doc := ctx.Build.NewElementBuilder("document")
	p.parseGroup(doc, -1)
	ctx.Tracker.Advance(len(src))
	return doc.Final()
}

// parseGroup consumes content up to a closing brace (stopByte '}') or
// end of input (stopByte -1), appending children to eb.
func (p *parser) parseGroup(eb *builder.ElementBuilder, stopByte int) {
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			eb.Child(p.ctx.Build.CreateString([]byte(text.String())))
			text.Reset()
		}
	}
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if stopByte >= 0 && c == byte(stopByte) {
			p.pos++
			flush()
			return
		}
		switch c {
		case '%':
			flush()
			p.parseComment(eb)
		case '\\':
			flush()
			p.parseControlSequence(eb)
		case '$':
			flush()
			p.parseMath(eb)
		case '{':
			flush()
			p.pos++
			entered := p.enter()
			group := p.ctx.Build.NewElementBuilder("group")
			if entered {
				p.parseGroup(group, '}')
			}
			eb.Child(group.Final())
			p.exit()
			if !entered {
				return
			}
		default:
			text.WriteByte(c)
			p.pos++
		}
	}
	flush()
}

func (p *parser) parseComment(eb *builder.ElementBuilder) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != '\n' {
		p.pos++
	}
	text := p.s[start+1 : p.pos]
	if p.pos < len(p.s) {
		p.pos++ // consume the newline
	}
	if p.keepComm {
		cm := p.ctx.Build.NewElementBuilder("comment")
		cm.Child(p.ctx.Build.CreateString([]byte(text)))
		eb.Child(cm.Final())
	}
}

// parseControlSequence reads \name, then its optional [opts] and
// {arg} groups, dispatching \begin{env}/\end{env} to environment
// handling.
func (p *parser) parseControlSequence(eb *builder.ElementBuilder) {
	p.pos++ // consume backslash
	name, isSymbol := p.readControlWord()
	if isSymbol {
		cmd := p.ctx.Build.NewElementBuilder("command")
		cmd.Attr("name", p.ctx.Build.CreateString([]byte(name)))
		eb.Child(cmd.Final())
		return
	}
	if name == "begin" {
		p.parseEnvironment(eb)
		return
	}
	// A bare "\end" reaching here (not matched by an enclosing
	// parseEnvironment's own "\end{" lookahead) is stray; fall through
	// and emit it like any other command.
	cmd := p.ctx.Build.NewElementBuilder("command")
	cmd.Attr("name", p.ctx.Build.CreateString([]byte(name)))
	p.parseOptArg(cmd)
	for p.peekByte() == '{' {
		p.pos++
		entered := p.enter()
		arg := p.ctx.Build.NewElementBuilder("arg")
		if entered {
			p.parseGroup(arg, '}')
		}
		cmd.Child(arg.Final())
		p.exit()
		if !entered {
			break
		}
	}
	eb.Child(cmd.Final())
}

func (p *parser) peekByte() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) parseOptArg(cmd *builder.ElementBuilder) {
	if p.peekByte() != '[' {
		return
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != ']' {
		p.pos++
	}
	cmd.Attr("opt", p.ctx.Build.CreateString([]byte(p.s[start:p.pos])))
	if p.pos < len(p.s) {
		p.pos++
	}
}

// readControlWord reads the control-sequence name: a run of letters,
// or a single non-letter "symbol" control sequence like \\ or \%.
func (p *parser) readControlWord() (string, bool) {
	if p.pos >= len(p.s) {
		return "", true
	}
	if !isLetter(p.s[p.pos]) {
		c := p.s[p.pos]
		p.pos++
		return string(c), true
	}
	start := p.pos
	for p.pos < len(p.s) && isLetter(p.s[p.pos]) {
		p.pos++
	}
	// a control word may be followed by exactly one space, which TeX
	// swallows as part of the token.
	if p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
	return p.s[start:p.pos], false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseEnvironment handles \begin{name}...\end{name}, recursing into
// parseGroup for the body and checking the closing name matches.
func (p *parser) parseEnvironment(eb *builder.ElementBuilder) {
	name, ok := p.parseBraceName()
	if !ok {
		p.ctx.AddWarning("latex: \\begin without a {name} argument")
		return
	}
	entered := p.enter()
	defer p.exit()
	env := p.ctx.Build.NewElementBuilder("environment")
	if !entered {
		eb.Child(env.Final())
		return
	}
	env.Attr("name", p.ctx.Build.CreateString([]byte(name)))
	p.parseOptArg(env)

	for p.pos < len(p.s) {
		if strings.HasPrefix(p.s[p.pos:], "\\end{") {
			p.pos += len("\\end")
			endName, ok := p.parseBraceName()
			if !ok {
				p.ctx.AddWarning("latex: \\end without a {name} argument")
				break
			}
			if endName != name {
				p.ctx.AddWarning("latex: \\end{%s} does not match \\begin{%s}", endName, name)
			}
			eb.Child(env.Final())
			return
		}
		before := p.pos
		p.parseOneToken(env)
		if p.pos == before {
			break // defensive: avoid an infinite loop on unexpected input
		}
	}
	p.ctx.AddWarning("latex: unterminated environment %q", name)
	eb.Child(env.Final())
}

// parseOneToken advances past exactly one top-level construct,
// appending it to eb; used by parseEnvironment so it can check for
// \end{...} between tokens rather than only at group boundaries.
func (p *parser) parseOneToken(eb *builder.ElementBuilder) {
	c := p.peekByte()
	switch c {
	case '%':
		p.parseComment(eb)
	case '\\':
		p.parseControlSequence(eb)
	case '$':
		p.parseMath(eb)
	case '{':
		p.pos++
		entered := p.enter()
		group := p.ctx.Build.NewElementBuilder("group")
		if entered {
			p.parseGroup(group, '}')
		}
		eb.Child(group.Final())
		p.exit()
	case 0:
		return
	default:
		start := p.pos
		for p.pos < len(p.s) {
			b := p.s[p.pos]
			if b == '%' || b == '\\' || b == '$' || b == '{' || strings.HasPrefix(p.s[p.pos:], "\\end{") {
				break
			}
			p.pos++
		}
		if p.pos > start {
			eb.Child(p.ctx.Build.CreateString([]byte(p.s[start:p.pos])))
		} else {
			p.pos++
		}
	}
}

func (p *parser) parseBraceName() (string, bool) {
	if p.peekByte() != '{' {
		return "", false
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != '}' {
		p.pos++
	}
	name := p.s[start:p.pos]
	if p.pos < len(p.s) {
		p.pos++
	}
	return name, true
}

// parseMath handles inline ($...$) and display ($$...$$) math spans.
func (p *parser) parseMath(eb *builder.ElementBuilder) {
	display := strings.HasPrefix(p.s[p.pos:], "$$")
	delimLen := 1
	if display {
		delimLen = 2
	}
	p.pos += delimLen
	start := p.pos
	delim := "$"
	if display {
		delim = "$$"
	}
	idx := strings.Index(p.s[p.pos:], delim)
	if idx < 0 {
		p.ctx.AddWarning("latex: unterminated math mode")
		idx = len(p.s) - p.pos
	}
	content := p.s[start : start+idx]
	p.pos = start + idx + delimLen

	math := p.ctx.Build.NewElementBuilder("math")
	math.Attr("display", p.ctx.Build.CreateBool(display))
	math.Child(p.ctx.Build.CreateString([]byte(content)))
	eb.Child(math.Final())
}
