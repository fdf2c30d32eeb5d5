// Package mdx implements the MDX dialect of §4.M2: Markdown text with
// embedded `<...>` tags, each dispatched to either the JSX parser
// (uppercase tag name) or the HTML parser (lowercase tag name), per
// spec. The parsed result is an `mdx_document > body` element tree.
package mdx

import (
	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/diag"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/reader"

	_ "github.com/lambda-doc/lambda/parser/html"
	_ "github.com/lambda-doc/lambda/parser/jsx"
	_ "github.com/lambda-doc/lambda/parser/markdown"
)

func init() {
	input.Register("mdx", Parse)
}

// Parse scans src for top-level `<...>` tag blocks, dispatching each to
// the jsx or html parser by the tag's first-letter case, and feeds the
// plain-text runs between tag blocks through the markdown parser. Each
// sub-parse's own synthetic top-level wrapper (jsx/html's `document`,
// markdown's `doc`) is unwrapped so its children splice directly into
// `body`.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	root := ctx.Build.NewElementBuilder("mdx_document")
	body := ctx.Build.NewElementBuilder("body")

	pos := 0
	textStart := 0
	for pos < len(src) {
		if src[pos] != '<' || pos+1 >= len(src) {
			pos++
			continue
		}
		c := src[pos+1]
		if c == '/' || !isNameStartByte(c) {
			// A stray closing tag, or '<' not starting a name, isn't a
			// block start at the top level.
			pos++
			continue
		}
		end := matchTagBlock(src, pos)
		flushText(ctx, body, src[textStart:pos])
		dispatchTag(ctx, body, src[pos:end], c)
		pos = end
		textStart = pos
	}
	flushText(ctx, body, src[textStart:])

	root.Child(body.Final())
	ctx.Tracker.Advance(len(src))
	return root.Final()
}

func isNameStartByte(c byte) bool {
	return c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func flushText(ctx *input.Context, body *builder.ElementBuilder, text []byte) {
	if len(text) == 0 {
		return
	}
	sub := input.FromSource(text, ctx.Base, "markup", "")
	mergeDiagnostics(ctx, sub)
	spliceChildren(body, sub.Root)
}

func dispatchTag(ctx *input.Context, body *builder.ElementBuilder, block []byte, firstNameByte byte) {
	format := "html"
	if isUpper(firstNameByte) {
		format = "jsx"
	}
	sub := input.FromSource(block, ctx.Base, format, "")
	mergeDiagnostics(ctx, sub)
	spliceChildren(body, sub.Root)
}

// mergeDiagnostics replays a sub-parse's collected diagnostics into the
// outer MDX context so no recoverable issue from an embedded JSX/HTML
// tag or Markdown run is silently dropped. Sub-contexts parse an
// isolated byte slice, so positions are relative to that slice rather
// than the outer document; the replayed message says so explicitly
// instead of claiming a precise outer-document location it doesn't have.
func mergeDiagnostics(ctx *input.Context, sub *input.Context) {
	for _, d := range sub.Diag.Items() {
		switch d.Severity {
		case diag.Error:
			ctx.AddError("embedded %s: %s (at sub-offset %v)", sub.Format, d.Message, d.Pos)
		case diag.Warning:
			ctx.AddWarning("embedded %s: %s (at sub-offset %v)", sub.Format, d.Message, d.Pos)
		case diag.Note:
			ctx.AddNote("embedded %s: %s (at sub-offset %v)", sub.Format, d.Message, d.Pos)
		}
	}
}

// spliceChildren unwraps a synthetic wrapper element (jsx/html's
// `document`, markdown's `doc`) and appends its children directly,
// since `body` already serves as MDX's own top-level container.
func spliceChildren(body *builder.ElementBuilder, wrapper item.Item) {
	r := reader.Of(wrapper)
	if !r.IsElement() {
		if !r.IsNull() {
			body.Child(wrapper)
		}
		return
	}
	el := r.AsElement()
	for i := 0; i < el.ChildCount(); i++ {
		body.Child(el.ChildAt(i))
	}
}

// matchTagBlock finds the end (exclusive) of the balanced tag block
// starting at src[start] == '<', tracking nested open/close tags by
// depth and respecting quoted attribute values and brace expressions.
// If the source ends before the outer tag closes, the block runs to
// EOF.
func matchTagBlock(src []byte, start int) int {
	pos := start
	depth := 0
	for pos < len(src) {
		if src[pos] != '<' {
			pos++
			continue
		}
		if pos+1 < len(src) && src[pos+1] == '/' {
			pos = skipToGT(src, pos)
			depth--
			if depth <= 0 {
				return pos
			}
			continue
		}
		headerEnd, selfClosing := scanTagHeader(src, pos)
		pos = headerEnd
		if !selfClosing {
			depth++
		}
		if depth == 0 {
			// the outermost tag was self-closing
			return pos
		}
	}
	return pos
}

// scanTagHeader scans from '<' through the end of the opening tag
// (">" or "/>"), respecting quoted attribute values and `{...}` brace
// expressions so an embedded `>` inside either doesn't end the tag
// early.
func scanTagHeader(src []byte, start int) (end int, selfClosing bool) {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '"', '\'':
			q := src[i]
			i++
			for i < len(src) && src[i] != q {
				i++
			}
			i++
		case '{':
			depth := 1
			i++
			for i < len(src) && depth > 0 {
				if src[i] == '{' {
					depth++
				} else if src[i] == '}' {
					depth--
				}
				i++
			}
		case '/':
			if i+1 < len(src) && src[i+1] == '>' {
				return i + 2, true
			}
			i++
		case '>':
			return i + 1, false
		default:
			i++
		}
	}
	return i, false
}

func skipToGT(src []byte, start int) int {
	i := start
	for i < len(src) && src[i] != '>' {
		i++
	}
	if i < len(src) {
		i++
	}
	return i
}
