// Package markdown implements the CommonMark-flavored parser of §4.M2,
// registered under the "markup" format identifier (flavor "commonmark"
// or "markdown") per §6.1. It follows the block/inline two-pass shape
// common to hand-written Markdown parsers: a line-oriented block
// scanner builds the element skeleton (doc, headings, paragraphs,
// lists, blockquotes, code fences), then each text run is handed to a
// recursive-descent inline scanner for emphasis, links, code spans,
// and emoji shortcodes.
package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/entity"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("markup", Parse)
}

// MaxDepth bounds blockquote/list nesting (§4.M2 depth-limit family;
// spec.md names 512 for the other container-heavy formats).
const MaxDepth = 512

var resolver = entity.New()

// Parse drives ctx.Build to construct a `doc` element tree from a
// CommonMark-ish Markdown document.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	doc := ctx.Build.NewElementBuilder("doc")
	b := &blockParser{ctx: ctx}
	b.parseBlocks(doc, lines)
	ctx.Tracker.Advance(len(src))
	return doc.Final()
}

type blockParser struct {
	ctx   *input.Context
	depth int
}

func (b *blockParser) enter() bool {
	b.depth++
	ok := b.ctx.EnterDepth()
	if ok && b.depth > MaxDepth {
		b.ctx.AddError("maximum Markdown nesting depth %d exceeded", MaxDepth)
		return false
	}
	return ok
}

func (b *blockParser) exit() {
	b.depth--
	b.ctx.ExitDepth()
}

func (b *blockParser) parseBlocks(eb *builder.ElementBuilder, lines []string) {
	if !b.enter() {
		return
	}
	defer b.exit()

	i := 0
	for i < len(lines) {
		if b.ctx.ShouldStopParsing() {
			return
		}
		line := lines[i]
		trimmed := strings.TrimRight(line, " \t")
		level, isATX := atxLevel(trimmed)

		switch {
		case strings.TrimSpace(trimmed) == "":
			i++
		case isATX:
			text := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(trimmed[level:]), "#"))
			h := b.ctx.Build.NewElementBuilder(fmt.Sprintf("h%d", level))
			parseInline(b.ctx, h, text)
			eb.Child(h.Final())
			i++
		case isThematicBreak(trimmed):
			eb.Child(b.ctx.Build.NewElementBuilder("hr").Final())
			i++
		case isFenceStart(trimmed):
			fenceChar, fenceLen, info := parseFenceStart(trimmed)
			body, consumed := collectFenced(lines[i+1:], fenceChar, fenceLen)
			eb.Child(b.buildCodeBlock(info, strings.Join(body, "\n")))
			i += consumed + 1
		case isIndentedCode(line):
			body, consumed := collectIndented(lines[i:])
			eb.Child(b.buildCodeBlock("", strings.Join(body, "\n")))
			i += consumed
		case isBlockquoteStart(line):
			body, consumed := collectBlockquote(lines[i:])
			bq := b.ctx.Build.NewElementBuilder("blockquote")
			b.parseBlocks(bq, body)
			eb.Child(bq.Final())
			i += consumed
		case isHTMLBlockStart(line):
			body, consumed := collectHTMLBlock(lines[i:])
			hb := b.ctx.Build.NewElementBuilder("html-block")
			hb.Child(b.ctx.Build.CreateString([]byte(strings.Join(body, "\n"))))
			eb.Child(hb.Final())
			i += consumed
		case isListItemStart(line):
			items, ordered, start, consumed := collectList(lines[i:])
			tag := "ul"
			if ordered {
				tag = "ol"
			}
			list := b.ctx.Build.NewElementBuilder(tag)
			if ordered {
				list.Attr("start", strconv.Itoa(start))
			}
			for _, itemLines := range items {
				li := b.ctx.Build.NewElementBuilder("li")
				b.parseBlocks(li, itemLines)
				list.Child(li.Final())
			}
			eb.Child(list.Final())
			i += consumed
		default:
			body, consumed := collectParagraph(lines[i:])
			p := b.ctx.Build.NewElementBuilder("p")
			parseInline(b.ctx, p, strings.Join(body, "\n"))
			eb.Child(p.Final())
			i += consumed
		}
	}
}

func (b *blockParser) buildCodeBlock(info, text string) item.Item {
	pre := b.ctx.Build.NewElementBuilder("pre")
	if info != "" {
		pre.Attr("info", info)
		pre.Attr("language", strings.Fields(info)[0])
	}
	code := b.ctx.Build.NewElementBuilder("code")
	code.Attr("type", "block")
	code.Child(b.ctx.Build.CreateString([]byte(text)))
	pre.Child(code.Final())
	return pre.Final()
}

// atxLevel reports the heading level (1-6) of an ATX heading line, and
// whether trimmed actually is one (hashes followed by a space or EOL).
func atxLevel(trimmed string) (int, bool) {
	n := 0
	for n < len(trimmed) && n < 6 && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0, false
	}
	if n == len(trimmed) {
		return n, true
	}
	if trimmed[n] != ' ' && trimmed[n] != '\t' {
		return 0, false
	}
	return n, true
}

func isThematicBreak(trimmed string) bool {
	s := strings.ReplaceAll(trimmed, " ", "")
	if len(s) < 3 {
		return false
	}
	c := s[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			return false
		}
	}
	return true
}

func isFenceStart(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func parseFenceStart(trimmed string) (fenceChar byte, fenceLen int, info string) {
	fenceChar = trimmed[0]
	for fenceLen < len(trimmed) && trimmed[fenceLen] == fenceChar {
		fenceLen++
	}
	info = strings.TrimSpace(trimmed[fenceLen:])
	return
}

func collectFenced(rest []string, fenceChar byte, fenceLen int) (body []string, consumed int) {
	for i, line := range rest {
		t := strings.TrimSpace(line)
		n := 0
		for n < len(t) && n < len(t) && t[n] == fenceChar {
			n++
		}
		if n >= fenceLen && strings.TrimSpace(t[n:]) == "" && n > 0 {
			return body, i + 1
		}
		body = append(body, line)
	}
	return body, len(rest)
}

func isIndentedCode(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

func collectIndented(lines []string) (body []string, consumed int) {
	for _, line := range lines {
		if !isIndentedCode(line) && strings.TrimSpace(line) != "" {
			break
		}
		if strings.TrimSpace(line) == "" {
			body = append(body, "")
			consumed++
			continue
		}
		stripped := strings.TrimPrefix(line, "    ")
		if stripped == line {
			stripped = strings.TrimPrefix(line, "\t")
		}
		body = append(body, stripped)
		consumed++
	}
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	return body, consumed
}

func isBlockquoteStart(line string) bool {
	t := strings.TrimLeft(line, " ")
	return strings.HasPrefix(t, ">")
}

func collectBlockquote(lines []string) (body []string, consumed int) {
	for _, line := range lines {
		if !isBlockquoteStart(line) {
			break
		}
		t := strings.TrimLeft(line, " ")
		t = strings.TrimPrefix(t, ">")
		t = strings.TrimPrefix(t, " ")
		body = append(body, t)
		consumed++
	}
	return body, consumed
}

var htmlBlockTags = []string{"<div", "<p", "<table", "<pre", "<script", "<style", "<!--", "<section", "<article", "<span"}

func isHTMLBlockStart(line string) bool {
	t := strings.TrimSpace(line)
	for _, tag := range htmlBlockTags {
		if strings.HasPrefix(strings.ToLower(t), tag) {
			return true
		}
	}
	return false
}

func collectHTMLBlock(lines []string) (body []string, consumed int) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" && consumed > 0 {
			break
		}
		body = append(body, line)
		consumed++
	}
	return body, consumed
}

// listItemStart reports whether line begins a list item, and returns
// the marker width, whether it's an ordered item, and the ordered
// start number.
func listItemStart(line string) (markerLen int, ordered bool, num int, ok bool) {
	t := strings.TrimLeft(line, " ")
	indent := len(line) - len(t)
	if indent >= 4 {
		return 0, false, 0, false
	}
	if len(t) >= 2 && (t[0] == '-' || t[0] == '*' || t[0] == '+') && (t[1] == ' ' || t[1] == '\t') {
		return indent + 2, false, 0, true
	}
	digits := 0
	for digits < len(t) && t[digits] >= '0' && t[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(t) && (t[digits] == '.' || t[digits] == ')') &&
		digits+1 < len(t) && (t[digits+1] == ' ' || t[digits+1] == '\t') {
		n, _ := strconv.Atoi(t[:digits])
		return indent + digits + 2, true, n, true
	}
	return 0, false, 0, false
}

func isListItemStart(line string) bool {
	_, _, _, ok := listItemStart(line)
	return ok
}

// collectList groups contiguous list-item lines (and their indented
// continuation lines) into one list, per item.
func collectList(lines []string) (items [][]string, ordered bool, start int, consumed int) {
	first := true
	var cur []string
	curIndent := 0

	flush := func() {
		if cur != nil {
			items = append(items, cur)
		}
	}

	for consumed < len(lines) {
		line := lines[consumed]
		if markerLen, isOrdered, num, ok := listItemStart(line); ok {
			if first {
				ordered = isOrdered
				start = num
				first = false
			}
			flush()
			t := strings.TrimLeft(line, " ")
			indent := len(line) - len(t)
			curIndent = indent + markerLen - indent
			cur = []string{line[min(len(line), indent+markerLen):]}
			consumed++
			continue
		}
		if strings.TrimSpace(line) == "" {
			cur = append(cur, "")
			consumed++
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if indent >= curIndent && cur != nil {
			t := line
			if len(t) >= curIndent {
				t = t[curIndent:]
			}
			cur = append(cur, t)
			consumed++
			continue
		}
		break
	}
	flush()
	return items, ordered, start, consumed
}

func collectParagraph(lines []string) (body []string, consumed int) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			break
		}
		if consumed > 0 {
			if isATX, ok := atxLevel(strings.TrimRight(line, " \t")); ok && isATX > 0 {
				break
			}
			if isThematicBreak(strings.TrimRight(line, " \t")) || isListItemStart(line) ||
				isBlockquoteStart(line) || isFenceStart(strings.TrimSpace(line)) {
				break
			}
		}
		body = append(body, line)
		consumed++
	}
	return body, consumed
}
