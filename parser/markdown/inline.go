package markdown

import (
	"strings"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/entity"
	"github.com/lambda-doc/lambda/input"
)

// inlineScanner walks one text run (a paragraph, heading, or list-item
// body) emitting text/entity/emoji/emphasis/link/code-span/raw-html
// children into an ElementBuilder. It is recursive for nested emphasis
// and link label text, bounded by the shared depth counter.
type inlineScanner struct {
	ctx   *input.Context
	s     string
	pos   int
	depth int
}

func parseInline(ctx *input.Context, eb *builder.ElementBuilder, text string) {
	s := &inlineScanner{ctx: ctx, s: text}
	s.run(eb)
}

func (s *inlineScanner) run(eb *builder.ElementBuilder) {
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			eb.Child(s.ctx.Build.CreateString([]byte(buf.String())))
			buf.Reset()
		}
	}

	for s.pos < len(s.s) {
		c := s.s[s.pos]
		switch {
		case c == '\\' && s.pos+1 < len(s.s) && isASCIIPunct(s.s[s.pos+1]):
			buf.WriteByte(s.s[s.pos+1])
			s.pos += 2
		case c == '\n':
			flush()
			if s.pos >= 2 && s.s[s.pos-1] == ' ' && s.s[s.pos-2] == ' ' {
				eb.Child(s.ctx.Build.NewElementBuilder("br").Final())
			} else {
				eb.Child(s.ctx.Build.NewElementBuilder("softbreak").Final())
			}
			s.pos++
		case c == '`':
			flush()
			if ok := s.tryCodeSpan(eb); !ok {
				buf.WriteByte(c)
				s.pos++
			}
		case c == '&':
			s.scanEntity(&buf)
		case c == ':':
			flush()
			if ok := s.tryEmoji(eb); !ok {
				buf.WriteByte(c)
				s.pos++
			} else {
				continue
			}
		case c == '*' || c == '_':
			flush()
			if !s.tryEmphasis(eb, c) {
				buf.WriteByte(c)
				s.pos++
			}
		case c == '!' && s.pos+1 < len(s.s) && s.s[s.pos+1] == '[':
			flush()
			if !s.tryImage(eb) {
				buf.WriteByte(c)
				s.pos++
			}
		case c == '[':
			flush()
			if !s.tryLink(eb) {
				buf.WriteByte(c)
				s.pos++
			}
		case c == '<':
			flush()
			if !s.tryRawHTML(eb) {
				buf.WriteByte(c)
				s.pos++
			}
		default:
			buf.WriteByte(c)
			s.pos++
		}
	}
	flush()
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}

// tryCodeSpan handles a run of one or more backticks as a delimiter,
// per CommonMark: content runs until a closing run of equal length.
func (s *inlineScanner) tryCodeSpan(eb *builder.ElementBuilder) bool {
	start := s.pos
	n := 0
	for s.pos+n < len(s.s) && s.s[s.pos+n] == '`' {
		n++
	}
	contentStart := s.pos + n
	idx := contentStart
	for idx < len(s.s) {
		if s.s[idx] == '`' {
			m := 0
			for idx+m < len(s.s) && s.s[idx+m] == '`' {
				m++
			}
			if m == n {
				content := s.s[contentStart:idx]
				content = strings.TrimPrefix(content, " ")
				content = strings.TrimSuffix(content, " ")
				content = strings.ReplaceAll(content, "\n", " ")
				code := s.ctx.Build.NewElementBuilder("code")
				code.Attr("type", "inline")
				code.Child(s.ctx.Build.CreateString([]byte(content)))
				eb.Child(code.Final())
				s.pos = idx + m
				return true
			}
			idx += m
			continue
		}
		idx++
	}
	s.pos = start
	return false
}

// tryEmphasis handles a run of `*` or `_` as emphasis/strong delimiters
// by a simplified matching rule: find the next run of equal or
// compatible length and recurse on the enclosed text. This does not
// implement CommonMark's full left/right-flanking delimiter algorithm.
func (s *inlineScanner) tryEmphasis(eb *builder.ElementBuilder, delim byte) bool {
	start := s.pos
	n := 0
	for s.pos+n < len(s.s) && s.s[s.pos+n] == delim {
		n++
	}
	if n == 0 {
		return false
	}
	runLen := 2
	if n < 2 {
		runLen = 1
	}
	contentStart := s.pos + runLen
	closeIdx := findClosingRun(s.s, contentStart, delim, runLen)
	if closeIdx < 0 {
		s.pos = start
		return false
	}
	inner := s.s[contentStart:closeIdx]
	if strings.TrimSpace(inner) == "" {
		s.pos = start
		return false
	}
	tag := "em"
	if runLen == 2 {
		tag = "strong"
	}
	el := s.ctx.Build.NewElementBuilder(tag)
	if !s.enter() {
		return false
	}
	parseInline(s.ctx, el, inner)
	s.exit()
	eb.Child(el.Final())
	s.pos = closeIdx + runLen
	return true
}

func findClosingRun(text string, from int, delim byte, runLen int) int {
	i := from
	for i < len(text) {
		if text[i] == delim {
			n := 0
			for i+n < len(text) && text[i+n] == delim {
				n++
			}
			if n >= runLen {
				return i
			}
			i += n
			continue
		}
		i++
	}
	return -1
}

func (s *inlineScanner) enter() bool {
	s.depth++
	ok := s.ctx.EnterDepth()
	if ok && s.depth > MaxDepth {
		s.ctx.AddError("maximum Markdown inline nesting depth %d exceeded", MaxDepth)
		return false
	}
	return ok
}

func (s *inlineScanner) exit() {
	s.depth--
	s.ctx.ExitDepth()
}

// parseLinkLabel scans a balanced `[...]` starting at s.pos (which must
// point at '['), returning the label text and the index just past ']'.
func parseLinkLabel(text string, pos int) (label string, end int, ok bool) {
	if pos >= len(text) || text[pos] != '[' {
		return "", 0, false
	}
	depth := 1
	i := pos + 1
	for i < len(text) {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[pos+1 : i], i + 1, true
			}
		case '\\':
			i++
		}
		i++
	}
	return "", 0, false
}

// parseLinkDest scans a `(url "title")` construct starting at pos
// (which must point at '(').
func parseLinkDest(text string, pos int) (dest, title string, end int, ok bool) {
	if pos >= len(text) || text[pos] != '(' {
		return "", "", 0, false
	}
	i := pos + 1
	for i < len(text) && text[i] == ' ' {
		i++
	}
	destStart := i
	for i < len(text) && text[i] != ' ' && text[i] != ')' {
		i++
	}
	dest = text[destStart:i]
	for i < len(text) && text[i] == ' ' {
		i++
	}
	if i < len(text) && (text[i] == '"' || text[i] == '\'') {
		q := text[i]
		i++
		titleStart := i
		for i < len(text) && text[i] != q {
			i++
		}
		title = text[titleStart:i]
		if i < len(text) {
			i++
		}
		for i < len(text) && text[i] == ' ' {
			i++
		}
	}
	if i >= len(text) || text[i] != ')' {
		return "", "", 0, false
	}
	return dest, title, i + 1, true
}

func (s *inlineScanner) tryLink(eb *builder.ElementBuilder) bool {
	label, afterLabel, ok := parseLinkLabel(s.s, s.pos)
	if !ok || afterLabel >= len(s.s) || s.s[afterLabel] != '(' {
		return false
	}
	dest, title, afterDest, ok := parseLinkDest(s.s, afterLabel)
	if !ok {
		return false
	}
	a := s.ctx.Build.NewElementBuilder("a")
	a.Attr("href", dest)
	if title != "" {
		a.Attr("title", title)
	}
	if !s.enter() {
		return false
	}
	parseInline(s.ctx, a, label)
	s.exit()
	eb.Child(a.Final())
	s.pos = afterDest
	return true
}

func (s *inlineScanner) tryImage(eb *builder.ElementBuilder) bool {
	if s.s[s.pos] != '!' {
		return false
	}
	label, afterLabel, ok := parseLinkLabel(s.s, s.pos+1)
	if !ok || afterLabel >= len(s.s) || s.s[afterLabel] != '(' {
		return false
	}
	src, title, afterDest, ok := parseLinkDest(s.s, afterLabel)
	if !ok {
		return false
	}
	img := s.ctx.Build.NewElementBuilder("img")
	img.Attr("src", src)
	img.Attr("alt", label)
	if title != "" {
		img.Attr("title", title)
	}
	eb.Child(img.Final())
	s.pos = afterDest
	return true
}

// tryRawHTML recognizes an inline HTML tag or autolink starting at '<'.
func (s *inlineScanner) tryRawHTML(eb *builder.ElementBuilder) bool {
	rest := s.s[s.pos:]
	end := strings.IndexByte(rest, '>')
	if end < 0 {
		return false
	}
	tag := rest[:end+1]
	inner := tag[1 : len(tag)-1]
	if strings.HasPrefix(inner, "http://") || strings.HasPrefix(inner, "https://") || strings.HasPrefix(inner, "mailto:") {
		a := s.ctx.Build.NewElementBuilder("a")
		a.Attr("href", inner)
		a.Child(s.ctx.Build.CreateString([]byte(inner)))
		eb.Child(a.Final())
		s.pos += end + 1
		return true
	}
	trimmed := strings.TrimPrefix(inner, "/")
	if len(trimmed) == 0 || !isNameStart(trimmed[0]) {
		return false
	}
	raw := s.ctx.Build.NewElementBuilder("raw-html")
	raw.Child(s.ctx.Build.CreateString([]byte(tag)))
	eb.Child(raw.Final())
	s.pos += end + 1
	return true
}

func isNameStart(c byte) bool {
	return c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// tryEmoji recognizes a `:name:` shortcode. Unknown or malformed
// shortcodes are left as literal text by the caller.
func (s *inlineScanner) tryEmoji(eb *builder.ElementBuilder) bool {
	rest := s.s[s.pos+1:]
	i := 0
	for i < len(rest) && isShortcodeByte(rest[i]) {
		i++
	}
	if i == 0 || i >= len(rest) || rest[i] != ':' {
		return false
	}
	name := rest[:i]
	eb.Child(s.ctx.Build.CreateSymbol([]byte(name), nil))
	s.pos += i + 2
	return true
}

func isShortcodeByte(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scanEntity mirrors parser/xml and parser/html's entity handling:
// ascii, unicode-space, and named entities all decode inline into the
// pending text buffer; only an unknown entity is preserved verbatim.
func (s *inlineScanner) scanEntity(buf *strings.Builder) {
	end := strings.IndexByte(s.s[s.pos:], ';')
	if end < 0 || end > 32 {
		buf.WriteByte('&')
		s.pos++
		return
	}
	ref := s.s[s.pos+1 : s.pos+end]
	if strings.HasPrefix(ref, "#") {
		cp, err := entity.DecodeNumericRef(ref[1:])
		if err != nil {
			s.ctx.AddWarning("invalid numeric character reference &%s;", ref)
			buf.WriteRune(entity.ReplacementChar)
		} else {
			buf.WriteRune(cp)
		}
		s.pos += end + 1
		return
	}
	e, ok := resolver.Lookup(ref)
	if !ok {
		buf.WriteString("&" + ref + ";")
		s.pos += end + 1
		return
	}
	switch e.Kind {
	case entity.KindAscii, entity.KindUnicodeSpace, entity.KindNamed:
		buf.WriteRune(e.Codepoint)
	case entity.KindComposed:
		buf.WriteString(e.Text)
	}
	s.pos += end + 1
}
