// Package ical implements the iCal dialect of §4.M2's shared
// YAML/TOML/vCard/EML/iCal skeleton. Like vCard it is RFC 5545
// content lines with folding, but components nest (VCALENDAR contains
// VEVENT/VALARM/...), so parsing is a small recursive-descent walk
// over a stack of component builders rather than vCard's flat
// BEGIN/END pairing.
package ical

import (
	"strings"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/datetime"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("ics", Parse)
}

// dateTimeProperties lists properties whose value is parsed as an ICS
// datetime/date rather than kept as a plain string.
var dateTimeProperties = map[string]bool{
	"DTSTART": true, "DTEND": true, "DTSTAMP": true, "CREATED": true,
	"LAST-MODIFIED": true, "COMPLETED": true, "DUE": true, "RECURRENCE-ID": true,
	"EXDATE": true, "RDATE": true,
}

type component struct {
	name     string
	props    *builder.MapBuilder
	groups   map[string][]item.Item
	order    []string
	children []item.Item
}

// Parse unfolds continuation lines, then walks nested BEGIN/END
// components into a tree of map items: each component is a map with a
// `type` key, one key per property (arrays for repeats), and a
// `components` array of nested child components.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	lines := unfold(src)

	var stack []*component

	for _, line := range lines {
		if ctx.ShouldStopParsing() {
			break
		}
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		upper := strings.ToUpper(t)
		switch {
		case strings.HasPrefix(upper, "BEGIN:"):
			name := strings.TrimSpace(t[len("BEGIN:"):])
			stack = append(stack, &component{
				name:   name,
				props:  ctx.Build.NewMapBuilder(),
				groups: make(map[string][]item.Item),
			})
		case strings.HasPrefix(upper, "END:"):
			if len(stack) == 0 {
				ctx.AddWarning("ical: END without matching BEGIN")
				continue
			}
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			built := finalizeComponent(ctx, cur)
			if len(stack) == 0 {
				return finishRoot(ctx, src, built)
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, built)
		default:
			if len(stack) == 0 {
				ctx.AddWarning("ical: property line outside any component: %q", t)
				continue
			}
			cur := stack[len(stack)-1]
			name, params, rawValue, ok := parseProperty(t)
			if !ok {
				ctx.AddWarning("ical: malformed property line: %q", t)
				continue
			}
			key := strings.ToLower(name)
			entry := ctx.Build.NewMapBuilder()
			entry.Put("value", valueItem(ctx, name, rawValue))
			if len(params) > 0 {
				pm := ctx.Build.NewMapBuilder()
				for _, p := range params {
					pm.Put(strings.ToLower(p.name), ctx.Build.CreateString([]byte(p.value)))
				}
				entry.Put("params", pm.Final())
			}
			if _, seen := cur.groups[key]; !seen {
				cur.order = append(cur.order, key)
			}
			cur.groups[key] = append(cur.groups[key], entry.Final())
		}
	}
	for len(stack) > 0 {
		ctx.AddWarning("ical: unterminated BEGIN:%s at end of input", stack[len(stack)-1].name)
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		built := finalizeComponent(ctx, cur)
		if len(stack) == 0 {
			return finishRoot(ctx, src, built)
		}
		stack[len(stack)-1].children = append(stack[len(stack)-1].children, built)
	}
	ctx.Tracker.Advance(len(src))
	return item.Null
}

func finishRoot(ctx *input.Context, src []byte, root item.Item) item.Item {
	ctx.Tracker.Advance(len(src))
	return root
}

func valueItem(ctx *input.Context, propName, raw string) item.Item {
	if dateTimeProperties[strings.ToUpper(propName)] {
		if dt, err := datetime.ParseICS(raw); err == nil {
			return ctx.Build.CreateDateTime(dt)
		}
	}
	return ctx.Build.CreateString([]byte(raw))
}

func finalizeComponent(ctx *input.Context, c *component) item.Item {
	c.props.Put("type", ctx.Build.CreateString([]byte(c.name)))
	for _, key := range c.order {
		vals := c.groups[key]
		if len(vals) == 1 {
			c.props.Put(key, vals[0])
		} else {
			arr := ctx.Build.NewArrayBuilder(item.AnyType)
			for _, v := range vals {
				arr.Append(v)
			}
			c.props.Put(key, arr.Final())
		}
	}
	if len(c.children) > 0 {
		arr := ctx.Build.NewArrayBuilder(item.AnyType)
		for _, ch := range c.children {
			arr.Append(ch)
		}
		c.props.Put("components", arr.Final())
	}
	return c.props.Final()
}

// unfold joins RFC 5545 folded continuation lines.
func unfold(src []byte) []string {
	normalized := strings.ReplaceAll(strings.ReplaceAll(string(src), "\r\n", "\n"), "\r", "\n")
	raw := strings.Split(normalized, "\n")
	var lines []string
	for _, l := range raw {
		if (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += l[1:]
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

type param struct{ name, value string }

func parseProperty(line string) (name string, params []param, value string, ok bool) {
	colon := findUnquotedByte(line, ':')
	if colon < 0 {
		return "", nil, "", false
	}
	head := line[:colon]
	value = line[colon+1:]

	parts := splitUnquoted(head, ';')
	if len(parts) == 0 {
		return "", nil, "", false
	}
	name = parts[0]
	for _, p := range parts[1:] {
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			params = append(params, param{name: p, value: ""})
			continue
		}
		params = append(params, param{name: p[:eq], value: p[eq+1:]})
	}
	return name, params, value, true
}

func findUnquotedByte(s string, c byte) int {
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case c:
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}

func splitUnquoted(s string, sep byte) []string {
	var out []string
	start := 0
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case sep:
			if !inQuotes {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
