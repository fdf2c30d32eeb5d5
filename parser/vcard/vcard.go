// Package vcard implements the vCard dialect of §4.M2's shared
// YAML/TOML/vCard/EML/iCal skeleton: a per-line lexer (with RFC 6350
// folding/unfolding) over a simple state machine (outside a card,
// inside a card), producing map items with meaningful key names.
package vcard

import (
	"strings"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("vcf", Parse)
}

// Parse unfolds continuation lines, then scans BEGIN:VCARD/END:VCARD
// blocks into an array of card maps. A bare property outside any
// BEGIN/END block is a warning, not an error (recoverable per §4.M2).
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	lines := unfold(src)

	cards := ctx.Build.NewArrayBuilder(item.AnyType)
	var card *builder.MapBuilder
	var groups map[string][]item.Item
	var groupOrder []string

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
			card = ctx.Build.NewMapBuilder()
			groups = make(map[string][]item.Item)
			groupOrder = nil
		case strings.HasPrefix(upper, "END:"):
			if card == nil {
				ctx.AddWarning("vcard: END without matching BEGIN")
				continue
			}
			for _, key := range groupOrder {
				vals := groups[key]
				if len(vals) == 1 {
					card.Put(key, vals[0])
				} else {
					arr := ctx.Build.NewArrayBuilder(item.AnyType)
					for _, v := range vals {
						arr.Append(v)
					}
					card.Put(key, arr.Final())
				}
			}
			cards.Append(card.Final())
			card = nil
		default:
			if card == nil {
				ctx.AddWarning("vcard: property line outside BEGIN/END block: %q", t)
				continue
			}
			name, params, value, ok := parseProperty(t)
			if !ok {
				ctx.AddWarning("vcard: malformed property line: %q", t)
				continue
			}
			key := strings.ToLower(name)
			entry := ctx.Build.NewMapBuilder()
			entry.Put("value", ctx.Build.CreateString([]byte(value)))
			if len(params) > 0 {
				pm := ctx.Build.NewMapBuilder()
				for _, p := range params {
					pm.Put(strings.ToLower(p.name), ctx.Build.CreateString([]byte(p.value)))
				}
				entry.Put("params", pm.Final())
			}
			if _, seen := groups[key]; !seen {
				groupOrder = append(groupOrder, key)
			}
			groups[key] = append(groups[key], entry.Final())
		}
	}
	if card != nil {
		ctx.AddWarning("vcard: unterminated BEGIN block at end of input")
	}
	ctx.Tracker.Advance(len(src))
	return cards.Final()
}

// unfold joins RFC 6350 folded continuation lines (a line starting
// with a space or tab continues the previous line, with the leading
// whitespace byte removed) and normalizes CRLF/CR to LF.
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

// parseProperty splits "GROUP.NAME;PARAM=V;PARAM2=V2:VALUE" into its
// name, parameter list, and value, per RFC 6350 content-line grammar.
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
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		name = name[dot+1:]
	}
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

// findUnquotedByte finds the first occurrence of c outside a
// double-quoted span (vCard parameter values may be quoted and contain
// a literal ':' or ';').
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
