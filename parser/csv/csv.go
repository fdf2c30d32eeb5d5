// Package csv implements the CSV/TSV format parser of §4.M2: separator
// and header auto-detection from the first line, followed by a
// quote-aware record scanner.
package csv

import (
	"strings"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("csv", Parse)
	input.Register("tsv", Parse)
}

// Parse drives ctx.Build to construct an array-of-rows item from a CSV or
// TSV document.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	sep := detectSeparator(firstLine(src))
	records := scanRecords(src, sep)
	ctx.Tracker.Advance(len(src))
	if len(records) == 0 {
		return ctx.Build.NewArrayBuilder(item.AnyType).Final()
	}

	if hasHeader(records[0]) {
		return buildWithHeader(ctx, records)
	}
	return buildWithoutHeader(ctx, records)
}

// firstLine returns the source up to (excluding) the first unquoted
// newline, for separator detection (§4.M2: auto-detection is local to the
// first line).
func firstLine(src []byte) []byte {
	inQuotes := false
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				return []byte(strings.TrimSuffix(string(src[:i]), "\r"))
			}
		}
	}
	return src
}

// detectSeparator picks tab or comma by majority count in line, comma on
// a tie or absence of either.
func detectSeparator(line []byte) byte {
	commas := strings.Count(string(line), ",")
	tabs := strings.Count(string(line), "\t")
	if tabs > commas {
		return '\t'
	}
	return ','
}

// scanRecords tokenizes src into rows of fields, honoring doubled-quote
// escapes and quoted fields that span embedded separators or newlines.
func scanRecords(src []byte, sep byte) [][]string {
	var records [][]string
	var fields []string
	var field strings.Builder
	inQuotes := false
	i := 0
	n := len(src)
	rowHasContent := false

	flushField := func() {
		fields = append(fields, field.String())
		field.Reset()
	}
	flushRow := func() {
		flushField()
		records = append(records, fields)
		fields = nil
		rowHasContent = false
	}

	for i < n {
		c := src[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < n && src[i+1] == '"' {
					field.WriteByte('"')
					i += 2
					continue
				}
				inQuotes = false
				i++
				continue
			}
			field.WriteByte(c)
			i++
		case c == '"' && field.Len() == 0:
			inQuotes = true
			rowHasContent = true
			i++
		case c == sep:
			flushField()
			rowHasContent = true
			i++
		case c == '\r':
			i++
		case c == '\n':
			if rowHasContent || field.Len() > 0 || len(fields) > 0 {
				flushRow()
			}
			i++
		default:
			field.WriteByte(c)
			rowHasContent = true
			i++
		}
	}
	if rowHasContent || field.Len() > 0 || len(fields) > 0 {
		flushRow()
	}
	return records
}

// hasHeader reports whether row looks like a header: any field containing
// a character other than digits, a single decimal point, or a leading
// minus sign (§4.M2).
func hasHeader(row []string) bool {
	for _, f := range row {
		if looksLikeHeaderField(f) {
			return true
		}
	}
	return false
}

func looksLikeHeaderField(f string) bool {
	if f == "" {
		return false
	}
	dots := 0
	for i, r := range f {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return true
			}
		case r == '-' && i == 0:
		default:
			return true
		}
	}
	return false
}

func buildWithHeader(ctx *input.Context, records [][]string) item.Item {
	header := records[0]
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			ctx.AddWarning("CSV header contains an empty column name")
			continue
		}
		if seen[h] {
			ctx.AddWarning("CSV header contains duplicate column name %q", h)
			continue
		}
		seen[h] = true
	}

	ab := ctx.Build.NewArrayBuilder(item.TagMap)
	for _, row := range records[1:] {
		if len(row) != len(header) {
			ctx.AddWarning("CSV row has %d fields, header declares %d", len(row), len(header))
		}
		mb := ctx.Build.NewMapBuilder()
		for i, name := range header {
			if i >= len(row) {
				break
			}
			mb.Put(name, ctx.Build.CreateString([]byte(row[i])))
		}
		ab.Append(mb.Final())
	}
	return ab.Final()
}

func buildWithoutHeader(ctx *input.Context, records [][]string) item.Item {
	ab := ctx.Build.NewArrayBuilder(item.TagArray)
	for _, row := range records {
		rb := ctx.Build.NewArrayBuilder(item.TagString)
		for _, f := range row {
			rb.Append(ctx.Build.CreateString([]byte(f)))
		}
		ab.Append(rb.Final())
	}
	return ab.Final()
}
