// Package eml implements the EML dialect of §4.M2's shared
// YAML/TOML/vCard/EML/iCal skeleton: an RFC 5322 header lexer (with
// the same folding rule as vCard/iCal) followed by a MIME-aware body
// split when the message declares a multipart Content-Type.
package eml

import (
	"mime"
	"strings"

	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() {
	input.Register("eml", Parse)
}

// Parse produces a map with a `headers` map (one key per lower-cased
// header name, `AnyType` array for repeats, in first-seen order), and
// a `body` that is either a string (single-part message) or an array
// of part maps (each itself a `headers`/`body` pair) when the message
// declares a multipart Content-Type with a boundary.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	msg := parseMessage(ctx, src)
	ctx.Tracker.Advance(len(src))
	return msg
}

func parseMessage(ctx *input.Context, src []byte) item.Item {
	headerLines, bodyStart := splitHeaders(src)
	headers, order := parseHeaders(ctx, headerLines)

	root := ctx.Build.NewMapBuilder()
	hm := ctx.Build.NewMapBuilder()
	for _, key := range order {
		vals := headers[key]
		if len(vals) == 1 {
			hm.Put(key, ctx.Build.CreateString([]byte(vals[0])))
		} else {
			arr := ctx.Build.NewArrayBuilder(item.AnyType)
			for _, v := range vals {
				arr.Append(ctx.Build.CreateString([]byte(v)))
			}
			hm.Put(key, arr.Final())
		}
	}
	root.Put("headers", hm.Final())

	body := src[bodyStart:]
	ct := firstHeader(headers, "content-type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err == nil && strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "" {
		parts := splitMultipart(body, params["boundary"])
		arr := ctx.Build.NewArrayBuilder(item.AnyType)
		for _, p := range parts {
			arr.Append(parseMessage(ctx, p))
		}
		root.Put("body", arr.Final())
	} else {
		root.Put("body", ctx.Build.CreateString(body))
	}
	return root.Final()
}

func firstHeader(headers map[string][]string, key string) string {
	vals := headers[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// splitHeaders returns the raw header lines (already unfolded) and the
// byte offset in src where the body begins, per RFC 5322: headers end
// at the first blank line.
func splitHeaders(src []byte) (lines []string, bodyStart int) {
	normalized := strings.ReplaceAll(strings.ReplaceAll(string(src), "\r\n", "\n"), "\r", "\n")
	raw := strings.Split(normalized, "\n")

	offset := 0
	headerEnd := len(raw)
	for i, l := range raw {
		if l == "" {
			headerEnd = i
			break
		}
	}
	for i := 0; i < headerEnd; i++ {
		offset += len(raw[i]) + 1
	}
	if headerEnd < len(raw) {
		offset += 1 // skip the blank line itself
	}
	if offset > len(src) {
		offset = len(src)
	}

	rawHeaders := raw[:headerEnd]
	for _, l := range rawHeaders {
		if (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += " " + strings.TrimSpace(l)
			continue
		}
		lines = append(lines, l)
	}
	return lines, offset
}

func parseHeaders(ctx *input.Context, lines []string) (map[string][]string, []string) {
	headers := make(map[string][]string)
	var order []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		colon := strings.IndexByte(l, ':')
		if colon < 0 {
			ctx.AddWarning("eml: malformed header line: %q", l)
			continue
		}
		name := strings.ToLower(strings.TrimSpace(l[:colon]))
		value := strings.TrimSpace(l[colon+1:])
		if _, seen := headers[name]; !seen {
			order = append(order, name)
		}
		headers[name] = append(headers[name], value)
	}
	return headers, order
}

// splitMultipart splits body on a MIME boundary, discarding preamble
// and epilogue, and stripping each part's leading CRLF.
func splitMultipart(body []byte, boundary string) [][]byte {
	delim := "--" + boundary
	text := string(body)
	segments := strings.Split(text, delim)
	var parts [][]byte
	for i, seg := range segments {
		if i == 0 {
			continue // preamble before the first boundary
		}
		if strings.HasPrefix(seg, "--") {
			break // closing boundary
		}
		seg = strings.TrimPrefix(seg, "\n")
		seg = strings.TrimPrefix(seg, "\r\n")
		seg = strings.TrimSuffix(seg, "\r\n")
		seg = strings.TrimSuffix(seg, "\n")
		parts = append(parts, []byte(seg))
	}
	return parts
}
