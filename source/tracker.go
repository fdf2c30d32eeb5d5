// Package source implements the byte-offset to line/column cursor every
// format parser advances in lock-step with its own scan position (§4.L5).
package source

import "strings"

// Position is a single point in a source buffer.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based
}

// Tracker owns a borrowed slice of source bytes and a current position.
// It never copies the source; callers that need a stable copy (because
// their input is not stable for the parse's lifetime) do that at the
// input.Context boundary (§4.M1), not here.
type Tracker struct {
	src []byte
	pos Position
}

// New creates a Tracker positioned at the start of src.
func New(src []byte) *Tracker {
	return &Tracker{src: src, pos: Position{Line: 1, Column: 1}}
}

// Position returns the current (offset, line, column).
func (t *Tracker) Position() Position { return t.pos }

// AtEOF reports whether the tracker has consumed the whole buffer.
func (t *Tracker) AtEOF() bool { return t.pos.Offset >= len(t.src) }

// Advance moves the cursor forward by n bytes, recognizing CR, LF, and
// CRLF as line terminators. Advancing past EOF is a no-op (idempotent).
func (t *Tracker) Advance(n int) {
	end := t.pos.Offset + n
	if end > len(t.src) {
		end = len(t.src)
	}
	for t.pos.Offset < end {
		c := t.src[t.pos.Offset]
		switch c {
		case '\n':
			t.pos.Offset++
			t.pos.Line++
			t.pos.Column = 1
		case '\r':
			t.pos.Offset++
			if t.pos.Offset < len(t.src) && t.src[t.pos.Offset] == '\n' {
				t.pos.Offset++
			}
			t.pos.Line++
			t.pos.Column = 1
		default:
			t.pos.Offset++
			t.pos.Column++
		}
	}
}

// Peek returns the next n unconsumed bytes without advancing, truncated at
// EOF.
func (t *Tracker) Peek(n int) []byte {
	end := t.pos.Offset + n
	if end > len(t.src) {
		end = len(t.src)
	}
	return t.src[t.pos.Offset:end]
}

// Remaining returns every unconsumed byte.
func (t *Tracker) Remaining() []byte { return t.src[t.pos.Offset:] }

// Line extracts source line n (1-based) without its terminating newline,
// for diagnostic snippets. Returns "" if n is out of range.
func (t *Tracker) Line(n int) string {
	if n < 1 {
		return ""
	}
	line := 1
	start := 0
	for i := 0; i < len(t.src); i++ {
		if line == n && start == 0 && i == 0 {
			start = 0
		}
		c := t.src[i]
		if c == '\n' || c == '\r' {
			if line == n {
				return stripCR(t.src[start:i])
			}
			line++
			if c == '\r' && i+1 < len(t.src) && t.src[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if line == n {
		return stripCR(t.src[start:])
	}
	return ""
}

func stripCR(b []byte) string { return strings.TrimSuffix(string(b), "\r") }
