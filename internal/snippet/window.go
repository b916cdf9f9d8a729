// Package snippet carves bounded context windows around match spans.
//
// All offsets are code-point (rune) offsets. Out-of-range requests are
// clamped, never rejected.
package snippet

import "unicode/utf8"

// Window is the result of slicing text around one match.
type Window struct {
	Before  string
	Matched string
	After   string

	// Offset is the code-point offset of the window start in the full text,
	// Length its length in code points.
	Offset int
	Length int
	// HighlightStart is relative to the window start.
	HighlightStart  int
	HighlightLength int
}

// Text joins the three parts of the window.
func (w Window) Text() string {
	return w.Before + w.Matched + w.After
}

// Runes is a pre-decoded text. Use it when extracting many windows from the
// same document.
type Runes []rune

// NewRunes decodes text once.
func NewRunes(text string) Runes {
	return Runes([]rune(text))
}

// Len is the text length in code points.
func (r Runes) Len() int { return len(r) }

// Extract returns the window [start-before, end+after) around [start, end).
func (r Runes) Extract(start, end, before, after int) Window {
	n := len(r)
	start = clamp(start, 0, n)
	end = clamp(end, start, n)
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}

	from := start - before
	if from < 0 {
		from = 0
	}
	to := n
	if after < n-end {
		to = end + after
	}

	return Window{
		Before:          string(r[from:start]),
		Matched:         string(r[start:end]),
		After:           string(r[end:to]),
		Offset:          from,
		Length:          to - from,
		HighlightStart:  start - from,
		HighlightLength: end - start,
	}
}

// Extract is the single-shot form of Runes.Extract.
func Extract(text string, start, end, before, after int) Window {
	if isASCII(text) {
		return extractASCII(text, start, end, before, after)
	}
	return NewRunes(text).Extract(start, end, before, after)
}

func extractASCII(text string, start, end, before, after int) Window {
	n := len(text)
	start = clamp(start, 0, n)
	end = clamp(end, start, n)
	from := max(0, start-max(0, before))
	to := n
	if a := max(0, after); a < n-end {
		to = end + a
	}
	return Window{
		Before:          text[from:start],
		Matched:         text[start:end],
		After:           text[end:to],
		Offset:          from,
		Length:          to - from,
		HighlightStart:  start - from,
		HighlightLength: end - start,
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
