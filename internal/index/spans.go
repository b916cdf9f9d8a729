package index

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxBridgeWord is the longest word allowed between two hits that are still
// highlighted as one phrase ("отдел по продажам").
const maxBridgeWord = 3

// NormalizeQuery trims the query and brings it to NFC, the form stored text
// is kept in.
func NormalizeQuery(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

// IsWordRune reports whether r belongs to a word token.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// Word is a token with its code-point position in the source text.
type Word struct {
	Text  string
	Start int
	End   int
}

// Words splits text into maximal runs of word runes.
func Words(text string) []Word {
	var out []Word
	pos := 0
	start := -1
	startByte := 0
	for i, r := range text {
		if IsWordRune(r) {
			if start < 0 {
				start = pos
				startByte = i
			}
		} else if start >= 0 {
			out = append(out, Word{Text: text[startByte:i], Start: start, End: pos})
			start = -1
		}
		pos++
	}
	if start >= 0 {
		out = append(out, Word{Text: text[startByte:], Start: start, End: pos})
	}
	return out
}

// FindExact returns every case-insensitive occurrence of phrase in text whose
// edges fall on word boundaries. "документ" does not match inside
// "документы". Occurrences do not overlap.
func FindExact(text, phrase string) []Span {
	p := lowerRunes(NormalizeQuery(phrase))
	if len(p) == 0 {
		return nil
	}
	t := lowerRunes(text)
	if len(p) > len(t) {
		return nil
	}

	failure := kmpTable(p)
	var out []Span
	k := 0
	for i := 0; i < len(t); i++ {
		for k > 0 && t[i] != p[k] {
			k = failure[k-1]
		}
		if t[i] == p[k] {
			k++
		}
		if k < len(p) {
			continue
		}
		start, end := i-len(p)+1, i+1
		if boundaryOK(t, p, start, end) {
			out = append(out, Span{Start: start, End: end})
			k = 0
			continue
		}
		k = failure[k-1]
	}
	return out
}

func boundaryOK(t, p []rune, start, end int) bool {
	if IsWordRune(p[0]) && start > 0 && IsWordRune(t[start-1]) {
		return false
	}
	if IsWordRune(p[len(p)-1]) && end < len(t) && IsWordRune(t[end]) {
		return false
	}
	return true
}

// lowerRunes lower-cases rune by rune, so indexes into the result are
// indexes into the input.
func lowerRunes(s string) []rune {
	out := make([]rune, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}

func kmpTable(p []rune) []int {
	f := make([]int, len(p))
	k := 0
	for i := 1; i < len(p); i++ {
		for k > 0 && p[i] != p[k] {
			k = f[k-1]
		}
		if p[i] == p[k] {
			k++
		}
		f[i] = k
	}
	return f
}

// MergePhrases sorts spans and joins neighbours separated only by spaces,
// punctuation and at most one word of up to three characters. Line breaks
// are page or paragraph boundaries and are never bridged.
func MergePhrases(text []rune, spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}
	sorted := append([]Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := []Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		if bridgeable(text, last.End, s.Start) {
			last.End = s.End
			continue
		}
		out = append(out, s)
	}
	return out
}

func bridgeable(text []rune, from, to int) bool {
	if from < 0 || to > len(text) || from > to {
		return false
	}
	words := 0
	wordLen := 0
	for _, r := range text[from:to] {
		switch {
		case r == '\n' || r == '\r':
			return false
		case IsWordRune(r):
			if wordLen == 0 {
				words++
			}
			wordLen++
			if words > 1 || wordLen > maxBridgeWord {
				return false
			}
		default:
			wordLen = 0
		}
	}
	return true
}

// ByteSpansToRunes converts byte-offset spans over text to code-point spans.
// Offsets that fall inside a multi-byte sequence snap to the rune containing
// them.
func ByteSpansToRunes(text string, spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	points := make([]int, 0, len(spans)*2)
	for _, s := range spans {
		points = append(points, s.Start, s.End)
	}
	sort.Ints(points)

	conv := make(map[int]int, len(points))
	runeIdx := 0
	pi := 0
	for i := range text {
		for pi < len(points) && points[pi] <= i {
			if _, ok := conv[points[pi]]; !ok {
				conv[points[pi]] = runeIdx
				if points[pi] < i {
					conv[points[pi]] = runeIdx - 1
				}
			}
			pi++
		}
		runeIdx++
	}
	for ; pi < len(points); pi++ {
		if _, ok := conv[points[pi]]; !ok {
			conv[points[pi]] = runeIdx
		}
	}

	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		out = append(out, Span{Start: conv[s.Start], End: conv[s.End]})
	}
	return out
}
