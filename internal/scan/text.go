package scan

import (
	"fmt"
	"sort"
	"strings"
)

/*
Text primitives shared by every extractor.

Rules:
- Offsets are byte offsets into the original text; lines are 1-based.
- Pair matching counts delimiters character by character. Delimiters inside
  string literals and comments are counted too; extents may over-run on such input.
- Nothing here fails: unbalanced input yields an extent that runs to end of text.
*/

// LineIndex maps byte offsets to 1-based line numbers.
type LineIndex struct {
	starts []int // offset of the first byte of each line
}

// NewLineIndex records the start offset of every line in text.
func NewLineIndex(text string) LineIndex {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return LineIndex{starts: starts}
}

// Line returns the line holding offset.
func (x LineIndex) Line(offset int) int {
	if offset < 0 {
		offset = 0
	}
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset })
	if i < 1 {
		return 1
	}
	return i
}

// Span returns how many lines [start, end) touches; at least 1.
func (x LineIndex) Span(start, end int) int {
	if end <= start {
		return 1
	}
	return x.Line(end-1) - x.Line(start) + 1
}

// BraceExtent returns the exclusive end of the {...} block opening at open.
// When text[open] is not '{' the extent is empty (end == open).
func BraceExtent(text string, open int) (end int, balanced bool) {
	return pairExtent(text, open, '{', '}')
}

// ParenExtent is BraceExtent for (...).
func ParenExtent(text string, open int) (end int, balanced bool) {
	return pairExtent(text, open, '(', ')')
}

func pairExtent(text string, open int, lo, hi byte) (int, bool) {
	if open < 0 || open >= len(text) || text[open] != lo {
		return open, false
	}
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case lo:
			depth++
		case hi:
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return len(text), false
}

// Inner strips the outer delimiters of a balanced extent text[open:end].
// An unbalanced extent keeps everything after the opener.
func Inner(text string, open, end int) string {
	if end > len(text) {
		end = len(text)
	}
	if open < 0 || end <= open+1 {
		return ""
	}
	if last := text[end-1]; last == '}' || last == ')' {
		return text[open+1 : end-1]
	}
	return text[open+1 : end]
}

// SkipSpace returns the first offset >= i that is not whitespace.
func SkipSpace(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			i++
		default:
			return i
		}
	}
	return i
}

// Window returns text[pos-before : pos+after] clamped to the text bounds.
func Window(text string, pos, before, after int) string {
	lo := pos - before
	if lo < 0 {
		lo = 0
	}
	hi := pos + after
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		return ""
	}
	return text[lo:hi]
}

// StatementEnd returns the offset just past the statement starting at i:
// the next ';' or newline, whichever comes first.
func StatementEnd(text string, i int) int {
	for j := i; j < len(text); j++ {
		if text[j] == ';' {
			return j + 1
		}
		if text[j] == '\n' {
			return j
		}
	}
	return len(text)
}

// CountLines counts lines the way editors do; empty text has zero lines.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// Location renders a file:line reference.
func Location(file string, line int) string {
	return fmt.Sprintf("%s:%d", file, line)
}
