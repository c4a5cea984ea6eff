package wordidx

import (
	"hash/fnv"
	"unicode"
	"unicode/utf8"

	"scriptinsight/internal/artifact"
)

/*
Package wordidx is a lightweight, word-only indexer.

Rules:
- Keep only ident-like words: start with Unicode letter, '_' or '$' and continue with letter/digit/'_'/'$'.
- Ignore numbers and symbols; quotes and dots are delimiters, so "SpreadsheetApp.openById" yields two words.
- Lines are 1-based.
*/

// Word is a collected token and its line within a file.
type Word struct {
	Text string
	Line int
}

// Index holds words from a single file and a hash-based posting map.
type Index struct {
	Words []Word
	post  map[uint64][]int // hash -> indices into Words
}

func isStart(r rune) bool { return r == '_' || r == '$' || unicode.IsLetter(r) }
func isCont(r rune) bool  { return isStart(r) || unicode.IsDigit(r) }

// Build tokenizes one file.
func Build(src string) *Index {
	idx := &Index{post: make(map[uint64][]int)}
	line := 1
	i := 0
	for i < len(src) {
		r, w := utf8.DecodeRuneInString(src[i:])
		switch {
		case r == '\n':
			line++
			i += w
		case r == utf8.RuneError && w == 1:
			i++
		case isStart(r):
			start := i
			i += w
			for i < len(src) {
				rc, wc := utf8.DecodeRuneInString(src[i:])
				if !isCont(rc) {
					break
				}
				i += wc
			}
			idx.add(src[start:i], line)
		default:
			i += w
		}
	}
	return idx
}

func hash(word string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(word))
	return h.Sum64()
}

func (x *Index) add(word string, line int) {
	key := hash(word)
	x.post[key] = append(x.post[key], len(x.Words))
	x.Words = append(x.Words, Word{Text: word, Line: line})
}

// Find returns the lines of exact matches for word.
func (x *Index) Find(word string) []int {
	if x == nil || x.post == nil {
		return nil
	}
	var out []int
	for _, i := range x.post[hash(word)] {
		if x.Words[i].Text == word {
			out = append(out, x.Words[i].Line)
		}
	}
	return out
}

// Has reports whether word occurs at least once.
func (x *Index) Has(word string) bool {
	if x == nil || x.post == nil {
		return false
	}
	for _, i := range x.post[hash(word)] {
		if x.Words[i].Text == word {
			return true
		}
	}
	return false
}

// FileIndex ties an Index to the file it was built from.
type FileIndex struct {
	Path  string
	Index *Index
}

// PosRef ties a word occurrence to a file and line.
type PosRef struct {
	FilePath string
	Line     int
}

// UnitIndex aggregates per-file indexes of one source unit.
type UnitIndex struct {
	files []FileIndex
}

// BuildUnit indexes every code file of unit, in unit order.
func BuildUnit(unit artifact.SourceUnit) *UnitIndex {
	u := &UnitIndex{}
	for _, f := range unit.CodeFiles() {
		u.files = append(u.files, FileIndex{Path: f.Name, Index: Build(f.Source)})
	}
	return u
}

// Files returns the per-file indexes in unit order.
func (u *UnitIndex) Files() []FileIndex {
	if u == nil {
		return nil
	}
	return u.files
}

// Has reports whether any file holds word.
func (u *UnitIndex) Has(word string) bool {
	for _, f := range u.Files() {
		if f.Index.Has(word) {
			return true
		}
	}
	return false
}

// Find returns every occurrence of word across the unit.
func (u *UnitIndex) Find(word string) []PosRef {
	var out []PosRef
	for _, f := range u.Files() {
		for _, line := range f.Index.Find(word) {
			out = append(out, PosRef{FilePath: f.Path, Line: line})
		}
	}
	return out
}
