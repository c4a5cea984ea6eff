package logic

import (
	"regexp"
	"strings"
	"unicode"

	"scriptinsight/internal/config"
)

var reIdent = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

// Vocab decides whether code text talks about the business domain.
type Vocab struct {
	domain map[string]bool
	field  map[string]bool
}

func NewVocab(tun config.Tuning) Vocab {
	v := Vocab{domain: map[string]bool{}, field: map[string]bool{}}
	for _, t := range tun.DomainTerms {
		v.domain[strings.ToLower(t)] = true
	}
	for _, t := range tun.FieldTerms {
		v.field[strings.ToLower(t)] = true
	}
	return v
}

// Passes reports whether any identifier in text carries a domain word.
func (v Vocab) Passes(text string) bool {
	for _, id := range reIdent.FindAllString(text, -1) {
		for _, w := range SplitWords(id) {
			if v.domain[w] {
				return true
			}
		}
	}
	return false
}

// FieldPasses is Passes widened with generic form-field words.
func (v Vocab) FieldPasses(name string) bool {
	for _, id := range reIdent.FindAllString(name, -1) {
		for _, w := range SplitWords(id) {
			if v.domain[w] || v.field[w] {
				return true
			}
		}
	}
	return false
}

// SplitWords breaks an identifier on camelCase, snake_case and digit
// boundaries and lowercases the parts. "HTTPRequestID" -> http, request, id.
func SplitWords(ident string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	rs := []rune(ident)
	for i, r := range rs {
		switch {
		case r == '_' || r == '$' || r == '-':
			flush()
			continue
		case unicode.IsUpper(r):
			prevLower := i > 0 && (unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1]))
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			prevUpper := i > 0 && unicode.IsUpper(rs[i-1])
			if prevLower || (prevUpper && nextLower) {
				flush()
			}
		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(rs[i-1]) {
				flush()
			}
		default:
			if i > 0 && unicode.IsDigit(rs[i-1]) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// Humanize turns an identifier into lowercase words: leaveBalance -> "leave balance".
func Humanize(ident string) string {
	return strings.Join(SplitWords(ident), " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
