package logic

import (
	"strings"
	"unicode/utf8"

	"scriptinsight/internal/scan"
)

// Operators, longest first so "===" wins over "==" and "=".
var operatorWords = []struct{ op, words string }{
	{"===", "is"},
	{"!==", "is not"},
	{"==", "is"},
	{"!=", "is not"},
	{"<=", "is at most"},
	{">=", "is at least"},
	{"&&", "and"},
	{"||", "or"},
	{"+=", "increased by"},
	{"-=", "decreased by"},
	{"<", "is less than"},
	{">", "is greater than"},
	{"*", "multiplied by"},
	{"/", "divided by"},
	{"+", "plus"},
	{"-", "minus"},
	{"%", "modulo"},
	{"?", "then"},
	{":", "otherwise"},
	{"=", "becomes"},
}

var literalWords = map[string]string{
	"null":      "empty",
	"undefined": "empty",
	"true":      "true",
	"false":     "false",
}

type tokenKind int

const (
	operandToken tokenKind = iota
	operatorToken
	otherToken
)

type token struct {
	kind   tokenKind
	raw    string
	phrase string
}

// Explain rewrites a code expression into plain words.
// leaveBalance < requestedDays -> "leave balance is less than requested days".
func Explain(expr string) string {
	toks := tokenize(strings.TrimSpace(expr))
	parts := make([]string, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind == operatorToken && t.raw == "!" {
			if i+1 < len(toks) && toks[i+1].kind == operandToken {
				parts = append(parts, toks[i+1].phrase+" is not set")
				i++
				continue
			}
			parts = append(parts, "not")
			continue
		}
		parts = append(parts, t.phrase)
	}
	return tidy(strings.Join(parts, " "))
}

func tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := strings.NewReplacer("( ", "(", " )", ")", " ,", ",")
	return r.Replace(s)
}

func tokenize(src string) []token {
	var out []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'' || c == '"' || c == '`':
			end := closeQuote(src, i)
			body := src[i+1 : max(i+1, end-1)]
			out = append(out, token{kind: operandToken, raw: src[i:end], phrase: `"` + body + `"`})
			i = end
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.' || src[j] == '_') {
				j++
			}
			out = append(out, token{kind: operandToken, raw: src[i:j], phrase: src[i:j]})
			i = j
		case isIdentStart(c):
			phrase, end := readPath(src, i)
			out = append(out, token{kind: operandToken, raw: src[i:end], phrase: phrase})
			i = end
		case c == '(':
			end, _ := scan.ParenExtent(src, i)
			inner := scan.Inner(src, i, end)
			out = append(out, token{kind: otherToken, raw: src[i:end], phrase: "(" + Explain(inner) + ")"})
			i = end
		default:
			if op, words, ok := matchOperator(src[i:]); ok {
				out = append(out, token{kind: operatorToken, raw: op, phrase: words})
				i += len(op)
				continue
			}
			if c == '!' {
				out = append(out, token{kind: operatorToken, raw: "!"})
				i++
				continue
			}
			_, w := utf8.DecodeRuneInString(src[i:])
			out = append(out, token{kind: otherToken, raw: src[i : i+w], phrase: src[i : i+w]})
			i += w
		}
	}
	return out
}

func matchOperator(s string) (string, string, bool) {
	for _, o := range operatorWords {
		if strings.HasPrefix(s, o.op) {
			return o.op, o.words, true
		}
	}
	return "", "", false
}

func closeQuote(src string, open int) int {
	q := src[open]
	for j := open + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(src)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// readPath consumes a.b.getC(x)[0] style access paths starting at i.
func readPath(src string, i int) (string, int) {
	var (
		segs   []string
		phrase string
	)
	for {
		j := i
		for j < len(src) && isIdentChar(src[j]) {
			j++
		}
		name := src[i:j]
		seg := Humanize(name)
		if w, ok := literalWords[name]; ok && len(segs) == 0 {
			seg = w
		}
		if j < len(src) && src[j] == '(' {
			end, _ := scan.ParenExtent(src, j)
			args := strings.TrimSpace(scan.Inner(src, j, end))
			switch {
			case strings.HasPrefix(name, "get") && len(name) > 3:
				seg = Humanize(name[3:])
			case args != "":
				// method call with arguments reads as "<owner> <method> <args>"
				owner := strings.Join(segs, "'s ")
				phrase = strings.TrimSpace(owner + " " + Humanize(name) + " " + Explain(args))
				segs = []string{phrase}
				j = end
				if next, ok := continuePath(src, j); ok {
					i = next
					continue
				}
				return phrase, j
			}
			j = end
		}
		segs = append(segs, seg)
		for j < len(src) && src[j] == '[' {
			k := strings.IndexByte(src[j:], ']')
			if k < 0 {
				break
			}
			key := strings.Trim(strings.TrimSpace(src[j+1:j+k]), `'"`)
			if key != "" {
				segs = append(segs, Humanize(key))
			}
			j += k + 1
		}
		if next, ok := continuePath(src, j); ok {
			i = next
			continue
		}
		return strings.Join(segs, "'s "), j
	}
}

func continuePath(src string, j int) (int, bool) {
	if j+1 < len(src) && src[j] == '.' && isIdentStart(src[j+1]) {
		return j + 1, true
	}
	return j, false
}
