package logic

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

type ActionKind string

const (
	ActionStatus     ActionKind = "status"
	ActionAssign     ActionKind = "assign"
	ActionNotify     ActionKind = "notify"
	ActionSheetWrite ActionKind = "sheet-write"
	ActionFetch      ActionKind = "fetch"
	ActionReturn     ActionKind = "return"
	ActionThrow      ActionKind = "throw"
)

// Action is one effect found in a block body.
type Action struct {
	Kind      ActionKind
	Raw       string
	Explained string
	Offset    int

	Field        string // status field or assigned variable
	Value        string // status value, return value or error message
	Notification *artifact.Notification
}

const statusSuffix = `(?i:status|state|stage)`

var (
	// req.status = 'x' / status = "x"
	reStatusAssign = regexp.MustCompile(`([\w$]*` + statusSuffix + `)\s*=\s*['"]([^'"\n]+)['"]`)
	// row['status'] = 'x'
	reStatusBracket = regexp.MustCompile(`\[\s*['"]([\w$ ]*` + statusSuffix + `)['"]\s*\]\s*=\s*['"]([^'"\n]+)['"]`)
	// setStatus('x')
	reStatusSetter = regexp.MustCompile(`\bset([\w$]*(?:Status|State|Stage))\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)
	// { status: 'x' }
	reStatusLiteral = regexp.MustCompile(`\b([\w$]*` + statusSuffix + `)\s*:\s*['"]([^'"\n]+)['"]`)

	reAssign    = regexp.MustCompile(`\b([A-Za-z_$][\w$.]*)\s*([+\-*/]?=)\s*([^=;\n][^;\n]*)`)
	reMailSend  = regexp.MustCompile(`\b(MailApp|GmailApp)\s*\.\s*(?:sendEmail|send)\s*\(`)
	reNotifyFn  = regexp.MustCompile(`\b((?:notify|sendSlack|postToSlack|sendNotification|alert)[\w$]*)\s*\(`)
	reSheetOp   = regexp.MustCompile(`\.\s*(setValue|setValues|appendRow)\s*\(`)
	reFetchCall = regexp.MustCompile(`\bUrlFetchApp\s*\.\s*fetch(?:All)?\s*\(`)
	reReturn    = regexp.MustCompile(`\breturn\b[ \t]*([^;\n}]*)`)
	reThrowMsg  = regexp.MustCompile(`\bthrow\s+(?:new\s+)?[\w$]*\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `]`)
	reThrow     = regexp.MustCompile(`\bthrow\b[ \t]*([^;\n}]*)`)
)

type span struct{ lo, hi int }

type claimSet []span

func (c claimSet) overlaps(lo, hi int) bool {
	for _, s := range c {
		if lo < s.hi && s.lo < hi {
			return true
		}
	}
	return false
}

// DeriveActions finds the effects in body, in text order.
func DeriveActions(body string, v Vocab) []Action {
	var (
		out     []Action
		claimed claimSet
	)
	add := func(a Action, lo, hi int) {
		if claimed.overlaps(lo, hi) {
			return
		}
		claimed = append(claimed, span{lo, hi})
		a.Offset = lo
		if a.Raw == "" {
			a.Raw = strings.TrimSpace(body[lo:hi])
		}
		out = append(out, a)
	}

	for _, m := range reThrowMsg.FindAllStringSubmatchIndex(body, -1) {
		end := scan.StatementEnd(body, m[0])
		msg := body[m[2]:m[3]]
		add(Action{Kind: ActionThrow, Value: msg, Explained: "Raise error: " + msg}, m[0], end)
	}
	for _, m := range reThrow.FindAllStringSubmatchIndex(body, -1) {
		expr := strings.TrimSpace(body[m[2]:m[3]])
		add(Action{Kind: ActionThrow, Value: expr, Explained: "Raise error: " + Explain(expr)}, m[0], m[1])
	}
	for _, st := range FindStatusAssignments(body, false) {
		add(Action{
			Kind:      ActionStatus,
			Field:     st.Field,
			Value:     st.Value,
			Explained: fmt.Sprintf("Set %s to %q", Humanize(st.Field), st.Value),
		}, st.Start, st.End)
	}
	for _, m := range reMailSend.FindAllStringSubmatchIndex(body, -1) {
		open := m[1] - 1
		end, _ := scan.ParenExtent(body, open)
		args := splitArgs(scan.Inner(body, open, end))
		n := &artifact.Notification{Channel: "email"}
		if len(args) > 0 {
			n.Recipient = Explain(args[0])
		}
		if len(args) > 1 {
			n.Subject = unquote(args[1])
		}
		expl := "Send email notification"
		if n.Recipient != "" {
			expl += " to " + n.Recipient
		}
		add(Action{Kind: ActionNotify, Notification: n, Explained: expl}, m[0], end)
	}
	for _, m := range reNotifyFn.FindAllStringSubmatchIndex(body, -1) {
		fn := body[m[2]:m[3]]
		open := m[1] - 1
		end, _ := scan.ParenExtent(body, open)
		channel := "notification"
		if strings.Contains(strings.ToLower(fn), "slack") {
			channel = "slack"
		}
		n := &artifact.Notification{Channel: channel}
		if args := splitArgs(scan.Inner(body, open, end)); len(args) > 0 {
			n.Recipient = Explain(args[0])
		}
		add(Action{Kind: ActionNotify, Notification: n, Explained: capitalize(Humanize(fn))}, m[0], end)
	}
	for _, m := range reSheetOp.FindAllStringSubmatchIndex(body, -1) {
		lo := lineStart(body, m[0])
		add(Action{Kind: ActionSheetWrite, Explained: "Write to spreadsheet"}, lo, scan.StatementEnd(body, m[0]))
	}
	for _, m := range reFetchCall.FindAllStringIndex(body, -1) {
		lo := lineStart(body, m[0])
		add(Action{Kind: ActionFetch, Explained: "Call external API"}, lo, scan.StatementEnd(body, m[0]))
	}
	for _, m := range reReturn.FindAllStringSubmatchIndex(body, -1) {
		val := strings.TrimSpace(body[m[2]:m[3]])
		expl := "Stop processing"
		if val != "" {
			expl = "Return " + Explain(val)
		}
		add(Action{Kind: ActionReturn, Value: val, Explained: expl}, m[0], m[1])
	}
	for _, m := range reAssign.FindAllStringSubmatchIndex(body, -1) {
		target := body[m[2]:m[3]]
		if !v.Passes(target) {
			continue
		}
		op := body[m[4]:m[5]]
		expr := strings.TrimSpace(body[m[6]:m[7]])
		name := Humanize(lastSegment(target))
		var expl string
		switch op {
		case "+=":
			expl = fmt.Sprintf("Increase %s by %s", name, Explain(expr))
		case "-=":
			expl = fmt.Sprintf("Decrease %s by %s", name, Explain(expr))
		case "*=":
			expl = fmt.Sprintf("Multiply %s by %s", name, Explain(expr))
		case "/=":
			expl = fmt.Sprintf("Divide %s by %s", name, Explain(expr))
		default:
			expl = fmt.Sprintf("Set %s to %s", name, Explain(expr))
		}
		add(Action{Kind: ActionAssign, Field: lastSegment(target), Value: expr, Explained: expl}, m[0], m[1])
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// StatusAssignment is one write of a literal into a status-like field.
type StatusAssignment struct {
	Field      string
	Value      string
	Start, End int
}

// FindStatusAssignments returns status writes in text order. Object-literal
// fields are only included when withLiterals is set.
func FindStatusAssignments(text string, withLiterals bool) []StatusAssignment {
	var out []StatusAssignment
	var claimed claimSet
	collect := func(re *regexp.Regexp, field func(string) string) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if claimed.overlaps(m[0], m[1]) {
				continue
			}
			claimed = append(claimed, span{m[0], m[1]})
			out = append(out, StatusAssignment{
				Field: field(text[m[2]:m[3]]),
				Value: text[m[4]:m[5]],
				Start: m[0],
				End:   m[1],
			})
		}
	}
	same := func(s string) string { return strings.TrimSpace(s) }
	collect(reStatusBracket, same)
	collect(reStatusSetter, lowerFirst)
	collect(reStatusAssign, same)
	if withLiterals {
		collect(reStatusLiteral, same)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func splitArgs(raw string) []string {
	var (
		out   []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(raw[start:i]))
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(raw[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.ContainsRune(`'"`+"`", rune(s[0])) && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func lineStart(text string, i int) int {
	for i > 0 && text[i-1] != '\n' {
		i--
	}
	return scan.SkipSpace(text, i)
}

func joinRaw(actions []Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, a.Raw)
	}
	return strings.Join(parts, "; ")
}

func joinExplained(actions []Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, a.Explained)
	}
	return strings.Join(parts, "; ")
}
