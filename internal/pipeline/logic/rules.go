package logic

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

var (
	reTernary  = regexp.MustCompile(`\b(?:(?:const|let|var)\s+)?([A-Za-z_$][\w$.]*)\s*=\s*([^=;?\n][^;?\n]*?)\s*\?\s*([^:;\n]+?)\s*:\s*([^;\n]+)`)
	reSwitch   = regexp.MustCompile(`\bswitch\s*\(`)
	reCase     = regexp.MustCompile(`\b(?:case\s+([^:\n]+?)|default)\s*:`)
	reCritical = regexp.MustCompile(`(?i)reject|deni|deny|cancel|fail`)
)

type ruleCandidate struct {
	file   string
	offset int
	rule   artifact.BusinessRule
}

func extractRules(ctx *extractContext) []artifact.BusinessRule {
	var cands []ruleCandidate
	for fi, file := range ctx.files {
		lines := scan.NewLineIndex(file.Source)
		for _, c := range ctx.conds[fi] {
			if !ctx.vocab.Passes(c.Condition) {
				continue
			}
			actions := DeriveActions(c.Body, ctx.vocab)
			if len(actions) == 0 {
				continue
			}
			expl := Explain(c.Condition)
			cands = append(cands, ruleCandidate{file.Name, c.Start, artifact.BusinessRule{
				Name:               ruleName(c.Function, expl),
				Condition:          c.Condition,
				ExplainedCondition: expl,
				Action:             joinRaw(actions),
				ExplainedAction:    joinExplained(actions),
				Severity:           severity(actions),
				Location:           scan.Location(file.Name, c.Line),
			}})
		}
		for _, m := range reTernary.FindAllStringSubmatchIndex(file.Source, -1) {
			g := func(n int) string { return strings.TrimSpace(file.Source[m[2*n]:m[2*n+1]]) }
			target, cond, yes, no := g(1), g(2), g(3), g(4)
			if !ctx.vocab.Passes(cond) && !ctx.vocab.Passes(target) {
				continue
			}
			expl := Explain(cond)
			name := Humanize(lastSegment(target))
			cands = append(cands, ruleCandidate{file.Name, m[0], artifact.BusinessRule{
				Name:               ruleName(enclosing(ctx.functions, file.Name, m[0]), expl),
				Condition:          cond,
				ExplainedCondition: expl,
				Action:             fmt.Sprintf("%s = %s : %s", target, yes, no),
				ExplainedAction:    fmt.Sprintf("Set %s to %s, otherwise %s", name, Explain(yes), Explain(no)),
				Severity:           artifact.SeverityStandard,
				Location:           scan.Location(file.Name, lines.Line(m[0])),
			}})
		}
		for _, sw := range findSwitches(file.Source) {
			if !ctx.vocab.Passes(sw.discriminant) && !ctx.vocab.Passes(strings.Join(sw.labels(), " ")) {
				continue
			}
			rule, ok := switchRule(sw, ctx.vocab)
			if !ok {
				continue
			}
			rule.Name = ruleName(enclosing(ctx.functions, file.Name, sw.start), rule.ExplainedCondition)
			rule.Location = scan.Location(file.Name, lines.Line(sw.start))
			cands = append(cands, ruleCandidate{file.Name, sw.start, rule})
		}
	}
	fileOrder := ctx.fileOrder()
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].file != cands[j].file {
			return fileOrder[cands[i].file] < fileOrder[cands[j].file]
		}
		return cands[i].offset < cands[j].offset
	})
	out := make([]artifact.BusinessRule, 0, len(cands))
	for i, c := range cands {
		c.rule.ID = fmt.Sprintf("rule-%d", i+1)
		out = append(out, c.rule)
	}
	return out
}

// switchRule folds every case of sw into one rule. Empty cases fall through
// to the next clause and share its actions.
func switchRule(sw switchBlock, v Vocab) (artifact.BusinessRule, bool) {
	subject := Explain(sw.discriminant)
	var raw, explained, pending []string
	sev := artifact.SeverityStandard
	for _, cl := range sw.clauses {
		if cl.label != "" {
			pending = append(pending, cl.label)
		}
		if strings.TrimSpace(cl.body) == "" {
			continue
		}
		actions := DeriveActions(cl.body, v)
		labels := pending
		pending = nil
		if len(actions) == 0 {
			continue
		}
		when := "otherwise"
		head := "default"
		if cl.label != "" {
			quoted := make([]string, 0, len(labels))
			for _, l := range labels {
				quoted = append(quoted, Explain(l))
			}
			when = "when " + subject + " is " + strings.Join(quoted, " or ")
			head = "case " + strings.Join(labels, ", ")
		}
		raw = append(raw, head+": "+joinRaw(actions))
		explained = append(explained, when+": "+joinExplained(actions))
		sev = stronger(sev, severity(actions))
	}
	if len(raw) == 0 {
		return artifact.BusinessRule{}, false
	}
	return artifact.BusinessRule{
		Condition:          sw.discriminant,
		ExplainedCondition: "depending on " + subject,
		Action:             strings.Join(raw, " | "),
		ExplainedAction:    strings.Join(explained, "; "),
		Severity:           sev,
	}, true
}

var severityRank = map[artifact.Severity]int{
	artifact.SeverityStandard:  0,
	artifact.SeverityImportant: 1,
	artifact.SeverityCritical:  2,
}

func stronger(a, b artifact.Severity) artifact.Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

func ruleName(function, explained string) string {
	short := explained
	if r := []rune(short); len(r) > 60 {
		short = strings.TrimSpace(string(r[:60])) + "..."
	}
	if function == "" {
		return capitalize(short)
	}
	return capitalize(Humanize(function)) + ": " + short
}

func severity(actions []Action) artifact.Severity {
	sev := artifact.SeverityStandard
	for _, a := range actions {
		switch a.Kind {
		case ActionThrow:
			return artifact.SeverityCritical
		case ActionStatus:
			if reCritical.MatchString(a.Value) {
				return artifact.SeverityCritical
			}
			sev = artifact.SeverityImportant
		case ActionNotify, ActionFetch:
			sev = artifact.SeverityImportant
		}
	}
	return sev
}

type switchClause struct {
	label string // "" for default
	body  string
}

type switchBlock struct {
	start        int
	discriminant string
	clauses      []switchClause
}

func (s switchBlock) labels() []string {
	out := make([]string, 0, len(s.clauses))
	for _, c := range s.clauses {
		out = append(out, c.label)
	}
	return out
}

func findSwitches(text string) []switchBlock {
	var out []switchBlock
	for _, m := range reSwitch.FindAllStringIndex(text, -1) {
		open := m[1] - 1
		pend, ok := scan.ParenExtent(text, open)
		if !ok {
			continue
		}
		bopen := scan.SkipSpace(text, pend)
		if bopen >= len(text) || text[bopen] != '{' {
			continue
		}
		bend, _ := scan.BraceExtent(text, bopen)
		inner := scan.Inner(text, bopen, bend)
		sw := switchBlock{start: m[0], discriminant: strings.TrimSpace(scan.Inner(text, open, pend))}
		labels := reCase.FindAllStringSubmatchIndex(inner, -1)
		for i, lm := range labels {
			end := len(inner)
			if i+1 < len(labels) {
				end = labels[i+1][0]
			}
			label := ""
			if lm[2] >= 0 {
				label = strings.TrimSpace(inner[lm[2]:lm[3]])
			}
			sw.clauses = append(sw.clauses, switchClause{label: label, body: inner[lm[1]:end]})
		}
		out = append(out, sw)
	}
	return out
}
