package logic

import (
	"fmt"
	"regexp"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

// field === 'A', with dot, bracket or bare field access on the left.
var reStatusCompare = regexp.MustCompile(`([\w$.]*?)(?:\[\s*['"]([\w$ ]+)['"]\s*\]|([\w$]*` + statusSuffix + `))\s*===?\s*['"]([^'"\n]+)['"]`)

var statusMeanings = map[string]string{
	"new":         "Newly created, not yet processed",
	"draft":       "Being prepared, not yet submitted",
	"submitted":   "Submitted and waiting for review",
	"pending":     "Waiting for a decision",
	"open":        "Open and awaiting action",
	"in progress": "Work is underway",
	"in_progress": "Work is underway",
	"processing":  "Being processed",
	"review":      "Under review",
	"in review":   "Under review",
	"on hold":     "Paused until further notice",
	"escalated":   "Escalated to a higher authority",
	"approved":    "Approved",
	"rejected":    "Rejected",
	"denied":      "Denied",
	"declined":    "Declined",
	"cancelled":   "Cancelled before completion",
	"canceled":    "Cancelled before completion",
	"completed":   "Finished successfully",
	"complete":    "Finished successfully",
	"done":        "Finished successfully",
	"closed":      "Closed, no further action",
	"archived":    "Archived for record keeping",
	"failed":      "Processing failed",
	"error":       "Processing hit an error",
	"expired":     "No longer valid",
	"paid":        "Payment settled",
	"hired":       "Candidate hired",
	"resolved":    "Issue resolved",
	"active":      "Currently active",
	"inactive":    "Not currently active",
	"sent":        "Sent to the recipient",
}

var sideEffects = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`\b(?:MailApp|GmailApp)\s*\.\s*send|\bnotify[\w$]*\s*\(`), "Sends email notification"},
	{regexp.MustCompile(`\.\s*(?:setValue|setValues|appendRow)\s*\(`), "Updates spreadsheet"},
	{regexp.MustCompile(`\bUrlFetchApp\s*\.\s*fetch`), "Calls external API"},
	{regexp.MustCompile(`\bCalendarApp\b|\.\s*createEvent\s*\(`), "Creates calendar event"},
}

type flowBuilder struct {
	flow    artifact.StatusFlow
	valueAt map[string]int
	edges   map[[2]string]bool
	sources map[string]bool
	targets map[string]bool
}

func (b *flowBuilder) addValue(v string) int {
	if i, ok := b.valueAt[v]; ok {
		return i
	}
	b.valueAt[v] = len(b.flow.Values)
	b.flow.Values = append(b.flow.Values, artifact.StatusValue{Value: v, Meaning: meaningOf(v)})
	return b.valueAt[v]
}

func (b *flowBuilder) addTrigger(i int, t string) {
	for _, have := range b.flow.Values[i].Triggers {
		if have == t {
			return
		}
	}
	b.flow.Values[i].Triggers = append(b.flow.Values[i].Triggers, t)
}

func extractStatusFlows(ctx *extractContext) []artifact.StatusFlow {
	var (
		order    []string
		builders = map[string]*flowBuilder{}
	)
	get := func(field string) *flowBuilder {
		key := strings.ToLower(field)
		if b, ok := builders[key]; ok {
			return b
		}
		b := &flowBuilder{
			flow:    artifact.StatusFlow{Field: field, Values: []artifact.StatusValue{}, Transitions: []artifact.StatusTransition{}},
			valueAt: map[string]int{},
			edges:   map[[2]string]bool{},
			sources: map[string]bool{},
			targets: map[string]bool{},
		}
		builders[key] = b
		order = append(order, key)
		return b
	}

	for _, file := range ctx.files {
		text := file.Source
		for _, st := range FindStatusAssignments(text, true) {
			b := get(st.Field)
			i := b.addValue(st.Value)
			window := scan.Window(text, st.End, 0, ctx.tun.TriggerWindow)
			for _, se := range sideEffects {
				if se.re.MatchString(window) {
					b.addTrigger(i, se.name)
				}
			}
		}
	}

	for fi := range ctx.files {
		for _, c := range ctx.conds[fi] {
			m := reStatusCompare.FindStringSubmatch(c.Condition)
			if m == nil {
				continue
			}
			field := m[2]
			if field == "" {
				field = m[3]
			}
			from := m[4]
			bodyActions := DeriveActions(c.Body, ctx.vocab)
			for _, st := range FindStatusAssignments(c.Body, false) {
				if !strings.EqualFold(st.Field, field) || st.Value == from {
					continue
				}
				b := get(st.Field)
				if b.edges[[2]string{from, st.Value}] {
					continue
				}
				b.edges[[2]string{from, st.Value}] = true
				b.addValue(from)
				b.addValue(st.Value)
				b.sources[from] = true
				b.targets[st.Value] = true
				b.flow.Transitions = append(b.flow.Transitions, artifact.StatusTransition{
					From:      from,
					To:        st.Value,
					Condition: Explain(c.Condition),
					Action:    joinExplained(bodyActions),
				})
			}
		}
	}

	terminal := map[string]bool{}
	for _, t := range ctx.tun.TerminalStatuses {
		terminal[strings.ToLower(t)] = true
	}
	out := make([]artifact.StatusFlow, 0, len(order))
	for _, key := range order {
		b := builders[key]
		for i := range b.flow.Values {
			v := b.flow.Values[i].Value
			b.flow.Values[i].Terminal = terminal[strings.ToLower(v)] && !(b.sources[v] && b.targets[v])
		}
		out = append(out, b.flow)
	}
	return out
}

func meaningOf(value string) string {
	if m, ok := statusMeanings[strings.ToLower(strings.TrimSpace(value))]; ok {
		return m
	}
	return fmt.Sprintf("Marked as %s", value)
}
