package logic

import (
	"fmt"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

func extractDecisions(ctx *extractContext) []artifact.DecisionNode {
	out := []artifact.DecisionNode{}
	next := 0
	newID := func() string {
		next++
		return fmt.Sprintf("decision-%d", next)
	}
	for fi, file := range ctx.files {
		conds := ctx.conds[fi]
		var roots []Conditional
		for _, c := range conds {
			if ctx.consumed[condKey{c.File, c.Start}] || !ctx.vocab.Passes(c.Condition) {
				continue
			}
			if nestedIn(roots, c) {
				continue
			}
			roots = append(roots, c)
			node := ctx.decisionNode(c, file.Name, newID)
			for _, child := range conds {
				if child.Start <= c.Start || child.Start >= c.BodyEnd || !c.Contains(child) {
					continue
				}
				if ctx.consumed[condKey{child.File, child.Start}] || !ctx.vocab.Passes(child.Condition) {
					continue
				}
				// only direct children: skip ones nested in an earlier child
				if nestedIn(childConds(conds, c), child) {
					continue
				}
				node.Children = append(node.Children, ctx.decisionNode(child, file.Name, newID))
			}
			out = append(out, node)
		}
	}
	return out
}

func (ctx *extractContext) decisionNode(c Conditional, file string, newID func() string) artifact.DecisionNode {
	node := artifact.DecisionNode{
		ID:          newID(),
		Condition:   Explain(c.Condition),
		TrueOutcome: outcome(DeriveActions(c.Body, ctx.vocab)),
		Location:    scan.Location(file, c.Line),
	}
	switch {
	case c.ElseIf != "":
		node.FalseOutcome = &artifact.DecisionOutcome{Action: "Evaluate next condition: " + Explain(c.ElseIf)}
	case c.HasElse:
		fo := outcome(DeriveActions(c.Else, ctx.vocab))
		node.FalseOutcome = &fo
	}
	return node
}

// childConds lists conditionals strictly inside the true body of parent.
func childConds(all []Conditional, parent Conditional) []Conditional {
	var out []Conditional
	for _, c := range all {
		if c.Start > parent.Start && c.Start < parent.BodyEnd {
			out = append(out, c)
		}
	}
	return out
}

func nestedIn(outer []Conditional, c Conditional) bool {
	for _, o := range outer {
		if o.Contains(c) {
			return true
		}
	}
	return false
}

func outcome(actions []Action) artifact.DecisionOutcome {
	o := artifact.DecisionOutcome{Action: "No action"}
	if len(actions) > 0 {
		o.Action = joinExplained(actions)
	}
	for _, a := range actions {
		switch a.Kind {
		case ActionStatus:
			if o.SetsStatus == "" {
				o.SetsStatus = a.Value
			}
			o.UpdatedFields = appendUnique(o.UpdatedFields, a.Field)
		case ActionAssign:
			o.UpdatedFields = appendUnique(o.UpdatedFields, a.Field)
		case ActionNotify:
			if o.Notification == nil {
				o.Notification = a.Notification
			}
		}
	}
	return o
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
