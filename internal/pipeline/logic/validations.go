package logic

import (
	"fmt"
	"regexp"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

var (
	reValidatorName = regexp.MustCompile(`^(?:validate|check|verify|isValid|ensure)`)

	reRequiredNot   = regexp.MustCompile(`^!\s*([A-Za-z_$][\w$.]*)$`)
	reRequiredEmpty = regexp.MustCompile(`^([A-Za-z_$][\w$.]*)\s*===?\s*(''|""|null|undefined)$`)
	reLength        = regexp.MustCompile(`^([A-Za-z_$][\w$.]*)\.length\s*(<=|>=|<|>|===|==|!==|!=)\s*(\d+)$`)
	reRange         = regexp.MustCompile(`^([A-Za-z_$][\w$.]*)\s*(<=|<)\s*([\w$.]+)\s*\|\|\s*([A-Za-z_$][\w$.]*)\s*(>=|>)\s*([\w$.]+)$`)
	reFormat        = regexp.MustCompile(`^!\s*(/(?:[^/\\\n]|\\.)+/[gimsuy]*)\s*\.\s*test\s*\(\s*([A-Za-z_$][\w$.]*)\s*\)$`)

	reReturnFalse = regexp.MustCompile(`\breturn\s+false\b`)
	reReturnNull  = regexp.MustCompile(`\breturn\s+(?:null|undefined)\b`)
	reRejectCall  = regexp.MustCompile(`\breject\s*\(`)
	reErrorPush   = regexp.MustCompile(`(?i)\b[\w$]*errors?[\w$]*\s*\.\s*push\s*\(\s*(?:['"` + "`" + `]([^'"` + "`" + `]*)['"` + "`" + `])?`)
	reErrorStatus = regexp.MustCompile(`(?i)error|invalid|reject|fail`)
)

type failAction struct {
	text    string
	message string
}

// classifyFail names how a failed check leaves the block, if it does.
func classifyFail(body string) (failAction, bool) {
	if m := reThrowMsg.FindStringSubmatch(body); m != nil {
		return failAction{text: "Throw error", message: m[1]}, true
	}
	if reThrow.MatchString(body) {
		return failAction{text: "Throw error"}, true
	}
	if reReturnFalse.MatchString(body) {
		return failAction{text: "Return false"}, true
	}
	if reReturnNull.MatchString(body) {
		return failAction{text: "Return null"}, true
	}
	if reRejectCall.MatchString(body) {
		return failAction{text: "Reject"}, true
	}
	for _, st := range FindStatusAssignments(body, false) {
		if reErrorStatus.MatchString(st.Value) {
			return failAction{text: fmt.Sprintf("Set %s to %q", Humanize(st.Field), st.Value)}, true
		}
	}
	if m := reErrorPush.FindStringSubmatch(body); m != nil {
		return failAction{text: "Record error", message: m[1]}, true
	}
	return failAction{}, false
}

type inlineShape struct {
	field string
	kind  string
}

// matchInline recognises the four inline check shapes on a bare condition.
func matchInline(cond string) (inlineShape, bool) {
	cond = strings.TrimSpace(cond)
	if m := reRequiredNot.FindStringSubmatch(cond); m != nil {
		return inlineShape{m[1], "required"}, true
	}
	if m := reRequiredEmpty.FindStringSubmatch(cond); m != nil {
		return inlineShape{m[1], "required"}, true
	}
	if m := reLength.FindStringSubmatch(cond); m != nil {
		return inlineShape{m[1], "length"}, true
	}
	if m := reRange.FindStringSubmatch(cond); m != nil && m[1] == m[4] {
		return inlineShape{m[1], "range"}, true
	}
	if m := reFormat.FindStringSubmatch(cond); m != nil {
		return inlineShape{m[2], "format"}, true
	}
	return inlineShape{}, false
}

func explainCheck(cond string, shape inlineShape) string {
	name := Explain(shape.field)
	switch shape.kind {
	case "required":
		return name + " is missing"
	case "format":
		return name + " does not match the expected format"
	default:
		return Explain(cond)
	}
}

// extractValidations also marks pure inline checks as consumed in ctx.
func extractValidations(ctx *extractContext) []artifact.ValidationCheck {
	out := []artifact.ValidationCheck{}
	for fi, file := range ctx.files {
		for _, c := range ctx.conds[fi] {
			fail, ok := classifyFail(c.Body)
			if !ok {
				continue
			}
			shape, inline := matchInline(c.Condition)
			inValidator := reValidatorName.MatchString(c.Function)
			switch {
			case inline && ctx.vocab.FieldPasses(lastSegment(shape.field)):
				ctx.consumed[condKey{c.File, c.Start}] = true
			case inValidator:
				shape = inlineShape{field: fieldOf(c.Condition)}
			default:
				continue
			}
			out = append(out, artifact.ValidationCheck{
				ID:           fmt.Sprintf("validation-%d", len(out)+1),
				Field:        lastSegment(shape.field),
				Condition:    explainCheck(c.Condition, shape),
				ErrorMessage: fail.message,
				PassAction:   "Continue processing",
				FailAction:   fail.text,
				Location:     scan.Location(file.Name, c.Line),
			})
		}
	}
	return out
}

// fieldOf picks the first identifier path of a condition.
func fieldOf(cond string) string {
	for _, m := range reIdentPath.FindAllString(cond, -1) {
		if _, lit := literalWords[m]; lit {
			continue
		}
		return m
	}
	return ""
}

var reIdentPath = regexp.MustCompile(`[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*`)
