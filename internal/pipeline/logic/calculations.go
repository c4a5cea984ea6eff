package logic

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

const assignTarget = `\b(?:(?:const|let|var)\s+)?([A-Za-z_$][\w$.]*)`

var (
	reBalanceDeduct = regexp.MustCompile(assignTarget + `\s*=\s*([\w$.]+)\s*-\s*([\w$.()]+)`)
	reBalanceMinus  = regexp.MustCompile(`\b((?:[A-Za-z_$][\w$.]*)?(?i:balance)[\w$]*)\s*-=\s*([^;\n]+)`)
	rePayCalc       = regexp.MustCompile(assignTarget + `\s*=\s*([^=;\n][^;\n]*\*[^;\n]*)`)
	reRunningTotal  = regexp.MustCompile(`\b((?:[A-Za-z_$][\w$.]*)?(?i:total|sum)[\w$]*)\s*\+=\s*([^;\n]+)`)
	reDateDiff      = regexp.MustCompile(assignTarget + `\s*=\s*(?:Math\s*\.\s*(?:floor|round|ceil)\s*\(\s*)?\(\s*([^()=;\n]+?|[^=;\n]*?\([^()]*\)[^=;\n]*?)\s*-\s*([^()=;\n]+?|[^=;\n]*?\([^()]*\)[^=;\n]*?)\s*\)\s*/\s*\(?\s*([\d\s*]+?)\s*\)?\s*\)?\s*[;\n]`)
	rePercentage    = regexp.MustCompile(assignTarget + `\s*=\s*\(?\s*([\w$.]+)\s*/\s*([\w$.]+)\s*\)?\s*\*\s*100\b`)
	reArithmetic    = regexp.MustCompile(assignTarget + `\s*=\s*([^=;\n'"` + "`" + `][^;\n'"` + "`" + `]*[+\-*/%][^;\n'"` + "`" + `]*)`)
	reCompound      = regexp.MustCompile(`\b([A-Za-z_$][\w$.]*)\s*([+\-*/])=\s*([^;\n]+)`)

	reOperand = regexp.MustCompile(`[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*`)
	rePayName = regexp.MustCompile(`(?i)pay|salary|wage|earning|compensation`)
	reRateish = regexp.MustCompile(`(?i)hour|rate|salary|wage|day`)
)

var dateUnits = map[int64]string{
	1000:      "seconds",
	60000:     "minutes",
	3600000:   "hours",
	86400000:  "days",
	604800000: "weeks",
}

type calcHit struct {
	file   string
	offset int
	calc   artifact.BusinessCalculation
}

type calcShape func(text string, m []int, v Vocab) (artifact.BusinessCalculation, bool)

type shapeEntry struct {
	re    *regexp.Regexp
	build calcShape
}

// Shapes run in order; a later shape never reports a span an earlier one claimed.
var calcShapes = []shapeEntry{
	{reBalanceDeduct, balanceDeduction},
	{reBalanceMinus, balanceMinus},
	{rePayCalc, payCalculation},
	{reRunningTotal, runningTotal},
	{reDateDiff, dateDifference},
	{rePercentage, percentage},
	{reArithmetic, arithmetic},
	{reCompound, compound},
}

func extractCalculations(ctx *extractContext) []artifact.BusinessCalculation {
	var hits []calcHit
	for _, file := range ctx.files {
		text := file.Source
		lines := scan.NewLineIndex(text)
		var claimed claimSet
		for _, sh := range calcShapes {
			for _, m := range sh.re.FindAllStringSubmatchIndex(text, -1) {
				if claimed.overlaps(m[0], m[1]) {
					continue
				}
				calc, ok := sh.build(text, m, ctx.vocab)
				if !ok {
					continue
				}
				claimed = append(claimed, span{m[0], m[1]})
				calc.Location = scan.Location(file.Name, lines.Line(m[0]))
				hits = append(hits, calcHit{file.Name, m[0], calc})
			}
		}
	}
	order := ctx.fileOrder()
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].file != hits[j].file {
			return order[hits[i].file] < order[hits[j].file]
		}
		return hits[i].offset < hits[j].offset
	})
	out := make([]artifact.BusinessCalculation, 0, len(hits))
	for i, h := range hits {
		h.calc.ID = fmt.Sprintf("calc-%d", i+1)
		out = append(out, h.calc)
	}
	return out
}

func group(text string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return strings.TrimSpace(text[m[2*n]:m[2*n+1]])
}

func newCalc(name, desc, output, formula, example string) artifact.BusinessCalculation {
	return artifact.BusinessCalculation{
		Name:             name,
		Description:      desc,
		Formula:          formula,
		ExplainedFormula: Explain(formula),
		Inputs:           operands(formula, output),
		Output:           output,
		Example:          example,
	}
}

func balanceDeduction(text string, m []int, _ Vocab) (artifact.BusinessCalculation, bool) {
	out, from, minus := group(text, m, 1), group(text, m, 2), group(text, m, 3)
	if out != from || !strings.Contains(strings.ToLower(out), "balance") {
		return artifact.BusinessCalculation{}, false
	}
	name := Humanize(lastSegment(out))
	return newCalc("Balance deduction",
		fmt.Sprintf("Deducts %s from the %s", Explain(minus), name),
		out, fmt.Sprintf("%s = %s - %s", out, from, minus),
		fmt.Sprintf("%s 20 - 5 = 15", name)), true
}

func balanceMinus(text string, m []int, _ Vocab) (artifact.BusinessCalculation, bool) {
	out, minus := group(text, m, 1), group(text, m, 2)
	name := Humanize(lastSegment(out))
	return newCalc("Balance deduction",
		fmt.Sprintf("Deducts %s from the %s", Explain(minus), name),
		out, fmt.Sprintf("%s = %s - %s", out, out, minus),
		fmt.Sprintf("%s 20 - 5 = 15", name)), true
}

func payCalculation(text string, m []int, _ Vocab) (artifact.BusinessCalculation, bool) {
	out, expr := group(text, m, 1), group(text, m, 2)
	if !rePayName.MatchString(lastSegment(out)) || !reRateish.MatchString(expr) {
		return artifact.BusinessCalculation{}, false
	}
	return newCalc("Pay calculation",
		"Computes "+Humanize(lastSegment(out))+" from rate and time worked",
		out, out+" = "+expr,
		"40 hours multiplied by 25 per hour = 1000"), true
}

func runningTotal(text string, m []int, _ Vocab) (artifact.BusinessCalculation, bool) {
	out, add := group(text, m, 1), group(text, m, 2)
	return newCalc("Running total",
		fmt.Sprintf("Accumulates %s into %s", Explain(add), Humanize(lastSegment(out))),
		out, fmt.Sprintf("%s = %s + %s", out, out, add),
		"10 + 15 + 25 = 50"), true
}

func dateDifference(text string, m []int, _ Vocab) (artifact.BusinessCalculation, bool) {
	out, end, start := group(text, m, 1), group(text, m, 2), group(text, m, 3)
	div, ok := product(group(text, m, 4))
	if !ok {
		return artifact.BusinessCalculation{}, false
	}
	unit, ok := dateUnits[div]
	if !ok {
		return artifact.BusinessCalculation{}, false
	}
	return newCalc("Date difference in "+unit,
		fmt.Sprintf("Number of %s between %s and %s", unit, Explain(start), Explain(end)),
		out, fmt.Sprintf("%s = (%s - %s) / %d", out, end, start, div),
		fmt.Sprintf("Mar 10 minus Mar 3 = 7 days (expressed in %s)", unit)), true
}

func percentage(text string, m []int, _ Vocab) (artifact.BusinessCalculation, bool) {
	out, part, whole := group(text, m, 1), group(text, m, 2), group(text, m, 3)
	return newCalc("Percentage",
		fmt.Sprintf("%s as a percentage of %s", capitalize(Explain(part)), Explain(whole)),
		out, fmt.Sprintf("%s = %s / %s * 100", out, part, whole),
		"25 / 200 * 100 = 12.5%"), true
}

func arithmetic(text string, m []int, v Vocab) (artifact.BusinessCalculation, bool) {
	out, expr := group(text, m, 1), group(text, m, 2)
	if !v.Passes(lastSegment(out)) || len(operands(expr, "")) == 0 {
		return artifact.BusinessCalculation{}, false
	}
	name := Humanize(lastSegment(out))
	return newCalc(capitalize(name)+" calculation",
		"Computes "+name+" as "+Explain(expr),
		out, out+" = "+expr, ""), true
}

func compound(text string, m []int, v Vocab) (artifact.BusinessCalculation, bool) {
	out, op, expr := group(text, m, 1), group(text, m, 2), group(text, m, 3)
	if !v.Passes(lastSegment(out)) {
		return artifact.BusinessCalculation{}, false
	}
	name := Humanize(lastSegment(out))
	return newCalc(capitalize(name)+" accumulation",
		fmt.Sprintf("Updates %s in place with %s", name, Explain(expr)),
		out, fmt.Sprintf("%s = %s %s %s", out, out, op, expr), ""), true
}

// operands lists the identifier paths on the right-hand side of formula.
func operands(formula, out string) []string {
	rhs := formula
	if i := strings.Index(formula, "="); i >= 0 && out != "" {
		rhs = formula[i+1:]
	}
	seen := map[string]bool{}
	list := []string{}
	for _, id := range reOperand.FindAllString(rhs, -1) {
		if seen[id] || strings.HasPrefix(id, "Math.") || id == "Math" {
			continue
		}
		if _, lit := literalWords[id]; lit {
			continue
		}
		seen[id] = true
		list = append(list, id)
	}
	return list
}

// product evaluates "1000 * 60 * 60 * 24" style divisors.
func product(expr string) (int64, bool) {
	var p int64 = 1
	parts := strings.Split(expr, "*")
	for _, s := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, false
		}
		p *= n
	}
	return p, true
}
