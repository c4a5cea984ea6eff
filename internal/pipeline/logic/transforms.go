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
	reCollectionOp = regexp.MustCompile(`([A-Za-z_$][\w$.]*(?:\(\))?)\s*\.\s*(map|reduce|filter)\s*\(`)
	reReshapeOpen  = regexp.MustCompile(`(?:=|return|\()\s*\{`)
	reFieldCopy    = regexp.MustCompile(`([A-Za-z_$][\w$]*|'[^']*'|"[^"]*")\s*:\s*([A-Za-z_$][\w$]*)\.([A-Za-z_$][\w$]*)`)
)

// purposes are checked in order; ties go to the earlier entry.
var purposes = []struct {
	name  string
	words []string
}{
	{"Employee data processing", []string{"employee", "staff", "worker", "manager", "department", "hire", "candidate", "name", "email", "role"}},
	{"Date handling", []string{"date", "day", "month", "year", "time", "deadline", "due", "start", "end"}},
	{"Status tracking", []string{"status", "state", "stage", "approved", "rejected", "pending", "active"}},
	{"Financial computation", []string{"amount", "total", "sum", "price", "cost", "salary", "pay", "balance", "invoice", "tax"}},
	{"Spreadsheet row processing", []string{"row", "rows", "column", "cell", "range", "sheet", "values", "header"}},
}

var opWords = map[string]struct{ name, desc, out string }{
	"map":    {"Mapping", "Converts each item of %s into a new shape", "list of transformed items"},
	"reduce": {"Aggregation", "Combines the items of %s into a single value", "single aggregated value"},
	"filter": {"Filtering", "Keeps only the items of %s that match a condition", "subset of the input list"},
}

type transformHit struct {
	file   string
	offset int
	t      artifact.DataTransformation
}

func extractTransformations(ctx *extractContext) []artifact.DataTransformation {
	var hits []transformHit
	for _, file := range ctx.files {
		text := file.Source
		lines := scan.NewLineIndex(text)
		for _, m := range reCollectionOp.FindAllStringSubmatchIndex(text, -1) {
			src := text[m[2]:m[3]]
			op := text[m[4]:m[5]]
			open := m[1] - 1
			end, _ := scan.ParenExtent(text, open)
			body := scan.Inner(text, open, end)
			w := opWords[op]
			srcName := Explain(src)
			hits = append(hits, transformHit{file.Name, m[0], artifact.DataTransformation{
				Name:        fmt.Sprintf("%s of %s", w.name, srcName),
				Description: fmt.Sprintf(w.desc, srcName),
				InputShape:  "list of " + srcName,
				OutputShape: w.out,
				Purpose:     purposeOf(src + " " + body),
				Location:    scan.Location(file.Name, lines.Line(m[0])),
			}})
		}
		for _, m := range reReshapeOpen.FindAllStringIndex(text, -1) {
			open := m[1] - 1
			end, _ := scan.BraceExtent(text, open)
			obj := scan.Inner(text, open, end)
			copies := reFieldCopy.FindAllStringSubmatch(obj, -1)
			if len(copies) < 2 {
				continue
			}
			var keys []string
			srcs := map[string]bool{}
			var srcOrder []string
			for _, c := range copies {
				keys = append(keys, strings.Trim(c[1], `'"`))
				if !srcs[c[2]] {
					srcs[c[2]] = true
					srcOrder = append(srcOrder, c[2])
				}
			}
			hits = append(hits, transformHit{file.Name, open, artifact.DataTransformation{
				Name:        "Reshape " + strings.Join(srcOrder, ", "),
				Description: fmt.Sprintf("Builds a new record with %d fields copied from %s", len(keys), strings.Join(srcOrder, ", ")),
				InputShape:  "object " + strings.Join(srcOrder, ", "),
				OutputShape: "{" + strings.Join(keys, ", ") + "}",
				Purpose:     purposeOf(obj),
				Location:    scan.Location(file.Name, lines.Line(open)),
			}})
		}
	}
	order := ctx.fileOrder()
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].file != hits[j].file {
			return order[hits[i].file] < order[hits[j].file]
		}
		return hits[i].offset < hits[j].offset
	})
	out := make([]artifact.DataTransformation, 0, len(hits))
	for i, h := range hits {
		h.t.ID = fmt.Sprintf("transform-%d", i+1)
		out = append(out, h.t)
	}
	return out
}

// purposeOf picks the purpose vocabulary with the most word hits.
func purposeOf(text string) string {
	counts := map[string]int{}
	for _, id := range reIdent.FindAllString(text, -1) {
		for _, w := range SplitWords(id) {
			counts[w]++
		}
	}
	best, bestHits := "General data transformation", 0
	for _, p := range purposes {
		hits := 0
		for _, w := range p.words {
			hits += counts[w]
		}
		if hits > bestHits {
			best, bestHits = p.name, hits
		}
	}
	return best
}
