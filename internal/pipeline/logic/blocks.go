package logic

import (
	"regexp"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

var (
	reIf     = regexp.MustCompile(`\bif\s*\(`)
	reElse   = regexp.MustCompile(`^else\b`)
	reElseIf = regexp.MustCompile(`^if\s*\(`)
)

// Conditional is one if-statement with its bodies, located in a file.
type Conditional struct {
	File     string
	Function string // enclosing function, "" at top level
	Start    int    // offset of the "if" keyword
	End      int    // end of the last body belonging to this statement
	Line     int

	Condition string
	Body      string
	BodyStart int
	BodyEnd   int

	HasElse bool
	Else    string
	// ElseIf holds the condition of a chained "else if", "" otherwise.
	ElseIf string
}

// Contains reports whether c lies inside the body span of o.
func (o Conditional) Contains(c Conditional) bool {
	return o.File == c.File && c.Start >= o.BodyStart && c.Start < o.End && c.Start != o.Start
}

// FindConditionals lists every if-statement of file with a balanced condition,
// in text order. functions attribute each one to its innermost enclosing function.
func FindConditionals(file artifact.SourceFile, functions []artifact.FunctionRecord) []Conditional {
	text := file.Source
	lines := scan.NewLineIndex(text)
	var out []Conditional
	for _, m := range reIf.FindAllStringIndex(text, -1) {
		open := m[1] - 1
		condEnd, ok := scan.ParenExtent(text, open)
		if !ok {
			continue
		}
		c := Conditional{
			File:      file.Name,
			Function:  enclosing(functions, file.Name, m[0]),
			Start:     m[0],
			Line:      lines.Line(m[0]),
			Condition: strings.TrimSpace(scan.Inner(text, open, condEnd)),
		}
		c.BodyStart, c.BodyEnd, c.Body = body(text, condEnd)
		c.End = c.BodyEnd

		rest := scan.SkipSpace(text, c.BodyEnd)
		if loc := reElse.FindStringIndex(text[rest:]); loc != nil {
			c.HasElse = true
			after := scan.SkipSpace(text, rest+loc[1])
			if ei := reElseIf.FindStringIndex(text[after:]); ei != nil {
				eopen := after + ei[1] - 1
				eend, _ := scan.ParenExtent(text, eopen)
				c.ElseIf = strings.TrimSpace(scan.Inner(text, eopen, eend))
				_, c.End, _ = body(text, eend)
			} else {
				_, c.End, c.Else = body(text, after)
			}
		}
		out = append(out, c)
	}
	return out
}

// body reads a braced block or a single statement starting at or after i.
func body(text string, i int) (start, end int, inner string) {
	start = scan.SkipSpace(text, i)
	if start < len(text) && text[start] == '{' {
		end, _ = scan.BraceExtent(text, start)
		return start, end, scan.Inner(text, start, end)
	}
	end = scan.StatementEnd(text, start)
	return start, end, strings.TrimSpace(text[start:end])
}

func enclosing(functions []artifact.FunctionRecord, file string, pos int) string {
	name, best := "", -1
	for _, fn := range functions {
		if fn.File == file && pos >= fn.Start && pos < fn.End && fn.Start > best {
			name, best = fn.Name, fn.Start
		}
	}
	return name
}
