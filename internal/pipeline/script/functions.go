package script

import (
	"regexp"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

var (
	reFuncDecl    = regexp.MustCompile(`\bfunction\s+([A-Za-z_$][\w$]*)\s*\(([^)]*)\)`)
	reCommentLead = regexp.MustCompile(`^\s*\*+\s?`)
)

// ExtractFunctions returns every function declaration in file, in text order.
func ExtractFunctions(file artifact.SourceFile) []artifact.FunctionRecord {
	text := file.Source
	lines := scan.NewLineIndex(text)
	out := []artifact.FunctionRecord{}
	for _, m := range reFuncDecl.FindAllStringSubmatchIndex(text, -1) {
		start, sigEnd := m[0], m[1]
		end := sigEnd
		if open := scan.SkipSpace(text, sigEnd); open < len(text) && text[open] == '{' {
			end, _ = scan.BraceExtent(text, open)
		}
		name := text[m[2]:m[3]]
		out = append(out, artifact.FunctionRecord{
			Name:        name,
			Parameters:  splitParams(text[m[4]:m[5]]),
			IsPublic:    !strings.HasPrefix(name, "_"),
			LineCount:   lines.Span(start, end),
			Description: precedingDoc(text[:start]),
			File:        file.Name,
			StartLine:   lines.Line(start),
			EndLine:     lines.Line(max(start, end-1)),
			Start:       start,
			End:         end,
		})
	}
	return out
}

func splitParams(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// precedingDoc pulls the block comment that ends right before a declaration.
func precedingDoc(before string) string {
	trimmed := strings.TrimRight(before, " \t\r\n")
	if !strings.HasSuffix(trimmed, "*/") {
		return ""
	}
	body := trimmed[:len(trimmed)-2]
	open := strings.LastIndex(body, "/*")
	if open < 0 {
		return ""
	}
	var parts []string
	for _, line := range strings.Split(body[open+2:], "\n") {
		line = strings.TrimSpace(reCommentLead.ReplaceAllString(line, ""))
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
