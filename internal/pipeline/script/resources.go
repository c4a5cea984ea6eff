package script

import (
	"regexp"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

type openPattern struct {
	re   *regexp.Regexp
	kind artifact.ResourceKind
}

// Group 1 is the literal argument, group 2 the identifier argument.
const argExpr = `\(\s*(?:['"]([^'"]+)['"]|([A-Za-z_$][\w$.]*))\s*\)`

var openPatterns = []openPattern{
	{regexp.MustCompile(`SpreadsheetApp\s*\.\s*openBy(?:Id|Url)\s*` + argExpr), artifact.ResourceSpreadsheet},
	{regexp.MustCompile(`DocumentApp\s*\.\s*openBy(?:Id|Url)\s*` + argExpr), artifact.ResourceDocument},
	{regexp.MustCompile(`DriveApp\s*\.\s*get(?:File|Folder)ById\s*` + argExpr), artifact.ResourceDriveFile},
}

var (
	reActiveContainer = regexp.MustCompile(`(?:SpreadsheetApp\s*\.\s*(?:getActiveSpreadsheet|getActive)|DocumentApp\s*\.\s*getActiveDocument)\s*\(\s*\)`)
	reConstDecl       = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*['"]([^'"]+)['"]`)
	reDocPath         = regexp.MustCompile(`/d/([\w-]+)`)
	reReadCall        = regexp.MustCompile(`\.\s*(?:get[A-Z]\w*|openBy\w*|find\w*|search\w*)\s*\(`)
	reWriteCall       = regexp.MustCompile(`\.\s*(?:set[A-Z]\w*|appendRow|appendParagraph|appendText|insert\w*|delete\w*|clear\w*|copy\w*|createFile|createFolder|moveTo|addFile|removeFile|replaceText|sort|merge\w*|saveAndClose)\s*\(`)
)

const activeContainerID = "active"

// ExtractResources lists the spreadsheets, documents and Drive files the unit opens.
func ExtractResources(unit artifact.SourceUnit, accessWindow int) []artifact.ConnectedResource {
	consts := literalConstants(unit)
	out := []artifact.ConnectedResource{}
	pos := map[string]int{}
	record := func(r artifact.ConnectedResource) {
		key := string(r.Kind) + "\x00" + r.ID
		if i, ok := pos[key]; ok {
			out[i].Access = out[i].Access.Merge(r.Access)
			return
		}
		pos[key] = len(out)
		out = append(out, r)
	}
	for _, file := range unit.CodeFiles() {
		text := file.Source
		lines := scan.NewLineIndex(text)
		for _, p := range openPatterns {
			for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
				var id, ref string
				if m[2] >= 0 {
					ref = text[m[2]:m[3]]
					id = resourceID(ref)
				} else {
					ref = text[m[4]:m[5]]
					id = ref
					if lit, ok := consts[ref]; ok {
						id = resourceID(lit)
					}
				}
				record(artifact.ConnectedResource{
					ID:        id,
					Kind:      p.kind,
					Access:    accessAfter(text, m[1], accessWindow),
					Reference: strings.TrimSpace(text[m[0]:m[1]]),
					Location:  scan.Location(file.Name, lines.Line(m[0])),
				})
			}
		}
		for _, m := range reActiveContainer.FindAllStringIndex(text, -1) {
			record(artifact.ConnectedResource{
				ID:        activeContainerID,
				Kind:      artifact.ResourceActiveContainer,
				Access:    accessAfter(text, m[1], accessWindow),
				Reference: text[m[0]:m[1]],
				Location:  scan.Location(file.Name, lines.Line(m[0])),
			})
		}
	}
	return out
}

// literalConstants maps names declared with a string literal anywhere in the unit.
// The first declaration of a name wins.
func literalConstants(unit artifact.SourceUnit) map[string]string {
	out := map[string]string{}
	for _, file := range unit.CodeFiles() {
		for _, m := range reConstDecl.FindAllStringSubmatch(file.Source, -1) {
			if _, ok := out[m[1]]; !ok {
				out[m[1]] = m[2]
			}
		}
	}
	return out
}

func resourceID(lit string) string {
	if m := reDocPath.FindStringSubmatch(lit); m != nil {
		return m[1]
	}
	return lit
}

func accessAfter(text string, pos, window int) artifact.AccessMode {
	w := scan.Window(text, pos, 0, window)
	read := reReadCall.MatchString(w)
	write := reWriteCall.MatchString(w)
	switch {
	case read && write:
		return artifact.AccessReadWrite
	case write:
		return artifact.AccessWrite
	default:
		return artifact.AccessRead
	}
}
