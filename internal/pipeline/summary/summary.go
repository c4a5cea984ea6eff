// Package summary turns extractor output into a short prose description.
package summary

import (
	"fmt"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
)

// Input is everything the synthesizer reads. It extracts nothing itself.
type Input struct {
	Project   string
	Functions []artifact.FunctionRecord
	Calls     []artifact.ExternalCall
	Services  []artifact.GoogleServiceUsage
	Triggers  []artifact.TriggerRecord
	Resources []artifact.ConnectedResource
}

// serviceSignals maps a service name to its summary clause, in priority order.
var serviceSignals = []struct{ service, clause string }{
	{"Gmail", "sends email notifications"},
	{"Mail", "sends email notifications"},
	{"Google Sheets", "reads and updates spreadsheet data"},
	{"Google Docs", "generates documents"},
	{"Google Calendar", "manages calendar events"},
	{"Google Drive", "manages Drive files"},
	{"Google Forms", "processes form responses"},
}

const genericCallClause = "calls external APIs"

// Synthesize builds the summary. Output depends only on in and tun.
func Synthesize(in Input, tun config.Tuning) artifact.FunctionalSummary {
	tun = tun.Normalized()
	project := strings.TrimSpace(in.Project)
	if project == "" {
		project = "This project"
	}
	opening := openingClause(in.Triggers)
	signals := actionSignals(in, tun)

	brief := fmt.Sprintf("%s %s and performs internal processing.", project, opening)
	if len(signals) > 0 {
		brief = fmt.Sprintf("%s %s and %s.", project, opening, joinClauses(signals))
	}

	return artifact.FunctionalSummary{
		Brief:    brief,
		Detailed: detailed(project, in),
		Workflow: workflow(in, signals),
		Inputs:   inputs(in),
		Outputs:  outputs(in),
	}
}

func openingClause(triggers []artifact.TriggerRecord) string {
	if len(triggers) == 0 {
		return "runs when invoked manually"
	}
	var parts []string
	seen := map[string]bool{}
	for _, t := range triggers {
		p := triggerPhrase(t)
		if !seen[p] {
			seen[p] = true
			parts = append(parts, p)
		}
	}
	return "runs " + joinClauses(parts)
}

func triggerPhrase(t artifact.TriggerRecord) string {
	switch t.Type {
	case artifact.TriggerTimeDriven:
		if t.Schedule != "" {
			return "on a schedule (" + strings.ToLower(t.Schedule[:1]) + t.Schedule[1:] + ")"
		}
		return "on a schedule"
	case artifact.TriggerOnEdit:
		return "when the spreadsheet is edited"
	case artifact.TriggerOnOpen:
		return "when the file is opened"
	case artifact.TriggerOnFormSubmit:
		return "when a form is submitted"
	case artifact.TriggerWebGet:
		return "when its web app receives a GET request"
	case artifact.TriggerWebPost:
		return "when its web app receives a POST request"
	}
	switch t.Event {
	case "ON_INSTALL":
		return "when the add-on is installed"
	case "ON_SELECTION_CHANGE":
		return "when the selection changes"
	case "ON_CHANGE":
		return "when the spreadsheet structure changes"
	}
	return "on a platform event"
}

// actionSignals ranks vendor signals ahead of service and generic ones.
func actionSignals(in Input, tun config.Tuning) []string {
	var out []string
	add := func(s string) {
		for _, have := range out {
			if have == s {
				return
			}
		}
		if len(out) < tun.MaxActionSignals {
			out = append(out, s)
		}
	}
	generic := false
	for _, c := range in.Calls {
		if v, ok := vendorOf(c, tun.Vendors); ok {
			add(v.Signal)
			continue
		}
		generic = true
	}
	for _, sig := range serviceSignals {
		if hasService(in.Services, sig.service) {
			add(sig.clause)
		}
	}
	if generic {
		add(genericCallClause)
	}
	return out
}

func vendorOf(c artifact.ExternalCall, vendors []config.VendorKeyword) (config.VendorKeyword, bool) {
	for _, v := range vendors {
		if c.Description == v.Description {
			return v, true
		}
	}
	return config.VendorKeyword{}, false
}

func hasService(services []artifact.GoogleServiceUsage, name string) bool {
	for _, s := range services {
		if s.Service == name {
			return true
		}
	}
	return false
}

func detailed(project string, in Input) string {
	var b strings.Builder
	public := 0
	for _, f := range in.Functions {
		if f.IsPublic {
			public++
		}
	}
	fmt.Fprintf(&b, "%s defines %s (%d public)", project, count(len(in.Functions), "function"), public)
	if len(in.Services) > 0 {
		names := make([]string, 0, len(in.Services))
		for _, s := range in.Services {
			names = append(names, s.Service)
		}
		fmt.Fprintf(&b, " and uses %s", joinClauses(names))
	}
	b.WriteString(".")
	if len(in.Triggers) > 0 {
		fmt.Fprintf(&b, " It is started by %s.", count(len(in.Triggers), "trigger"))
	} else {
		b.WriteString(" It has no triggers and is run by hand.")
	}
	if len(in.Calls) > 0 {
		hosts := make([]string, 0, len(in.Calls))
		for _, c := range in.Calls {
			hosts = append(hosts, c.BaseURL)
		}
		fmt.Fprintf(&b, " It talks to %s: %s.", count(len(in.Calls), "external endpoint"), strings.Join(hosts, ", "))
	}
	if len(in.Resources) > 0 {
		fmt.Fprintf(&b, " It works with %s.", count(len(in.Resources), "connected file"))
	}
	return b.String()
}

func workflow(in Input, signals []string) []string {
	steps := make([]string, 0, 4)
	steps = append(steps, "Trigger: the script "+openingClause(in.Triggers))

	fetch := "Data fetch: reads its inputs from script properties and arguments"
	switch {
	case len(in.Resources) > 0:
		fetch = fmt.Sprintf("Data fetch: opens %s", count(len(in.Resources), "connected file"))
	case hasService(in.Services, "Google Sheets"):
		fetch = "Data fetch: reads rows from the active spreadsheet"
	case hasService(in.Services, "Google Forms"):
		fetch = "Data fetch: reads submitted form responses"
	}
	steps = append(steps, fetch)

	steps = append(steps, fmt.Sprintf("Processing: applies its logic across %s", count(len(in.Functions), "function")))

	out := "Output: keeps results inside the script"
	if len(signals) > 0 {
		out = "Output: " + joinClauses(signals)
	}
	return append(steps, out)
}

func inputs(in Input) []string {
	out := []string{}
	for _, t := range in.Triggers {
		switch t.Type {
		case artifact.TriggerOnFormSubmit:
			out = appendUnique(out, "Form submissions")
		case artifact.TriggerWebGet, artifact.TriggerWebPost:
			out = appendUnique(out, "Web requests")
		case artifact.TriggerOnEdit:
			out = appendUnique(out, "Spreadsheet edits")
		}
	}
	for _, r := range in.Resources {
		out = appendUnique(out, resourceName(r))
	}
	if hasService(in.Services, "Google Sheets") {
		out = appendUnique(out, "Google Sheets")
	}
	if hasService(in.Services, "Properties") {
		out = appendUnique(out, "Script properties")
	}
	return out
}

func outputs(in Input) []string {
	out := []string{}
	for _, r := range in.Resources {
		if r.Access == artifact.AccessWrite || r.Access == artifact.AccessReadWrite {
			out = appendUnique(out, resourceName(r))
		}
	}
	if hasService(in.Services, "Gmail") || hasService(in.Services, "Mail") {
		out = appendUnique(out, "Email")
	}
	if hasService(in.Services, "Google Calendar") {
		out = appendUnique(out, "Google Calendar")
	}
	if hasService(in.Services, "Google Docs") {
		out = appendUnique(out, "Google Docs")
	}
	for _, c := range in.Calls {
		out = appendUnique(out, c.BaseURL)
	}
	return out
}

func resourceName(r artifact.ConnectedResource) string {
	switch r.Kind {
	case artifact.ResourceActiveContainer:
		return "Active file"
	case artifact.ResourceSpreadsheet:
		return "Spreadsheet " + r.ID
	case artifact.ResourceDocument:
		return "Document " + r.ID
	default:
		return "Drive file " + r.ID
	}
}

func count(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// joinClauses renders "a", "a and b", "a, b and c".
func joinClauses(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
