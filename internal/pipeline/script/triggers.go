package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/scan"
)

var (
	// newTrigger('fn') plus the chained calls; arguments may nest one level.
	reNewTrigger = regexp.MustCompile(`ScriptApp\s*\.\s*newTrigger\s*\(\s*['"]([\w$]+)['"]\s*\)((?:\s*\.\s*[\w$]+\s*\((?:[^()]|\([^()]*\))*\))*)`)
	reChainCall  = regexp.MustCompile(`\.\s*([\w$]+)\s*\(((?:[^()]|\([^()]*\))*)\)`)
	reWeekDay    = regexp.MustCompile(`WeekDay\s*\.\s*([A-Z]+)`)
)

type eventKind struct {
	typ   artifact.TriggerType
	event string
}

var chainEvents = map[string]eventKind{
	"timeBased":    {artifact.TriggerTimeDriven, "CLOCK"},
	"onEdit":       {artifact.TriggerOnEdit, "ON_EDIT"},
	"onOpen":       {artifact.TriggerOnOpen, "ON_OPEN"},
	"onFormSubmit": {artifact.TriggerOnFormSubmit, "ON_FORM_SUBMIT"},
	"onChange":     {artifact.TriggerOther, "ON_CHANGE"},
}

var reservedEntryPoints = map[string]eventKind{
	"onOpen":            {artifact.TriggerOnOpen, "ON_OPEN"},
	"onEdit":            {artifact.TriggerOnEdit, "ON_EDIT"},
	"onInstall":         {artifact.TriggerOther, "ON_INSTALL"},
	"onSelectionChange": {artifact.TriggerOther, "ON_SELECTION_CHANGE"},
	"onChange":          {artifact.TriggerOther, "ON_CHANGE"},
	"onFormSubmit":      {artifact.TriggerOnFormSubmit, "ON_FORM_SUBMIT"},
	"doGet":             {artifact.TriggerWebGet, "DO_GET"},
	"doPost":            {artifact.TriggerWebPost, "DO_POST"},
}

type triggerKey struct {
	typ          artifact.TriggerType
	fn, schedule string
	programmatic bool
}

// ExtractTriggers classifies programmatic registrations and reserved entry points.
// functions must come from ExtractFunctions over the same unit.
func ExtractTriggers(unit artifact.SourceUnit, functions []artifact.FunctionRecord) []artifact.TriggerRecord {
	out := []artifact.TriggerRecord{}
	seen := map[triggerKey]bool{}
	add := func(r artifact.TriggerRecord) {
		k := triggerKey{r.Type, r.Function, r.Schedule, r.Programmatic}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, r)
	}
	for _, file := range unit.CodeFiles() {
		lines := scan.NewLineIndex(file.Source)
		for _, m := range reNewTrigger.FindAllStringSubmatchIndex(file.Source, -1) {
			fn := file.Source[m[2]:m[3]]
			kind, schedule := classifyChain(file.Source[m[4]:m[5]])
			add(artifact.TriggerRecord{
				Type:         kind.typ,
				Function:     fn,
				Schedule:     schedule,
				Programmatic: true,
				Event:        kind.event,
				Location:     scan.Location(file.Name, lines.Line(m[0])),
			})
		}
		for _, fn := range functions {
			if fn.File != file.Name {
				continue
			}
			kind, ok := reservedEntryPoints[fn.Name]
			if !ok {
				continue
			}
			add(artifact.TriggerRecord{
				Type:     kind.typ,
				Function: fn.Name,
				Event:    kind.event,
				Location: scan.Location(file.Name, fn.StartLine),
			})
		}
	}
	return out
}

// schedule pieces collected from a builder chain
type schedule struct {
	unit   string
	every  int
	hour   int
	minute int
	day    string
	month  int
	once   string
}

func classifyChain(chain string) (eventKind, string) {
	kind := eventKind{artifact.TriggerOther, "UNKNOWN"}
	s := schedule{every: -1, hour: -1, minute: -1, month: -1}
	for _, c := range reChainCall.FindAllStringSubmatch(chain, -1) {
		name, arg := c[1], strings.TrimSpace(c[2])
		if k, ok := chainEvents[name]; ok {
			kind = k
			continue
		}
		n, numErr := strconv.Atoi(arg)
		switch name {
		case "everyMinutes", "everyHours", "everyDays", "everyWeeks":
			s.unit = strings.ToLower(strings.TrimPrefix(name, "every"))
			if numErr == nil {
				s.every = n
			}
		case "atHour":
			if numErr == nil {
				s.hour = n
			}
		case "nearMinute":
			if numErr == nil {
				s.minute = n
			}
		case "onWeekDay":
			if m := reWeekDay.FindStringSubmatch(arg); m != nil {
				s.day = strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
			}
		case "onMonthDay":
			if numErr == nil {
				s.month = n
			}
		case "after":
			if numErr == nil {
				s.once = "Once after " + humanMillis(n)
			} else {
				s.once = "Once after a delay"
			}
		case "at":
			s.once = "Once at a specific time"
		}
	}
	return kind, s.String()
}

func (s schedule) String() string {
	if s.once != "" {
		return s.once
	}
	var b strings.Builder
	switch {
	case s.month > 0:
		fmt.Fprintf(&b, "Every month on day %d", s.month)
	case s.day != "":
		fmt.Fprintf(&b, "Every %s", s.day)
	case s.unit != "":
		single := strings.TrimSuffix(s.unit, "s")
		if s.every > 1 {
			fmt.Fprintf(&b, "Every %d %s", s.every, s.unit)
		} else {
			fmt.Fprintf(&b, "Every %s", single)
		}
	}
	if s.hour >= 0 {
		if b.Len() == 0 {
			b.WriteString("Daily")
		}
		minute := 0
		if s.minute >= 0 {
			minute = s.minute
		}
		fmt.Fprintf(&b, " at %d:%02d", s.hour, minute)
	}
	return b.String()
}

func humanMillis(ms int) string {
	switch {
	case ms%86400000 == 0 && ms > 0:
		return plural(ms/86400000, "day")
	case ms%3600000 == 0 && ms > 0:
		return plural(ms/3600000, "hour")
	case ms%60000 == 0 && ms > 0:
		return plural(ms/60000, "minute")
	case ms%1000 == 0 && ms > 0:
		return plural(ms/1000, "second")
	}
	return plural(ms, "millisecond")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
