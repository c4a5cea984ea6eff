package script

import (
	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
	"scriptinsight/internal/pipeline/logic"
	"scriptinsight/internal/pipeline/summary"
	"scriptinsight/internal/scan"
	"scriptinsight/internal/wordidx"
)

// Analyzer runs every extractor over a source unit. The zero value uses
// DefaultTuning. An Analyzer holds no mutable state and may be shared.
type Analyzer struct {
	Tuning config.Tuning
}

// NewAnalyzer returns an Analyzer with zero tuning fields filled from defaults.
func NewAnalyzer(tun config.Tuning) Analyzer {
	return Analyzer{Tuning: tun.Normalized()}
}

// Analyze builds the full result for unit. It never fails; an empty unit
// yields an empty, valid result.
func (a Analyzer) Analyze(unit artifact.SourceUnit) artifact.AnalysisResult {
	tun := a.Tuning.Normalized()

	loc := 0
	for _, f := range unit.Files {
		loc += scan.CountLines(f.Source)
	}

	functions := []artifact.FunctionRecord{}
	for _, f := range unit.CodeFiles() {
		functions = append(functions, ExtractFunctions(f)...)
	}

	calls := ExtractExternalCalls(unit, tun)
	services := ExtractServices(wordidx.BuildUnit(unit))
	triggers := ExtractTriggers(unit, functions)
	resources := ExtractResources(unit, tun.AccessWindow)

	invocation := artifact.InvocationManual
	if len(triggers) > 0 {
		invocation = artifact.InvocationTriggered
	}

	return artifact.AnalysisResult{
		Project:            unit.Name,
		Files:              unit.FileNames(),
		LinesOfCode:        loc,
		Complexity:         classify(loc, tun),
		Invocation:         invocation,
		Functions:          functions,
		ExternalCalls:      calls,
		GoogleServices:     services,
		Triggers:           triggers,
		ConnectedResources: resources,
		BusinessLogic:      logic.Extract(unit, functions, tun),
		Summary: summary.Synthesize(summary.Input{
			Project:   unit.Name,
			Functions: functions,
			Calls:     calls,
			Services:  services,
			Triggers:  triggers,
			Resources: resources,
		}, tun),
	}
}

func classify(loc int, tun config.Tuning) artifact.Complexity {
	switch {
	case loc < tun.MediumLines:
		return artifact.ComplexityLow
	case loc < tun.HighLines:
		return artifact.ComplexityMedium
	default:
		return artifact.ComplexityHigh
	}
}
