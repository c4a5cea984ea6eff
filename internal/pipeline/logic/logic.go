// Package logic reconstructs business rules, validations, status flows,
// calculations, decision trees and data transformations from script text.
//
// Every sub-extractor works on plain text patterns. The same span may be
// reported by several of them; results are not reconciled across kinds.
package logic

import (
	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
)

type condKey struct {
	file  string
	start int
}

type extractContext struct {
	tun       config.Tuning
	vocab     Vocab
	functions []artifact.FunctionRecord
	files     []artifact.SourceFile
	conds     [][]Conditional
	consumed  map[condKey]bool
}

func (ctx *extractContext) fileOrder() map[string]int {
	out := make(map[string]int, len(ctx.files))
	for i, f := range ctx.files {
		out[f.Name] = i
	}
	return out
}

// Extract runs the six sub-extractors over the code files of unit.
// functions should come from the function extractor over the same unit.
func Extract(unit artifact.SourceUnit, functions []artifact.FunctionRecord, tun config.Tuning) artifact.BusinessLogic {
	tun = tun.Normalized()
	ctx := &extractContext{
		tun:       tun,
		vocab:     NewVocab(tun),
		functions: functions,
		files:     unit.CodeFiles(),
		consumed:  map[condKey]bool{},
	}
	for _, f := range ctx.files {
		ctx.conds = append(ctx.conds, FindConditionals(f, functions))
	}

	bl := artifact.BusinessLogic{
		Rules: extractRules(ctx),
		// validations mark consumed checks before decisions run
		Validations: extractValidations(ctx),
	}
	bl.StatusFlows = extractStatusFlows(ctx)
	bl.Calculations = extractCalculations(ctx)
	bl.DecisionTrees = extractDecisions(ctx)
	bl.Transformations = extractTransformations(ctx)
	return bl
}
