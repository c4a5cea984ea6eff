// Package script wraps the analysis engine as a context-aware worker.
package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
	"scriptinsight/internal/logger"
	pipescript "scriptinsight/internal/pipeline/script"
)

type ScriptAnalysis struct {
	Analyzer pipescript.Analyzer
	Log      hclog.Logger
}

func New(tun config.Tuning, log hclog.Logger) *ScriptAnalysis {
	return &ScriptAnalysis{
		Analyzer: pipescript.NewAnalyzer(tun),
		Log:      logger.OrDiscard(log),
	}
}

func (w *ScriptAnalysis) Run(ctx context.Context, in artifact.ScriptAnalysisIn) (artifact.ScriptAnalysisOut, error) {
	if err := ctx.Err(); err != nil {
		return artifact.ScriptAnalysisOut{}, err
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		projectID = strings.TrimSpace(in.Unit.Name)
	}
	if projectID == "" {
		return artifact.ScriptAnalysisOut{}, fmt.Errorf("project id is required")
	}
	if in.Unit.Name == "" {
		in.Unit.Name = projectID
	}
	log := logger.OrDiscard(w.Log).With("project", projectID)

	start := time.Now()
	res := w.Analyzer.Analyze(in.Unit)
	log.Debug("analyzed",
		"files", len(res.Files),
		"functions", len(res.Functions),
		"rules", len(res.BusinessLogic.Rules),
		"complexity", res.Complexity,
		"elapsed", time.Since(start),
	)
	return artifact.ScriptAnalysisOut{ProjectID: projectID, Result: res}, nil
}
