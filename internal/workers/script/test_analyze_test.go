package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/config"
)

func unit(name, src string) artifact.SourceUnit {
	return artifact.SourceUnit{Name: name, Files: []artifact.SourceFile{
		{Name: "Code.gs", Kind: artifact.FileKindCode, Source: src},
	}}
}

func TestScriptAnalysisRun(t *testing.T) {
	w := New(config.DefaultTuning(), nil)
	out, err := w.Run(context.Background(), artifact.ScriptAnalysisIn{
		ProjectID: "leave",
		Unit:      unit("", "function onOpen() {}\nfunction doGet(e) {}\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "leave", out.ProjectID)
	assert.Equal(t, "leave", out.Result.Project)
	assert.Len(t, out.Result.Triggers, 2)
	assert.Equal(t, artifact.InvocationTriggered, out.Result.Invocation)
}

func TestScriptAnalysisFallsBackToUnitName(t *testing.T) {
	w := New(config.Tuning{}, nil)
	out, err := w.Run(context.Background(), artifact.ScriptAnalysisIn{Unit: unit("Payroll", "")})
	require.NoError(t, err)
	assert.Equal(t, "Payroll", out.ProjectID)
}

func TestScriptAnalysisErrors(t *testing.T) {
	w := New(config.DefaultTuning(), nil)
	_, err := w.Run(context.Background(), artifact.ScriptAnalysisIn{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Run(ctx, artifact.ScriptAnalysisIn{ProjectID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
