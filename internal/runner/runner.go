// Package runner drives fetch, analyze and persist across many projects.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/fetch"
	"scriptinsight/internal/logger"
	"scriptinsight/internal/repository/analysis"
)

// Worker is the analysis step; workers/script.ScriptAnalysis satisfies it.
type Worker interface {
	Run(ctx context.Context, in artifact.ScriptAnalysisIn) (artifact.ScriptAnalysisOut, error)
}

type Runner struct {
	Fetcher     fetch.Fetcher
	Worker      Worker
	Store       analysis.Store
	Parallelism int
	Log         hclog.Logger

	// Now and NewRunID default to time.Now and uuid.NewString.
	Now      func() time.Time
	NewRunID func() string
}

// Outcome is the per-project result of a run. Exactly one of Record and Err is set.
type Outcome struct {
	ProjectID string
	Record    *analysis.Record
	Err       error
}

type Report struct {
	RunID    string
	Outcomes []Outcome
}

// Failed counts projects that did not produce a stored record.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Run analyzes every project id. A failing project does not stop the others;
// their errors come back joined, and Outcomes keeps the input order.
func (r *Runner) Run(ctx context.Context, projectIDs []string) (Report, error) {
	if r.Fetcher == nil || r.Worker == nil {
		return Report{}, fmt.Errorf("runner: fetcher and worker are required")
	}
	newID := r.NewRunID
	if newID == nil {
		newID = uuid.NewString
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	log := logger.OrDiscard(r.Log)

	report := Report{RunID: newID(), Outcomes: make([]Outcome, len(projectIDs))}
	log = log.With("run_id", report.RunID)
	log.Info("run started", "projects", len(projectIDs))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Parallelism
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, id := range projectIDs {
		i, id := i, strings.TrimSpace(id)
		g.Go(func() error {
			rec, err := r.one(gctx, report.RunID, id, now)
			report.Outcomes[i] = Outcome{ProjectID: id, Record: rec, Err: err}
			if err != nil {
				log.Error("project failed", "project", id, "error", err)
			} else {
				log.Info("project analyzed", "project", id, "complexity", rec.Result.Complexity)
			}
			// per-project failures never cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range report.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("project %s: %w", o.ProjectID, o.Err))
		}
	}
	log.Info("run finished", "failed", len(errs))
	return report, errors.Join(errs...)
}

func (r *Runner) one(ctx context.Context, runID, projectID string, now func() time.Time) (*analysis.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unit, err := r.Fetcher.Fetch(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	out, err := r.Worker.Run(ctx, artifact.ScriptAnalysisIn{ProjectID: projectID, Unit: unit})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	rec := analysis.Record{
		ProjectID:  out.ProjectID,
		RunID:      runID,
		AnalyzedAt: now().UTC(),
		Result:     out.Result,
	}
	if r.Store != nil {
		if err := r.Store.Put(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
	}
	return &rec, nil
}
