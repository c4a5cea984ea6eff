// Package analysis persists analysis results, one current record per project.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scriptinsight/internal/artifact"
)

var ErrNotFound = errors.New("analysis not found")

// Record is one stored analysis. Put replaces any earlier record for ProjectID.
type Record struct {
	ProjectID  string                  `json:"project_id"`
	RunID      string                  `json:"run_id"`
	AnalyzedAt time.Time               `json:"analyzed_at"`
	Result     artifact.AnalysisResult `json:"result"`
}

// Store defines operations for persisting analysis records.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, projectID string) (Record, error)
	// List returns every record ordered by project id.
	List(ctx context.Context) ([]Record, error)
}

func validate(rec Record) (Record, error) {
	rec.ProjectID = strings.TrimSpace(rec.ProjectID)
	if rec.ProjectID == "" {
		return rec, fmt.Errorf("project_id is required")
	}
	if strings.TrimSpace(rec.RunID) == "" {
		return rec, fmt.Errorf("run_id is required")
	}
	if rec.AnalyzedAt.IsZero() {
		rec.AnalyzedAt = time.Now().UTC()
	}
	return rec, nil
}

func projectKey(projectID string) (string, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return "", fmt.Errorf("project_id is required")
	}
	return projectID, nil
}
