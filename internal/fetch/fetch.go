// Package fetch loads script projects as source units, either from a local
// checkout or from the remote script content API.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scriptinsight/internal/artifact"
	"scriptinsight/internal/safeio"
	"scriptinsight/internal/scan"
)

var ErrNotFound = errors.New("fetch: project not found")

type Fetcher interface {
	Fetch(ctx context.Context, projectID string) (artifact.SourceUnit, error)
}

// DirFetcher reads <Root>/<projectID>.
type DirFetcher struct {
	Root         string
	Exclude      []string
	MaxFileBytes int64
}

func (f DirFetcher) Fetch(ctx context.Context, projectID string) (artifact.SourceUnit, error) {
	if err := ctx.Err(); err != nil {
		return artifact.SourceUnit{}, err
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return artifact.SourceUnit{}, fmt.Errorf("project id is required")
	}
	root, err := safeio.NewSafeFS(f.Root)
	if err != nil {
		return artifact.SourceUnit{}, fmt.Errorf("open source root %s: %w", f.Root, err)
	}
	sub, err := root.Sub(filepath.FromSlash(projectID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return artifact.SourceUnit{}, fmt.Errorf("%w: %s", ErrNotFound, projectID)
		}
		return artifact.SourceUnit{}, fmt.Errorf("open project %s: %w", projectID, err)
	}
	unit, err := scan.LoadUnit(sub, projectID, scan.UnitOptions{Exclude: f.Exclude, MaxFileBytes: f.MaxFileBytes})
	if err != nil {
		return artifact.SourceUnit{}, fmt.Errorf("load project %s: %w", projectID, err)
	}
	return unit, nil
}

// Projects lists the project directories directly under Root, sorted.
func (f DirFetcher) Projects() ([]string, error) {
	entries, err := os.ReadDir(f.Root)
	if err != nil {
		return nil, fmt.Errorf("list projects in %s: %w", f.Root, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
