package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"scriptinsight/internal/artifact"
)

// RemoteFetcher pulls project content from the script API.
type RemoteFetcher struct {
	httpc *resty.Client
}

type remoteFile struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source string `json:"source"`
}

type remoteContent struct {
	ScriptID string       `json:"scriptId"`
	Files    []remoteFile `json:"files"`
}

func NewRemoteFetcher(baseURL, token string, timeout time.Duration) *RemoteFetcher {
	httpc := resty.New()
	httpc.SetBaseURL(strings.TrimRight(baseURL, "/"))
	if token != "" {
		httpc.SetAuthToken(token)
	}
	if timeout > 0 {
		httpc.SetTimeout(timeout)
	}
	httpc.SetHeader("Accept", "application/json")
	return &RemoteFetcher{httpc: httpc}
}

func (f *RemoteFetcher) Fetch(ctx context.Context, projectID string) (artifact.SourceUnit, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return artifact.SourceUnit{}, fmt.Errorf("project id is required")
	}
	var content remoteContent
	resp, err := f.httpc.R().
		SetContext(ctx).
		SetPathParam("id", projectID).
		SetResult(&content).
		Get("/v1/projects/{id}/content")
	if err != nil {
		return artifact.SourceUnit{}, fmt.Errorf("fetch project %s: %w", projectID, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return artifact.SourceUnit{}, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	case resp.IsError():
		return artifact.SourceUnit{}, fmt.Errorf("fetch project %s: unexpected status %d", projectID, resp.StatusCode())
	}

	unit := artifact.SourceUnit{Name: projectID, Files: make([]artifact.SourceFile, 0, len(content.Files))}
	for _, rf := range content.Files {
		kind, ext, ok := remoteKind(rf.Type)
		if !ok {
			continue
		}
		unit.Files = append(unit.Files, artifact.SourceFile{Name: rf.Name + ext, Kind: kind, Source: rf.Source})
	}
	return unit, nil
}

func remoteKind(t string) (artifact.FileKind, string, bool) {
	switch strings.ToUpper(t) {
	case "SERVER_JS":
		return artifact.FileKindCode, ".gs", true
	case "HTML":
		return artifact.FileKindMarkup, ".html", true
	case "JSON":
		return artifact.FileKindConfig, ".json", true
	}
	return "", "", false
}
