package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptinsight/internal/artifact"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDirFetcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "leave", "Code.gs"), "function a() {}\n")
	writeFile(t, filepath.Join(root, "leave", "Page.html"), "<p></p>\n")
	writeFile(t, filepath.Join(root, "leave", "appsscript.json"), "{}")
	writeFile(t, filepath.Join(root, "leave", "README.md"), "# ignored")
	writeFile(t, filepath.Join(root, "leave", "vendor", "lib.gs"), "function b() {}")
	writeFile(t, filepath.Join(root, "other", "Code.gs"), "")

	f := DirFetcher{Root: root, Exclude: []string{"vendor/**"}}
	unit, err := f.Fetch(context.Background(), "leave")
	require.NoError(t, err)
	assert.Equal(t, "leave", unit.Name)
	assert.Equal(t, []string{"Code.gs", "Page.html", "appsscript.json"}, unit.FileNames())
	assert.Equal(t, artifact.FileKindMarkup, unit.Files[1].Kind)

	projects, err := f.Projects()
	require.NoError(t, err)
	assert.Equal(t, []string{"leave", "other"}, projects)
}

func TestDirFetcherErrors(t *testing.T) {
	f := DirFetcher{Root: t.TempDir()}

	_, err := f.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "../escape")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), " ")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, "any")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoteFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/projects/missing/content" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Path == "/v1/projects/broken/content" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "/v1/projects/abc/content", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(remoteContent{
			ScriptID: "abc",
			Files: []remoteFile{
				{Name: "Code", Type: "SERVER_JS", Source: "function a() {}"},
				{Name: "Index", Type: "HTML", Source: "<p></p>"},
				{Name: "appsscript", Type: "JSON", Source: "{}"},
				{Name: "Mystery", Type: "BINARY", Source: "??"},
			},
		})
	}))
	defer srv.Close()

	f := NewRemoteFetcher(srv.URL+"/", "secret", 5*time.Second)
	unit, err := f.Fetch(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", unit.Name)
	assert.Equal(t, []string{"Code.gs", "Index.html", "appsscript.json"}, unit.FileNames())
	assert.Equal(t, artifact.FileKindCode, unit.Files[0].Kind)
	assert.Equal(t, artifact.FileKindConfig, unit.Files[2].Kind)

	_, err = f.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
