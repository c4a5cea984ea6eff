package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DATABASE_URL", " postgres://u:p@db:5432/x ")
	t.Setenv("SCRIPTINSIGHT_PARALLELISM", "8")
	t.Setenv("SCRIPTINSIGHT_CACHE_TTL", "90s")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "s3.example.com")
	t.Setenv("ARTIFACT_S3_ACCESS_KEY", "ak")
	t.Setenv("ARTIFACT_S3_SECRET_KEY", "sk")
	t.Setenv("ARTIFACT_S3_USE_SSL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Store.DatabaseURL)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Artifact.CanUseS3())
	assert.True(t, cfg.Artifact.UseSSL)
	assert.Equal(t, "scriptinsight-analyses", cfg.Artifact.Bucket)
}

func TestLoadFallsBackOnBadNumbers(t *testing.T) {
	t.Setenv("SCRIPTINSIGHT_PARALLELISM", "many")
	t.Setenv("SCRIPTINSIGHT_CACHE_TTL", "-1s")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Artifact.CanUseS3())
}

func TestLoadTuningOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	yml := `
medium_lines: 50
terminal_statuses: [shipped, void]
vendors:
  - keyword: acme
    description: ACME integration
    signal: pings ACME
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	tun, err := LoadTuning(path)
	require.NoError(t, err)
	def := DefaultTuning()
	assert.Equal(t, 50, tun.MediumLines)
	assert.Equal(t, def.HighLines, tun.HighLines)
	assert.Equal(t, []string{"shipped", "void"}, tun.TerminalStatuses)
	assert.Equal(t, def.DomainTerms, tun.DomainTerms)
	require.Len(t, tun.Vendors, 1)
	assert.Equal(t, "acme", tun.Vendors[0].Keyword)
}

func TestLoadTuningErrors(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("medium_lines: [oops"), 0o644))
	_, err = LoadTuning(bad)
	assert.Error(t, err)

	tun, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning().MediumLines, tun.MediumLines)
	assert.Equal(t, 3, Tuning{}.Normalized().MaxActionSignals)
}
