package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"

	"scriptinsight/internal/config"
	"scriptinsight/internal/logger"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open picks the origin backend from cfg (S3, then Postgres, then SQLite,
// then memory) and fronts it with a CachedStore. The closer releases the origin.
func Open(cfg *config.Config, log hclog.Logger) (Store, io.Closer, error) {
	log = logger.OrDiscard(log)
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is nil")
	}
	origin, closer, err := openOrigin(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cached := NewCachedStore(origin, CacheConfig{MaxEntries: cfg.Cache.MaxEntries, TTL: cfg.Cache.TTL})
	return cached, closer, nil
}

func openOrigin(cfg *config.Config, log hclog.Logger) (Store, io.Closer, error) {
	if cfg.Artifact.CanUseS3() {
		s3, err := NewS3Store(S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			Prefix:    cfg.Artifact.Prefix,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize analysis s3 store: %w", err)
		}
		log.Info("analysis store: s3", "bucket", cfg.Artifact.Bucket, "endpoint", cfg.Artifact.Endpoint)
		return s3, nopCloser{}, nil
	}
	if cfg.Artifact.Enabled {
		log.Warn("analysis store: s3 config incomplete, falling back")
	}
	if dsn := strings.TrimSpace(cfg.Store.DatabaseURL); dsn != "" {
		st, err := OpenSQL(DialectPostgres, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		log.Info("analysis store: postgres")
		return st, st, nil
	}
	if p := strings.TrimSpace(cfg.Store.SQLitePath); p != "" {
		st, err := OpenSQL(DialectSQLite, p)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite %s: %w", p, err)
		}
		log.Info("analysis store: sqlite", "path", p)
		return st, st, nil
	}
	log.Info("analysis store: in-memory")
	return NewMemoryStore(), nopCloser{}, nil
}
