package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	LogLevel    string
	TuningPath  string
	Parallelism int
	Store       StoreConfig
	Artifact    ArtifactConfig
	Fetch       FetchConfig
	Cache       CacheConfig
}

// StoreConfig selects the persistence backend. DatabaseURL wins over SQLitePath;
// with neither set results live in memory.
type StoreConfig struct {
	DatabaseURL string
	SQLitePath  string
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// CanUseS3 reports whether the S3 settings are complete enough to dial.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled && a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

type FetchConfig struct {
	SourceDir string
	APIBase   string
	Token     string
	Timeout   time.Duration
}

type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	return &Config{
		Env:         env,
		LogLevel:    firstNonEmpty(strings.TrimSpace(os.Getenv("SCRIPTINSIGHT_LOG_LEVEL")), "info"),
		TuningPath:  strings.TrimSpace(os.Getenv("SCRIPTINSIGHT_TUNING")),
		Parallelism: intEnv("SCRIPTINSIGHT_PARALLELISM", 4),
		Store: StoreConfig{
			DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
			SQLitePath:  strings.TrimSpace(os.Getenv("SCRIPTINSIGHT_SQLITE_PATH")),
		},
		Artifact: loadArtifactConfig(env),
		Fetch: FetchConfig{
			SourceDir: firstNonEmpty(strings.TrimSpace(os.Getenv("SCRIPTINSIGHT_SOURCE_DIR")), "projects"),
			APIBase:   firstNonEmpty(strings.TrimSpace(os.Getenv("SCRIPT_API_BASE")), "https://script.googleapis.com"),
			Token:     strings.TrimSpace(os.Getenv("SCRIPT_API_TOKEN")),
			Timeout:   durationEnv("SCRIPT_API_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			MaxEntries: intEnv("SCRIPTINSIGHT_CACHE_ENTRIES", 256),
			TTL:        durationEnv("SCRIPTINSIGHT_CACHE_TTL", 5*time.Minute),
		},
	}, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "scriptinsight-analyses"),
		Prefix:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")), "analyses"),
		UseSSL:    resolveUseSSL(env),
	}
}

func resolveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
