package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the database/sql driver and its placeholder style.
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore keeps records in a single analyses table.
type SQLStore struct {
	db         *sql.DB
	dialect    Dialect
	schemaOnce sync.Once
	schemaErr  error
}

// OpenSQL opens and pings dsn with the driver for d.
func OpenSQL(d Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(string(d), strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if d == DialectSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, d), nil
}

func NewSQLStore(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// q rewrites $n placeholders for drivers that expect "?".
func (s *SQLStore) q(query string) string {
	if s.dialect != DialectSQLite {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		// the result is kept for every later caller, so the first caller's
		// cancellation must not decide it
		_, s.schemaErr = s.db.ExecContext(context.WithoutCancel(ctx), `
CREATE TABLE IF NOT EXISTS analyses (
    project_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    analyzed_at TEXT NOT NULL,
    result TEXT NOT NULL
)`)
	})
	return s.schemaErr
}

func (s *SQLStore) Put(ctx context.Context, rec Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	rec, err := validate(rec)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	raw, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`
INSERT INTO analyses (project_id, run_id, analyzed_at, result)
VALUES ($1, $2, $3, $4)
ON CONFLICT (project_id)
DO UPDATE SET run_id=excluded.run_id, analyzed_at=excluded.analyzed_at, result=excluded.result
`), rec.ProjectID, rec.RunID, rec.AnalyzedAt.UTC().Format(time.RFC3339Nano), string(raw))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.ProjectID, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, projectID string) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("store is nil")
	}
	key, err := projectKey(projectID)
	if err != nil {
		return Record{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Record{}, fmt.Errorf("ensure schema: %w", err)
	}
	row := s.db.QueryRowContext(ctx, s.q(`SELECT project_id, run_id, analyzed_at, result FROM analyses WHERE project_id=$1`), key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT project_id, run_id, analyzed_at, result FROM analyses ORDER BY project_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec  Record
		at   string
		body string
	)
	if err := row.Scan(&rec.ProjectID, &rec.RunID, &at, &body); err != nil {
		return Record{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return Record{}, fmt.Errorf("decode analyzed_at for %s: %w", rec.ProjectID, err)
	}
	rec.AnalyzedAt = t
	if err := json.Unmarshal([]byte(body), &rec.Result); err != nil {
		return Record{}, fmt.Errorf("decode result for %s: %w", rec.ProjectID, err)
	}
	return rec, nil
}
