package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"scriptinsight/internal/artifact"
)

type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: 256,
		TTL:        5 * time.Minute,
	}
}

type MetricsSnapshot struct {
	Hits           uint64
	Misses         uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	hits           atomic.Uint64
	misses         atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

const listKey = "*"

// CachedStore fronts an origin Store with expiring LRU caches for Get and List.
type CachedStore struct {
	origin Store

	records *expirable.LRU[string, Record]
	lists   *expirable.LRU[string, []Record]
	metrics Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	return &CachedStore{
		origin:  origin,
		records: expirable.NewLRU[string, Record](cfg.MaxEntries, nil, cfg.TTL),
		lists:   expirable.NewLRU[string, []Record](1, nil, cfg.TTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, rec Record) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, rec); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.records.Remove(strings.TrimSpace(rec.ProjectID))
	s.lists.Remove(listKey)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, projectID string) (Record, error) {
	key := strings.TrimSpace(projectID)
	if rec, ok := s.records.Get(key); ok {
		s.metrics.hits.Add(1)
		return cloneRecord(rec), nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)

	rec, err := s.origin.Get(ctx, projectID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return Record{}, err
	}
	s.records.Add(key, cloneRecord(rec))
	return rec, nil
}

func (s *CachedStore) List(ctx context.Context) ([]Record, error) {
	if list, ok := s.lists.Get(listKey); ok {
		s.metrics.listHits.Add(1)
		return cloneRecords(list), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	list, err := s.origin.List(ctx)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.lists.Add(listKey, cloneRecords(list))
	return list, nil
}

// cloneRecord copies rec through its JSON form. Cached entries never share
// slices with callers.
func cloneRecord(rec Record) Record {
	raw, err := json.Marshal(rec.Result)
	if err != nil {
		return rec
	}
	out := rec
	out.Result = artifact.AnalysisResult{}
	if err := json.Unmarshal(raw, &out.Result); err != nil {
		return rec
	}
	return out
}

func cloneRecords(list []Record) []Record {
	out := make([]Record, 0, len(list))
	for _, rec := range list {
		out = append(out, cloneRecord(rec))
	}
	return out
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return s.metrics.snapshot()
}
