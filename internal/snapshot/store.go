package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/redis"
)

// Snapshot is one normalized upstream batch.
// Records is shared between readers and must not be mutated.
type Snapshot struct {
	Records     []contracts.StockRecord `json:"records"`
	Dropped     int                     `json:"dropped"`
	DropReasons map[string]int          `json:"drop_reasons,omitempty"`
	Source      string                  `json:"source"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Age returns how old the snapshot is at now
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}

// Store keeps the latest snapshot in memory and, when a cache is set, in Redis
// ⭐ SSOT: 최신 배치는 여기서만 보관
type Store struct {
	mu      sync.RWMutex
	current *Snapshot

	cache *redis.Cache
	log   zerolog.Logger
}

// NewStore creates a store. cache may be nil.
func NewStore(cache *redis.Cache, log zerolog.Logger) *Store {
	return &Store{
		cache: cache,
		log:   log.With().Str("component", "snapshot").Logger(),
	}
}

// Put replaces the latest snapshot.
// 캐시 쓰기 실패는 경고만 (메모리 상태가 기준)
func (s *Store) Put(ctx context.Context, snap Snapshot) {
	s.mu.Lock()
	s.current = &snap
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, redis.SnapshotKey(), snap, redis.TTLSnapshot); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache snapshot")
	}
}

// Latest returns the in-memory snapshot, falling back to the Redis copy
// (e.g. right after a restart, before the first refresh).
func (s *Store) Latest(ctx context.Context) (Snapshot, bool) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur != nil {
		return *cur, true
	}

	if s.cache == nil {
		return Snapshot{}, false
	}

	var snap Snapshot
	found, err := s.cache.Get(ctx, redis.SnapshotKey(), &snap)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cached snapshot")
		return Snapshot{}, false
	}
	if !found {
		return Snapshot{}, false
	}

	s.mu.Lock()
	if s.current == nil {
		s.current = &snap
	}
	s.mu.Unlock()

	s.log.Info().
		Int("records", len(snap.Records)).
		Time("updated_at", snap.UpdatedAt).
		Msg("restored snapshot from cache")
	return snap, true
}
