package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

// Key is the named persistence key holding the favorites object
const Key = "favorites"

// ErrEmptySymbol is returned when a mutation names no symbol
var ErrEmptySymbol = errors.New("favorites: empty symbol")

// KV is the persistence backend: one JSON document per key
type KV interface {
	// Get returns the stored bytes; ok is false when the key is absent
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store owns the favorites set
// ⭐ SSOT: 즐겨찾기 상태는 이 객체만 소유 (전역 상태 금지)
//
// Every mutation is written through to the KV before it returns.
type Store struct {
	kv      KV
	mu      sync.RWMutex
	set     map[string]struct{}
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewStore loads the persisted set from kv. rec may be nil.
func NewStore(ctx context.Context, kv KV, rec *metrics.Recorder, log zerolog.Logger) (*Store, error) {
	s := &Store{
		kv:      kv,
		set:     make(map[string]struct{}),
		metrics: rec,
		log:     log.With().Str("component", "favorites").Logger(),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory set with the persisted one
func (s *Store) Reload(ctx context.Context) error {
	data, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return fmt.Errorf("load favorites: %w", err)
	}

	set := make(map[string]struct{})
	if ok && len(data) > 0 {
		set, err = decode(data)
		if err != nil {
			return fmt.Errorf("decode favorites: %w", err)
		}
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()

	s.log.Debug().Int("count", len(set)).Msg("favorites loaded")
	return nil
}

// Toggle flips membership and returns the new state
func (s *Store) Toggle(ctx context.Context, symbol string) (bool, error) {
	symbol, err := cleanSymbol(symbol)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, was := s.set[symbol]
	if was {
		delete(s.set, symbol)
	} else {
		s.set[symbol] = struct{}{}
	}

	if err := s.persistLocked(ctx); err != nil {
		// 저장 실패 시 메모리 상태 원복
		if was {
			s.set[symbol] = struct{}{}
		} else {
			delete(s.set, symbol)
		}
		return was, err
	}

	s.metrics.RecordFavoriteToggle()
	s.log.Info().Str("symbol", symbol).Bool("favorite", !was).Msg("favorite toggled")
	return !was, nil
}

// Add marks symbol as a favorite; adding twice is a no-op
func (s *Store) Add(ctx context.Context, symbol string) error {
	return s.setMembership(ctx, symbol, true)
}

// Remove unmarks symbol; removing a non-member is a no-op
func (s *Store) Remove(ctx context.Context, symbol string) error {
	return s.setMembership(ctx, symbol, false)
}

func (s *Store) setMembership(ctx context.Context, symbol string, want bool) error {
	symbol, err := cleanSymbol(symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, has := s.set[symbol]
	if has == want {
		return nil
	}

	if want {
		s.set[symbol] = struct{}{}
	} else {
		delete(s.set, symbol)
	}

	if err := s.persistLocked(ctx); err != nil {
		if has {
			s.set[symbol] = struct{}{}
		} else {
			delete(s.set, symbol)
		}
		return err
	}

	s.metrics.RecordFavoriteToggle()
	s.log.Info().Str("symbol", symbol).Bool("favorite", want).Msg("favorite updated")
	return nil
}

// IsFavorite reports membership
func (s *Store) IsFavorite(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[strings.TrimSpace(symbol)]
	return ok
}

// All returns the members sorted
func (s *Store) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.set))
	for sym := range s.set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns an immutable copy for one screening/sorting pass
func (s *Store) Snapshot() contracts.FavoriteSet {
	return contracts.NewFavoriteSet(s.All()...)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := encode(s.set)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}

func cleanSymbol(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", ErrEmptySymbol
	}
	return symbol, nil
}

// decode reads {"SYMBOL": true}; false entries are not members
func decode(data []byte) (map[string]struct{}, error) {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(raw))
	for sym, on := range raw {
		if on && strings.TrimSpace(sym) != "" {
			set[strings.TrimSpace(sym)] = struct{}{}
		}
	}
	return set, nil
}

func encode(set map[string]struct{}) ([]byte, error) {
	raw := make(map[string]bool, len(set))
	for sym := range set {
		raw[sym] = true
	}
	// encoding/json 은 map 키를 정렬해서 출력
	return json.Marshal(raw)
}
