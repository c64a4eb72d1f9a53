package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/borsa-screener/internal/normalize"
)

// Source names
const (
	SourceUniverse = "universe" // /stocks/symbols + 상세 조회
	SourceFiltered = "filtered" // /stocks/filtered-symbols
)

// ErrEmptyFetch is returned when the upstream produced no rows at all
var ErrEmptyFetch = errors.New("upstream returned no rows")

// Fetcher is the upstream collaborator
type Fetcher interface {
	FetchUniverse(ctx context.Context) ([]normalize.RawStock, error)
	FilteredStocks(ctx context.Context, refresh bool) ([]normalize.RawStock, error)
}

// Refresher fetches, normalizes and stores a new snapshot
type Refresher struct {
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	store      *Store
	source     string
	now        func() time.Time
}

// NewRefresher creates a refresher. source is SourceUniverse or SourceFiltered.
func NewRefresher(fetcher Fetcher, normalizer *normalize.Normalizer, store *Store, source string) *Refresher {
	if source == "" {
		source = SourceUniverse
	}
	return &Refresher{
		fetcher:    fetcher,
		normalizer: normalizer,
		store:      store,
		source:     source,
		now:        time.Now,
	}
}

// Refresh pulls a fresh batch. On failure the previous snapshot is kept.
func (r *Refresher) Refresh(ctx context.Context) (Snapshot, error) {
	var (
		raws []normalize.RawStock
		err  error
	)
	switch r.source {
	case SourceFiltered:
		raws, err = r.fetcher.FilteredStocks(ctx, false)
	case SourceUniverse:
		raws, err = r.fetcher.FetchUniverse(ctx)
	default:
		return Snapshot{}, fmt.Errorf("unknown snapshot source %q", r.source)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("refresh %s: %w", r.source, err)
	}
	if len(raws) == 0 {
		return Snapshot{}, fmt.Errorf("refresh %s: %w", r.source, ErrEmptyFetch)
	}

	batch := r.normalizer.NormalizeBatch(raws)
	snap := Snapshot{
		Records:     batch.Records,
		Dropped:     batch.Dropped,
		DropReasons: batch.DropReasons,
		Source:      r.source,
		UpdatedAt:   r.now(),
	}
	r.store.Put(ctx, snap)
	return snap, nil
}
