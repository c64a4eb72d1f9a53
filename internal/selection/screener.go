package selection

import (
	"time"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/logger"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

// FavoriteSource provides the current favorites snapshot
type FavoriteSource interface {
	Snapshot() contracts.FavoriteSet
}

// Result is the outcome of one screening pass
type Result struct {
	Records           []contracts.StockRecord `json:"records"`
	ActiveFilterCount int                     `json:"active_filter_count"`
	Input             int                     `json:"input"`
}

// Screener applies a FilterState to a record set
// ⭐ SSOT: 스크리닝 조합(AND) 로직은 여기서만
type Screener struct {
	favorites FavoriteSource
	metrics   *metrics.Recorder
	logger    *logger.Logger
}

// NewScreener creates a screener. favorites and rec may be nil.
func NewScreener(favorites FavoriteSource, rec *metrics.Recorder, log *logger.Logger) *Screener {
	return &Screener{
		favorites: favorites,
		metrics:   rec,
		logger:    log,
	}
}

// Screen returns the records that satisfy every active dimension of state, in input order.
// The favorites snapshot is taken once per call.
func (s *Screener) Screen(records []contracts.StockRecord, state contracts.FilterState) Result {
	var favs contracts.FavoriteSet
	if s.favorites != nil && state.FavoritesOnly {
		favs = s.favorites.Snapshot()
	}
	return s.ScreenWith(records, state, favs)
}

// ScreenWith is Screen with an explicit favorites snapshot
func (s *Screener) ScreenWith(records []contracts.StockRecord, state contracts.FilterState, favs contracts.FavoriteSet) Result {
	start := time.Now()
	state = state.Normalized()

	match := Compile(state, favs)
	out := make([]contracts.StockRecord, 0, len(records))
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}

	result := Result{
		Records:           out,
		ActiveFilterCount: state.ActiveCount(),
		Input:             len(records),
	}

	s.metrics.RecordScreen(len(out), time.Since(start))
	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"input":          len(records),
			"passed":         len(out),
			"active_filters": state.ActiveDimensions(),
			"search":         state.SearchTerm(),
		}).Debug("Screening completed")
	}

	return result
}

// Compile builds the AND of every active dimension of state.
// 순서: 즐겨찾기 조회 → 숫자 조건 → 문자열 검색 (싼 것부터)
func Compile(state contracts.FilterState, favs contracts.FavoriteSet) Predicate {
	state = state.Normalized()
	preds := make([]Predicate, 0, 8)

	if state.FavoritesOnly {
		preds = append(preds, InSet(favs))
	}
	// 가격 범위는 항상 적용 (기본 0~1000 이라도 1000 초과 종목은 숨김)
	if state.PriceRange.IsDefault() {
		preds = append(preds, PriceRangeOrUnpriced(state.PriceRange.Min, state.PriceRange.Max))
	} else {
		preds = append(preds, PriceRange(state.PriceRange.Min, state.PriceRange.Max))
	}
	for _, p := range []Predicate{
		rsiPredicate(state.RSI),
		volumePredicate(state.Volume),
		changePredicate(state.Change),
		directionPredicate(state.Direction),
		trendPredicate(state.Trend),
	} {
		if p != nil {
			preds = append(preds, p)
		}
	}
	if term := state.SearchTerm(); term != "" {
		preds = append(preds, Search(term))
	}

	return All(preds...)
}
