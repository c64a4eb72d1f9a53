package selection

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

// ErrUnknownSortField is returned for a SortState naming no known column
var ErrUnknownSortField = errors.New("unknown sort field")

type numericExtractor func(contracts.StockRecord) float64

type stringExtractor func(contracts.StockRecord) string

// 숫자 컬럼: 값이 없으면 0 으로 비교
var numericFields = map[contracts.SortField]numericExtractor{
	contracts.SortPrice:  func(r contracts.StockRecord) float64 { return r.PriceOr(0) },
	contracts.SortChange: func(r contracts.StockRecord) float64 { return r.ChangeOr(0) },
	contracts.SortVolume: func(r contracts.StockRecord) float64 {
		if r.Volume == nil {
			return 0
		}
		return float64(*r.Volume)
	},
	contracts.SortRelVolume: func(r contracts.StockRecord) float64 { return orZero(r.RelativeVolume) },
	contracts.SortRSI:       func(r contracts.StockRecord) float64 { return orZero(r.RSI) },
}

var stringFields = map[contracts.SortField]stringExtractor{
	contracts.SortSymbol: func(r contracts.StockRecord) string { return r.Symbol },
	contracts.SortName:   func(r contracts.StockRecord) string { return r.Name },
}

// IsSortField reports whether f names a sortable column
func IsSortField(f contracts.SortField) bool {
	_, num := numericFields[f]
	_, str := stringFields[f]
	return num || str
}

// Sorter orders records with favorites first, then by the selected column
// ⭐ SSOT: 정렬 규칙은 여기서만
type Sorter struct {
	locale  language.Tag
	metrics *metrics.Recorder
}

// NewSorter creates a sorter collating strings for locale. rec may be nil.
func NewSorter(locale language.Tag, rec *metrics.Recorder) *Sorter {
	return &Sorter{locale: locale, metrics: rec}
}

// Sort returns a sorted copy of records. The input slice is not modified.
// Favorites come first for every state; equal keys keep their input order.
func (s *Sorter) Sort(records []contracts.StockRecord, state contracts.SortState, favs contracts.FavoriteSet) ([]contracts.StockRecord, error) {
	start := time.Now()
	state = state.Normalized()

	cmp, err := s.comparator(state.Field)
	if err != nil {
		return nil, err
	}
	desc := state.Direction == contracts.Descending

	out := make([]contracts.StockRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		fa, fb := favs.Contains(a.Symbol), favs.Contains(b.Symbol)
		if fa != fb {
			return fa
		}
		c := cmp(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})

	s.metrics.ObserveDuration("sort", time.Since(start))
	return out, nil
}

func (s *Sorter) comparator(field contracts.SortField) (func(a, b contracts.StockRecord) int, error) {
	if get, ok := numericFields[field]; ok {
		return func(a, b contracts.StockRecord) int {
			x, y := get(a), get(b)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}, nil
	}
	if get, ok := stringFields[field]; ok {
		// Collator 는 동시 사용 불가 → 호출마다 생성
		col := collate.New(s.locale)
		return func(a, b contracts.StockRecord) int {
			return col.CompareString(get(a), get(b))
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSortField, field)
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
