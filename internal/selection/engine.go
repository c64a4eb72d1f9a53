package selection

import (
	"fmt"

	"github.com/wonny/borsa-screener/internal/contracts"
)

// View is one screened and sorted page of rows
type View struct {
	Result
	Sort          contracts.SortState `json:"sort"`
	FavoriteCount int                 `json:"favorite_count"`

	// Favorites is the snapshot the view was computed with
	Favorites contracts.FavoriteSet `json:"-"`
}

// Engine runs filter then sort against a single favorites snapshot
type Engine struct {
	screener  *Screener
	sorter    *Sorter
	favorites FavoriteSource
}

// NewEngine creates an engine. favorites may be nil (no favorites).
func NewEngine(screener *Screener, sorter *Sorter, favorites FavoriteSource) *Engine {
	return &Engine{
		screener:  screener,
		sorter:    sorter,
		favorites: favorites,
	}
}

// Run validates both states, filters, then sorts with favorites first
func (e *Engine) Run(records []contracts.StockRecord, filter contracts.FilterState, sortState contracts.SortState) (View, error) {
	if err := filter.Validate(); err != nil {
		return View{}, err
	}
	dir, err := contracts.ParseSortDirection(string(sortState.Direction))
	if err != nil {
		return View{}, err
	}
	sortState.Direction = dir
	sortState = sortState.Normalized()

	var favs contracts.FavoriteSet
	if e.favorites != nil {
		favs = e.favorites.Snapshot()
	}

	result := e.screener.ScreenWith(records, filter, favs)
	sorted, err := e.sorter.Sort(result.Records, sortState, favs)
	if err != nil {
		return View{}, fmt.Errorf("sort by %s: %w", sortState.Field, err)
	}
	result.Records = sorted

	return View{
		Result:        result,
		Sort:          sortState,
		FavoriteCount: favs.Len(),
		Favorites:     favs,
	}, nil
}
