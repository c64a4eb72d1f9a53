package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/wonny/borsa-screener/internal/contracts"
)

func newTestEngine(favs FavoriteSource) *Engine {
	return NewEngine(newTestScreener(favs), NewSorter(language.Turkish, nil), favs)
}

func TestEngine_FilterThenSortFavoritesFirst(t *testing.T) {
	favs := &staticFavorites{set: contracts.NewFavoriteSet("GARAN")}
	e := newTestEngine(favs)

	filter := contracts.DefaultFilterState().WithChange(contracts.ChangeUp)
	view, err := e.Run(universe(), filter, contracts.SortState{Field: contracts.SortChange, Direction: contracts.Descending})
	require.NoError(t, err)

	assert.Equal(t, []string{"GARAN", "THYAO"}, symbols(view.Records))
	assert.Equal(t, 5, view.Input)
	assert.Equal(t, 1, view.ActiveFilterCount)
	assert.Equal(t, 1, view.FavoriteCount)
	assert.Equal(t, 1, favs.calls, "one snapshot per run")
}

func TestEngine_DefaultSort(t *testing.T) {
	view, err := newTestEngine(nil).Run(universe(), contracts.DefaultFilterState(), contracts.SortState{})
	require.NoError(t, err)

	assert.Equal(t, contracts.DefaultSortState(), view.Sort)
	assert.Equal(t, []string{"ASELS", "GARAN", "SISE", "THYAO"}, symbols(view.Records))
	assert.Zero(t, view.FavoriteCount)
}

func TestEngine_Errors(t *testing.T) {
	e := newTestEngine(nil)

	_, err := e.Run(universe(), contracts.DefaultFilterState().WithRSI("extreme"), contracts.DefaultSortState())
	assert.Error(t, err)

	_, err = e.Run(universe(), contracts.DefaultFilterState(), contracts.SortState{Field: "marketCap"})
	assert.True(t, errors.Is(err, ErrUnknownSortField))

	_, err = e.Run(universe(), contracts.DefaultFilterState(), contracts.SortState{Field: contracts.SortPrice, Direction: "sideways"})
	assert.EqualError(t, err, `invalid sort direction "sideways"`)
}

func TestEngine_LongDirectionNames(t *testing.T) {
	view, err := newTestEngine(nil).Run(universe(), contracts.DefaultFilterState(),
		contracts.SortState{Field: contracts.SortPrice, Direction: "descending"})
	require.NoError(t, err)

	assert.Equal(t, contracts.Descending, view.Sort.Direction)
	assert.Equal(t, []string{"THYAO", "GARAN", "ASELS", "SISE"}, symbols(view.Records))
}
