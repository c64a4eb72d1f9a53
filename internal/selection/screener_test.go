package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/logger"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

type staticFavorites struct {
	set   contracts.FavoriteSet
	calls int
}

func (s *staticFavorites) Snapshot() contracts.FavoriteSet {
	s.calls++
	return s.set
}

func universe() []contracts.StockRecord {
	f := contracts.Float
	return []contracts.StockRecord{
		{Symbol: "THYAO", Name: "Türk Hava Yolları", Price: f(312), DailyChangePercent: f(2.4), RelativeVolume: f(1.6), RSI: f(55), PredictionTrend: contracts.TrendUp},
		{Symbol: "ASELS", Name: "Aselsan", Price: f(48), DailyChangePercent: f(-1.1), RelativeVolume: f(0.8), RSI: f(28), PredictionTrend: contracts.TrendDown},
		{Symbol: "GARAN", Name: "Garanti BBVA", Price: f(101), DailyChangePercent: f(0.5), RelativeVolume: f(1.3), RSI: f(48), PredictionTrend: contracts.TrendNeutral},
		{Symbol: "KCHOL", Name: "Koç Holding", Price: f(1650), DailyChangePercent: f(3.1), RelativeVolume: f(2.2), RSI: f(72)},
		{Symbol: "SISE", Name: "Şişecam"},
	}
}

func symbols(recs []contracts.StockRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Symbol
	}
	return out
}

func newTestScreener(favs FavoriteSource) *Screener {
	return NewScreener(favs, metrics.New(), logger.NewNop())
}

func TestScreen_PotentialRiserScenario(t *testing.T) {
	f := contracts.Float
	input := []contracts.StockRecord{
		{Symbol: "AAA", RSI: f(25), RelativeVolume: f(1.6)},
		{Symbol: "BBB", RSI: f(55), RelativeVolume: f(1.5)},
	}

	res := newTestScreener(nil).Screen(input, contracts.DefaultFilterState().WithDirection(contracts.DirectionPotentialUp))

	assert.Equal(t, []string{"BBB"}, symbols(res.Records))
	assert.Equal(t, 1, res.ActiveFilterCount)
	assert.Equal(t, 2, res.Input)
}

func TestScreen_Dimensions(t *testing.T) {
	favs := &staticFavorites{set: contracts.NewFavoriteSet("ASELS", "SISE")}
	s := newTestScreener(favs)

	// KCHOL(1650) 은 기본 0~1000 범위 밖이라 상한을 올려야 보임
	wide := contracts.DefaultFilterState().WithPriceRange(0, 2000)

	tests := []struct {
		name  string
		state contracts.FilterState
		want  []string
	}{
		{"defaults hide above 1000 keep unpriced", contracts.DefaultFilterState(), []string{"THYAO", "ASELS", "GARAN", "SISE"}},
		{"raised ceiling shows expensive", wide, []string{"THYAO", "ASELS", "GARAN", "KCHOL", "SISE"}},
		{"narrow price drops missing price", contracts.DefaultFilterState().WithPriceRange(50, 400), []string{"THYAO", "GARAN"}},
		{"oversold rsi", contracts.DefaultFilterState().WithRSI(contracts.RSIOversold), []string{"ASELS"}},
		{"overbought rsi under default range", contracts.DefaultFilterState().WithRSI(contracts.RSIOverbought), []string{}},
		{"overbought rsi", wide.WithRSI(contracts.RSIOverbought), []string{"KCHOL"}},
		{"mid band", contracts.DefaultFilterState().WithRSI(contracts.RSIMidBand), []string{"THYAO"}},
		{"volume high", wide.WithVolume(contracts.VolumeHigh), []string{"THYAO", "KCHOL"}},
		{"change down", contracts.DefaultFilterState().WithChange(contracts.ChangeDown), []string{"ASELS"}},
		{"change high", contracts.DefaultFilterState().WithChange(contracts.ChangeHigh), []string{"THYAO"}},
		{"bullish", contracts.DefaultFilterState().WithDirection(contracts.DirectionBullish), []string{"THYAO", "GARAN"}},
		{"trend neutral", contracts.DefaultFilterState().WithTrend(contracts.TrendFilterNeutral), []string{"GARAN"}},
		{"search by name", wide.WithSearch("koç"), []string{"KCHOL"}},
		{"search hidden by default range", contracts.DefaultFilterState().WithSearch("koç"), []string{}},
		{"favorites only", contracts.DefaultFilterState().WithFavoritesOnly(true), []string{"ASELS", "SISE"}},
		{"favorites and rsi", contracts.DefaultFilterState().WithFavoritesOnly(true).WithRSI(contracts.RSIOversold), []string{"ASELS"}},
		{"nothing matches", contracts.DefaultFilterState().WithRSI(contracts.RSIOversold).WithChange(contracts.ChangeUp), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Screen(universe(), tt.state)
			assert.Equal(t, tt.want, symbols(res.Records))
			assert.Equal(t, tt.state.ActiveCount(), res.ActiveFilterCount)
		})
	}
}

func TestScreen_SnapshotOncePerCall(t *testing.T) {
	favs := &staticFavorites{set: contracts.NewFavoriteSet("THYAO")}
	s := newTestScreener(favs)

	s.Screen(universe(), contracts.DefaultFilterState().WithFavoritesOnly(true))
	assert.Equal(t, 1, favs.calls)

	// favorites-only 가 아니면 조회하지 않음
	s.Screen(universe(), contracts.DefaultFilterState())
	assert.Equal(t, 1, favs.calls)
}

func TestScreen_EmptyInput(t *testing.T) {
	res := newTestScreener(nil).Screen(nil, contracts.DefaultFilterState().WithRSI(contracts.RSINeutral))
	assert.Empty(t, res.Records)
	assert.Equal(t, 0, res.Input)
	assert.Equal(t, 1, res.ActiveFilterCount)
}

func TestScreen_Properties(t *testing.T) {
	s := newTestScreener(&staticFavorites{set: contracts.NewFavoriteSet("THYAO", "KCHOL")})
	states := []contracts.FilterState{
		contracts.DefaultFilterState(),
		contracts.DefaultFilterState().WithVolume(contracts.VolumeAbove).WithChange(contracts.ChangeUp),
		contracts.DefaultFilterState().WithFavoritesOnly(true).WithSearch("o"),
		contracts.DefaultFilterState().WithPriceRange(0, 500).WithRSI(contracts.RSINeutral),
	}
	rng := rand.New(rand.NewSource(7))

	for i, state := range states {
		input := universe()
		first := s.Screen(input, state)

		// subset
		in := make(map[string]bool)
		for _, r := range input {
			in[r.Symbol] = true
		}
		for _, r := range first.Records {
			require.True(t, in[r.Symbol], "state %d: %s not in input", i, r.Symbol)
		}

		// idempotent
		second := s.Screen(first.Records, state)
		assert.Equal(t, symbols(first.Records), symbols(second.Records), "state %d", i)

		// order-independent membership
		shuffled := universe()
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := s.Screen(shuffled, state)
		assert.ElementsMatch(t, symbols(first.Records), symbols(got.Records), "state %d", i)
	}
}
