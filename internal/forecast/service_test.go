package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/internal/normalize"
	"github.com/wonny/borsa-screener/pkg/config"
	"github.com/wonny/borsa-screener/pkg/redis"
)

type stubSource struct {
	pred      normalize.RawPrediction
	keepBlank bool // symbol 을 채우지 않음 (정규화 실패 유도)
	predCalls int
	predErr   error
	bars      []normalize.RawBar
	barsErr   error
	days      int
}

func (s *stubSource) Prediction(_ context.Context, symbol string) (normalize.RawPrediction, error) {
	s.predCalls++
	if s.predErr != nil {
		return normalize.RawPrediction{}, s.predErr
	}
	p := s.pred
	if !s.keepBlank {
		p.Symbol = symbol
	}
	return p, nil
}

func (s *stubSource) History(_ context.Context, _ string, days int) ([]normalize.RawBar, error) {
	s.days = days
	return s.bars, s.barsErr
}

func bars() []normalize.RawBar {
	return []normalize.RawBar{
		{Datetime: "2024-03-04 12:00:00", Close: contracts.Float(100)},
		{Datetime: "2024-03-04 13:00:00", Close: nil},
		{Datetime: "2024-03-04 14:00:00", Close: contracts.Float(102)},
	}
}

func newTestService(src Source) *ChartService {
	return NewChartService(src, nil,
		normalize.NewNormalizer(normalize.DefaultOptions(), nil, zerolog.Nop()),
		newTestStitcher(), 45, zerolog.Nop())
}

func TestChartService_Build(t *testing.T) {
	src := &stubSource{
		bars: bars(),
		pred: normalize.RawPrediction{
			CurrentPrice: contracts.Float(102),
			BestModel:    "gru",
			Predictions: map[string][]float64{
				"lstm": {103, 104, 105, 106},
				"gru":  {101, 100, 99, 98},
			},
		},
	}
	chart, err := newTestService(src).Build(context.Background(), " thyao ", nil, 0)
	require.NoError(t, err)

	assert.Equal(t, "THYAO", chart.Symbol)
	assert.Equal(t, 45, src.days, "default history window")
	require.NotNil(t, chart.Prediction)
	assert.Empty(t, chart.Warnings)

	// 14:00 이후 15, 16, 17시 슬롯만 추가
	assert.Len(t, chart.Series.Timestamps, 6)
	gru, ok := chart.Series.Channel("gru")
	require.True(t, ok, "best model by default")
	assert.Equal(t, 3, gru.ValueCount())
	_, ok = chart.Series.Channel("lstm")
	assert.False(t, ok)

	price, ok := chart.Series.Channel(HistoricalChannel)
	require.True(t, ok)
	assert.True(t, price.Points[1].Gap(), "missing close stays a gap")
}

func TestChartService_RequestedModels(t *testing.T) {
	src := &stubSource{
		bars: bars(),
		pred: normalize.RawPrediction{Predictions: map[string][]float64{
			"lstm":      {1, 2},
			"attention": {3, 4},
		}},
	}
	chart, err := newTestService(src).Build(context.Background(), "ASELS", []contracts.ModelName{contracts.ModelLSTM, contracts.ModelAttention}, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, src.days)

	for _, name := range []string{"lstm", "attention"} {
		ch, ok := chart.Series.Channel(name)
		require.True(t, ok, name)
		assert.Equal(t, 2, ch.ValueCount(), name)
	}
}

func TestChartService_PredictionFailureDegrades(t *testing.T) {
	src := &stubSource{bars: bars(), predErr: errors.New("404")}

	chart, err := newTestService(src).Build(context.Background(), "GARAN", nil, 0)
	require.NoError(t, err)
	assert.Nil(t, chart.Prediction)
	assert.Equal(t, []string{"prediction unavailable"}, chart.Warnings)
	assert.Len(t, chart.Series.Timestamps, 3, "history only")
}

func TestChartService_HistoryFailure(t *testing.T) {
	src := &stubSource{barsErr: errors.New("timeout")}

	_, err := newTestService(src).Build(context.Background(), "GARAN", nil, 0)
	assert.Error(t, err)

	_, err = newTestService(src).Build(context.Background(), "  ", nil, 0)
	assert.ErrorIs(t, err, normalize.ErrMissingSymbol)
}

func TestChartService_WarmWithoutCache(t *testing.T) {
	assert.Zero(t, newTestService(&stubSource{}).Warm(context.Background(), []string{"THYAO"}))
}

func TestParseModels(t *testing.T) {
	models, err := ParseModels("lstm, GRU")
	require.NoError(t, err)
	assert.Equal(t, []contracts.ModelName{contracts.ModelLSTM, contracts.ModelGRU}, models)

	models, err = ParseModels("")
	require.NoError(t, err)
	assert.Nil(t, models)

	_, err = ParseModels("lstm,transformer")
	assert.Error(t, err)
}

func TestChartService_UnusablePredictionIsEvicted(t *testing.T) {
	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	src := &stubSource{bars: bars(), keepBlank: true}
	svc := NewChartService(src, redis.NewCache(client, "test"),
		normalize.NewNormalizer(normalize.DefaultOptions(), nil, zerolog.Nop()),
		newTestStitcher(), 45, zerolog.Nop())

	for i := 0; i < 2; i++ {
		chart, err := svc.Build(context.Background(), "thyao", nil, 0)
		require.NoError(t, err)
		assert.Nil(t, chart.Prediction)
		assert.Equal(t, []string{"prediction unavailable"}, chart.Warnings)
	}
	assert.Equal(t, 2, src.predCalls, "unusable payload is fetched again")
}
