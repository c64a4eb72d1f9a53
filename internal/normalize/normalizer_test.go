package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

func f(v float64) *float64 { return &v }

func newTestNormalizer(opts Options) *Normalizer {
	return NewNormalizer(opts, nil, zerolog.Nop())
}

func TestNormalize_Precedence(t *testing.T) {
	n := newTestNormalizer(DefaultOptions())

	tests := []struct {
		name       string
		raw        RawStock
		wantPrice  *float64
		wantPSrc   contracts.PriceSource
		wantChange *float64
		wantCSrc   contracts.ChangeSource
		wantVolume *int64
	}{
		{
			name:       "current wins over last",
			raw:        RawStock{Symbol: "AAA", CurrentPrice: f(10), LastPrice: f(9), DailyChange: f(1.5), LSTMChangePercent: f(3), DailyVolume: f(100), Volume: f(50)},
			wantPrice:  f(10),
			wantPSrc:   contracts.PriceSourceCurrent,
			wantChange: f(1.5),
			wantCSrc:   contracts.ChangeSourceMarket,
			wantVolume: contracts.Int(100),
		},
		{
			name:       "falls back to last price and forecast change",
			raw:        RawStock{Symbol: "BBB", LastPrice: f(9), LSTMChangePercent: f(-2), Volume: f(50)},
			wantPrice:  f(9),
			wantPSrc:   contracts.PriceSourceLast,
			wantChange: f(-2),
			wantCSrc:   contracts.ChangeSourceForecast,
			wantVolume: contracts.Int(50),
		},
		{
			name:      "zero current price is present",
			raw:       RawStock{Symbol: "CCC", CurrentPrice: f(0), LastPrice: f(5)},
			wantPrice: f(0),
			wantPSrc:  contracts.PriceSourceCurrent,
		},
		{
			name:      "negative current price falls through",
			raw:       RawStock{Symbol: "DDD", CurrentPrice: f(-1), LastPrice: f(5)},
			wantPrice: f(5),
			wantPSrc:  contracts.PriceSourceLast,
		},
		{
			name: "nothing present",
			raw:  RawStock{Symbol: "EEE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := n.Normalize(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.wantPrice, rec.Price)
			assert.Equal(t, tt.wantPSrc, rec.Provenance.Price)
			assert.Equal(t, tt.wantChange, rec.DailyChangePercent)
			assert.Equal(t, tt.wantCSrc, rec.Provenance.DailyChange)
			assert.Equal(t, tt.wantVolume, rec.Volume)
		})
	}
}

func TestNormalize_ForecastFallbackDisabled(t *testing.T) {
	n := newTestNormalizer(Options{ForecastChangeFallback: false})

	rec, ok := n.Normalize(RawStock{Symbol: "AAA", LSTMChangePercent: f(4)})
	require.True(t, ok)
	assert.Nil(t, rec.DailyChangePercent)
	assert.Equal(t, contracts.ChangeSourceNone, rec.Provenance.DailyChange)
}

func TestNormalize_OutOfDomainBecomesAbsent(t *testing.T) {
	n := newTestNormalizer(DefaultOptions())

	rec, ok := n.Normalize(RawStock{
		Symbol:         " AAA ",
		RSI:            f(101),
		RelativeVolume: f(-0.5),
		DailyVolume:    f(-10),
		DailyChange:    f(math.NaN()),
		CurrentPrice:   f(math.Inf(1)),
	})
	require.True(t, ok)
	assert.Equal(t, "AAA", rec.Symbol)
	assert.Nil(t, rec.RSI)
	assert.Nil(t, rec.RelativeVolume)
	assert.Nil(t, rec.Volume)
	assert.Nil(t, rec.DailyChangePercent)
	assert.Nil(t, rec.Price)
	assert.False(t, rec.Complete())
}

func TestNormalizeBatch_DropsAndCounts(t *testing.T) {
	rec := metrics.New()
	n := NewNormalizer(DefaultOptions(), rec, zerolog.Nop())

	res := n.NormalizeBatch([]RawStock{
		{Symbol: "AAA", CurrentPrice: f(1)},
		{Symbol: ""},
		{Symbol: "   "},
		{Symbol: "AAA", CurrentPrice: f(2)},
		{Symbol: "BBB"},
	})

	require.Len(t, res.Records, 2)
	assert.Equal(t, "AAA", res.Records[0].Symbol)
	assert.Equal(t, 1.0, *res.Records[0].Price, "first occurrence wins")
	assert.Equal(t, "BBB", res.Records[1].Symbol)
	assert.Equal(t, 3, res.Dropped)
	assert.Equal(t, map[string]int{ReasonMissingSymbol: 2, ReasonDuplicateSymbol: 1}, res.DropReasons)
}

func TestNormalizeBatch_Empty(t *testing.T) {
	res := newTestNormalizer(DefaultOptions()).NormalizeBatch(nil)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Dropped)
}

func TestNormalize_RoundTrip(t *testing.T) {
	n := newTestNormalizer(DefaultOptions())

	records := []contracts.StockRecord{
		{
			Symbol: "THYAO", Name: "Türk Hava Yolları",
			Price: f(312.5), DailyChangePercent: f(1.2), RelativeVolume: f(1.7), RSI: f(55), Volume: contracts.Int(1200000),
			PredictionTrend: contracts.TrendUp,
			Provenance:      contracts.Provenance{Price: contracts.PriceSourceCurrent, DailyChange: contracts.ChangeSourceMarket},
		},
		{
			Symbol: "ASELS", Price: f(48), DailyChangePercent: f(-0.4),
			Provenance: contracts.Provenance{Price: contracts.PriceSourceLast, DailyChange: contracts.ChangeSourceForecast},
		},
		{Symbol: "EMPTY"},
	}

	for _, want := range records {
		t.Run(want.Symbol, func(t *testing.T) {
			got, ok := n.Normalize(Denormalize(want))
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestRawStock_DecodesUpstreamJSON(t *testing.T) {
	body := `{"symbol":"GARAN","name":"Garanti","last_price":101.2,"daily_change":null,
		"lstm_change_percent":2.5,"relative_volume":1.45,"rsi":52.1,"volume":5000,
		"prediction":{"direction":"UP","price_target":110},"unknown":"x"}`

	var raw RawStock
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	rec, ok := newTestNormalizer(DefaultOptions()).Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, 101.2, *rec.Price)
	assert.Equal(t, contracts.PriceSourceLast, rec.Provenance.Price)
	assert.Equal(t, 2.5, *rec.DailyChangePercent)
	assert.Equal(t, int64(5000), *rec.Volume)
	assert.Equal(t, contracts.TrendUp, rec.PredictionTrend)
}

func TestNormalizePrediction(t *testing.T) {
	n := newTestNormalizer(DefaultOptions())
	ist, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	body := `{"symbol":"THYAO","current_price":300,
		"lstm_predicted_price":306,"lstm_change_percent":2,"lstm_mse":0.4,
		"gru_predicted_price":303,"gru_change_percent":1,"gru_mse":0.2,
		"best_model":"","prediction_date":"2024-03-01T10:00:00",
		"predictions":{"lstm":[301,302,303],"transformer":[1]},
		"models":[{"model_name":"gru","hourly_predictions":[{"hour":1,"predicted_price":300.5},{"hour":2,"predicted_price":301}]},
		          {"model_name":"lstm","hourly_predictions":[{"hour":1,"predicted_price":999}]}]}`

	var raw RawPrediction
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	rec, err := n.NormalizePrediction(raw, ist)
	require.NoError(t, err)

	assert.Equal(t, "THYAO", rec.Symbol)
	assert.Len(t, rec.Models, 2)
	assert.Equal(t, contracts.ModelGRU, rec.BestModel, "lowest mse when best_model is blank")
	assert.Equal(t, contracts.Floats(301, 302, 303), rec.Hourly[contracts.ModelLSTM], "new shape wins over old")
	assert.Equal(t, contracts.Floats(300.5, 301), rec.Hourly[contracts.ModelGRU])
	assert.NotContains(t, rec.Hourly, contracts.ModelName("transformer"))
	assert.Equal(t, 10, rec.PredictionDate.Hour())
	assert.Equal(t, ist, rec.PredictionDate.Location())

	_, err = n.NormalizePrediction(RawPrediction{}, ist)
	assert.ErrorIs(t, err, ErrMissingSymbol)
}

func TestNormalizePrediction_LegacyMissingStepsKeepPosition(t *testing.T) {
	n := newTestNormalizer(DefaultOptions())

	body := `{"symbol":"ASELS","models":[
		{"model_name":"gru","hourly_predictions":[{"hour":1,"predicted_price":50},{"hour":2,"predicted_price":null},{"hour":3,"predicted_price":52}]},
		{"model_name":"attention","hourly_predictions":[{"hour":3,"predicted_price":60},{"hour":1,"predicted_price":58}]},
		{"model_name":"lstm","hourly_predictions":[{"predicted_price":40},{"predicted_price":null},{"predicted_price":42},{"predicted_price":null}]}]}`

	var raw RawPrediction
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	rec, err := n.NormalizePrediction(raw, time.UTC)
	require.NoError(t, err)

	gru := rec.Hourly[contracts.ModelGRU]
	require.Len(t, gru, 3)
	assert.Equal(t, 50.0, *gru[0])
	assert.Nil(t, gru[1], "missing hour 2 stays a gap")
	assert.Equal(t, 52.0, *gru[2])

	// hour 값 기준 배치 (순서 무관)
	att := rec.Hourly[contracts.ModelAttention]
	require.Len(t, att, 3)
	assert.Equal(t, 58.0, *att[0])
	assert.Nil(t, att[1])
	assert.Equal(t, 60.0, *att[2])

	// hour 없으면 목록 위치, 끝의 빈 step 은 잘라냄
	assert.Equal(t, []*float64{contracts.Float(40), nil, contracts.Float(42)}, rec.Hourly[contracts.ModelLSTM])
}

func TestNormalizeHistory(t *testing.T) {
	n := newTestNormalizer(DefaultOptions())

	points := n.NormalizeHistory([]RawBar{
		{Datetime: "2024-03-01 11:00:00+03:00", Close: f(11)},
		{Datetime: "garbage", Close: f(1)},
		{Datetime: "2024-03-01 10:00:00+03:00", Close: f(10)},
		{Datetime: "2024-03-01 12:00:00+03:00"},
	}, time.UTC)

	require.Len(t, points, 3)
	assert.Equal(t, 10.0, *points[0].Value)
	assert.Equal(t, 11.0, *points[1].Value)
	assert.True(t, points[2].Gap())
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
}

func TestParseTrend(t *testing.T) {
	tests := map[string]contracts.Trend{
		"up":       contracts.TrendUp,
		" DOWN ":   contracts.TrendDown,
		"Neutral":  contracts.TrendNeutral,
		"sideways": contracts.TrendNone,
		"":         contracts.TrendNone,
	}
	for in, want := range tests {
		if got := ParseTrend(in); got != want {
			t.Errorf("ParseTrend(%q) = %q, want %q", in, got, want)
		}
	}
}
