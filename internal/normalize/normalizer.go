package normalize

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

// Drop reasons reported in BatchResult.DropReasons and the dropped metric
const (
	ReasonMissingSymbol   = "missing_symbol"
	ReasonDuplicateSymbol = "duplicate_symbol"
)

// Options controls fallback behaviour
type Options struct {
	// ForecastChangeFallback daily_change 가 없을 때 lstm_change_percent 를 대신 사용
	// (시장 변화율이 아니라 모델 예측치임 → Provenance 에 기록)
	ForecastChangeFallback bool
}

// DefaultOptions matches the upstream application's behaviour
func DefaultOptions() Options {
	return Options{ForecastChangeFallback: true}
}

// BatchResult is the outcome of normalizing one upstream batch
type BatchResult struct {
	Records     []contracts.StockRecord
	Dropped     int
	DropReasons map[string]int
}

// Normalizer maps upstream payloads onto canonical records
// ⭐ SSOT: 필드 우선순위(precedence)는 여기서만 정의
type Normalizer struct {
	opts    Options
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewNormalizer creates a normalizer. rec may be nil.
func NewNormalizer(opts Options, rec *metrics.Recorder, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		opts:    opts,
		metrics: rec,
		log:     log.With().Str("component", "normalize").Logger(),
	}
}

// NormalizeBatch normalizes every row, dropping invalid ones.
// The first occurrence of a symbol wins; later duplicates are dropped.
func (n *Normalizer) NormalizeBatch(raws []RawStock) BatchResult {
	result := BatchResult{
		Records:     make([]contracts.StockRecord, 0, len(raws)),
		DropReasons: make(map[string]int),
	}
	seen := make(map[string]struct{}, len(raws))

	for i, raw := range raws {
		rec, ok := n.Normalize(raw)
		if !ok {
			result.drop(ReasonMissingSymbol)
			n.log.Debug().Int("index", i).Msg("dropped record without symbol")
			continue
		}
		if _, dup := seen[rec.Symbol]; dup {
			result.drop(ReasonDuplicateSymbol)
			n.log.Debug().Str("symbol", rec.Symbol).Msg("dropped duplicate symbol")
			continue
		}
		seen[rec.Symbol] = struct{}{}
		result.Records = append(result.Records, rec)
	}

	n.metrics.RecordNormalized(len(result.Records))
	for reason, cnt := range result.DropReasons {
		n.metrics.RecordDropped(reason, cnt)
	}

	if result.Dropped > 0 {
		n.log.Warn().
			Int("input", len(raws)).
			Int("kept", len(result.Records)).
			Int("dropped", result.Dropped).
			Interface("reasons", result.DropReasons).
			Msg("normalized batch with drops")
	} else {
		n.log.Debug().Int("kept", len(result.Records)).Msg("normalized batch")
	}

	return result
}

func (r *BatchResult) drop(reason string) {
	r.Dropped++
	r.DropReasons[reason]++
}

// Normalize maps a single row. ok is false when the row has no usable symbol.
func (n *Normalizer) Normalize(raw RawStock) (contracts.StockRecord, bool) {
	symbol := strings.TrimSpace(raw.Symbol)
	if symbol == "" {
		return contracts.StockRecord{}, false
	}

	rec := contracts.StockRecord{
		Symbol: symbol,
		Name:   strings.TrimSpace(raw.Name),
	}

	// price ← current_price, last_price
	if v := nonNegative(raw.CurrentPrice); v != nil {
		rec.Price = v
		rec.Provenance.Price = contracts.PriceSourceCurrent
	} else if v := nonNegative(raw.LastPrice); v != nil {
		rec.Price = v
		rec.Provenance.Price = contracts.PriceSourceLast
	}

	// dailyChangePercent ← daily_change, lstm_change_percent
	if v := finite(raw.DailyChange); v != nil {
		rec.DailyChangePercent = v
		rec.Provenance.DailyChange = contracts.ChangeSourceMarket
	} else if n.opts.ForecastChangeFallback {
		if v := finite(raw.LSTMChangePercent); v != nil {
			rec.DailyChangePercent = v
			rec.Provenance.DailyChange = contracts.ChangeSourceForecast
		}
	}

	rec.RelativeVolume = nonNegative(raw.RelativeVolume)
	rec.RSI = inRange(raw.RSI, 0, 100)

	// volume ← daily_volume, volume
	if v := volume(raw.DailyVolume); v != nil {
		rec.Volume = v
	} else {
		rec.Volume = volume(raw.Volume)
	}

	if raw.Prediction != nil {
		rec.PredictionTrend = ParseTrend(raw.Prediction.Direction)
	}

	return rec, true
}

// Denormalize renders a record in the canonical upstream shape.
// Fields go back to the key recorded in Provenance so Normalize restores the same record.
func Denormalize(rec contracts.StockRecord) RawStock {
	raw := RawStock{
		Symbol:         rec.Symbol,
		Name:           rec.Name,
		RelativeVolume: copyFloat(rec.RelativeVolume),
		RSI:            copyFloat(rec.RSI),
	}

	if rec.Price != nil {
		if rec.Provenance.Price == contracts.PriceSourceLast {
			raw.LastPrice = copyFloat(rec.Price)
		} else {
			raw.CurrentPrice = copyFloat(rec.Price)
		}
	}

	if rec.DailyChangePercent != nil {
		if rec.Provenance.DailyChange == contracts.ChangeSourceForecast {
			raw.LSTMChangePercent = copyFloat(rec.DailyChangePercent)
		} else {
			raw.DailyChange = copyFloat(rec.DailyChangePercent)
		}
	}

	if rec.Volume != nil {
		v := float64(*rec.Volume)
		raw.DailyVolume = &v
	}

	if rec.PredictionTrend != contracts.TrendNone {
		raw.Prediction = &RawPredictionSummary{Direction: string(rec.PredictionTrend)}
	}

	return raw
}

// ParseTrend maps an upstream direction label to a Trend; unknown labels are TrendNone
func ParseTrend(s string) contracts.Trend {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return contracts.TrendUp
	case "down":
		return contracts.TrendDown
	case "neutral":
		return contracts.TrendNeutral
	}
	return contracts.TrendNone
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := *v
	return &out
}

func nonNegative(v *float64) *float64 {
	f := finite(v)
	if f == nil || *f < 0 {
		return nil
	}
	return f
}

func inRange(v *float64, lo, hi float64) *float64 {
	f := finite(v)
	if f == nil || *f < lo || *f > hi {
		return nil
	}
	return f
}

func volume(v *float64) *int64 {
	f := nonNegative(v)
	if f == nil || *f >= math.MaxInt64 {
		return nil
	}
	out := int64(math.Round(*f))
	return &out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
