package normalize

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/borsa-screener/internal/contracts"
)

// ErrMissingSymbol is returned for prediction payloads without a symbol
var ErrMissingSymbol = errors.New("normalize: missing symbol")

// upstream 은 timezone 없는 ISO 문자열도 보냄 (Python datetime.isoformat)
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the upstream service emits.
// Values without a zone are interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// NormalizePrediction maps the flat per-model columns and hourly sequences onto a PredictionRecord
func (n *Normalizer) NormalizePrediction(raw RawPrediction, loc *time.Location) (contracts.PredictionRecord, error) {
	symbol := strings.TrimSpace(raw.Symbol)
	if symbol == "" {
		return contracts.PredictionRecord{}, ErrMissingSymbol
	}

	rec := contracts.PredictionRecord{
		Symbol:       symbol,
		CurrentPrice: nonNegative(raw.CurrentPrice),
		Models:       make(map[contracts.ModelName]contracts.ModelPrediction, len(contracts.KnownModels)),
		BestMSE:      nonNegative(raw.BestMSE),
		BestMAE:      nonNegative(raw.BestMAE),
		Volatility:   nonNegative(raw.Volatility),
		Hourly:       make(map[contracts.ModelName][]*float64),
	}

	columns := map[contracts.ModelName]contracts.ModelPrediction{
		contracts.ModelLSTM: {
			PredictedPrice: nonNegative(raw.LSTMPredictedPrice),
			ChangePercent:  finite(raw.LSTMChangePercent),
			MSE:            nonNegative(raw.LSTMMSE),
			MAE:            nonNegative(raw.LSTMMAE),
		},
		contracts.ModelGRU: {
			PredictedPrice: nonNegative(raw.GRUPredictedPrice),
			ChangePercent:  finite(raw.GRUChangePercent),
			MSE:            nonNegative(raw.GRUMSE),
			MAE:            nonNegative(raw.GRUMAE),
		},
		contracts.ModelAttention: {
			PredictedPrice: nonNegative(raw.AttentionPredictedPrice),
			ChangePercent:  finite(raw.AttentionChangePercent),
			MSE:            nonNegative(raw.AttentionMSE),
			MAE:            nonNegative(raw.AttentionMAE),
		},
	}
	for name, mp := range columns {
		if mp != (contracts.ModelPrediction{}) {
			rec.Models[name] = mp
		}
	}

	for key, seq := range raw.Predictions {
		name, ok := contracts.ParseModelName(strings.ToLower(strings.TrimSpace(key)))
		if !ok {
			n.log.Debug().Str("symbol", symbol).Str("model", key).Msg("ignoring unknown model sequence")
			continue
		}
		if steps := finiteSteps(seq); len(steps) > 0 {
			rec.Hourly[name] = steps
		}
	}
	// 구 형식은 신 형식이 없을 때만 사용
	for _, ms := range raw.Models {
		name, ok := contracts.ParseModelName(strings.ToLower(strings.TrimSpace(ms.ModelName)))
		if !ok {
			continue
		}
		if _, exists := rec.Hourly[name]; exists {
			continue
		}
		if steps := legacySteps(ms.HourlyPredictions); len(steps) > 0 {
			rec.Hourly[name] = steps
		}
	}

	if name, ok := contracts.ParseModelName(strings.ToLower(strings.TrimSpace(raw.BestModel))); ok {
		rec.BestModel = name
	} else {
		rec.BestModel = lowestMSE(rec.Models)
	}

	if raw.PredictionDate != "" {
		t, err := ParseTimestamp(raw.PredictionDate, loc)
		if err != nil {
			n.log.Debug().Str("symbol", symbol).Err(err).Msg("ignoring prediction date")
		} else {
			rec.PredictionDate = t
		}
	}

	return rec, nil
}

// NormalizeHistory converts hourly bars into ascending close-price points.
// Bars with an unparseable time are dropped; a missing close becomes a gap.
func (n *Normalizer) NormalizeHistory(bars []RawBar, loc *time.Location) []contracts.SeriesPoint {
	points := make([]contracts.SeriesPoint, 0, len(bars))
	for _, bar := range bars {
		ts, err := ParseTimestamp(bar.Datetime, loc)
		if err != nil {
			n.log.Debug().Str("datetime", bar.Datetime).Msg("dropping bar with bad timestamp")
			continue
		}
		points = append(points, contracts.SeriesPoint{
			Timestamp: ts,
			Value:     nonNegative(bar.Close),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

func lowestMSE(models map[contracts.ModelName]contracts.ModelPrediction) contracts.ModelName {
	var best contracts.ModelName
	bestMSE := math.Inf(1)
	for _, name := range contracts.KnownModels {
		mp, ok := models[name]
		if !ok || mp.MSE == nil {
			continue
		}
		if *mp.MSE < bestMSE {
			bestMSE = *mp.MSE
			best = name
		}
	}
	return best
}

// finiteSteps keeps positions: a non-finite value becomes a missing step
func finiteSteps(seq []float64) []*float64 {
	out := make([]*float64, len(seq))
	for i := range seq {
		v := seq[i]
		out[i] = finite(&v)
	}
	return trimSteps(out)
}

// legacySteps places each point at hour-1 (or its list position when hour is absent)
// 빈 가격은 앞으로 당기지 않고 빈 step 으로 남김
func legacySteps(points []RawHourlyPoint) []*float64 {
	size := len(points)
	for _, p := range points {
		if p.Hour > size {
			size = p.Hour
		}
	}
	out := make([]*float64, size)
	for i, p := range points {
		idx := i
		if p.Hour > 0 {
			idx = p.Hour - 1
		}
		out[idx] = finite(p.PredictedPrice)
	}
	return trimSteps(out)
}

// trimSteps drops trailing missing steps; all-missing yields nil
func trimSteps(steps []*float64) []*float64 {
	end := len(steps)
	for end > 0 && steps[end-1] == nil {
		end--
	}
	if end == 0 {
		return nil
	}
	return steps[:end]
}
