package forecast

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/pkg/metrics"
)

// HistoricalChannel is the name of the observed-price channel
const HistoricalChannel = "price"

// ModelForecast is one model's hourly forecast sequence
type ModelForecast struct {
	Model  contracts.ModelName
	Values []*float64 // nil = 해당 step 예측 없음
}

// Options controls axis extension
type Options struct {
	Location    *time.Location
	WindowStart int           // 거래시간 시작 시 (포함)
	WindowEnd   int           // 거래시간 종료 시 (미포함)
	Step        time.Duration // 예측 간격
}

// DefaultOptions is Borsa Istanbul continuous trading, hourly steps
func DefaultOptions() Options {
	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		loc = time.FixedZone("TRT", 3*60*60)
	}
	return Options{
		Location:    loc,
		WindowStart: 10,
		WindowEnd:   18,
		Step:        time.Hour,
	}
}

// Stitcher aligns forecast sequences onto the historical time axis
// ⭐ SSOT: 차트 x축 생성 규칙은 여기서만
type Stitcher struct {
	opts    Options
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// NewStitcher creates a stitcher. Zero-valued options fall back to the defaults.
func NewStitcher(opts Options, rec *metrics.Recorder, log zerolog.Logger) *Stitcher {
	def := DefaultOptions()
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if opts.WindowStart == 0 && opts.WindowEnd == 0 {
		opts.WindowStart, opts.WindowEnd = def.WindowStart, def.WindowEnd
	}
	return &Stitcher{
		opts:    opts,
		metrics: rec,
		log:     log.With().Str("component", "forecast.stitcher").Logger(),
	}
}

// Options returns the effective options
func (s *Stitcher) Options() Options {
	return s.opts
}

type slot struct {
	at    time.Time
	index int // 예측 시퀀스 인덱스
}

// Stitch builds one shared axis: a slot per historical point, then forecast slots.
//
// Candidate i is last+(i+1)*Step and is kept only when its local hour is inside
// [WindowStart, WindowEnd). The sequence index advances for skipped candidates too,
// so values falling outside the window are never shown.
func (s *Stitcher) Stitch(history []contracts.SeriesPoint, forecasts []ModelForecast) contracts.CombinedSeries {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration("stitch", time.Since(start)) }()

	if len(history) == 0 {
		return contracts.CombinedSeries{
			Timestamps: []time.Time{},
			Channels:   []contracts.Channel{},
		}
	}

	active := make([]ModelForecast, 0, len(forecasts))
	longest := 0
	for _, fc := range forecasts {
		if len(fc.Values) == 0 {
			continue
		}
		active = append(active, fc)
		if len(fc.Values) > longest {
			longest = len(fc.Values)
		}
	}

	last := history[len(history)-1].Timestamp
	slots := make([]slot, 0, longest)
	for i := 0; i < longest; i++ {
		at := last.Add(time.Duration(i+1) * s.opts.Step)
		if s.InWindow(at) {
			slots = append(slots, slot{at: at, index: i})
		}
	}

	total := len(history) + len(slots)
	series := contracts.CombinedSeries{
		Timestamps: make([]time.Time, 0, total),
		Channels:   make([]contracts.Channel, 0, 1+len(active)),
	}

	hist := contracts.Channel{
		Name:   HistoricalChannel,
		Kind:   contracts.ChannelHistorical,
		Points: make([]contracts.SeriesPoint, 0, total),
	}
	for _, p := range history {
		series.Timestamps = append(series.Timestamps, p.Timestamp)
		hist.Points = append(hist.Points, p)
	}
	for _, sl := range slots {
		series.Timestamps = append(series.Timestamps, sl.at)
		hist.Points = append(hist.Points, contracts.SeriesPoint{Timestamp: sl.at})
	}
	series.Channels = append(series.Channels, hist)

	for _, fc := range active {
		ch := contracts.Channel{
			Name:   string(fc.Model),
			Kind:   contracts.ChannelForecast,
			Points: make([]contracts.SeriesPoint, 0, total),
		}
		for _, p := range history {
			ch.Points = append(ch.Points, contracts.SeriesPoint{Timestamp: p.Timestamp})
		}
		for _, sl := range slots {
			pt := contracts.SeriesPoint{Timestamp: sl.at}
			if sl.index < len(fc.Values) && fc.Values[sl.index] != nil {
				v := *fc.Values[sl.index]
				pt.Value = &v
			}
			ch.Points = append(ch.Points, pt)
		}
		series.Channels = append(series.Channels, ch)
	}

	s.log.Debug().
		Int("history", len(history)).
		Int("models", len(active)).
		Int("candidates", longest).
		Int("forecast_slots", len(slots)).
		Msg("stitched series")

	return series
}

// StitchPrediction stitches the requested models' sequences from a prediction.
// Without models it uses the best model, falling back to lstm.
func (s *Stitcher) StitchPrediction(history []contracts.SeriesPoint, pred contracts.PredictionRecord, models ...contracts.ModelName) contracts.CombinedSeries {
	if len(models) == 0 {
		models = []contracts.ModelName{DefaultModel(pred)}
	}

	forecasts := make([]ModelForecast, 0, len(models))
	seen := make(map[contracts.ModelName]struct{}, len(models))
	for _, m := range models {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}

		seq, ok := pred.Sequence(m)
		if !ok {
			s.log.Debug().Str("symbol", pred.Symbol).Str("model", string(m)).Msg("no forecast sequence for model")
			continue
		}
		forecasts = append(forecasts, ModelForecast{Model: m, Values: seq})
	}

	return s.Stitch(history, forecasts)
}

// DefaultModel picks the best model when it has a sequence, otherwise lstm
func DefaultModel(pred contracts.PredictionRecord) contracts.ModelName {
	if pred.BestModel != "" {
		if _, ok := pred.Sequence(pred.BestModel); ok {
			return pred.BestModel
		}
	}
	return contracts.ModelLSTM
}

// InWindow reports whether t's local hour lies in [WindowStart, WindowEnd)
func (s *Stitcher) InWindow(t time.Time) bool {
	h := t.In(s.opts.Location).Hour()
	return h >= s.opts.WindowStart && h < s.opts.WindowEnd
}
