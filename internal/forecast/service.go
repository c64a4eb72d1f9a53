package forecast

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/internal/normalize"
	"github.com/wonny/borsa-screener/pkg/redis"
)

// Source is the upstream collaborator for chart data
type Source interface {
	Prediction(ctx context.Context, symbol string) (normalize.RawPrediction, error)
	History(ctx context.Context, symbol string, days int) ([]normalize.RawBar, error)
}

// Chart is a stitched chart for one symbol
type Chart struct {
	Symbol      string                      `json:"symbol"`
	HistoryDays int                         `json:"history_days"`
	Prediction  *contracts.PredictionRecord `json:"prediction,omitempty"`
	Series      contracts.CombinedSeries    `json:"series"`
	Warnings    []string                    `json:"warnings,omitempty"`
}

// ChartService fetches history and predictions and stitches them
// ⭐ SSOT: 차트 데이터 조립은 여기서만
type ChartService struct {
	source      Source
	cache       *redis.Cache
	normalizer  *normalize.Normalizer
	stitcher    *Stitcher
	historyDays int
	log         zerolog.Logger
}

// NewChartService creates a chart service. cache may be nil.
func NewChartService(source Source, cache *redis.Cache, normalizer *normalize.Normalizer, stitcher *Stitcher, historyDays int, log zerolog.Logger) *ChartService {
	return &ChartService{
		source:      source,
		cache:       cache,
		normalizer:  normalizer,
		stitcher:    stitcher,
		historyDays: historyDays,
		log:         log.With().Str("component", "forecast.chart").Logger(),
	}
}

// Build assembles the chart. A missing prediction degrades to a history-only chart;
// a history failure is an error.
func (s *ChartService) Build(ctx context.Context, symbol string, models []contracts.ModelName, days int) (Chart, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Chart{}, normalize.ErrMissingSymbol
	}
	if days <= 0 {
		days = s.historyDays
	}
	loc := s.stitcher.Options().Location

	chart := Chart{Symbol: symbol, HistoryDays: days}

	bars, err := s.history(ctx, symbol, days)
	if err != nil {
		return Chart{}, fmt.Errorf("chart %s: %w", symbol, err)
	}
	history := s.normalizer.NormalizeHistory(bars, loc)

	var pred contracts.PredictionRecord
	rawPred, err := s.prediction(ctx, symbol)
	if err == nil {
		if pred, err = s.normalizer.NormalizePrediction(rawPred, loc); err != nil {
			s.evictPrediction(ctx, symbol)
		}
	}
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("prediction unavailable, rendering history only")
		chart.Warnings = append(chart.Warnings, "prediction unavailable")
		pred = contracts.PredictionRecord{Symbol: symbol}
	} else {
		chart.Prediction = &pred
	}

	chart.Series = s.stitcher.StitchPrediction(history, pred, models...)
	return chart, nil
}

// Warm pre-loads predictions into the cache. Returns how many were cached.
func (s *ChartService) Warm(ctx context.Context, symbols []string) int {
	if s.cache == nil {
		return 0
	}
	warmed := 0
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		raw, err := s.source.Prediction(ctx, sym)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", sym).Msg("prediction warm-up skipped")
			continue
		}
		if err := s.cache.Set(ctx, redis.PredictionKey(sym), raw, redis.TTLPrediction); err != nil {
			s.log.Warn().Err(err).Str("symbol", sym).Msg("prediction cache write failed")
			continue
		}
		warmed++
	}
	return warmed
}

func (s *ChartService) prediction(ctx context.Context, symbol string) (normalize.RawPrediction, error) {
	var raw normalize.RawPrediction
	if s.cache == nil {
		return s.source.Prediction(ctx, symbol)
	}
	err := s.cache.GetOrSet(ctx, redis.PredictionKey(symbol), &raw, redis.TTLPrediction, func() (interface{}, error) {
		return s.source.Prediction(ctx, symbol)
	})
	return raw, err
}

// evictPrediction drops a cached payload that failed to normalize
// 다음 요청에서 upstream 재조회
func (s *ChartService) evictPrediction(ctx context.Context, symbol string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, redis.PredictionKey(symbol)); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("prediction cache evict failed")
	}
}

func (s *ChartService) history(ctx context.Context, symbol string, days int) ([]normalize.RawBar, error) {
	var bars []normalize.RawBar
	if s.cache == nil {
		return s.source.History(ctx, symbol, days)
	}
	err := s.cache.GetOrSet(ctx, redis.HistoryKey(symbol, days), &bars, redis.TTLHistory, func() (interface{}, error) {
		return s.source.History(ctx, symbol, days)
	})
	return bars, err
}

// ParseModels parses a comma-separated model list; unknown names are an error
func ParseModels(csv string) ([]contracts.ModelName, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	models := make([]contracts.ModelName, 0, len(parts))
	for _, p := range parts {
		m, ok := contracts.ParseModelName(strings.ToLower(strings.TrimSpace(p)))
		if !ok {
			return nil, fmt.Errorf("unknown model %q", strings.TrimSpace(p))
		}
		models = append(models, m)
	}
	return models, nil
}
