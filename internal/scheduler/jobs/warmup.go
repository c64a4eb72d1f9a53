package jobs

import (
	"context"
	"time"

	"github.com/wonny/borsa-screener/pkg/logger"
)

// Warmer pre-loads predictions into the cache
type Warmer interface {
	Warm(ctx context.Context, symbols []string) int
}

// SymbolLister returns the symbols worth warming (favorites)
type SymbolLister interface {
	All() []string
}

// PredictionWarmupJob caches predictions for favorited symbols
// so their charts open without an upstream round trip
type PredictionWarmupJob struct {
	warmer  Warmer
	symbols SymbolLister
	logger  *logger.Logger
}

// NewPredictionWarmupJob creates a new warm-up job
func NewPredictionWarmupJob(warmer Warmer, symbols SymbolLister, log *logger.Logger) *PredictionWarmupJob {
	return &PredictionWarmupJob{
		warmer:  warmer,
		symbols: symbols,
		logger:  log,
	}
}

// Name returns the job name
func (j *PredictionWarmupJob) Name() string {
	return "prediction_warmup"
}

// Schedule returns the cron schedule (hourly at :02, weekdays)
// 예측은 시간 단위로 갱신되므로 TTL(30분)보다 촘촘할 필요 없음
func (j *PredictionWarmupJob) Schedule() string {
	return "0 2 * * * 1-5"
}

// Run warms the cache; individual failures are logged by the warmer
func (j *PredictionWarmupJob) Run(ctx context.Context) error {
	start := time.Now()
	symbols := j.symbols.All()
	if len(symbols) == 0 {
		j.logger.Debug("No favorites to warm")
		return nil
	}

	warmed := j.warmer.Warm(ctx, symbols)
	j.logger.WithFields(map[string]interface{}{
		"symbols":  len(symbols),
		"warmed":   warmed,
		"duration": time.Since(start).String(),
	}).Info("Prediction cache warmed")

	return nil
}
