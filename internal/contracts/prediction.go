package contracts

import "time"

// ModelName identifies an upstream forecasting model
type ModelName string

const (
	ModelLSTM      ModelName = "lstm"
	ModelGRU       ModelName = "gru"
	ModelAttention ModelName = "attention"
)

// KnownModels lists models in the order the upstream service reports them
var KnownModels = []ModelName{ModelLSTM, ModelGRU, ModelAttention}

// ParseModelName validates a model name
func ParseModelName(s string) (ModelName, bool) {
	for _, m := range KnownModels {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// ModelPrediction is a single model's point forecast and error metrics
type ModelPrediction struct {
	PredictedPrice *float64 `json:"predicted_price,omitempty"`
	ChangePercent  *float64 `json:"change_percent,omitempty"`
	MSE            *float64 `json:"mse,omitempty"`
	MAE            *float64 `json:"mae,omitempty"`
}

// PredictionRecord is the canonical per-symbol prediction payload
// 주의: ChangePercent 부호는 upstream 이 PredictedPrice-CurrentPrice 와 맞춰서 보냄 (여기서 재계산하지 않음)
type PredictionRecord struct {
	Symbol         string                        `json:"symbol"`
	CurrentPrice   *float64                      `json:"current_price,omitempty"`
	Models         map[ModelName]ModelPrediction `json:"models"`
	BestModel      ModelName                     `json:"best_model,omitempty"`
	BestMSE        *float64                      `json:"best_mse,omitempty"`
	BestMAE        *float64                      `json:"best_mae,omitempty"`
	Volatility     *float64                      `json:"volatility,omitempty"`
	PredictionDate time.Time                     `json:"prediction_date,omitempty"`
	Hourly         map[ModelName][]*float64      `json:"hourly,omitempty"`
}

// Sequence returns the hourly forecast sequence for a model.
// Element i is forecast step i+1; a nil element is a missing step.
func (p PredictionRecord) Sequence(m ModelName) ([]*float64, bool) {
	seq, ok := p.Hourly[m]
	if !ok || len(seq) == 0 {
		return nil, false
	}
	return seq, true
}
