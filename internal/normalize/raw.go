package normalize

// RawStock is one instrument row as the upstream service sends it.
// Every known key has a typed field; unknown keys are ignored on decode.
type RawStock struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name,omitempty"`
	CurrentPrice      *float64 `json:"current_price,omitempty"`
	LastPrice         *float64 `json:"last_price,omitempty"`
	DailyChange       *float64 `json:"daily_change,omitempty"`
	LSTMChangePercent *float64 `json:"lstm_change_percent,omitempty"`
	RelativeVolume    *float64 `json:"relative_volume,omitempty"`
	RSI               *float64 `json:"rsi,omitempty"`
	DailyVolume       *float64 `json:"daily_volume,omitempty"`
	Volume            *float64 `json:"volume,omitempty"`

	Prediction *RawPredictionSummary `json:"prediction,omitempty"`
}

// RawPredictionSummary is the embedded prediction block of the filtered-symbols payload
type RawPredictionSummary struct {
	Direction   string   `json:"direction,omitempty"`
	PriceTarget *float64 `json:"price_target,omitempty"`
}

// RawPrediction is the flat per-symbol prediction payload
type RawPrediction struct {
	Symbol       string   `json:"symbol"`
	CurrentPrice *float64 `json:"current_price,omitempty"`

	LSTMPredictedPrice *float64 `json:"lstm_predicted_price,omitempty"`
	LSTMChangePercent  *float64 `json:"lstm_change_percent,omitempty"`
	LSTMMSE            *float64 `json:"lstm_mse,omitempty"`
	LSTMMAE            *float64 `json:"lstm_mae,omitempty"`

	GRUPredictedPrice *float64 `json:"gru_predicted_price,omitempty"`
	GRUChangePercent  *float64 `json:"gru_change_percent,omitempty"`
	GRUMSE            *float64 `json:"gru_mse,omitempty"`
	GRUMAE            *float64 `json:"gru_mae,omitempty"`

	AttentionPredictedPrice *float64 `json:"attention_predicted_price,omitempty"`
	AttentionChangePercent  *float64 `json:"attention_change_percent,omitempty"`
	AttentionMSE            *float64 `json:"attention_mse,omitempty"`
	AttentionMAE            *float64 `json:"attention_mae,omitempty"`

	BestModel      string   `json:"best_model,omitempty"`
	BestMSE        *float64 `json:"best_mse,omitempty"`
	BestMAE        *float64 `json:"best_mae,omitempty"`
	Volatility     *float64 `json:"volatility,omitempty"`
	PredictionDate string   `json:"prediction_date,omitempty"`

	// Predictions 모델별 시간 단위 예측 시퀀스 {"lstm": [..]}
	Predictions map[string][]float64 `json:"predictions,omitempty"`
	// Models 구 버전 응답 형식 (model_name + hourly_predictions)
	Models []RawModelSeries `json:"models,omitempty"`
}

// RawModelSeries is the older hourly prediction shape
type RawModelSeries struct {
	ModelName         string           `json:"model_name"`
	HourlyPredictions []RawHourlyPoint `json:"hourly_predictions"`
}

// RawHourlyPoint is one forecast step in RawModelSeries
type RawHourlyPoint struct {
	Hour           int      `json:"hour,omitempty"`
	PredictedPrice *float64 `json:"predicted_price"`
}

// RawBar is one hourly OHLC bar from the history endpoint
type RawBar struct {
	Datetime string   `json:"Datetime"`
	Open     *float64 `json:"Open,omitempty"`
	High     *float64 `json:"High,omitempty"`
	Low      *float64 `json:"Low,omitempty"`
	Close    *float64 `json:"Close"`
	Volume   *float64 `json:"Volume,omitempty"`
}
