package contracts

// PriceSource records which upstream field produced StockRecord.Price
type PriceSource string

const (
	PriceSourceNone    PriceSource = ""
	PriceSourceCurrent PriceSource = "current_price"
	PriceSourceLast    PriceSource = "last_price"
)

// ChangeSource records which upstream field produced StockRecord.DailyChangePercent
type ChangeSource string

const (
	ChangeSourceNone   ChangeSource = ""
	ChangeSourceMarket ChangeSource = "daily_change"
	// ChangeSourceForecast 모델 예측 변화율로 대체된 경우 (시장 변화율 아님)
	ChangeSourceForecast ChangeSource = "lstm_change_percent"
)

// Trend is the direction label attached to a prediction summary
type Trend string

const (
	TrendNone    Trend = ""
	TrendUp      Trend = "up"
	TrendNeutral Trend = "neutral"
	TrendDown    Trend = "down"
)

// Provenance keeps the audit trail of fields resolved through a fallback list
type Provenance struct {
	Price       PriceSource  `json:"price,omitempty"`
	DailyChange ChangeSource `json:"daily_change,omitempty"`
}

// StockRecord is the canonical, post-normalization instrument row
// ⭐ SSOT: 스크리닝/정렬은 이 타입만 사용
//
// Optional metrics are pointers; nil means absent (not zero).
type StockRecord struct {
	Symbol             string   `json:"symbol"`
	Name               string   `json:"name,omitempty"`
	Price              *float64 `json:"price,omitempty"`
	DailyChangePercent *float64 `json:"daily_change_percent,omitempty"`
	RelativeVolume     *float64 `json:"relative_volume,omitempty"`
	RSI                *float64 `json:"rsi,omitempty"`
	Volume             *int64   `json:"volume,omitempty"`

	PredictionTrend Trend      `json:"prediction_trend,omitempty"`
	Provenance      Provenance `json:"provenance"`
}

// Complete reports whether the record has a resolved price
func (s StockRecord) Complete() bool {
	return s.Price != nil
}

// PriceOr returns the price or fallback when absent
func (s StockRecord) PriceOr(fallback float64) float64 {
	if s.Price == nil {
		return fallback
	}
	return *s.Price
}

// ChangeOr returns the daily change or fallback when absent
func (s StockRecord) ChangeOr(fallback float64) float64 {
	if s.DailyChangePercent == nil {
		return fallback
	}
	return *s.DailyChangePercent
}

// Float returns a pointer to v. Used when building records by hand.
func Float(v float64) *float64 {
	return &v
}

// Floats returns a sequence of pointers to vs
func Floats(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i := range vs {
		out[i] = Float(vs[i])
	}
	return out
}

// Int returns a pointer to v
func Int(v int64) *int64 {
	return &v
}
