package contracts

import (
	"fmt"
	"strings"
)

// RSIBucket selects one RSI band
type RSIBucket string

const (
	RSIAll        RSIBucket = "all"
	RSIOversold   RSIBucket = "oversold"
	RSINeutral    RSIBucket = "neutral"
	RSIOverbought RSIBucket = "overbought"
	RSIMidBand    RSIBucket = "50-60"
)

// VolumeBucket selects a relative-volume floor
type VolumeBucket string

const (
	VolumeAll      VolumeBucket = "all"
	VolumeAbove    VolumeBucket = "above"
	VolumeHigh     VolumeBucket = "high"
	VolumeVeryHigh VolumeBucket = "very-high"
)

// ChangeBucket selects on daily change percent
type ChangeBucket string

const (
	ChangeAll  ChangeBucket = "all"
	ChangeUp   ChangeBucket = "up"
	ChangeDown ChangeBucket = "down"
	ChangeHigh ChangeBucket = "high"
)

// Direction selects a composite market-direction pattern
type Direction string

const (
	DirectionAll         Direction = "all"
	DirectionPotentialUp Direction = "potential-up"
	DirectionOversold    Direction = "oversold"
	DirectionBullish     Direction = "bullish"
)

// TrendFilter selects on the prediction trend label
type TrendFilter string

const (
	TrendFilterAll     TrendFilter = "all"
	TrendFilterUp      TrendFilter = "up"
	TrendFilterNeutral TrendFilter = "neutral"
	TrendFilterDown    TrendFilter = "down"
)

// Default price slider bounds (₺)
const (
	DefaultMinPrice = 0.0
	DefaultMaxPrice = 1000.0
)

// PriceRange is an inclusive [Min, Max] bound
type PriceRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// IsDefault reports whether the range equals the untouched slider
func (p PriceRange) IsDefault() bool {
	return p.Min <= DefaultMinPrice && p.Max >= DefaultMaxPrice
}

// FilterState is an immutable snapshot of every screening toggle
// ⭐ SSOT: 화면 상태 → 스크리너 입력은 이 값 하나로만 전달 (부분 변경 금지, 통째로 교체)
//
// Use DefaultFilterState and the With* methods; each returns a new value.
type FilterState struct {
	PriceRange    PriceRange   `json:"price_range" yaml:"price_range"`
	RSI           RSIBucket    `json:"rsi" yaml:"rsi"`
	Volume        VolumeBucket `json:"volume" yaml:"volume"`
	Change        ChangeBucket `json:"change" yaml:"change"`
	Direction     Direction    `json:"direction" yaml:"direction"`
	Trend         TrendFilter  `json:"trend" yaml:"trend"`
	Search        string       `json:"search" yaml:"search"`
	FavoritesOnly bool         `json:"favorites_only" yaml:"favorites_only"`
}

// DefaultFilterState returns the state a screen starts with
func DefaultFilterState() FilterState {
	return FilterState{
		PriceRange: PriceRange{Min: DefaultMinPrice, Max: DefaultMaxPrice},
		RSI:        RSIAll,
		Volume:     VolumeAll,
		Change:     ChangeAll,
		Direction:  DirectionAll,
		Trend:      TrendFilterAll,
	}
}

// Normalized fills empty enum values with "all"
func (f FilterState) Normalized() FilterState {
	if f.RSI == "" {
		f.RSI = RSIAll
	}
	if f.Volume == "" {
		f.Volume = VolumeAll
	}
	if f.Change == "" {
		f.Change = ChangeAll
	}
	if f.Direction == "" {
		f.Direction = DirectionAll
	}
	if f.Trend == "" {
		f.Trend = TrendFilterAll
	}
	if f.PriceRange == (PriceRange{}) {
		f.PriceRange = PriceRange{Min: DefaultMinPrice, Max: DefaultMaxPrice}
	}
	return f
}

// Validate checks enum values and range ordering
func (f FilterState) Validate() error {
	f = f.Normalized()
	switch f.RSI {
	case RSIAll, RSIOversold, RSINeutral, RSIOverbought, RSIMidBand:
	default:
		return fmt.Errorf("invalid rsi filter %q", f.RSI)
	}
	switch f.Volume {
	case VolumeAll, VolumeAbove, VolumeHigh, VolumeVeryHigh:
	default:
		return fmt.Errorf("invalid volume filter %q", f.Volume)
	}
	switch f.Change {
	case ChangeAll, ChangeUp, ChangeDown, ChangeHigh:
	default:
		return fmt.Errorf("invalid change filter %q", f.Change)
	}
	switch f.Direction {
	case DirectionAll, DirectionPotentialUp, DirectionOversold, DirectionBullish:
	default:
		return fmt.Errorf("invalid direction filter %q", f.Direction)
	}
	switch f.Trend {
	case TrendFilterAll, TrendFilterUp, TrendFilterNeutral, TrendFilterDown:
	default:
		return fmt.Errorf("invalid trend filter %q", f.Trend)
	}
	if f.PriceRange.Min > f.PriceRange.Max {
		return fmt.Errorf("invalid price range: min %.2f > max %.2f", f.PriceRange.Min, f.PriceRange.Max)
	}
	return nil
}

// ActiveDimensions lists the non-default filter dimensions
// 검색어는 카운트하지 않음 (필터 배지와 동일)
func (f FilterState) ActiveDimensions() []string {
	f = f.Normalized()
	dims := make([]string, 0, 7)
	if !f.PriceRange.IsDefault() {
		dims = append(dims, "price_range")
	}
	if f.RSI != RSIAll {
		dims = append(dims, "rsi")
	}
	if f.Volume != VolumeAll {
		dims = append(dims, "volume")
	}
	if f.Change != ChangeAll {
		dims = append(dims, "change")
	}
	if f.Direction != DirectionAll {
		dims = append(dims, "direction")
	}
	if f.Trend != TrendFilterAll {
		dims = append(dims, "trend")
	}
	if f.FavoritesOnly {
		dims = append(dims, "favorites_only")
	}
	return dims
}

// ActiveCount is len(ActiveDimensions())
func (f FilterState) ActiveCount() int {
	return len(f.ActiveDimensions())
}

// SearchTerm returns the trimmed, lower-cased search term
func (f FilterState) SearchTerm() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

func (f FilterState) WithPriceRange(min, max float64) FilterState {
	f.PriceRange = PriceRange{Min: min, Max: max}
	return f
}

func (f FilterState) WithRSI(b RSIBucket) FilterState {
	f.RSI = b
	return f
}

func (f FilterState) WithVolume(b VolumeBucket) FilterState {
	f.Volume = b
	return f
}

func (f FilterState) WithChange(b ChangeBucket) FilterState {
	f.Change = b
	return f
}

func (f FilterState) WithDirection(d Direction) FilterState {
	f.Direction = d
	return f
}

func (f FilterState) WithTrend(t TrendFilter) FilterState {
	f.Trend = t
	return f
}

func (f FilterState) WithSearch(term string) FilterState {
	f.Search = term
	return f
}

func (f FilterState) WithFavoritesOnly(on bool) FilterState {
	f.FavoritesOnly = on
	return f
}

// Cleared resets everything, including search and favorites-only
func (f FilterState) Cleared() FilterState {
	return DefaultFilterState()
}
