package selection

import (
	"math"
	"strings"

	"github.com/wonny/borsa-screener/internal/contracts"
)

// Predicate is a pure check on one record. A missing field makes it false.
type Predicate func(contracts.StockRecord) bool

// Thresholds
// ⭐ SSOT: 필터 임계값은 여기서만
const (
	RSIOversoldMax   = 30.0
	RSIOverboughtMin = 70.0
	RSIMidBandMin    = 50.0
	RSIMidBandMax    = 60.0

	VolumeAboveMin    = 1.0
	VolumeHighMin     = 1.5
	VolumeVeryHighMin = 2.0

	ChangeHighAbsMin = 2.0

	PotentialRiserRSIMin    = 45.0
	PotentialRiserRSIMax    = 65.0
	PotentialRiserVolumeMin = 1.4

	BullishRSIMin    = 40.0
	BullishRSIMax    = 60.0
	BullishVolumeMin = 1.2
)

// PriceRange passes records with lo ≤ price ≤ hi
func PriceRange(lo, hi float64) Predicate {
	return func(r contracts.StockRecord) bool {
		return r.Price != nil && *r.Price >= lo && *r.Price <= hi
	}
}

// PriceRangeOrUnpriced is PriceRange for the untouched slider: a record
// without a price counts as 0 and passes while lo ≤ 0.
func PriceRangeOrUnpriced(lo, hi float64) Predicate {
	bounded := PriceRange(lo, hi)
	return func(r contracts.StockRecord) bool {
		if r.Price == nil {
			return lo <= 0 && hi >= 0
		}
		return bounded(r)
	}
}

func RSIOversold(r contracts.StockRecord) bool {
	return r.RSI != nil && *r.RSI <= RSIOversoldMax
}

func RSINeutral(r contracts.StockRecord) bool {
	return r.RSI != nil && *r.RSI > RSIOversoldMax && *r.RSI < RSIOverboughtMin
}

func RSIOverbought(r contracts.StockRecord) bool {
	return r.RSI != nil && *r.RSI >= RSIOverboughtMin
}

func RSIMidBand(r contracts.StockRecord) bool {
	return r.RSI != nil && *r.RSI >= RSIMidBandMin && *r.RSI <= RSIMidBandMax
}

func VolumeAboveAverage(r contracts.StockRecord) bool {
	return r.RelativeVolume != nil && *r.RelativeVolume >= VolumeAboveMin
}

func VolumeHigh(r contracts.StockRecord) bool {
	return r.RelativeVolume != nil && *r.RelativeVolume >= VolumeHighMin
}

func VolumeVeryHigh(r contracts.StockRecord) bool {
	return r.RelativeVolume != nil && *r.RelativeVolume >= VolumeVeryHighMin
}

func ChangeUp(r contracts.StockRecord) bool {
	return r.DailyChangePercent != nil && *r.DailyChangePercent > 0
}

func ChangeDown(r contracts.StockRecord) bool {
	return r.DailyChangePercent != nil && *r.DailyChangePercent < 0
}

func ChangeHighMagnitude(r contracts.StockRecord) bool {
	return r.DailyChangePercent != nil && math.Abs(*r.DailyChangePercent) >= ChangeHighAbsMin
}

// PotentialRiser 45 ≤ rsi ≤ 65 그리고 relVol ≥ 1.4
func PotentialRiser(r contracts.StockRecord) bool {
	if r.RSI == nil || r.RelativeVolume == nil {
		return false
	}
	return *r.RSI >= PotentialRiserRSIMin && *r.RSI <= PotentialRiserRSIMax &&
		*r.RelativeVolume >= PotentialRiserVolumeMin
}

// BullishPattern 40 ≤ rsi ≤ 60, change ≥ 0, relVol ≥ 1.2
func BullishPattern(r contracts.StockRecord) bool {
	if r.RSI == nil || r.RelativeVolume == nil || r.DailyChangePercent == nil {
		return false
	}
	return *r.RSI >= BullishRSIMin && *r.RSI <= BullishRSIMax &&
		*r.DailyChangePercent >= 0 &&
		*r.RelativeVolume >= BullishVolumeMin
}

// PredictionTrend passes records whose prediction label equals t
func PredictionTrend(t contracts.Trend) Predicate {
	return func(r contracts.StockRecord) bool {
		return r.PredictionTrend != contracts.TrendNone && r.PredictionTrend == t
	}
}

// Search matches a case-insensitive substring of symbol or name. An empty term matches all.
func Search(term string) Predicate {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return func(contracts.StockRecord) bool { return true }
	}
	return func(r contracts.StockRecord) bool {
		return strings.Contains(strings.ToLower(r.Symbol), term) ||
			strings.Contains(strings.ToLower(r.Name), term)
	}
}

// InSet passes records whose symbol is in favs
func InSet(favs contracts.FavoriteSet) Predicate {
	return func(r contracts.StockRecord) bool {
		return favs.Contains(r.Symbol)
	}
}

// All combines predicates with AND; short-circuits in order
func All(preds ...Predicate) Predicate {
	return func(r contracts.StockRecord) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func rsiPredicate(b contracts.RSIBucket) Predicate {
	switch b {
	case contracts.RSIOversold:
		return RSIOversold
	case contracts.RSINeutral:
		return RSINeutral
	case contracts.RSIOverbought:
		return RSIOverbought
	case contracts.RSIMidBand:
		return RSIMidBand
	}
	return nil
}

func volumePredicate(b contracts.VolumeBucket) Predicate {
	switch b {
	case contracts.VolumeAbove:
		return VolumeAboveAverage
	case contracts.VolumeHigh:
		return VolumeHigh
	case contracts.VolumeVeryHigh:
		return VolumeVeryHigh
	}
	return nil
}

func changePredicate(b contracts.ChangeBucket) Predicate {
	switch b {
	case contracts.ChangeUp:
		return ChangeUp
	case contracts.ChangeDown:
		return ChangeDown
	case contracts.ChangeHigh:
		return ChangeHighMagnitude
	}
	return nil
}

func directionPredicate(d contracts.Direction) Predicate {
	switch d {
	case contracts.DirectionPotentialUp:
		return PotentialRiser
	case contracts.DirectionOversold:
		return RSIOversold
	case contracts.DirectionBullish:
		return BullishPattern
	}
	return nil
}

func trendPredicate(t contracts.TrendFilter) Predicate {
	switch t {
	case contracts.TrendFilterUp:
		return PredictionTrend(contracts.TrendUp)
	case contracts.TrendFilterNeutral:
		return PredictionTrend(contracts.TrendNeutral)
	case contracts.TrendFilterDown:
		return PredictionTrend(contracts.TrendDown)
	}
	return nil
}
