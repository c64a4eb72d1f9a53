package screenconfig

import (
	"errors"
	"fmt"

	"github.com/wonny/borsa-screener/internal/contracts"
)

// CurrentVersion 지원하는 프리셋 파일 버전
const CurrentVersion = 1

// ErrUnknownPreset is returned for a preset id that is not defined
var ErrUnknownPreset = errors.New("unknown preset")

// Config는 이름 붙은 스크리닝 프리셋 묶음
type Config struct {
	Version int      `yaml:"version" json:"version"`
	Presets []Preset `yaml:"presets" json:"presets"`
}

// Preset is a named FilterState + SortState pair
type Preset struct {
	ID          string                `yaml:"id" json:"id"`
	Name        string                `yaml:"name" json:"name"`
	Description string                `yaml:"description,omitempty" json:"description,omitempty"`
	Filter      contracts.FilterState `yaml:"filter" json:"filter"`
	Sort        contracts.SortState   `yaml:"sort" json:"sort"`
}

// Get returns the preset with id, with empty enums filled
func (c *Config) Get(id string) (Preset, error) {
	for _, p := range c.Presets {
		if p.ID == id {
			p.Filter = p.Filter.Normalized()
			p.Sort = p.Sort.Normalized()
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
}

// IDs lists preset ids in file order
func (c *Config) IDs() []string {
	ids := make([]string, 0, len(c.Presets))
	for _, p := range c.Presets {
		ids = append(ids, p.ID)
	}
	return ids
}

// Defaults returns the built-in presets used when no file is configured
// ⭐ SSOT: config/presets.yaml 과 동일하게 유지
func Defaults() *Config {
	base := contracts.DefaultFilterState()
	return &Config{
		Version: CurrentVersion,
		Presets: []Preset{
			{
				ID:          "potential-risers",
				Name:        "Yükseliş Potansiyeli",
				Description: "RSI 45-65 ve göreceli hacim ≥ 1.4",
				Filter:      base.WithDirection(contracts.DirectionPotentialUp),
				Sort:        contracts.SortState{Field: contracts.SortRelVolume, Direction: contracts.Descending},
			},
			{
				ID:          "oversold",
				Name:        "Aşırı Satım",
				Description: "RSI ≤ 30",
				Filter:      base.WithRSI(contracts.RSIOversold),
				Sort:        contracts.SortState{Field: contracts.SortRSI, Direction: contracts.Ascending},
			},
			{
				ID:          "high-volume",
				Name:        "Yüksek Hacim",
				Description: "Göreceli hacim ≥ 2",
				Filter:      base.WithVolume(contracts.VolumeVeryHigh),
				Sort:        contracts.SortState{Field: contracts.SortRelVolume, Direction: contracts.Descending},
			},
			{
				ID:          "bullish-pattern",
				Name:        "Boğa Formasyonu",
				Description: "RSI 40-60, pozitif değişim ve göreceli hacim ≥ 1.2",
				Filter:      base.WithDirection(contracts.DirectionBullish),
				Sort:        contracts.SortState{Field: contracts.SortChange, Direction: contracts.Descending},
			},
			{
				ID:          "rsi-50-60",
				Name:        "RSI 50-60 + Hacim",
				Description: "RSI 50-60 ve göreceli hacim ≥ 1.5",
				Filter:      base.WithRSI(contracts.RSIMidBand).WithVolume(contracts.VolumeHigh),
				Sort:        contracts.SortState{Field: contracts.SortRSI, Direction: contracts.Descending},
			},
		},
	}
}
