package contracts

import (
	"sort"
	"time"
)

// SeriesPoint is one sample on a chart axis. A nil Value is a gap, not zero.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value"`
}

// Gap reports whether the point carries no value
func (p SeriesPoint) Gap() bool {
	return p.Value == nil
}

// ChannelKind separates observed prices from model output
type ChannelKind string

const (
	ChannelHistorical ChannelKind = "historical"
	ChannelForecast   ChannelKind = "forecast"
)

// Channel is one line on a combined chart; len(Points) == len(CombinedSeries.Timestamps)
type Channel struct {
	Name   string        `json:"name"`
	Kind   ChannelKind   `json:"kind"`
	Points []SeriesPoint `json:"points"`
}

// ValueCount counts non-gap points
func (c Channel) ValueCount() int {
	n := 0
	for _, p := range c.Points {
		if !p.Gap() {
			n++
		}
	}
	return n
}

// CombinedSeries shares one x-axis across a historical channel and N forecast channels
type CombinedSeries struct {
	Timestamps []time.Time `json:"timestamps"`
	Channels   []Channel   `json:"channels"`
}

// Empty reports whether the series has no axis slots
func (s CombinedSeries) Empty() bool {
	return len(s.Timestamps) == 0
}

// Channel returns the named channel
func (s CombinedSeries) Channel(name string) (Channel, bool) {
	for _, c := range s.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return Channel{}, false
}

// FavoriteSet is an immutable snapshot of favorited symbols
type FavoriteSet struct {
	m map[string]struct{}
}

// NewFavoriteSet copies symbols into a new set
func NewFavoriteSet(symbols ...string) FavoriteSet {
	m := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if s != "" {
			m[s] = struct{}{}
		}
	}
	return FavoriteSet{m: m}
}

// Contains reports membership; the zero FavoriteSet is empty
func (f FavoriteSet) Contains(symbol string) bool {
	_, ok := f.m[symbol]
	return ok
}

// Len returns the number of favorites
func (f FavoriteSet) Len() int {
	return len(f.m)
}

// Symbols returns members sorted for stable output
func (f FavoriteSet) Symbols() []string {
	out := make([]string, 0, len(f.m))
	for s := range f.m {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
