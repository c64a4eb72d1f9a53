package contracts

import (
	"encoding/json"
	"testing"
)

func TestFilterState_ActiveCount(t *testing.T) {
	tests := []struct {
		name  string
		state FilterState
		want  int
	}{
		{
			name:  "defaults",
			state: DefaultFilterState(),
			want:  0,
		},
		{
			name:  "search term is not counted",
			state: DefaultFilterState().WithSearch("thy"),
			want:  0,
		},
		{
			name:  "narrowed price range",
			state: DefaultFilterState().WithPriceRange(10, 1000),
			want:  1,
		},
		{
			name: "every dimension",
			state: DefaultFilterState().
				WithPriceRange(0, 500).
				WithRSI(RSIOversold).
				WithVolume(VolumeHigh).
				WithChange(ChangeUp).
				WithDirection(DirectionPotentialUp).
				WithTrend(TrendFilterUp).
				WithFavoritesOnly(true),
			want: 7,
		},
		{
			name:  "zero value behaves like defaults",
			state: FilterState{},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.ActiveCount(); got != tt.want {
				t.Errorf("ActiveCount() = %d, want %d (dims=%v)", got, tt.want, tt.state.ActiveDimensions())
			}
		})
	}
}

func TestFilterState_WithReturnsCopy(t *testing.T) {
	base := DefaultFilterState()
	next := base.WithRSI(RSIOverbought).WithFavoritesOnly(true)

	if base.RSI != RSIAll || base.FavoritesOnly {
		t.Errorf("base state mutated: %+v", base)
	}
	if next.RSI != RSIOverbought || !next.FavoritesOnly {
		t.Errorf("next state not applied: %+v", next)
	}
	if got := next.Cleared(); got != DefaultFilterState() {
		t.Errorf("Cleared() = %+v", got)
	}
}

func TestFilterState_Validate(t *testing.T) {
	tests := []struct {
		name    string
		state   FilterState
		wantErr bool
	}{
		{"defaults", DefaultFilterState(), false},
		{"empty enums", FilterState{Search: "x"}, false},
		{"bad rsi", DefaultFilterState().WithRSI("extreme"), true},
		{"bad volume", DefaultFilterState().WithVolume("huge"), true},
		{"bad change", DefaultFilterState().WithChange("sideways"), true},
		{"bad direction", DefaultFilterState().WithDirection("left"), true},
		{"bad trend", DefaultFilterState().WithTrend("flat"), true},
		{"inverted range", DefaultFilterState().WithPriceRange(100, 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilterState_JSON(t *testing.T) {
	var f FilterState
	body := `{"rsi":"50-60","volume":"very-high","search":"  GaRaN ","favorites_only":true}`
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	f = f.Normalized()
	if f.RSI != RSIMidBand || f.Volume != VolumeVeryHigh {
		t.Errorf("unexpected buckets: %+v", f)
	}
	if f.Change != ChangeAll || f.Direction != DirectionAll || f.Trend != TrendFilterAll {
		t.Errorf("missing enums should default to all: %+v", f)
	}
	if f.SearchTerm() != "garan" {
		t.Errorf("SearchTerm() = %q", f.SearchTerm())
	}
	if f.ActiveCount() != 3 {
		t.Errorf("ActiveCount() = %d, want 3", f.ActiveCount())
	}
}

func TestSortState_Toggle(t *testing.T) {
	s := DefaultSortState()

	s = s.Toggle(SortSymbol)
	if s != (SortState{Field: SortSymbol, Direction: Descending}) {
		t.Errorf("same field should flip to desc, got %+v", s)
	}

	s = s.Toggle(SortSymbol)
	if s.Direction != Ascending {
		t.Errorf("desc should flip back to asc, got %+v", s)
	}

	s = s.Toggle(SortPrice)
	if s != (SortState{Field: SortPrice, Direction: Ascending}) {
		t.Errorf("new field should start asc, got %+v", s)
	}
}

func TestParseSortDirection(t *testing.T) {
	for in, want := range map[string]SortDirection{
		"":           Ascending,
		"asc":        Ascending,
		"descending": Descending,
		"desc":       Descending,
	} {
		got, err := ParseSortDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseSortDirection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSortDirection("up"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestFavoriteSet(t *testing.T) {
	var zero FavoriteSet
	if zero.Contains("THYAO") || zero.Len() != 0 {
		t.Error("zero FavoriteSet should be empty")
	}

	set := NewFavoriteSet("THYAO", "", "ASELS", "THYAO")
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	if !set.Contains("ASELS") {
		t.Error("expected ASELS to be a member")
	}
	got := set.Symbols()
	if len(got) != 2 || got[0] != "ASELS" || got[1] != "THYAO" {
		t.Errorf("Symbols() = %v", got)
	}
}
