package contracts

import "fmt"

// SortField names a sortable column
type SortField string

const (
	SortSymbol    SortField = "symbol"
	SortName      SortField = "name"
	SortPrice     SortField = "price"
	SortChange    SortField = "change"
	SortVolume    SortField = "volume"
	SortRelVolume SortField = "relVolume"
	SortRSI       SortField = "rsi"
)

// SortDirection is ascending or descending
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortState is the active column and direction
type SortState struct {
	Field     SortField     `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// DefaultSortState is symbol ascending
func DefaultSortState() SortState {
	return SortState{Field: SortSymbol, Direction: Ascending}
}

// Normalized fills empty values with the defaults
func (s SortState) Normalized() SortState {
	if s.Field == "" {
		s.Field = SortSymbol
	}
	if s.Direction == "" {
		s.Direction = Ascending
	}
	return s
}

// Toggle mirrors a column-header click: same field flips asc→desc, anything else resets to asc
func (s SortState) Toggle(field SortField) SortState {
	if s.Field == field && s.Direction == Ascending {
		return SortState{Field: field, Direction: Descending}
	}
	return SortState{Field: field, Direction: Ascending}
}

// ParseSortDirection accepts asc/desc and the long forms
func ParseSortDirection(s string) (SortDirection, error) {
	switch s {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}
