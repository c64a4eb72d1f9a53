package screenconfig

import (
	"fmt"
	"regexp"

	"github.com/wonny/borsa-screener/internal/contracts"
	"github.com/wonny/borsa-screener/internal/selection"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var presetIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Version != CurrentVersion {
		return ValidationError{"version", fmt.Sprintf("must be %d", CurrentVersion)}
	}
	if len(cfg.Presets) == 0 {
		return ValidationError{"presets", "at least one preset required"}
	}

	seen := make(map[string]struct{}, len(cfg.Presets))
	for i, p := range cfg.Presets {
		field := fmt.Sprintf("presets[%d]", i)

		if !presetIDPattern.MatchString(p.ID) {
			return ValidationError{field + ".id", "must match " + presetIDPattern.String()}
		}
		if _, dup := seen[p.ID]; dup {
			return ValidationError{field + ".id", fmt.Sprintf("duplicate id %q", p.ID)}
		}
		seen[p.ID] = struct{}{}

		if p.Name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if err := p.Filter.Validate(); err != nil {
			return ValidationError{field + ".filter", err.Error()}
		}

		sort := p.Sort.Normalized()
		if !selection.IsSortField(sort.Field) {
			return ValidationError{field + ".sort.field", fmt.Sprintf("unknown field %q", sort.Field)}
		}
		if sort.Direction != contracts.Ascending && sort.Direction != contracts.Descending {
			return ValidationError{field + ".sort.direction", "must be asc or desc"}
		}
	}
	return nil
}
