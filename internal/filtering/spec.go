package filtering

import (
	"fmt"
	"strings"
)

type SortPolicy string

const (
	SortBestMatch SortPolicy = "best_match"
	SortNewest    SortPolicy = "newest"
	SortPopular   SortPolicy = "popular"
)

// ParseSortPolicy maps an empty value to best_match and rejects unknown policies.
func ParseSortPolicy(value string) (SortPolicy, error) {
	switch p := SortPolicy(strings.TrimSpace(value)); p {
	case "":
		return SortBestMatch, nil
	case SortBestMatch, SortNewest, SortPopular:
		return p, nil
	default:
		return "", fmt.Errorf("unknown sort policy %q", value)
	}
}

// SkillMode controls how projects without required skills meet a skill filter.
type SkillMode string

const (
	// SkillModeStrict excludes projects without required skills whenever a skill filter is set.
	SkillModeStrict SkillMode = "strict"
	// SkillModeLenient lets projects without required skills through a skill filter.
	SkillModeLenient SkillMode = "lenient"
)

func ParseSkillMode(value string) (SkillMode, error) {
	switch m := SkillMode(strings.TrimSpace(value)); m {
	case "":
		return SkillModeStrict, nil
	case SkillModeStrict, SkillModeLenient:
		return m, nil
	default:
		return "", fmt.Errorf("unknown skill mode %q", value)
	}
}

// Spec is the combination of constraints applied by the pipeline.
// Empty fields do not filter.
type Spec struct {
	Status       string
	Municipality string
	Category     string
	Skills       []string
	Sort         SortPolicy
	SkillMode    SkillMode
}

func (s *Spec) validate() error {
	if _, err := ParseSortPolicy(string(s.Sort)); err != nil {
		return err
	}
	if _, err := ParseSkillMode(string(s.SkillMode)); err != nil {
		return err
	}
	return nil
}

func (s *Spec) sortPolicy() SortPolicy {
	if s == nil || s.Sort == "" {
		return SortBestMatch
	}
	return s.Sort
}
