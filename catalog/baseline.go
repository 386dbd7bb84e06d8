package catalog

import (
	"fmt"
	"sort"
)

// Baseline names a control subset required for an impact level.
type Baseline string

const (
	// BaselineLow is the low-impact baseline.
	BaselineLow Baseline = "low"

	// BaselineModerate is the moderate-impact baseline.
	BaselineModerate Baseline = "moderate"

	// BaselineHigh is the high-impact baseline.
	BaselineHigh Baseline = "high"
)

// IsValid checks if a baseline is a known value.
func (b Baseline) IsValid() bool {
	switch b {
	case BaselineLow, BaselineModerate, BaselineHigh:
		return true
	}
	return false
}

// ParseBaseline converts a string to a Baseline, returning an error for
// unknown values.
func ParseBaseline(s string) (Baseline, error) {
	b := Baseline(s)
	if !b.IsValid() {
		return "", fmt.Errorf("unknown baseline %q (expected low, moderate, or high)", s)
	}
	return b, nil
}

// BaselineSelection holds baseline membership loaded alongside the
// catalog. Baselines are cumulative: high includes moderate includes low.
type BaselineSelection struct {
	low      map[string]struct{}
	moderate map[string]struct{}
	high     map[string]struct{}
}

// NewBaselineSelection builds a selection from per-level control id
// lists. Identifiers are normalized; unknown levels are rejected by the
// caller via the catalog.
func NewBaselineSelection(low, moderate, high []string) *BaselineSelection {
	sel := &BaselineSelection{
		low:      make(map[string]struct{}),
		moderate: make(map[string]struct{}),
		high:     make(map[string]struct{}),
	}
	for _, id := range low {
		sel.low[NormalizeControlID(id)] = struct{}{}
	}
	for _, id := range moderate {
		sel.moderate[NormalizeControlID(id)] = struct{}{}
	}
	for _, id := range high {
		sel.high[NormalizeControlID(id)] = struct{}{}
	}
	return sel
}

// Controls returns the ascending-ordered control ids selected for a
// baseline, intersected with the catalog so stale baseline entries never
// leak into assessment.
func (s *BaselineSelection) Controls(b Baseline, cat *Catalog) []string {
	member := make(map[string]struct{})
	add := func(set map[string]struct{}) {
		for id := range set {
			if cat.Has(id) {
				member[id] = struct{}{}
			}
		}
	}

	switch b {
	case BaselineHigh:
		add(s.high)
		fallthrough
	case BaselineModerate:
		add(s.moderate)
		fallthrough
	case BaselineLow:
		add(s.low)
	}

	out := make([]string, 0, len(member))
	for id := range member {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether no baseline membership was configured. When
// empty, callers fall back to the full catalog.
func (s *BaselineSelection) Empty() bool {
	return len(s.low) == 0 && len(s.moderate) == 0 && len(s.high) == 0
}
