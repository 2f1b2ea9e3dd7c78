package matching

import (
	"strings"

	"printfleet-backend/internal/ams"
	"printfleet-backend/internal/parse"
)

// ColorSimilarityFunc is the perceptual color-comparison primitive used by
// the similar-color tier. It is supplied from outside the engine.
type ColorSimilarityFunc func(a, b string) bool

// Matcher selects loaded spools for filament requirements.
type Matcher struct {
	similar ColorSimilarityFunc
}

// NewMatcher creates a matcher. A nil similarity function falls back to RGB
// distance under the default threshold.
func NewMatcher(similar ColorSimilarityFunc) *Matcher {
	if similar == nil {
		similar = func(a, b string) bool {
			return parse.Similar(a, b, parse.DefaultColorDistance)
		}
	}
	return &Matcher{similar: similar}
}

// typeEqual is the case-insensitive filament type comparison.
func typeEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Compare classifies a (requirement, spool) pair by direct comparison,
// ignoring how the pair was selected.
func (m *Matcher) Compare(req FilamentRequirement, loaded ams.LoadedFilament) (typeMatch, colorMatch bool) {
	typeMatch = typeEqual(req.Type, loaded.Type)
	colorMatch = parse.Equal(req.Color, loaded.Color) || m.similar(req.Color, loaded.Color)
	return typeMatch, colorMatch
}

// Match selects the best unassigned spool for one requirement, or nil when
// no tier produces a candidate. The second return value distinguishes a
// full match from a type-only one. Tiers are strictly ordered; the first
// non-empty tier wins:
//
//  1. Nozzle restriction, only when nozzle data exists on both sides.
//  2. Preset identity via trayInfoIdx: a unique holder of the same preset is
//     authoritative regardless of type and color; several holders become the
//     candidate pool for tier 3; none falls through with the full pool.
//  3. Exact type+color, then type plus similar color, then type alone.
func (m *Matcher) Match(req FilamentRequirement, candidates []ams.LoadedFilament, nozzleAware bool) (*ams.LoadedFilament, MatchStatus) {
	pool := candidates

	if nozzleAware && req.NozzleID != nil {
		var scoped []ams.LoadedFilament
		for _, c := range pool {
			if c.ExtruderID != nil && *c.ExtruderID == *req.NozzleID {
				scoped = append(scoped, c)
			}
		}
		// No candidate on the requested nozzle: degrade gracefully and
		// match unrestricted rather than failing.
		if len(scoped) > 0 {
			pool = scoped
		}
	}

	if req.TrayInfoIdx != nil && *req.TrayInfoIdx != "" {
		var samePreset []ams.LoadedFilament
		for _, c := range pool {
			if c.TrayInfoIdx != nil && *c.TrayInfoIdx == *req.TrayInfoIdx {
				samePreset = append(samePreset, c)
			}
		}
		switch {
		case len(samePreset) == 1:
			hit := samePreset[0]
			return &hit, StatusMatch
		case len(samePreset) > 1:
			// Same physical preset loaded in several slots: disambiguate by
			// color below, but never fall back to the full pool.
			pool = samePreset
		}
	}

	for _, c := range pool {
		if typeEqual(req.Type, c.Type) && parse.Equal(req.Color, c.Color) {
			hit := c
			return &hit, StatusMatch
		}
	}

	for _, c := range pool {
		if typeEqual(req.Type, c.Type) && m.similar(req.Color, c.Color) {
			hit := c
			return &hit, StatusMatch
		}
	}

	for _, c := range pool {
		if typeEqual(req.Type, c.Type) {
			hit := c
			return &hit, StatusTypeOnly
		}
	}

	return nil, StatusMismatch
}
