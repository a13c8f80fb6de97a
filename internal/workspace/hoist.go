package workspace

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/go-rpm/rpm/internal/manifest"
)

// Hoisted is the dependency set the root installer resolves on behalf of
// every member: one name maps to the single range-spec chosen to satisfy
// the largest number of members, breaking ties by highest semver version,
// mirroring workspace.rs's get_hoisted_dependencies/compare_versions.
type Hoisted map[string]string

// CollectHoisted unions every member's direct dependencies (plus the root
// manifest's own) and resolves each name to one winning range-spec.
func (c *Catalog) CollectHoisted(rootDeps manifest.DepMap) Hoisted {
	votes := map[string]map[string]int{} // name -> rangeSpec -> count

	record := func(deps manifest.DepMap) {
		for name, rangeSpec := range deps {
			if votes[name] == nil {
				votes[name] = map[string]int{}
			}
			votes[name][rangeSpec]++
		}
	}

	record(rootDeps)
	for _, m := range c.Members {
		if m.Manifest == nil {
			continue
		}
		record(m.Manifest.AllDependencies())
	}

	hoisted := Hoisted{}
	for name, byRange := range votes {
		hoisted[name] = winningRange(byRange)
	}
	return hoisted
}

// winningRange picks the range-spec with the most votes; ties are broken by
// preferring the range whose own version token parses highest under
// semver, and a final tie falls back to the lexicographically greatest
// range so the choice is at least deterministic.
func winningRange(byRange map[string]int) string {
	ranges := make([]string, 0, len(byRange))
	for r := range byRange {
		ranges = append(ranges, r)
	}
	sort.Slice(ranges, func(i, j int) bool {
		a, b := ranges[i], ranges[j]
		if byRange[a] != byRange[b] {
			return byRange[a] > byRange[b]
		}
		if cmp, ok := compareRanges(a, b); ok {
			return cmp > 0
		}
		return a > b
	})
	return ranges[0]
}

// rangeOperators are the leading tokens stripped from a range-spec before
// parsing its version token, per spec section 4.6.
var rangeOperators = []string{">=", "<=", "^", "~", ">", "<"}

// stripRangeOperator removes a single leading range-operator token, if
// present, so "^9.0.0" and "9.0.0" compare as the same version.
func stripRangeOperator(rangeSpec string) string {
	for _, op := range rangeOperators {
		if strings.HasPrefix(rangeSpec, op) {
			return strings.TrimSpace(strings.TrimPrefix(rangeSpec, op))
		}
	}
	return rangeSpec
}

// compareRanges reports a<=>b by the semver precedence of each range's
// cleaned version token (leading "^", "~", ">=", "<=", ">", "<" stripped
// per spec section 4.6); ok is false when either side isn't a plain
// version this engine can compare (a tag, a git URL, a path).
func compareRanges(a, b string) (int, bool) {
	va, errA := semver.NewVersion(stripRangeOperator(a))
	vb, errB := semver.NewVersion(stripRangeOperator(b))
	if errA != nil || errB != nil {
		return 0, false
	}
	return va.Compare(vb), true
}
