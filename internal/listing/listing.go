// Package listing implements the merged, ranked views that combine
// externally-fetched entities with locally-persisted manual ones.
//
// External entities are created fresh on every successful fetch and never
// persisted; manual entities are authored through the admin forms, persisted
// per collection key, and survive until explicitly deleted.
package listing

import (
	"sort"
	"strings"
)

// Origin tags where an entity came from. The tag is assigned at creation
// and carried on every entity; nothing downstream sniffs for marker fields.
type Origin string

const (
	// OriginExternal marks entities from a live API: read-only, rank
	// assigned by the source.
	OriginExternal Origin = "external"
	// OriginManual marks admin-authored entities: locally owned, mutable,
	// deletable.
	OriginManual Origin = "manual"
)

// Metrics is the informational quote bundle attached to an entity.
// No invariant beyond non-negativity of market cap and volume.
type Metrics struct {
	Price            float64 `json:"price"`
	MarketCap        float64 `json:"market_cap"`
	Volume24h        float64 `json:"volume_24h"`
	ChangePercent24h float64 `json:"change_percent_24h"`
}

// Entity is the shape shared by coin tickers, manual projects, and
// exchanges. ID is unique within its collection; Rank defines display
// order ascending.
type Entity struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Symbol  string  `json:"symbol"`
	Rank    int     `json:"rank"`
	Origin  Origin  `json:"origin"`
	LinkURL string  `json:"link_url,omitempty"`
	Metrics Metrics `json:"metrics"`
}

// Strategy selects how a merged view is ranked.
type Strategy int

const (
	// PreserveSourceRank concatenates both collections and sorts ascending
	// by each entity's own rank. Used for the coin listing, where the
	// source's market-cap rank is meaningful.
	PreserveSourceRank Strategy = iota
	// RecomputeByMetric concatenates both collections, sorts descending by
	// 24-hour volume (missing treated as zero), and overwrites every rank
	// with its 1-based position. Used for the exchange listing, where
	// manual entries have no natural rank. Always yields a dense 1..N
	// ranking.
	RecomputeByMetric
)

// Merge combines an external collection with a manual one under the given
// strategy and returns a new ordered slice. Inputs are not mutated.
//
// An empty external collection ranks the manual entities alone. Duplicate
// IDs across the two collections are not deduplicated.
func Merge(external, manual []Entity, strategy Strategy) []Entity {
	merged := make([]Entity, 0, len(external)+len(manual))
	merged = append(merged, external...)
	merged = append(merged, manual...)

	switch strategy {
	case RecomputeByMetric:
		sort.SliceStable(merged, func(i, j int) bool {
			return volumeOf(merged[i]) > volumeOf(merged[j])
		})
		for i := range merged {
			merged[i].Rank = i + 1
		}
	default: // PreserveSourceRank
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Rank < merged[j].Rank
		})
	}

	return merged
}

// volumeOf returns the ranking metric, treating NaN as missing.
func volumeOf(e Entity) float64 {
	v := e.Metrics.Volume24h
	if v != v { // NaN
		return 0
	}
	return v
}

// Filter applies a case-insensitive substring match over Name and Symbol.
// It is a pure post-filter: ranks are untouched.
func Filter(entities []Entity, query string) []Entity {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entities
	}
	matched := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Symbol), q) {
			matched = append(matched, e)
		}
	}
	return matched
}

// NextManualRank returns the rank assigned to a newly created manual entity
// under PreserveSourceRank: after all external entities, in insertion order.
// The value is fixed at creation time; if the external list later shrinks
// the stale rank stands (advisory only).
func NextManualRank(externalCount, existingManualCount int) int {
	return externalCount + 1 + existingManualCount
}
