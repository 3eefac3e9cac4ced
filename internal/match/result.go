// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"time"

	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// Tier identifies the strategy that produced a match.
type Tier int

const (
	TierExact Tier = iota + 1
	TierFuzzy
	TierStructural
	TierTransposed
)

// Tiers lists every tier in execution order.
var Tiers = []Tier{TierExact, TierFuzzy, TierStructural, TierTransposed}

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierFuzzy:
		return "fuzzy"
	case TierStructural:
		return "structural"
	case TierTransposed:
		return "transposed"
	default:
		return "unknown"
	}
}

// ParseTier is the inverse of Tier.String.
func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Source sides.
const (
	SideRatings = "ratings"
	SideReview  = "review"
)

// Match is one linked pair of records.
type Match struct {
	// Key is the canonical key: the review-side key.
	Key string

	Tier Tier

	// Score is the similarity score for fuzzy matches, 100 otherwise.
	Score int

	Ratings Entry
	Review  Entry

	// Fields is the merged record: review fields overlaid by ratings fields.
	Fields types.RecordFields
}

// Collision records two source names on one side that normalized to the
// same key. The later record replaced the earlier one in the pool.
type Collision struct {
	Side      string
	Key       string
	Kept      string
	Displaced string
}

// Drop records a review key removed by the structural tier because a longer
// review key shortened to it.
type Drop struct {
	Key        string
	SourceName string
	ShadowedBy string
}

// TierStats summarizes one tier's pass.
type TierStats struct {
	Tier    Tier
	Matched int
	Elapsed time.Duration
}

// Result is the outcome of a resolution run.
type Result struct {
	// Matched holds the matches in the order the tiers produced them.
	Matched []Match

	// UnmatchedRatings and UnmatchedReview hold the keys left in each pool,
	// in source order.
	UnmatchedRatings []string
	UnmatchedReview  []string

	// RemainingRatings and RemainingReview hold the entries behind the
	// unmatched keys, in the same order.
	RemainingRatings []Entry
	RemainingReview  []Entry

	// Dropped lists review keys removed without a counterpart.
	Dropped []Drop

	Collisions []Collision
	Stats      []TierStats

	// RatingsKeys and ReviewKeys count the distinct keys each pool started with.
	RatingsKeys int
	ReviewKeys  int
}

// MatchedFields returns the merged records by canonical key.
func (r Result) MatchedFields() map[string]types.RecordFields {
	out := make(map[string]types.RecordFields, len(r.Matched))
	for _, m := range r.Matched {
		out[m.Key] = m.Fields
	}
	return out
}

// CountByTier returns the number of matches each tier produced.
func (r Result) CountByTier() map[Tier]int {
	counts := make(map[Tier]int, len(Tiers))
	for _, m := range r.Matched {
		counts[m.Tier]++
	}
	return counts
}
