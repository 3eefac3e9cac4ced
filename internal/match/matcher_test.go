// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emw8105/professor-ratings-lambda/internal/similarity"
	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// --- test helpers ---

func ratingsRecord(overall float64) types.RecordFields {
	return types.RecordFields{
		OverallRating: types.ScorePtr(types.NewScore(overall)),
		CourseRatings: map[string]types.Score{"CS3345": types.NewScore(overall)},
	}
}

func reviewRecord(id, display string) types.RecordFields {
	return types.RecordFields{
		ID:             id,
		Department:     "Computer Science",
		URL:            "https://www.ratemyprofessors.com/professor/" + id,
		QualityRating:  types.ScorePtr(types.NewScore(4.2)),
		OriginalFormat: display,
	}
}

func named(pairs ...any) []types.NamedRecord {
	var out []types.NamedRecord
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.NamedRecord{Name: pairs[i].(string), Fields: pairs[i+1].(types.RecordFields)})
	}
	return out
}

func reviews(displayNames ...string) []types.NamedRecord {
	out := make([]types.NamedRecord, len(displayNames))
	for i, n := range displayNames {
		out[i] = types.NamedRecord{Name: n, Fields: reviewRecord(fmt.Sprint(1000+i), n)}
	}
	return out
}

func ratingsOf(sourceNames ...string) []types.NamedRecord {
	out := make([]types.NamedRecord, len(sourceNames))
	for i, n := range sourceNames {
		out[i] = types.NamedRecord{Name: n, Fields: ratingsRecord(3 + float64(i)/10)}
	}
	return out
}

// countingScorer wraps Ratio and records every pair it is asked to score.
type countingScorer struct {
	pairs [][2]string
}

func (c *countingScorer) score(a, b string) int {
	c.pairs = append(c.pairs, [2]string{a, b})
	return similarity.Ratio(a, b)
}

func constantScorer(score int) similarity.Func {
	return func(string, string) int { return score }
}

type recordingObserver struct {
	tiers  []Tier
	scores []int
}

func (r *recordingObserver) TierCompleted(tier Tier, _ int, _ time.Duration) {
	r.tiers = append(r.tiers, tier)
}

func (r *recordingObserver) FuzzyScored(score int) {
	r.scores = append(r.scores, score)
}

func assertAccounting(t *testing.T, res Result) {
	t.Helper()
	assert.Equal(t, res.RatingsKeys, len(res.Matched)+len(res.UnmatchedRatings),
		"every ratings key is matched or unmatched")
	assert.Equal(t, res.ReviewKeys, len(res.Matched)+len(res.UnmatchedReview)+len(res.Dropped),
		"every review key is matched, unmatched or dropped")

	seen := make(map[string]bool)
	for _, m := range res.Matched {
		require.False(t, seen["review:"+m.Review.Key], "review key %q matched twice", m.Review.Key)
		require.False(t, seen["ratings:"+m.Ratings.Key], "ratings key %q matched twice", m.Ratings.Key)
		seen["review:"+m.Review.Key] = true
		seen["ratings:"+m.Ratings.Key] = true
	}
	for _, k := range res.UnmatchedRatings {
		require.False(t, seen["ratings:"+k], "ratings key %q both matched and unmatched", k)
	}
	for _, k := range res.UnmatchedReview {
		require.False(t, seen["review:"+k], "review key %q both matched and unmatched", k)
	}
}

// --- scenarios ---

func TestResolveExactAfterNormalization(t *testing.T) {
	m := New(types.DefaultMatchConfig())
	res := m.Resolve(
		named("Cole, John P.", ratingsRecord(4.1)),
		named("John Cole", reviewRecord("42", "John Cole")),
	)

	require.Len(t, res.Matched, 1)
	got := res.Matched[0]
	assert.Equal(t, "john cole", got.Key)
	assert.Equal(t, TierExact, got.Tier)
	assert.Equal(t, "Cole, John P.", got.Ratings.SourceName)
	assert.Equal(t, "John Cole", got.Review.SourceName)

	fields := res.MatchedFields()["john cole"]
	assert.Equal(t, "42", fields.ID)
	assert.Equal(t, "Computer Science", fields.Department)
	require.NotNil(t, fields.OverallRating)
	assert.Equal(t, 4.1, fields.OverallRating.Value)
	assert.Empty(t, res.UnmatchedRatings)
	assert.Empty(t, res.UnmatchedReview)
}

func TestResolveMiddleNameDroppedByNormalizer(t *testing.T) {
	m := New(types.DefaultMatchConfig())
	res := m.Resolve(ratingsOf("Smith, Robert Allen"), reviews("Robert Smith"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "robert smith", res.Matched[0].Key)
	assert.Equal(t, TierExact, res.Matched[0].Tier)
}

func TestResolveTransposition(t *testing.T) {
	m := New(types.DefaultMatchConfig())
	res := m.Resolve(ratingsOf("Kim Lee"), reviews("Lee Kim"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, TierTransposed, res.Matched[0].Tier)
	assert.Equal(t, "lee kim", res.Matched[0].Key)
	assert.Equal(t, "kim lee", res.Matched[0].Ratings.Key)
	assertAccounting(t, res)
}

func TestResolveFuzzyThreshold(t *testing.T) {
	require.GreaterOrEqual(t, similarity.Ratio("jon doe", "john doe"), 80)
	require.Less(t, similarity.Ratio("jon doe", "john doe"), 95)

	m := New(types.DefaultMatchConfig())
	res := m.Resolve(ratingsOf("Jon Doe"), reviews("John Doe"))
	require.Len(t, res.Matched, 1)
	assert.Equal(t, TierFuzzy, res.Matched[0].Tier)
	assert.Equal(t, "john doe", res.Matched[0].Key)
	assert.Equal(t, 93, res.Matched[0].Score)

	cfg := types.DefaultMatchConfig()
	cfg.FuzzyThreshold = 95
	res = New(cfg).Resolve(ratingsOf("Jon Doe"), reviews("John Doe"))
	assert.Empty(t, res.Matched)
	assert.Equal(t, []string{"jon doe"}, res.UnmatchedRatings)
	assert.Equal(t, []string{"john doe"}, res.UnmatchedReview)
}

func TestResolveEmptyNameNeverMatches(t *testing.T) {
	m := New(types.DefaultMatchConfig(), WithScorer(constantScorer(100)))
	res := m.Resolve(ratingsOf("", "Cole, John"), reviews("", "John Cole"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "john cole", res.Matched[0].Key)
	assert.Equal(t, []string{""}, res.UnmatchedRatings)
	assert.Equal(t, []string{""}, res.UnmatchedReview)
	assertAccounting(t, res)
}

// --- properties ---

func TestExactTierPreemptsFuzzyScoring(t *testing.T) {
	scorer := &countingScorer{}
	m := New(types.DefaultMatchConfig(), WithScorer(scorer.score))
	res := m.Resolve(
		ratingsOf("Cole, John P.", "Jon Doe"),
		reviews("John Cole", "John Doe"),
	)

	require.Len(t, res.Matched, 2)
	assert.Equal(t, TierExact, res.Matched[0].Tier)
	assert.Equal(t, TierFuzzy, res.Matched[1].Tier)
	require.NotEmpty(t, scorer.pairs)
	for _, p := range scorer.pairs {
		assert.NotEqual(t, "john cole", p[0])
		assert.NotEqual(t, "john cole", p[1])
	}
}

func TestFuzzyLengthGuard(t *testing.T) {
	m := New(types.DefaultMatchConfig(), WithScorer(constantScorer(100)))

	// Length difference 5: never a candidate, whatever the score.
	res := m.Resolve(ratingsOf("al khan"), reviews("al khanxyzab"))
	assert.Empty(t, res.Matched)

	// Length difference 4: allowed.
	res = m.Resolve(ratingsOf("al khan"), reviews("al khanxyza"))
	require.Len(t, res.Matched, 1)
	assert.Equal(t, TierFuzzy, res.Matched[0].Tier)
}

func TestFuzzyTieKeepsFirstSeen(t *testing.T) {
	m := New(types.DefaultMatchConfig(), WithScorer(constantScorer(90)))
	res := m.Resolve(ratingsOf("Ann Berg"), reviews("Anne Berg", "Ann Bergh"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "anne berg", res.Matched[0].Key)
	assert.Equal(t, []string{"ann bergh"}, res.UnmatchedReview)
}

func TestFuzzyPicksHighestScore(t *testing.T) {
	m := New(types.DefaultMatchConfig())
	res := m.Resolve(ratingsOf("Jonathan Smyth"), reviews("Jonathon Smith", "Jonathan Smith"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "jonathan smith", res.Matched[0].Key)
}

func TestFuzzyConsumesReviewKey(t *testing.T) {
	m := New(types.DefaultMatchConfig(), WithScorer(constantScorer(90)))
	res := m.Resolve(ratingsOf("Ann Berg", "Anne Berg"), reviews("Anna Berg"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "ann berg", res.Matched[0].Ratings.Key)
	assert.Equal(t, []string{"anne berg"}, res.UnmatchedRatings)
	assertAccounting(t, res)
}

func TestStructuralRatingsToReview(t *testing.T) {
	cfg := types.DefaultMatchConfig()
	cfg.KeepMiddleNames = true
	res := New(cfg).Resolve(ratingsOf("Smith, Robert Allen"), reviews("Robert Smith"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, TierStructural, res.Matched[0].Tier)
	assert.Equal(t, "robert smith", res.Matched[0].Key)
	assert.Equal(t, "robert allen smith", res.Matched[0].Ratings.Key)
	assertAccounting(t, res)
}

func TestStructuralReviewToRatings(t *testing.T) {
	cfg := types.DefaultMatchConfig()
	cfg.KeepMiddleNames = true
	res := New(cfg).Resolve(ratingsOf("Cole, John"), reviews("John Paul Cole"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, TierStructural, res.Matched[0].Tier)
	assert.Equal(t, "john paul cole", res.Matched[0].Key)
	assert.Equal(t, "john cole", res.Matched[0].Ratings.Key)
}

func TestStructuralDropsShadowedReviewKey(t *testing.T) {
	cfg := types.DefaultMatchConfig()
	cfg.KeepMiddleNames = true
	res := New(cfg).Resolve(ratingsOf("Doe, Jane"), reviews("John Paul Cole", "John Cole"))

	assert.Empty(t, res.Matched)
	assert.Equal(t, []string{"john paul cole"}, res.UnmatchedReview)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, Drop{Key: "john cole", SourceName: "John Cole", ShadowedBy: "john paul cole"}, res.Dropped[0])
	assertAccounting(t, res)

	cfg.DropShadowedReview = false
	res = New(cfg).Resolve(ratingsOf("Doe, Jane"), reviews("John Paul Cole", "John Cole"))
	assert.Empty(t, res.Dropped)
	assert.Equal(t, []string{"john paul cole", "john cole"}, res.UnmatchedReview)
	assertAccounting(t, res)
}

func TestCollisionsAreReported(t *testing.T) {
	m := New(types.DefaultMatchConfig())
	res := m.Resolve(
		named("Cole, John", ratingsRecord(3.0), "Cole, John P.", ratingsRecord(4.5)),
		reviews("John Cole"),
	)

	require.Len(t, res.Collisions, 1)
	assert.Equal(t, Collision{Side: SideRatings, Key: "john cole", Kept: "Cole, John P.", Displaced: "Cole, John"}, res.Collisions[0])
	require.Len(t, res.Matched, 1)
	assert.Equal(t, 4.5, res.Matched[0].Fields.OverallRating.Value)
	assert.Equal(t, 1, res.RatingsKeys)
}

func TestRatingsFieldsWinConflicts(t *testing.T) {
	ratings := ratingsRecord(3.9)
	ratings.Department = "CS"
	m := New(types.DefaultMatchConfig())
	res := m.Resolve(named("Cole, John", ratings), reviews("John Cole"))

	require.Len(t, res.Matched, 1)
	assert.Equal(t, "CS", res.Matched[0].Fields.Department)
	assert.Equal(t, "John Cole", res.Matched[0].Fields.OriginalFormat)
}

func TestResolveAccountingMixed(t *testing.T) {
	m := New(types.DefaultMatchConfig())
	res := m.Resolve(
		ratingsOf("Cole, John P.", "Jon Doe", "Kim Lee", "Nguyen, An", "", "Zhang, Wei Ming", "Brown, Alice"),
		reviews("John Cole", "John Doe", "Lee Kim", "Wei Zhang", "Maria Garcia", "", "Robert Smith"),
	)

	assertAccounting(t, res)
	counts := res.CountByTier()
	assert.Equal(t, 2, counts[TierExact])
	assert.Equal(t, 1, counts[TierFuzzy])
	assert.Equal(t, 1, counts[TierTransposed])
	assert.Equal(t, []string{"an nguyen", "", "alice brown"}, res.UnmatchedRatings)
	assert.Equal(t, []string{"maria garcia", "", "robert smith"}, res.UnmatchedReview)
}

func TestResolveMapsIsDeterministic(t *testing.T) {
	ratings := map[string]types.RecordFields{
		"Berg, Ann":  ratingsRecord(3.1),
		"Berg, Anne": ratingsRecord(3.2),
	}
	review := map[string]types.RecordFields{
		"Anna Berg": reviewRecord("1", "Anna Berg"),
	}
	m := New(types.DefaultMatchConfig(), WithScorer(constantScorer(90)))
	for i := 0; i < 10; i++ {
		res := m.ResolveMaps(ratings, review)
		require.Len(t, res.Matched, 1)
		assert.Equal(t, "Berg, Ann", res.Matched[0].Ratings.SourceName)
	}
}

func TestObserverSeesEveryTier(t *testing.T) {
	obs := &recordingObserver{}
	m := New(types.DefaultMatchConfig(), WithObserver(obs))
	res := m.Resolve(ratingsOf("Jon Doe"), reviews("John Doe"))

	require.Len(t, res.Stats, len(Tiers))
	assert.Equal(t, Tiers, obs.tiers)
	assert.Equal(t, []int{93}, obs.scores)
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	m := New(types.MatchConfig{})
	assert.Equal(t, 80, m.cfg.FuzzyThreshold)
	assert.Equal(t, 5, m.cfg.MaxLengthDiff)
}

func TestTierStringRoundTrip(t *testing.T) {
	for _, tier := range Tiers {
		got, ok := ParseTier(tier.String())
		require.True(t, ok)
		assert.Equal(t, tier, got)
	}
	_, ok := ParseTier("phonetic")
	assert.False(t, ok)
}

// --- benchmark ---

func BenchmarkResolve(b *testing.B) {
	givens := []string{"John", "Maria", "Wei", "Ann", "Robert", "Priya", "Ahmed", "Olga", "Luis", "Kenji"}
	families := []string{"Cole", "Garcia", "Zhang", "Berg", "Smith", "Patel", "Hassan", "Ivanova", "Lopez", "Sato"}
	var ratings, review []types.NamedRecord
	for i := 0; i < 40; i++ {
		for j, g := range givens {
			f := families[(i+j)%len(families)]
			ratings = append(ratings, types.NamedRecord{Name: fmt.Sprintf("%s%d, %s", f, i, g), Fields: ratingsRecord(3.5)})
			if (i+j)%3 != 0 {
				review = append(review, types.NamedRecord{Name: fmt.Sprintf("%s %s%d", g, f, i+j%2), Fields: reviewRecord("1", g)})
			}
		}
	}
	m := New(types.DefaultMatchConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Resolve(ratings, review)
	}
}
