// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/emw8105/professor-ratings-lambda/internal/names"
	"github.com/emw8105/professor-ratings-lambda/internal/similarity"
	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// Observer receives progress from a resolution run. Implementations must not
// retain or modify the pools.
type Observer interface {
	TierCompleted(tier Tier, matched int, elapsed time.Duration)
	FuzzyScored(score int)
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithScorer replaces the fuzzy tier's similarity function.
func WithScorer(fn similarity.Func) Option {
	return func(m *Matcher) { m.score = fn }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) { m.log = l }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(m *Matcher) { m.observer = o }
}

// Matcher resolves ratings records against review records.
type Matcher struct {
	cfg        types.MatchConfig
	normalizer *names.Normalizer
	score      similarity.Func
	log        *zap.Logger
	observer   Observer
}

// New returns a Matcher. A zero FuzzyThreshold or MaxLengthDiff takes the
// default (80 and 5).
func New(cfg types.MatchConfig, opts ...Option) *Matcher {
	defaults := types.DefaultMatchConfig()
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = defaults.FuzzyThreshold
	}
	if cfg.MaxLengthDiff <= 0 {
		cfg.MaxLengthDiff = defaults.MaxLengthDiff
	}
	m := &Matcher{
		cfg: cfg,
		normalizer: names.NewNormalizer(names.Options{
			KeepMiddleNames: cfg.KeepMiddleNames,
			FoldDiacritics:  cfg.FoldDiacritics,
		}),
		score: similarity.Ratio,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ResolveMaps resolves unordered inputs. Source names are visited in sorted
// order so results are reproducible.
func (m *Matcher) ResolveMaps(ratings, review map[string]types.RecordFields) Result {
	return m.Resolve(sortedRecords(ratings), sortedRecords(review))
}

// Resolve runs every tier over the two inputs, visiting records in the
// order given.
func (m *Matcher) Resolve(ratings, review []types.NamedRecord) Result {
	var res Result
	ratingsPool := m.buildPool(SideRatings, ratings, &res)
	reviewPool := m.buildPool(SideReview, review, &res)
	res.RatingsKeys = ratingsPool.Len()
	res.ReviewKeys = reviewPool.Len()

	m.log.Debug("pools built",
		zap.Int("ratings_records", len(ratings)),
		zap.Int("review_records", len(review)),
		zap.Int("ratings_keys", res.RatingsKeys),
		zap.Int("review_keys", res.ReviewKeys),
		zap.Int("collisions", len(res.Collisions)),
	)

	tiers := []struct {
		tier Tier
		run  func(ratings, review *Pool, res *Result)
	}{
		{TierExact, m.matchExact},
		{TierFuzzy, m.matchFuzzy},
		{TierStructural, m.matchStructural},
		{TierTransposed, m.matchTransposed},
	}
	for _, t := range tiers {
		start := time.Now()
		before := len(res.Matched)
		t.run(ratingsPool, reviewPool, &res)
		stats := TierStats{Tier: t.tier, Matched: len(res.Matched) - before, Elapsed: time.Since(start)}
		res.Stats = append(res.Stats, stats)

		m.log.Debug("tier complete",
			zap.Stringer("tier", t.tier),
			zap.Int("matched", stats.Matched),
			zap.Int("ratings_left", ratingsPool.Len()),
			zap.Int("review_left", reviewPool.Len()),
			zap.Duration("elapsed", stats.Elapsed),
		)
		if m.observer != nil {
			m.observer.TierCompleted(t.tier, stats.Matched, stats.Elapsed)
		}
	}

	res.UnmatchedRatings = ratingsPool.Keys()
	res.UnmatchedReview = reviewPool.Keys()
	res.RemainingRatings = ratingsPool.Entries()
	res.RemainingReview = reviewPool.Entries()
	return res
}

func (m *Matcher) buildPool(side string, records []types.NamedRecord, res *Result) *Pool {
	pool := NewPool()
	for _, r := range records {
		e := Entry{SourceName: r.Name, Key: m.normalizer.Normalize(r.Name), Fields: r.Fields}
		if displaced, ok := pool.Add(e); ok {
			res.Collisions = append(res.Collisions, Collision{
				Side:      side,
				Key:       e.Key,
				Kept:      e.SourceName,
				Displaced: displaced.SourceName,
			})
			m.log.Warn("source names share a key",
				zap.String("side", side),
				zap.String("key", e.Key),
				zap.String("kept", e.SourceName),
				zap.String("displaced", displaced.SourceName),
			)
		}
	}
	return pool
}

// link removes ratingsKey and reviewKey from their pools and records the match.
func link(ratings, review *Pool, ratingsKey, reviewKey string, tier Tier, score int, res *Result) {
	r, _ := ratings.Remove(ratingsKey)
	v, _ := review.Remove(reviewKey)
	res.Matched = append(res.Matched, Match{
		Key:     reviewKey,
		Tier:    tier,
		Score:   score,
		Ratings: r,
		Review:  v,
		Fields:  v.Fields.Merge(r.Fields),
	})
}

// matchExact pairs keys present verbatim in both pools, walking the review pool.
func (m *Matcher) matchExact(ratings, review *Pool, res *Result) {
	for _, key := range review.Keys() {
		if key == "" || !ratings.Has(key) {
			continue
		}
		link(ratings, review, key, key, TierExact, 100, res)
	}
}

// matchFuzzy finds, for each ratings key, the highest-scoring review key that
// clears the threshold and the length guard. The review pool is only
// modified after a query's scan completes.
func (m *Matcher) matchFuzzy(ratings, review *Pool, res *Result) {
	for _, key := range ratings.Keys() {
		if key == "" {
			continue
		}
		keyLen := runeLen(key)
		best, bestScore := "", 0
		review.each(func(e Entry) bool {
			if e.Key == "" || abs(keyLen-runeLen(e.Key)) >= m.cfg.MaxLengthDiff {
				return true
			}
			score := m.score(key, e.Key)
			if m.observer != nil {
				m.observer.FuzzyScored(score)
			}
			if score > bestScore && score >= m.cfg.FuzzyThreshold {
				best, bestScore = e.Key, score
			}
			return true
		})
		if best == "" {
			continue
		}
		m.log.Debug("fuzzy match",
			zap.String("ratings_key", key),
			zap.String("review_key", best),
			zap.Int("score", bestScore),
		)
		link(ratings, review, key, best, TierFuzzy, bestScore, res)
	}
}

// matchStructural pairs keys that differ only by middle tokens.
func (m *Matcher) matchStructural(ratings, review *Pool, res *Result) {
	for _, key := range ratings.Keys() {
		if len(names.Tokens(key)) <= 2 {
			continue
		}
		short := names.Shorten(key)
		if review.Has(short) {
			link(ratings, review, key, short, TierStructural, 100, res)
		}
	}

	for _, key := range review.Keys() {
		if !review.Has(key) || len(names.Tokens(key)) <= 2 {
			continue
		}
		short := names.Shorten(key)
		switch {
		case ratings.Has(short):
			link(ratings, review, short, key, TierStructural, 100, res)
		case m.cfg.DropShadowedReview && review.Has(short):
			e, _ := review.Remove(short)
			res.Dropped = append(res.Dropped, Drop{Key: short, SourceName: e.SourceName, ShadowedBy: key})
			m.log.Debug("review key shadowed by longer key",
				zap.String("key", short),
				zap.String("shadowed_by", key),
			)
		}
	}
}

// matchTransposed pairs two-token keys written in opposite order.
func (m *Matcher) matchTransposed(ratings, review *Pool, res *Result) {
	for _, key := range ratings.Keys() {
		swapped, ok := names.Swap(key)
		if !ok || !review.Has(swapped) {
			continue
		}
		link(ratings, review, key, swapped, TierTransposed, 100, res)
	}
}

func sortedRecords(in map[string]types.RecordFields) []types.NamedRecord {
	out := make([]types.NamedRecord, 0, len(in))
	for name, fields := range in {
		out = append(out, types.NamedRecord{Name: name, Fields: fields})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
