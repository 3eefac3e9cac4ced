// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/emw8105/professor-ratings-lambda/internal/match"
	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(types.StoreConfig{DBPath: filepath.Join(dir, "index", "ratings.db"), MaxResults: 10})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func record(name string, fields types.RecordFields) types.NamedRecord {
	return types.NamedRecord{Name: name, Fields: fields}
}

func sampleResult() match.Result {
	ratings := []types.NamedRecord{
		record("Smith, John", types.RecordFields{OverallRating: types.ScorePtr(types.NewScore(3.75))}),
		record("Berg, Ann", types.RecordFields{OverallRating: types.ScorePtr(types.NA())}),
		record("Núñez, José", types.RecordFields{OverallRating: types.ScorePtr(types.NewScore(4.5))}),
		record("Zed Adams", types.RecordFields{}),
	}
	review := []types.NamedRecord{
		record("John Smith", types.RecordFields{Department: "Computer Science", ID: "17"}),
		record("Ann Berg", types.RecordFields{Department: "Math"}),
		record("José Núñez", types.RecordFields{Department: "Physics"}),
		record("Carl Orff", types.RecordFields{Department: "Music"}),
	}
	return match.New(types.DefaultMatchConfig()).Resolve(ratings, review)
}

func saveSample(t *testing.T, s *Store, started time.Time) Run {
	t.Helper()
	run, err := s.SaveRun(context.Background(), RunInfo{
		StartedAt:     started,
		Config:        types.DefaultMatchConfig(),
		RatingsSource: "professor_ratings.json",
		ReviewSource:  "professors.json",
	}, sampleResult())
	require.NoError(t, err)
	return run
}

// --- tests ---

func TestNewStoreCreatesDirectory(t *testing.T) {
	_, dir := testStore(t)
	_, err := os.Stat(filepath.Join(dir, "index", "ratings.db"))
	require.NoError(t, err)
}

func TestNewStoreReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := types.StoreConfig{DBPath: filepath.Join(dir, "ratings.db")}

	s, err := NewStore(cfg)
	require.NoError(t, err)
	saveSample(t, s, time.Now())
	require.NoError(t, s.Close())

	s, err = NewStore(cfg)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveRun(t *testing.T) {
	s, _ := testStore(t)
	run := saveSample(t, s, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err, "run id is a uuid")
	assert.Equal(t, 3, run.Matched)
	assert.Equal(t, 1, run.UnmatchedRatings)
	assert.Equal(t, 1, run.UnmatchedReview)

	got, err := s.Run(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StartedAt, got.StartedAt)
	assert.Equal(t, types.DefaultMatchConfig(), got.Config)
	assert.Equal(t, "professors.json", got.ReviewSource)
}

func TestRunsNewestFirst(t *testing.T) {
	s, _ := testStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := saveSample(t, s, base)
	second := saveSample(t, s, base.Add(500*time.Millisecond))
	third := saveSample(t, s, base.Add(time.Second))

	runs, err := s.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	latest, err := s.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, third.ID, latest.ID)

	runs, err = s.Runs(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunErrors(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRuns)

	saveSample(t, s, time.Now())
	_, err = s.Run(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMatchesAndUnmatched(t *testing.T) {
	s, _ := testStore(t)
	run := saveSample(t, s, time.Now())
	ctx := context.Background()

	matches, err := s.Matches(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "john smith", matches[0].Key)
	assert.Equal(t, "exact", matches[0].Tier)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, "Smith, John", matches[0].RatingsName)
	assert.Equal(t, "John Smith", matches[0].ReviewName)
	assert.Equal(t, "Computer Science", matches[0].Fields.Department)
	require.NotNil(t, matches[0].Fields.OverallRating)
	assert.Equal(t, 3.75, matches[0].Fields.OverallRating.Value)

	require.NotNil(t, matches[1].Fields.OverallRating)
	assert.False(t, matches[1].Fields.OverallRating.Valid, "N/A survives storage")

	ratings, err := s.Unmatched(ctx, run.ID, match.SideRatings)
	require.NoError(t, err)
	assert.Equal(t, []UnmatchedRecord{{Key: "zed adams", SourceName: "Zed Adams"}}, ratings)

	review, err := s.Unmatched(ctx, run.ID, match.SideReview)
	require.NoError(t, err)
	assert.Equal(t, []UnmatchedRecord{{Key: "carl orff", SourceName: "Carl Orff"}}, review)
}

func TestLookup(t *testing.T) {
	s, _ := testStore(t)
	saveSample(t, s, time.Now().Add(-time.Hour))
	latest := saveSample(t, s, time.Now())
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "single word", query: "smith", want: []string{"john smith"}},
		{name: "source name with comma", query: "Smith, John", want: []string{"john smith"}},
		{name: "prefix", query: "be", want: []string{"ann berg"}},
		{name: "diacritics folded", query: "nunez", want: []string{"josé núñez"}},
		{name: "punctuation only in name", query: "O'Brien", want: nil},
		{name: "unmatched keys are not indexed", query: "orff", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Lookup(ctx, LookupOptions{Query: tt.query})
			require.NoError(t, err)
			var keys []string
			for _, r := range results {
				assert.Equal(t, latest.ID, r.RunID)
				keys = append(keys, r.Key)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestLookupEmptyQuery(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.Lookup(context.Background(), LookupOptions{Query: " ,. "})
	require.Error(t, err)
}

func TestLookupNoRuns(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.Lookup(context.Background(), LookupOptions{Query: "smith"})
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"Smith"* "John"*`, ftsQuery("Smith, John"))
	assert.Equal(t, `"O"* "Brien"*`, ftsQuery(`O'Brien`))
	assert.Equal(t, "", ftsQuery(` "* `))
}

func TestExportYAML(t *testing.T) {
	s, dir := testStore(t)
	run := saveSample(t, s, time.Now())

	path, err := s.ExportYAML(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "index", "run-"+run.ID+".yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Export
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, run.ID, doc.Run.ID)
	assert.Len(t, doc.Matches, 3)
	assert.Len(t, doc.Unmatched.Ratings, 1)
	assert.Len(t, doc.Unmatched.Review, 1)
}

func TestExportJSON(t *testing.T) {
	s, _ := testStore(t)
	run := saveSample(t, s, time.Now())
	out := t.TempDir()

	path, err := s.ExportJSON(context.Background(), run.ID, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "run-"+run.ID+".json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Export
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "john smith", doc.Matches[0].Key)
	assert.Equal(t, "zed adams", doc.Unmatched.Ratings[0].Key)
}
