// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/emw8105/professor-ratings-lambda/internal/match"
	"github.com/emw8105/professor-ratings-lambda/internal/metrics"
	"github.com/emw8105/professor-ratings-lambda/internal/sources"
	"github.com/emw8105/professor-ratings-lambda/internal/store"
	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// resolveOptions controls what a resolution run records beyond its result files.
type resolveOptions struct {
	RatingsSource string
	ReviewSource  string
	NoStore       bool
	MetricsFile   string
}

// resolveAndRecord matches the two inputs, writes the result files, saves
// the run to the history database, and prints a summary to w.
func resolveAndRecord(ctx context.Context, w io.Writer, log *zap.Logger, cfg types.PipelineConfig,
	ratings, review []types.NamedRecord, opts resolveOptions) (match.Result, error) {
	rec := metrics.NewRecorder()
	m := match.New(cfg.Match, match.WithLogger(log), match.WithObserver(rec))

	started := time.Now()
	res := m.Resolve(ratings, review)
	rec.ObserveResult(res)

	paths, err := sources.WriteResult(cfg.Output, res)
	if err != nil {
		return res, err
	}

	printSummary(w, res)
	fmt.Fprintf(w, "\nmatched data:      %s\n", paths.Matched)
	fmt.Fprintf(w, "unmatched ratings: %s\n", paths.UnmatchedRatings)
	fmt.Fprintf(w, "unmatched review:  %s\n", paths.UnmatchedReview)

	if !opts.NoStore {
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return res, err
		}
		defer s.Close()

		run, err := s.SaveRun(ctx, store.RunInfo{
			StartedAt:     started,
			Config:        cfg.Match,
			RatingsSource: opts.RatingsSource,
			ReviewSource:  opts.ReviewSource,
		}, res)
		if err != nil {
			return res, err
		}
		fmt.Fprintf(w, "run:               %s\n", run.ID)
	}

	if opts.MetricsFile != "" {
		if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
			return res, err
		}
		log.Info("metrics written", zap.String("path", opts.MetricsFile))
	}
	return res, nil
}

func printSummary(w io.Writer, res match.Result) {
	rows := make([][]string, 0, len(res.Stats)+1)
	total := 0
	for _, st := range res.Stats {
		rows = append(rows, []string{
			st.Tier.String(),
			strconv.Itoa(st.Matched),
			st.Elapsed.Round(time.Microsecond).String(),
		})
		total += st.Matched
	}
	rows = append(rows, []string{"total", strconv.Itoa(total), ""})
	fmt.Fprintln(w, renderTable(w, []string{"Tier", "Matched", "Elapsed"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}))

	fmt.Fprintf(w, "\nratings keys: %d, review keys: %d\n", res.RatingsKeys, res.ReviewKeys)
	fmt.Fprintf(w, "unmatched ratings: %d, unmatched review: %d, dropped: %d, collisions: %d\n",
		len(res.UnmatchedRatings), len(res.UnmatchedReview), len(res.Dropped), len(res.Collisions))
}
