// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/emw8105/professor-ratings-lambda/internal/logger"
	"github.com/emw8105/professor-ratings-lambda/internal/sources"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a ratings file against a review file",
	Long: `Match loads a ratings document and a review document (JSON or YAML,
local path or http(s) URL), links records that name the same instructor,
and writes matched_professor_data, unmatched_ratings, and unmatched_review
to the output directory. Each run is recorded in the history database.`,
	Example: `  professor-ratings match --ratings professor_ratings.json --review professors.json
  professor-ratings match --ratings r.yaml --review https://example.com/professors.json --format yaml`,
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	if err := bindAll(cmd, matchFlagKeys, outputFlagKeys, storeFlagKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ratingsPath, _ := cmd.Flags().GetString("ratings")
	reviewPath, _ := cmd.Flags().GetString("review")
	noStore, _ := cmd.Flags().GetBool("no-store")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	out := cmd.OutOrStdout()
	client := &http.Client{Timeout: cfg.Source.Timeout}

	ratings, err := sources.Load(ctx, client, ratingsPath, cfg.Source, log)
	if err != nil {
		return fmt.Errorf("loading ratings: %w", err)
	}
	fmt.Fprintf(out, "loaded  %s (%d records)\n", ratingsPath, len(ratings))

	review, err := sources.Load(ctx, client, reviewPath, cfg.Source, log)
	if err != nil {
		return fmt.Errorf("loading review: %w", err)
	}
	fmt.Fprintf(out, "loaded  %s (%d records)\n\n", reviewPath, len(review))

	_, err = resolveAndRecord(ctx, out, log, cfg, ratings, review, resolveOptions{
		RatingsSource: ratingsPath,
		ReviewSource:  reviewPath,
		NoStore:       noStore,
		MetricsFile:   metricsFile,
	})
	return err
}

func init() {
	matchCmd.Flags().String("ratings", "", "ratings document (path or URL)")
	matchCmd.Flags().String("review", "", "review document (path or URL)")
	matchCmd.Flags().Bool("no-store", false, "do not record the run in the history database")
	matchCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")
	matchCmd.MarkFlagRequired("ratings")
	matchCmd.MarkFlagRequired("review")
	addMatchFlags(matchCmd)
	addOutputFlags(matchCmd)
	addStoreFlags(matchCmd)

	rootCmd.AddCommand(matchCmd)
}
