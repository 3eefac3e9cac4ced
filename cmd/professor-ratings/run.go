// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/emw8105/professor-ratings-lambda/internal/grades"
	"github.com/emw8105/professor-ratings-lambda/internal/logger"
	"github.com/emw8105/professor-ratings-lambda/internal/sources"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Aggregate grades and match them against a review file",
	Long: `Run is grades followed by match: it aggregates the grade distribution
CSVs in the data directory and matches the resulting ratings against the
review document without an intermediate ratings file.`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := bindAll(cmd, gradesFlagKeys, matchFlagKeys, outputFlagKeys, storeFlagKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reviewPath, _ := cmd.Flags().GetString("review")
	noStore, _ := cmd.Flags().GetBool("no-store")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	ctx := cmd.Context()
	log := logger.FromContext(ctx)
	out := cmd.OutOrStdout()

	report, err := grades.Aggregate(ctx, cfg.Grades, out)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Source.Timeout}
	review, err := sources.Load(ctx, client, reviewPath, cfg.Source, log)
	if err != nil {
		return fmt.Errorf("loading review: %w", err)
	}
	fmt.Fprintf(out, "loaded  %s (%d records)\n\n", reviewPath, len(review))

	_, err = resolveAndRecord(ctx, out, log, cfg, report.Records(), review, resolveOptions{
		RatingsSource: cfg.Grades.DataDir,
		ReviewSource:  reviewPath,
		NoStore:       noStore,
		MetricsFile:   metricsFile,
	})
	return err
}

func init() {
	runCmd.Flags().String("review", "", "review document (path or URL)")
	runCmd.Flags().Bool("no-store", false, "do not record the run in the history database")
	runCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")
	runCmd.MarkFlagRequired("review")
	addGradesFlags(runCmd)
	addMatchFlags(runCmd)
	addOutputFlags(runCmd)
	addStoreFlags(runCmd)

	rootCmd.AddCommand(runCmd)
}
