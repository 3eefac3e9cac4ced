// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emw8105/professor-ratings-lambda/internal/store"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Search matched instructors by name",
	Long: `Lookup searches the match keys and both source names of a recorded run.
Each word is matched as a prefix and accents are ignored, so "nunez jo"
finds "José Núñez". The latest run is searched unless --run is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	if err := bindAll(cmd, storeFlagKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Lookup(cmd.Context(), store.LookupOptions{
		Query:      strings.Join(args, " "),
		RunID:      runID,
		MaxResults: limit,
	})
	if err != nil {
		return err
	}
	return formatLookupOutput(cmd, results, jsonOutput)
}

func formatLookupOutput(cmd *cobra.Command, results []store.MatchRecord, jsonOutput bool) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		overall := "N/A"
		if r.Fields.OverallRating != nil {
			overall = r.Fields.OverallRating.String()
		}
		quality := "N/A"
		if r.Fields.QualityRating != nil {
			quality = r.Fields.QualityRating.String()
		}
		rows[i] = []string{
			r.Key, r.Tier, strconv.Itoa(r.Score),
			r.RatingsName, r.ReviewName, r.Fields.Department,
			overall, quality,
		}
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Key", "Tier", "Score", "Ratings Name", "Review Name", "Department", "Grades", "Quality"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight}))
	fmt.Fprintf(out, "\n%d results\n", len(results))
	return nil
}

func init() {
	lookupCmd.Flags().String("run", "", "run id to search (default: latest run)")
	lookupCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	lookupCmd.Flags().Bool("json", false, "output results as JSON")
	addStoreFlags(lookupCmd)

	rootCmd.AddCommand(lookupCmd)
}
