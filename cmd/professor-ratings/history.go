// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/emw8105/professor-ratings-lambda/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded match runs",
	Long: `History lists the most recent match runs recorded in the history
database, newest first, with their match and unmatched counts.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := bindAll(cmd, storeFlagKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.UnmatchedRatings),
			strconv.Itoa(r.UnmatchedReview),
			strconv.Itoa(r.Dropped),
			strconv.Itoa(r.Config.FuzzyThreshold),
		}
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Run", "Started", "Matched", "Unmatched Ratings", "Unmatched Review", "Dropped", "Threshold"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}))
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")
	addStoreFlags(historyCmd)

	rootCmd.AddCommand(historyCmd)
}
