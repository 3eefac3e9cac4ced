// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emw8105/professor-ratings-lambda/internal/grades"
	"github.com/emw8105/professor-ratings-lambda/internal/sources"
)

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Aggregate grade distribution CSVs into instructor ratings",
	Long: `Grades reads every CSV file in the data directory, totals grade counts
per instructor and course, and converts each distribution into a rating out
of 5. The ratings are written to professor_ratings.<format> in the output
directory, ready for the match command.`,
	RunE: runGrades,
}

func runGrades(cmd *cobra.Command, args []string) error {
	if err := bindAll(cmd, gradesFlagKeys, outputFlagKeys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	report, err := grades.Aggregate(cmd.Context(), cfg.Grades, out)
	if err != nil {
		return err
	}

	path, err := sources.WriteRecords(cfg.Output, sources.RatingsFile, report.Records())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ratings saved to %s\n", path)

	if showDups, _ := cmd.Flags().GetBool("duplicates"); showDups {
		printDuplicates(cmd, grades.DuplicateCourseNumbers(report))
	}
	return nil
}

func printDuplicates(cmd *cobra.Command, dups []grades.Duplicate) {
	out := cmd.OutOrStdout()
	if len(dups) == 0 {
		fmt.Fprintln(out, "\nNo cross-listed course numbers found.")
		return
	}
	rows := make([][]string, len(dups))
	for i, d := range dups {
		rows[i] = []string{d.Instructor, d.Catalog, strings.Join(d.Subjects, ", ")}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(out, []string{"Instructor", "Catalog", "Subjects"}, rows, nil))
}

func init() {
	gradesCmd.Flags().Bool("duplicates", false, "list catalog numbers an instructor teaches under several subjects")
	addGradesFlags(gradesCmd)
	addOutputFlags(gradesCmd)

	rootCmd.AddCommand(gradesCmd)
}
