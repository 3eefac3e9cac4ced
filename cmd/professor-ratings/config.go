package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// setDefaults registers every config key so environment variables and
// Unmarshal see the full tree even without a config file.
func setDefaults() {
	d := types.DefaultPipelineConfig()

	viper.SetDefault("match.fuzzy_threshold", d.Match.FuzzyThreshold)
	viper.SetDefault("match.max_length_diff", d.Match.MaxLengthDiff)
	viper.SetDefault("match.keep_middle_names", d.Match.KeepMiddleNames)
	viper.SetDefault("match.fold_diacritics", d.Match.FoldDiacritics)
	viper.SetDefault("match.drop_shadowed_review", d.Match.DropShadowedReview)

	viper.SetDefault("grades.data_dir", d.Grades.DataDir)
	viper.SetDefault("grades.instructor_column", d.Grades.InstructorColumn)

	viper.SetDefault("source.timeout", d.Source.Timeout)
	viper.SetDefault("source.user_agent", d.Source.UserAgent)
	viper.SetDefault("source.max_retries", d.Source.MaxRetries)
	viper.SetDefault("source.token", "")

	viper.SetDefault("output.dir", d.Output.Dir)
	viper.SetDefault("output.format", string(d.Output.Format))

	viper.SetDefault("store.db_path", d.Store.DBPath)
	viper.SetDefault("store.max_results", d.Store.MaxResults)

	viper.SetDefault("log.env", d.Log.Env)
	viper.SetDefault("log.level", d.Log.Level)
}

// bindFlags binds a command's flags to config keys. Flags are bound when
// the command runs because several commands share the same keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig resolves the pipeline configuration from defaults, the config
// file, PROFESSOR_RATINGS_* environment variables, and bound flags.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	switch cfg.Output.Format {
	case types.OutputJSON, types.OutputYAML:
	default:
		return cfg, fmt.Errorf("unsupported output format %q: use json or yaml", cfg.Output.Format)
	}
	return cfg, nil
}

// Flag-to-key tables shared by commands.
var (
	matchFlagKeys = map[string]string{
		"threshold":         "match.fuzzy_threshold",
		"max-length-diff":   "match.max_length_diff",
		"keep-middle-names": "match.keep_middle_names",
		"fold-diacritics":   "match.fold_diacritics",
	}
	outputFlagKeys = map[string]string{
		"out":    "output.dir",
		"format": "output.format",
	}
	storeFlagKeys = map[string]string{
		"db": "store.db_path",
	}
	gradesFlagKeys = map[string]string{
		"data-dir":          "grades.data_dir",
		"instructor-column": "grades.instructor_column",
	}
)

func addMatchFlags(cmd *cobra.Command) {
	d := types.DefaultMatchConfig()
	cmd.Flags().Int("threshold", d.FuzzyThreshold, "minimum fuzzy similarity score (0-100)")
	cmd.Flags().Int("max-length-diff", d.MaxLengthDiff, "fuzzy candidates must differ in length by less than this")
	cmd.Flags().Bool("keep-middle-names", false, "keep middle name tokens in match keys")
	cmd.Flags().Bool("fold-diacritics", false, "compare names with accents removed")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", ".", "directory for result files")
	cmd.Flags().String("format", "json", "result file format: json or yaml")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("db", "index/ratings.db", "run history database")
}

func addGradesFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "data", "directory of grade distribution CSV files")
	cmd.Flags().String("instructor-column", "Instructor 1", "CSV column holding the instructor name")
}

func bindAll(cmd *cobra.Command, tables ...map[string]string) error {
	for _, t := range tables {
		if err := bindFlags(cmd, t); err != nil {
			return err
		}
	}
	return nil
}
