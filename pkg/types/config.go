package types

import "time"

// HTTPConfig holds shared HTTP settings for sources fetched over the network.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "professor-ratings/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// MatchConfig holds settings for the name-matching tiers.
type MatchConfig struct {
	// FuzzyThreshold is the minimum similarity score (0-100) for a fuzzy match (default 80).
	FuzzyThreshold int `json:"fuzzy_threshold" yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`

	// MaxLengthDiff is the exclusive upper bound on the length difference
	// between two fuzzy candidates (default 5).
	MaxLengthDiff int `json:"max_length_diff" yaml:"max_length_diff" mapstructure:"max_length_diff"`

	// KeepMiddleNames stops the normalizer from reducing keys to their first
	// and last tokens. The structural tier then pairs middle-name variants.
	KeepMiddleNames bool `json:"keep_middle_names" yaml:"keep_middle_names" mapstructure:"keep_middle_names"`

	// FoldDiacritics strips accents before comparison ("José" == "jose").
	FoldDiacritics bool `json:"fold_diacritics" yaml:"fold_diacritics" mapstructure:"fold_diacritics"`

	// DropShadowedReview removes a review key from the unmatched list when a
	// longer review key shortens to it during the structural tier (default true).
	DropShadowedReview bool `json:"drop_shadowed_review" yaml:"drop_shadowed_review" mapstructure:"drop_shadowed_review"`
}

// GradesConfig holds settings for grade-distribution aggregation.
type GradesConfig struct {
	// DataDir contains the grade distribution CSV files (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// InstructorColumn names the CSV column holding the instructor (default "Instructor 1").
	InstructorColumn string `json:"instructor_column" yaml:"instructor_column" mapstructure:"instructor_column"`
}

// SourceConfig holds settings for loading the two input documents.
type SourceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxRetries is the number of retries on HTTP 429 and 503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Token is sent as a bearer token with remote source requests. It is
	// never written out with the rest of the configuration.
	Token string `json:"-" yaml:"-" mapstructure:"token"`
}

// OutputFormat selects the encoding of written result files.
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// OutputConfig holds settings for result files.
type OutputConfig struct {
	// Dir receives matched and unmatched files (default ".").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Format is json or yaml.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`
}

// StoreConfig holds settings for the run history database.
type StoreConfig struct {
	// DBPath is the SQLite database file (default "index/ratings.db").
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MaxResults caps lookup results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig selects the diagnostic logger.
type LogConfig struct {
	// Env is "local" (console) or "prod" (JSON).
	Env string `json:"env" yaml:"env" mapstructure:"env"`

	// Level overrides the log level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// PipelineConfig groups all settings.
type PipelineConfig struct {
	Match  MatchConfig  `json:"match" yaml:"match" mapstructure:"match"`
	Grades GradesConfig `json:"grades" yaml:"grades" mapstructure:"grades"`
	Source SourceConfig `json:"source" yaml:"source" mapstructure:"source"`
	Output OutputConfig `json:"output" yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultMatchConfig returns the matching defaults.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		FuzzyThreshold:     80,
		MaxLengthDiff:      5,
		DropShadowedReview: true,
	}
}

// DefaultPipelineConfig returns the defaults used when no config file sets a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Match: DefaultMatchConfig(),
		Grades: GradesConfig{
			DataDir:          "data",
			InstructorColumn: "Instructor 1",
		},
		Source: SourceConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "professor-ratings/0.1",
			},
			MaxRetries: 5,
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: OutputJSON,
		},
		Store: StoreConfig{
			DBPath:     "index/ratings.db",
			MaxResults: 20,
		},
		Log: LogConfig{
			Env:   "local",
			Level: "info",
		},
	}
}
