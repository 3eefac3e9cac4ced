// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/emw8105/professor-ratings-lambda/internal/match"
	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// Output file base names. The extension follows the configured format.
const (
	MatchedFile          = "matched_professor_data"
	UnmatchedRatingsFile = "unmatched_ratings"
	UnmatchedReviewFile  = "unmatched_review"
	RatingsFile          = "professor_ratings"
)

// Paths lists the files written for one resolution.
type Paths struct {
	Matched          string
	UnmatchedRatings string
	UnmatchedReview  string
}

// WriteResult writes the matched records and both unmatched key lists to
// cfg.Dir.
func WriteResult(cfg types.OutputConfig, res match.Result) (Paths, error) {
	var p Paths
	var err error
	if p.Matched, err = WriteDocument(cfg, MatchedFile, res.MatchedFields()); err != nil {
		return p, err
	}
	if p.UnmatchedRatings, err = WriteDocument(cfg, UnmatchedRatingsFile, nonNil(res.UnmatchedRatings)); err != nil {
		return p, err
	}
	if p.UnmatchedReview, err = WriteDocument(cfg, UnmatchedReviewFile, nonNil(res.UnmatchedReview)); err != nil {
		return p, err
	}
	return p, nil
}

// WriteRecords writes a name to fields document, the same shape Load reads.
func WriteRecords(cfg types.OutputConfig, base string, records []types.NamedRecord) (string, error) {
	doc := make(map[string]types.RecordFields, len(records))
	for _, r := range records {
		doc[r.Name] = r.Fields
	}
	return WriteDocument(cfg, base, doc)
}

// WriteDocument encodes v in cfg.Format and writes it to cfg.Dir/base.<ext>
// through a temporary file, so readers never observe a partial file.
func WriteDocument(cfg types.OutputConfig, base string, v any) (string, error) {
	data, ext, err := encode(cfg.Format, v)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", base, err)
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, base+ext)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func encode(format types.OutputFormat, v any) ([]byte, string, error) {
	switch types.OutputFormat(strings.ToLower(string(format))) {
	case types.OutputYAML:
		data, err := yaml.Marshal(v)
		return data, ".yaml", err
	case types.OutputJSON, "":
		data, err := json.MarshalIndent(v, "", "    ")
		if err != nil {
			return nil, "", err
		}
		return append(data, '\n'), ".json", nil
	default:
		return nil, "", fmt.Errorf("unknown output format %q", format)
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
