// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/emw8105/professor-ratings-lambda/internal/match"
)

// Export is the full content of one run.
type Export struct {
	Run       Run             `json:"run" yaml:"run"`
	Matches   []MatchRecord   `json:"matches" yaml:"matches"`
	Unmatched ExportUnmatched `json:"unmatched" yaml:"unmatched"`
}

// ExportUnmatched holds the keys a run left on each side.
type ExportUnmatched struct {
	Ratings []UnmatchedRecord `json:"ratings" yaml:"ratings"`
	Review  []UnmatchedRecord `json:"review" yaml:"review"`
}

// ExportYAML writes a run to dir/run-<id>.yaml and returns the path. An
// empty runID exports the latest run; an empty dir uses the index directory.
func (s *Store) ExportYAML(ctx context.Context, runID, dir string) (string, error) {
	doc, err := s.export(ctx, runID)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport(dir, doc.Run.ID, ".yaml", data)
}

// ExportJSON writes a run to dir/run-<id>.json and returns the path.
func (s *Store) ExportJSON(ctx context.Context, runID, dir string) (string, error) {
	doc, err := s.export(ctx, runID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport(dir, doc.Run.ID, ".json", data)
}

func (s *Store) export(ctx context.Context, runID string) (Export, error) {
	run, err := s.Run(ctx, runID)
	if err != nil {
		return Export{}, err
	}
	doc := Export{Run: run}
	if doc.Matches, err = s.Matches(ctx, run.ID); err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	if doc.Unmatched.Ratings, err = s.Unmatched(ctx, run.ID, match.SideRatings); err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	if doc.Unmatched.Review, err = s.Unmatched(ctx, run.ID, match.SideReview); err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	return doc, nil
}

func (s *Store) writeExport(dir, runID, ext string, data []byte) (string, error) {
	if dir == "" {
		dir = s.dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, "run-"+runID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
