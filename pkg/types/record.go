// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// NotAvailable is the marker both sources use for a missing numeric value.
const NotAvailable = "N/A"

// Score is a numeric rating that may be absent. It encodes as a number when
// valid and as the string "N/A" otherwise.
type Score struct {
	Value float64
	Valid bool
}

// NewScore returns a valid Score holding v.
func NewScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// NA returns an absent Score.
func NA() Score {
	return Score{}
}

// String renders the score with two decimals, or "N/A".
func (s Score) String() string {
	if !s.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// ParseScore accepts a decimal number (optionally suffixed with "%") or "N/A".
func ParseScore(text string) (Score, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if text == "" || strings.EqualFold(text, NotAvailable) {
		return NA(), nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return NA(), fmt.Errorf("parsing score %q: %w", text, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA(), nil
	}
	return NewScore(v), nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(s.Value)
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*s = NA()
	case float64:
		*s = NewScore(v)
	case string:
		parsed, err := ParseScore(v)
		if err != nil {
			return err
		}
		*s = parsed
	default:
		return fmt.Errorf("unsupported score value %s", string(data))
	}
	return nil
}

func (s Score) MarshalYAML() (any, error) {
	if !s.Valid {
		return NotAvailable, nil
	}
	return s.Value, nil
}

func (s *Score) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: score must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*s = NA()
		return nil
	}
	parsed, err := ParseScore(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

// RecordFields is the attribute set of one instructor record. The grade
// ratings source fills OverallRating and CourseRatings; the review source
// fills the remaining fields. A matched instructor carries both halves.
type RecordFields struct {
	// OverallRating is the grade-distribution rating across all courses, out of 5.
	OverallRating *Score `json:"overall_rating,omitempty" yaml:"overall_rating,omitempty"`

	// CourseRatings maps a course code (e.g. "CS3345") to its grade rating.
	CourseRatings map[string]Score `json:"course_ratings,omitempty" yaml:"course_ratings,omitempty"`

	// ID is the review site's identifier for the instructor.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Department as listed by the review site.
	Department string `json:"department,omitempty" yaml:"department,omitempty"`

	// URL of the instructor's review page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	QualityRating    *Score `json:"quality_rating,omitempty" yaml:"quality_rating,omitempty"`
	DifficultyRating *Score `json:"difficulty_rating,omitempty" yaml:"difficulty_rating,omitempty"`
	WouldTakeAgain   *Score `json:"would_take_again,omitempty" yaml:"would_take_again,omitempty"`

	// OriginalFormat preserves the display name exactly as the review site wrote it.
	OriginalFormat string `json:"original_format,omitempty" yaml:"original_format,omitempty"`

	// LastUpdated is the ISO-8601 time the review record was collected.
	LastUpdated string `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// Merge returns base with every field set on overlay copied over it. Fields
// present on both sides take the overlay's value; CourseRatings are merged
// per course with the same rule. Neither argument is modified.
func (base RecordFields) Merge(overlay RecordFields) RecordFields {
	out := base
	if len(base.CourseRatings) > 0 || len(overlay.CourseRatings) > 0 {
		out.CourseRatings = make(map[string]Score, len(base.CourseRatings)+len(overlay.CourseRatings))
		for k, v := range base.CourseRatings {
			out.CourseRatings[k] = v
		}
		for k, v := range overlay.CourseRatings {
			out.CourseRatings[k] = v
		}
	}
	if overlay.OverallRating != nil {
		out.OverallRating = overlay.OverallRating
	}
	if overlay.ID != "" {
		out.ID = overlay.ID
	}
	if overlay.Department != "" {
		out.Department = overlay.Department
	}
	if overlay.URL != "" {
		out.URL = overlay.URL
	}
	if overlay.QualityRating != nil {
		out.QualityRating = overlay.QualityRating
	}
	if overlay.DifficultyRating != nil {
		out.DifficultyRating = overlay.DifficultyRating
	}
	if overlay.WouldTakeAgain != nil {
		out.WouldTakeAgain = overlay.WouldTakeAgain
	}
	if overlay.OriginalFormat != "" {
		out.OriginalFormat = overlay.OriginalFormat
	}
	if overlay.LastUpdated != "" {
		out.LastUpdated = overlay.LastUpdated
	}
	return out
}

// ScorePtr is a convenience for building records with optional scores.
func ScorePtr(s Score) *Score {
	return &s
}

// NamedRecord pairs a source name, exactly as the source wrote it, with its
// fields. Slices of NamedRecord keep the source document's order.
type NamedRecord struct {
	Name   string       `json:"name" yaml:"name"`
	Fields RecordFields `json:"fields" yaml:"fields"`
}
