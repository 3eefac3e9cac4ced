//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Grades aggregates data/*.csv into out/professor_ratings.json.
func Grades() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "grades", "--data-dir", "data", "--out", "out")
}

// Match matches out/professor_ratings.json against the review document named
// by REVIEW (default professors.json).
func Match() error {
	mg.Deps(Grades)
	review := os.Getenv("REVIEW")
	if review == "" {
		review = "professors.json"
	}
	if !strings.HasPrefix(review, "http://") && !strings.HasPrefix(review, "https://") {
		if _, err := os.Stat(review); err != nil {
			return fmt.Errorf("review document: %w", err)
		}
	}
	return sh.RunV(filepath.Join(binDir, binName), "match",
		"--ratings", filepath.Join("out", "professor_ratings.json"),
		"--review", review,
		"--out", "out",
		"--db", filepath.Join("index", "ratings.db"))
}
