// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store records resolution runs in a SQLite database and answers
// name lookups against them through an FTS5 index.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/emw8105/professor-ratings-lambda/internal/match"
	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoRuns is returned when a query needs a run and none has been saved.
var ErrNoRuns = errors.New("no runs recorded")

// Store manages the run history database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the database at cfg.DBPath and creates the
// schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = types.DefaultPipelineConfig().Store.DBPath
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			config TEXT,
			ratings_source TEXT,
			review_source TEXT,
			matched INTEGER NOT NULL,
			unmatched_ratings INTEGER NOT NULL,
			unmatched_review INTEGER NOT NULL,
			dropped INTEGER NOT NULL,
			collisions INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			tier TEXT NOT NULL,
			score INTEGER NOT NULL,
			ratings_name TEXT,
			review_name TEXT,
			fields TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_run_id ON matches(run_id)`,
		`CREATE TABLE IF NOT EXISTS unmatched (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			side TEXT NOT NULL,
			position INTEGER NOT NULL,
			key TEXT NOT NULL,
			source_name TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unmatched_run_side ON unmatched(run_id, side)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 index over match keys and both source names, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='names_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE names_fts USING fts5(
				key, ratings_name, review_name,
				content=matches, content_rowid=rowid,
				tokenize='unicode61 remove_diacritics 2'
			)`,
			`CREATE TRIGGER matches_ai AFTER INSERT ON matches BEGIN
				INSERT INTO names_fts(rowid, key, ratings_name, review_name)
				VALUES (new.rowid, new.key, new.ratings_name, new.review_name);
			END`,
			`CREATE TRIGGER matches_ad AFTER DELETE ON matches BEGIN
				INSERT INTO names_fts(names_fts, rowid, key, ratings_name, review_name)
				VALUES ('delete', old.rowid, old.key, old.ratings_name, old.review_name);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// RunInfo describes a resolution run being saved.
type RunInfo struct {
	// ID is generated when empty.
	ID            string
	StartedAt     time.Time
	Config        types.MatchConfig
	RatingsSource string
	ReviewSource  string
}

// Run is a saved resolution run.
type Run struct {
	ID               string            `json:"id" yaml:"id"`
	StartedAt        time.Time         `json:"started_at" yaml:"started_at"`
	Config           types.MatchConfig `json:"config" yaml:"config"`
	RatingsSource    string            `json:"ratings_source,omitempty" yaml:"ratings_source,omitempty"`
	ReviewSource     string            `json:"review_source,omitempty" yaml:"review_source,omitempty"`
	Matched          int               `json:"matched" yaml:"matched"`
	UnmatchedRatings int               `json:"unmatched_ratings" yaml:"unmatched_ratings"`
	UnmatchedReview  int               `json:"unmatched_review" yaml:"unmatched_review"`
	Dropped          int               `json:"dropped" yaml:"dropped"`
	Collisions       int               `json:"collisions" yaml:"collisions"`
}

// SaveRun records a run, its matches, and its unmatched keys in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, info RunInfo, res match.Result) (Run, error) {
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}
	run := Run{
		ID:               info.ID,
		StartedAt:        info.StartedAt.UTC(),
		Config:           info.Config,
		RatingsSource:    info.RatingsSource,
		ReviewSource:     info.ReviewSource,
		Matched:          len(res.Matched),
		UnmatchedRatings: len(res.UnmatchedRatings),
		UnmatchedReview:  len(res.UnmatchedReview),
		Dropped:          len(res.Dropped),
		Collisions:       len(res.Collisions),
	}

	configJSON, err := json.Marshal(info.Config)
	if err != nil {
		return Run{}, fmt.Errorf("encoding config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, config, ratings_source, review_source,
			matched, unmatched_ratings, unmatched_review, dropped, collisions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(timeLayout), string(configJSON),
		run.RatingsSource, run.ReviewSource,
		run.Matched, run.UnmatchedRatings, run.UnmatchedReview, run.Dropped, run.Collisions,
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	matchStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matches (run_id, key, tier, score, ratings_name, review_name, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing match insert: %w", err)
	}
	defer matchStmt.Close()

	for _, m := range res.Matched {
		fieldsJSON, err := json.Marshal(m.Fields)
		if err != nil {
			return Run{}, fmt.Errorf("encoding fields for %s: %w", m.Key, err)
		}
		if _, err := matchStmt.ExecContext(ctx,
			run.ID, m.Key, m.Tier.String(), m.Score,
			m.Ratings.SourceName, m.Review.SourceName, string(fieldsJSON),
		); err != nil {
			return Run{}, fmt.Errorf("inserting match %s: %w", m.Key, err)
		}
	}

	unmatchedStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO unmatched (run_id, side, position, key, source_name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing unmatched insert: %w", err)
	}
	defer unmatchedStmt.Close()

	sides := []struct {
		side    string
		entries []match.Entry
	}{
		{match.SideRatings, res.RemainingRatings},
		{match.SideReview, res.RemainingReview},
	}
	for _, sd := range sides {
		for i, e := range sd.entries {
			if _, err := unmatchedStmt.ExecContext(ctx, run.ID, sd.side, i, e.Key, e.SourceName); err != nil {
				return Run{}, fmt.Errorf("inserting unmatched %s: %w", e.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}
