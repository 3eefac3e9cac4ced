// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

const runColumns = `id, started_at, config, ratings_source, review_source,
	matched, unmatched_ratings, unmatched_review, dropped, collisions`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r          Run
		startedAt  string
		configJSON sql.NullString
		ratingsSrc sql.NullString
		reviewSrc  sql.NullString
	)
	if err := row.Scan(&r.ID, &startedAt, &configJSON, &ratingsSrc, &reviewSrc,
		&r.Matched, &r.UnmatchedRatings, &r.UnmatchedReview, &r.Dropped, &r.Collisions); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at for run %s: %w", r.ID, err)
	}
	r.StartedAt = t
	if configJSON.Valid {
		json.Unmarshal([]byte(configJSON.String), &r.Config)
	}
	r.RatingsSource = ratingsSrc.String
	r.ReviewSource = reviewSrc.String
	return r, nil
}

// Runs returns the most recent runs, newest first. A limit of zero uses the
// store default.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns the run with the given id, or the latest run when id is empty.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	var row *sql.Row
	if id == "" {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
	} else {
		row = s.db.QueryRowContext(ctx,
			`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	}
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return Run{}, ErrNoRuns
		}
		return Run{}, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("looking up run: %w", err)
	}
	return r, nil
}

// MatchRecord is one stored match.
type MatchRecord struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	Key         string             `json:"key" yaml:"key"`
	Tier        string             `json:"tier" yaml:"tier"`
	Score       int                `json:"score" yaml:"score"`
	RatingsName string             `json:"ratings_name" yaml:"ratings_name"`
	ReviewName  string             `json:"review_name" yaml:"review_name"`
	Fields      types.RecordFields `json:"fields" yaml:"fields"`
}

const matchColumns = `m.run_id, m.key, m.tier, m.score, m.ratings_name, m.review_name, m.fields`

func scanMatches(rows *sql.Rows) ([]MatchRecord, error) {
	defer rows.Close()
	var out []MatchRecord
	for rows.Next() {
		var (
			mr          MatchRecord
			ratingsName sql.NullString
			reviewName  sql.NullString
			fieldsJSON  sql.NullString
		)
		if err := rows.Scan(&mr.RunID, &mr.Key, &mr.Tier, &mr.Score,
			&ratingsName, &reviewName, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		mr.RatingsName = ratingsName.String
		mr.ReviewName = reviewName.String
		if fieldsJSON.Valid {
			if err := json.Unmarshal([]byte(fieldsJSON.String), &mr.Fields); err != nil {
				return nil, fmt.Errorf("decoding fields for %s: %w", mr.Key, err)
			}
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}

// Matches returns a run's matches in the order they were produced.
func (s *Store) Matches(ctx context.Context, runID string) ([]MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches m WHERE m.run_id = ? ORDER BY m.rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	return scanMatches(rows)
}

// UnmatchedRecord is one key left unmatched by a run.
type UnmatchedRecord struct {
	Key        string `json:"key" yaml:"key"`
	SourceName string `json:"source_name" yaml:"source_name"`
}

// Unmatched returns the keys a run left on one side, in source order.
func (s *Store) Unmatched(ctx context.Context, runID, side string) ([]UnmatchedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, source_name FROM unmatched WHERE run_id = ? AND side = ? ORDER BY position`,
		runID, side)
	if err != nil {
		return nil, fmt.Errorf("querying unmatched: %w", err)
	}
	defer rows.Close()

	var out []UnmatchedRecord
	for rows.Next() {
		var (
			u    UnmatchedRecord
			name sql.NullString
		)
		if err := rows.Scan(&u.Key, &name); err != nil {
			return nil, fmt.Errorf("scanning unmatched: %w", err)
		}
		u.SourceName = name.String
		out = append(out, u)
	}
	return out, rows.Err()
}

// LookupOptions holds parameters for a name lookup.
type LookupOptions struct {
	// Query is free text; each word is matched as a prefix.
	Query string

	// RunID restricts results to one run. Empty means the latest run.
	RunID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Lookup searches match keys and source names of a run, ranked by relevance.
func (s *Store) Lookup(ctx context.Context, opts LookupOptions) ([]MatchRecord, error) {
	fts := ftsQuery(opts.Query)
	if fts == "" {
		return nil, fmt.Errorf("empty lookup query")
	}

	run, err := s.Run(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+`
		FROM names_fts
		JOIN matches m ON m.rowid = names_fts.rowid
		WHERE names_fts MATCH ? AND m.run_id = ?
		ORDER BY names_fts.rank
		LIMIT ?`,
		fts, run.ID, maxResults)
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	return scanMatches(rows)
}

// ftsQuery turns free text into an FTS5 query of quoted prefix terms, so
// punctuation in names never reaches the FTS5 parser.
func ftsQuery(q string) string {
	words := strings.FieldsFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, len(words))
	for i, w := range words {
		terms[i] = `"` + w + `"*`
	}
	return strings.Join(terms, " ")
}
