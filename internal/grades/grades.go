// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grades aggregates grade distribution CSV files into per-instructor
// grade ratings, the ratings side of the match.
package grades

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// GradePoint is the grade-point value of one letter grade.
type GradePoint struct {
	Grade  string
	Points float64
}

// GradePoints lists every counted grade column. W is penalized, but less
// than an F.
var GradePoints = []GradePoint{
	{"A+", 4.0}, {"A", 4.0}, {"A-", 3.67},
	{"B+", 3.33}, {"B", 3.0}, {"B-", 2.67},
	{"C+", 2.33}, {"C", 2.0}, {"C-", 1.67},
	{"D+", 1.33}, {"D", 1.0}, {"D-", 0.67},
	{"F", 0.0}, {"W", 0.67}, {"P", 4.0}, {"NP", 0.0},
}

const (
	subjectColumn       = "Subject"
	catalogColumn       = "Catalog Nbr"
	quotedCatalogColumn = `"Catalog Nbr"`
	defaultInstructor   = "Instructor 1"
)

// Counts maps a letter grade to the number of students who received it.
type Counts map[string]int

// Total returns the number of graded students.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Instructor holds one instructor's aggregated distributions.
type Instructor struct {
	// Name is the cleaned instructor name, still in the source's "Last, First" form.
	Name string `json:"name" yaml:"name"`

	// Courses maps a course code (subject + catalog number) to its grade counts.
	Courses map[string]Counts `json:"course_grades" yaml:"course_grades"`

	OverallRating types.Score            `json:"overall_rating" yaml:"overall_rating"`
	CourseRatings map[string]types.Score `json:"course_ratings" yaml:"course_ratings"`
}

// Fields returns the instructor's ratings-side record.
func (in Instructor) Fields() types.RecordFields {
	ratings := make(map[string]types.Score, len(in.CourseRatings))
	for k, v := range in.CourseRatings {
		ratings[k] = v
	}
	return types.RecordFields{
		OverallRating: types.ScorePtr(in.OverallRating),
		CourseRatings: ratings,
	}
}

// Report is the result of an aggregation run.
type Report struct {
	// Instructors in the order they were first seen.
	Instructors []Instructor

	Files   int
	Rows    int
	Skipped int
}

// Records returns the ratings records in first-seen order.
func (r Report) Records() []types.NamedRecord {
	out := make([]types.NamedRecord, len(r.Instructors))
	for i, in := range r.Instructors {
		out[i] = types.NamedRecord{Name: in.Name, Fields: in.Fields()}
	}
	return out
}

// Aggregate reads every *.csv file in cfg.DataDir, in name order, and
// computes course and overall ratings per instructor. Rows without an
// instructor, subject, or catalog number, and rows with no grades, are
// skipped. Progress is written to w.
func Aggregate(ctx context.Context, cfg types.GradesConfig, w io.Writer) (Report, error) {
	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		return Report{}, fmt.Errorf("reading grades directory %s: %w", cfg.DataDir, err)
	}

	column := cfg.InstructorColumn
	if column == "" {
		column = defaultInstructor
	}

	acc := newAccumulator()
	var report Report
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		path := filepath.Join(cfg.DataDir, entry.Name())
		rows, skipped, err := acc.addFile(path, column)
		if err != nil {
			return report, err
		}
		fmt.Fprintf(w, "read    %s (%d rows, %d skipped)\n", entry.Name(), rows, skipped)
		report.Files++
		report.Rows += rows
		report.Skipped += skipped
	}

	report.Instructors = acc.instructors()
	fmt.Fprintf(w, "\nfiles: %d, rows: %d, skipped: %d, instructors: %d\n",
		report.Files, report.Rows, report.Skipped, len(report.Instructors))
	return report, nil
}

type accumulator struct {
	order   []string
	courses map[string]map[string]Counts
}

func newAccumulator() *accumulator {
	return &accumulator{courses: make(map[string]map[string]Counts)}
}

func (a *accumulator) addFile(path, instructorColumn string) (rows, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, skipped, err = a.addCSV(f, instructorColumn)
	if err != nil {
		return rows, skipped, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, skipped, nil
}

func (a *accumulator) addCSV(r io.Reader, instructorColumn string) (rows, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[h] = i
	}

	get := func(record []string, name string) string {
		if i, ok := cols[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, skipped, fmt.Errorf("reading row %d: %w", rows+1, err)
		}
		rows++

		instructor := CleanInstructorName(get(record, instructorColumn))
		subject := strings.TrimSpace(get(record, subjectColumn))
		catalog := get(record, quotedCatalogColumn)
		if catalog == "" {
			catalog = get(record, catalogColumn)
		}
		catalog = strings.TrimSpace(catalog)
		if instructor == "" || subject == "" || catalog == "" {
			skipped++
			continue
		}

		counts := make(Counts, len(GradePoints))
		for _, gp := range GradePoints {
			n, err := parseCount(get(record, gp.Grade))
			if err != nil {
				return rows, skipped, fmt.Errorf("row %d column %s: %w", rows, gp.Grade, err)
			}
			counts[gp.Grade] = n
		}
		if counts.Total() == 0 {
			skipped++
			continue
		}

		a.add(instructor, subject+catalog, counts)
	}
	return rows, skipped, nil
}

func (a *accumulator) add(instructor, course string, counts Counts) {
	courses, ok := a.courses[instructor]
	if !ok {
		courses = make(map[string]Counts)
		a.courses[instructor] = courses
		a.order = append(a.order, instructor)
	}
	dst, ok := courses[course]
	if !ok {
		dst = make(Counts, len(GradePoints))
		courses[course] = dst
	}
	for g, n := range counts {
		dst[g] += n
	}
}

func (a *accumulator) instructors() []Instructor {
	out := make([]Instructor, 0, len(a.order))
	for _, name := range a.order {
		courses := a.courses[name]
		all := make(Counts, len(GradePoints))
		ratings := make(map[string]types.Score, len(courses))
		for course, counts := range courses {
			ratings[course] = Rating(counts)
			for g, n := range counts {
				all[g] += n
			}
		}
		out = append(out, Instructor{
			Name:          name,
			Courses:       courses,
			OverallRating: Rating(all),
			CourseRatings: ratings,
		})
	}
	return out
}

// Rating converts a grade distribution into a rating out of 5: the mean
// grade point scaled from 4 to 5, rounded to two decimals. An empty
// distribution has no rating.
func Rating(counts Counts) types.Score {
	total := counts.Total()
	if total == 0 {
		return types.NA()
	}
	var points float64
	for _, gp := range GradePoints {
		points += gp.Points * float64(counts[gp.Grade])
	}
	return types.NewScore(math.Round(points/float64(total)/4.0*5*100) / 100)
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid grade count %q: %w", s, err)
	}
	return int(v), nil
}

var (
	commaSpacingRe    = regexp.MustCompile(`\s*,\s*`)
	trailingInitialRe = regexp.MustCompile(`\s+[A-Z](\.[A-Z])*\s*$`)
	joinedInitialsRe  = regexp.MustCompile(`([A-Z])\.([A-Z])`)
	periodSpaceRe     = regexp.MustCompile(`[.\s]+`)
)

// CleanInstructorName tidies a grade-record instructor name without changing
// its "Last, First" order: comma spacing is standardized, a trailing middle
// initial is removed, joined initials are split, and periods and repeated
// spaces collapse to one space.
func CleanInstructorName(name string) string {
	name = strings.TrimSpace(name)
	name = commaSpacingRe.ReplaceAllString(name, ", ")
	name = trailingInitialRe.ReplaceAllString(name, "")
	name = joinedInitialsRe.ReplaceAllString(name, "$1 $2")
	name = periodSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Duplicate reports one catalog number an instructor teaches under more than
// one subject (e.g. CS 4349 and SE 4349).
type Duplicate struct {
	Instructor string
	Catalog    string
	Subjects   []string
}

var courseCodeRe = regexp.MustCompile(`^([A-Za-z]+)(\d+)`)

// DuplicateCourseNumbers lists cross-listed catalog numbers per instructor.
// They are reported, not merged: some instructors teach genuinely different
// courses that share a number.
func DuplicateCourseNumbers(report Report) []Duplicate {
	var out []Duplicate
	for _, in := range report.Instructors {
		bySubject := make(map[string]map[string]bool)
		for course := range in.Courses {
			m := courseCodeRe.FindStringSubmatch(course)
			if m == nil {
				continue
			}
			if bySubject[m[2]] == nil {
				bySubject[m[2]] = make(map[string]bool)
			}
			bySubject[m[2]][m[1]] = true
		}
		catalogs := make([]string, 0, len(bySubject))
		for catalog, subjects := range bySubject {
			if len(subjects) > 1 {
				catalogs = append(catalogs, catalog)
			}
		}
		sort.Strings(catalogs)
		for _, catalog := range catalogs {
			subjects := make([]string, 0, len(bySubject[catalog]))
			for s := range bySubject[catalog] {
				subjects = append(subjects, s)
			}
			sort.Strings(subjects)
			out = append(out, Duplicate{Instructor: in.Name, Catalog: catalog, Subjects: subjects})
		}
	}
	return out
}
