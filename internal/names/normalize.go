// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package names turns instructor names as written by each source into
// comparable "given family" keys.
//
// The two sources disagree on format: the grade records write "Last, First M."
// while the review site writes "First Last" or "First M. Last". Normalize maps
// both onto the same lowercase two-token key. The mapping is lossy; callers
// keep the source string alongside the key.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options adjusts normalization. The zero value is the standard behavior.
type Options struct {
	// KeepMiddleNames keeps every given-name token instead of reducing the
	// key to its first and last tokens.
	KeepMiddleNames bool

	// FoldDiacritics removes combining marks ("Núñez" becomes "nunez").
	FoldDiacritics bool
}

// Normalizer produces keys according to its Options.
type Normalizer struct {
	opts Options
}

// NewNormalizer returns a Normalizer with the given options.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize applies the default Options.
func Normalize(name string) string {
	return (&Normalizer{}).Normalize(name)
}

// Normalize returns the key for a source name. Empty or whitespace-only
// input yields "", which callers must treat as unmatchable.
func (n *Normalizer) Normalize(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = strings.ReplaceAll(name, ".", "")
	if name == "" {
		return ""
	}

	if family, given, ok := strings.Cut(name, ", "); ok {
		name = given + " " + family
		// Anything after the first ", " is given names or suffixes; the
		// remaining commas only separate them.
		name = strings.ReplaceAll(name, ",", " ")
	}

	tokens := strings.Fields(name)
	if len(tokens) > 2 && !n.opts.KeepMiddleNames {
		tokens = []string{tokens[0], tokens[len(tokens)-1]}
	}
	key := strings.Join(tokens, " ")

	if n.opts.FoldDiacritics {
		key = foldDiacritics(key)
	}
	return strings.ToLower(key)
}

// Tokens splits a key on whitespace.
func Tokens(key string) []string {
	return strings.Fields(key)
}

// Shorten reduces a key to its first and last tokens. Keys with two or
// fewer tokens are returned unchanged.
func Shorten(key string) string {
	tokens := Tokens(key)
	if len(tokens) <= 2 {
		return key
	}
	return tokens[0] + " " + tokens[len(tokens)-1]
}

// Swap reverses a two-token key ("kim lee" becomes "lee kim"). It reports
// false for keys that do not have exactly two tokens.
func Swap(key string) (string, bool) {
	tokens := Tokens(key)
	if len(tokens) != 2 {
		return "", false
	}
	return tokens[1] + " " + tokens[0], true
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
