// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources loads the two record sources and writes resolution
// outputs. A source is a single document mapping source names to record
// fields, stored as JSON or YAML on disk or behind an http(s) URL.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/emw8105/professor-ratings-lambda/internal/httputil"
	"github.com/emw8105/professor-ratings-lambda/pkg/types"
)

// ErrEmptySource is returned when a source decodes to zero records.
var ErrEmptySource = errors.New("source has no records")

// FormatFor picks the document format from a path or URL extension. Anything
// other than .yaml or .yml is treated as JSON.
func FormatFor(location string) types.OutputFormat {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return types.OutputYAML
	default:
		return types.OutputJSON
	}
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load reads a source from a file path or an http(s) URL and returns its
// records in document order.
func Load(ctx context.Context, client *http.Client, location string, cfg types.SourceConfig, log *zap.Logger) ([]types.NamedRecord, error) {
	var (
		data []byte
		err  error
	)
	if isRemote(location) {
		if client == nil {
			client = &http.Client{Timeout: cfg.Timeout}
		}
		data, err = httputil.Fetch(ctx, client, location, httputil.FetchOptions{
			UserAgent:   cfg.UserAgent,
			BearerToken: cfg.Token,
			MaxRetries:  cfg.MaxRetries,
		}, log)
	} else {
		data, err = os.ReadFile(location)
		if err != nil {
			err = fmt.Errorf("reading %s: %w", location, err)
		}
	}
	if err != nil {
		return nil, err
	}

	records, err := Decode(data, FormatFor(location))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", location, err)
	}
	return records, nil
}

// Decode parses a source document, keeping the document's key order.
func Decode(data []byte, format types.OutputFormat) ([]types.NamedRecord, error) {
	var (
		records []types.NamedRecord
		err     error
	)
	switch format {
	case types.OutputYAML:
		records, err = decodeYAML(data)
	default:
		records, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptySource
	}
	return records, nil
}

func decodeJSON(data []byte) ([]types.NamedRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading document start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object of records, got %v", tok)
	}

	var records []types.NamedRecord
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading record name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a record name, got %v", tok)
		}
		var fields types.RecordFields
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("decoding record %q: %w", name, err)
		}
		records = append(records, types.NamedRecord{Name: name, Fields: fields})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("reading document end: %w", err)
	}
	return records, nil
}

func decodeYAML(data []byte) ([]types.NamedRecord, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of records at line %d", root.Line)
	}

	records := make([]types.NamedRecord, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var fields types.RecordFields
		if err := root.Content[i+1].Decode(&fields); err != nil {
			return nil, fmt.Errorf("decoding record %q: %w", name, err)
		}
		records = append(records, types.NamedRecord{Name: name, Fields: fields})
	}
	return records, nil
}
