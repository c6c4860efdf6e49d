// Package source loads raw node records from JSON, YAML and CSV inputs.
package source

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotList is returned when the input root is not a list of records.
var ErrNotList = errors.New("input must be a list of node records")

// Format identifies an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// DetectFormat picks a format from the path extension. Unknown extensions
// are treated as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".csv":
		return FormatCSV
	default:
		return FormatJSON
	}
}

// Load reads records from path, with "-" meaning stdin.
func Load(path string, format Format) ([]map[string]any, error) {
	if path == "-" {
		return Decode(os.Stdin, format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode parses records from r according to format.
func Decode(r io.Reader, format Format) ([]map[string]any, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(r)
	case FormatCSV:
		return decodeCSV(r)
	default:
		return decodeJSON(r)
	}
}

func decodeJSON(r io.Reader) ([]map[string]any, error) {
	var root any
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}
	items, ok := root.([]any)
	if !ok {
		return nil, ErrNotList
	}
	return mapsOf(items)
}

// decodeYAML accepts either a root list or a clash-style subscription with
// a top-level proxies list.
func decodeYAML(r io.Reader) ([]map[string]any, error) {
	var root any
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotList
		}
		return nil, err
	}
	switch v := root.(type) {
	case []any:
		return mapsOf(v)
	case map[string]any:
		list, ok := v["proxies"]
		if !ok {
			return nil, ErrNotList
		}
		items, ok := list.([]any)
		if !ok {
			return nil, ErrNotList
		}
		return mapsOf(items)
	default:
		return nil, ErrNotList
	}
}

// decodeCSV treats the first row as the header. Cells are kept as strings
// and empty cells are dropped so they normalize like absent keys.
func decodeCSV(r io.Reader) ([]map[string]any, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []map[string]any{}, nil
	}

	header := rows[0]
	out := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]any, len(header))
		for j, cell := range row {
			if cell == "" {
				continue
			}
			m[header[j]] = cell
		}
		out = append(out, m)
	}
	return out, nil
}

func mapsOf(items []any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		out = append(out, m)
	}
	return out, nil
}
