// Package labels provides the code -> name tables used by name-annotated
// rendering. Lookups are purely decorative: a missing label never fails a
// render, it just leaves the numeric value unannotated.
//
// Built-in tables are embedded at build time; callers may overlay their
// own YAML tables (same shape) to extend or correct them.
package labels

import (
	"fmt"
	"os"
	"sync"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var embeddedTables []byte

var defaultOnce sync.Once
var defaultTable *Table
var defaultErr error

// Table maps enum categories ("action_state", "character", ...) to
// code -> label entries.
type Table struct {
	categories map[string]map[int64]string
}

// Default returns the embedded tables. The embedded file is parsed once;
// a parse failure is a build defect and panics.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = parse(embeddedTables)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("labels: embedded tables invalid: %v", defaultErr))
	}
	return defaultTable
}

// Load returns the embedded tables overlaid with a caller-provided YAML
// file. Overlay entries win on conflict.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("labels: read %s: %w", path, err)
	}
	overlay, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("labels: parse %s: %w", path, err)
	}

	merged := &Table{categories: map[string]map[int64]string{}}
	for cat, entries := range Default().categories {
		m := make(map[int64]string, len(entries))
		for code, label := range entries {
			m[code] = label
		}
		merged.categories[cat] = m
	}
	for cat, entries := range overlay.categories {
		m, ok := merged.categories[cat]
		if !ok {
			m = map[int64]string{}
			merged.categories[cat] = m
		}
		for code, label := range entries {
			m[code] = label
		}
	}
	return merged, nil
}

// Lookup returns the label for a code in a category. Absence is not an
// error: the caller renders the bare number.
func (t *Table) Lookup(category string, code int64) (string, bool) {
	if t == nil {
		return "", false
	}
	entries, ok := t.categories[category]
	if !ok {
		return "", false
	}
	label, ok := entries[code]
	return label, ok
}

func parse(data []byte) (*Table, error) {
	var raw map[string]map[int64]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &Table{categories: raw}, nil
}
