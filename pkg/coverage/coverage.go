// Package coverage correlates per-line execution counts with changed lines
// and derives the uncovered spans worth reporting.
package coverage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// LineCounts holds one entry per source line, index i corresponding to line
// i+1. A nil entry marks a non-executable line (comment, blank), a non-nil
// entry is the execution count observed by the test suite.
type LineCounts []*int

// Executable reports whether 1-indexed line is executable, false for lines
// outside the array.
func (c LineCounts) Executable(line int) bool {
	return line >= 1 && line <= len(c) && c[line-1] != nil
}

// Executed reports whether 1-indexed line was executed at least once.
func (c LineCounts) Executed(line int) bool {
	return c.Executable(line) && *c[line-1] > 0
}

// Data maps file paths to their per-line execution counts.
type Data map[string]LineCounts

// LoadFile reads a coverage data file, a JSON object mapping file paths to
// arrays of per-line markers (null for non-executable lines, counts
// otherwise). Errors here are terminal for the run and keep their original
// message.
func LoadFile(filename string) (Data, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read coverage file: %w", err)
	}

	var data Data
	if err := json.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("parse coverage file %s: %w", filename, err)
	}
	return data, nil
}

// Lookup returns the counts recorded for path. The second result is false
// when the suite does not track the file.
func (d Data) Lookup(path string) (LineCounts, bool) {
	counts, ok := d[path]
	return counts, ok
}

// ExcludeFilter drops files matching any of the doublestar glob patterns.
// Excluded files leave the analysis entirely, they are not reported as
// skipped.
type ExcludeFilter struct {
	patterns []string
}

// NewExcludeFilter validates the glob patterns up front so a bad pattern
// fails the run instead of silently matching nothing.
func NewExcludeFilter(patterns []string) (*ExcludeFilter, error) {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return &ExcludeFilter{patterns: patterns}, nil
}

// Match reports whether path is excluded.
func (f *ExcludeFilter) Match(path string) bool {
	for _, pattern := range f.patterns {
		// Patterns are validated at construction, the error is unreachable.
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
