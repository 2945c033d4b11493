// Package diff extracts changed line numbers, in new-file numbering, from
// unified diff text and from git repositories.
package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderRegexp matches a unified diff hunk header and captures the
// new-file start line, e.g. `@@ -10,4 +12,6 @@`. The length part is
// optional, git omits it for single-line hunks.
var hunkHeaderRegexp = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ChangedFile describes one file of a changeset.
type ChangedFile struct {
	// Path is the file path in the new revision.
	Path string
	// PreviousPath is set when the file was renamed.
	PreviousPath string
	// Patch is the raw unified diff text for this file. Empty for pure
	// renames and binary files.
	Patch string
	// Lines holds changed line numbers for sources that compute them
	// directly instead of carrying patch text.
	Lines []int
}

// ChangedLines returns the ascending 1-indexed line numbers this change adds
// or modifies in the new revision.
func (c *ChangedFile) ChangedLines() []int {
	if c.Lines != nil {
		return c.Lines
	}
	return ParsePatch(c.Patch)
}

// IsRename reports whether the entry is a pure rename, a file moved without
// content changes. Those carry no patch and are skipped by analysis.
func (c *ChangedFile) IsRename() bool {
	return c.PreviousPath != "" && c.Patch == "" && len(c.Lines) == 0
}

// ParsePatch extracts the changed line numbers from unified diff hunk text.
// An absent or empty patch yields no lines, which covers pure renames and
// binary files.
//
// The parse is a single fold over the patch lines carrying a new-file line
// cursor. Each hunk header resets the cursor, every line except deletions
// advances it, and every addition outside the `+++` file-identity header
// records the cursor position. Additions that appear before any valid hunk
// header cannot be located in the new file and are dropped rather than
// failing the whole parse.
func ParsePatch(patch string) []int {
	if patch == "" {
		return nil
	}

	var changed []int
	lineNo := 0
	inHunk := false
	for _, line := range strings.Split(patch, "\n") {
		if m := hunkHeaderRegexp.FindStringSubmatch(line); m != nil {
			// The pattern guarantees digits, the error is unreachable.
			lineNo, _ = strconv.Atoi(m[3])
			inHunk = true
			continue
		}

		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") && inHunk {
			changed = append(changed, lineNo)
		}
		if !strings.HasPrefix(line, "-") {
			lineNo++
		}
	}
	return changed
}

// SplitPatch splits a multi-file unified diff, as produced by `git diff`,
// into per-file changes. Renames without content changes produce entries
// with PreviousPath set and an empty patch.
func SplitPatch(text string) []*ChangedFile {
	var (
		files   []*ChangedFile
		current *ChangedFile
		body    []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Patch = strings.Join(body, "\n")
		files = append(files, current)
		current = nil
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			current = &ChangedFile{}
		case current == nil:
			// Leading noise before the first file header.
		case strings.HasPrefix(line, "rename from "):
			current.PreviousPath = strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "rename to "):
			current.Path = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "+++ "):
			if name := strings.TrimPrefix(line, "+++ "); name != "/dev/null" {
				current.Path = strings.TrimPrefix(name, "b/")
			}
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "index "),
			strings.HasPrefix(line, "new file mode "), strings.HasPrefix(line, "deleted file mode "),
			strings.HasPrefix(line, "old mode "), strings.HasPrefix(line, "new mode "),
			strings.HasPrefix(line, "similarity index "), strings.HasPrefix(line, "Binary files "):
			// Metadata lines carry no content changes.
		default:
			body = append(body, line)
		}
	}
	flush()

	// Deleted files have no new-revision path and nothing to analyze.
	var result []*ChangedFile
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		result = append(result, f)
	}
	return result
}
