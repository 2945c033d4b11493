package coverage

import (
	"fmt"
	"math"

	"github.com/patchcov/patchcov/pkg/diff"
	"github.com/patchcov/patchcov/pkg/linerange"
)

// SkipReason explains why a changed file was excluded from analysis.
type SkipReason string

const (
	// SkipNone marks an analyzed file.
	SkipNone SkipReason = ""
	// SkipNotTracked marks a changed file absent from the coverage data.
	SkipNotTracked SkipReason = "not tracked by suite"
	// SkipRename marks a file moved without content changes.
	SkipRename SkipReason = "rename"
)

// AnnotationLevel is the severity attached to every produced annotation.
const AnnotationLevel = "warning"

// Annotation is a reported span of uncovered lines attached to a file path,
// shaped for check-run publication.
type Annotation struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Level     string `json:"annotation_level"`
	Message   string `json:"message"`
}

// File composes one changed file with its per-line execution counts and
// derives the line sets the report needs. All derived sets are computed on
// demand from the immutable inputs.
type File struct {
	// Path of the file in the new revision.
	Path string
	// Counts is the borrowed per-line coverage array, nil when skipped.
	Counts LineCounts
	// Skip explains why the file is excluded from totals, SkipNone otherwise.
	Skip SkipReason

	changedLines []int
	changedSet   map[int]bool
}

// NewFile builds the coverage model for a single changed file. A pure rename
// or a file the suite does not track comes back skipped, with counts absent.
func NewFile(change *diff.ChangedFile, data Data) *File {
	f := &File{Path: change.Path}

	if change.IsRename() {
		f.Skip = SkipRename
		return f
	}

	counts, tracked := data.Lookup(change.Path)
	if !tracked {
		f.Skip = SkipNotTracked
		return f
	}

	f.Counts = counts
	f.changedLines = change.ChangedLines()
	f.changedSet = make(map[int]bool, len(f.changedLines))
	for _, line := range f.changedLines {
		f.changedSet[line] = true
	}
	return f
}

// Skipped reports whether the file is excluded from aggregate totals.
func (f *File) Skipped() bool {
	return f.Skip != SkipNone
}

// ChangedLines returns the changed line numbers, empty for skipped files.
func (f *File) ChangedLines() []int {
	return f.changedLines
}

// ExecutableLines returns every line the coverage data marks executable.
func (f *File) ExecutableLines() []int {
	var lines []int
	for i := range f.Counts {
		if f.Counts[i] != nil {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// ExecutedLines returns every executable line with a positive count.
func (f *File) ExecutedLines() []int {
	var lines []int
	for i, count := range f.Counts {
		if count != nil && *count > 0 {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// MissedLines returns every executable line with a zero count.
func (f *File) MissedLines() []int {
	var lines []int
	for i, count := range f.Counts {
		if count != nil && *count == 0 {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// RelevantLines returns the lines that are both changed and executable.
func (f *File) RelevantLines() []int {
	var lines []int
	for _, line := range f.changedLines {
		if f.Counts.Executable(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// RelevantMissedLines returns the changed executable lines with no coverage.
func (f *File) RelevantMissedLines() []int {
	var lines []int
	for _, line := range f.changedLines {
		if f.Counts.Executable(line) && !f.Counts.Executed(line) {
			lines = append(lines, line)
		}
	}
	return lines
}

// CoveragePercent is the covered share of the relevant lines, rounded to the
// nearest integer. A file with no relevant lines passes vacuously at 100.
func (f *File) CoveragePercent() int {
	return Percent(len(f.RelevantLines())-len(f.RelevantMissedLines()), len(f.RelevantLines()))
}

// WholeFileUnexecuted reports whether the suite tracks the file but never
// executed any of its lines, a stronger signal than per-span misses.
func (f *File) WholeFileUnexecuted() bool {
	return !f.Skipped() && len(f.ExecutableLines()) > 0 && len(f.ExecutedLines()) == 0
}

// Annotations synthesizes the uncovered-span annotations for the file. Files
// with no relevant missed lines produce none; files the suite never executed
// at all produce a single annotation spanning the whole file.
func (f *File) Annotations() []Annotation {
	if len(f.RelevantMissedLines()) == 0 {
		return nil
	}

	if f.WholeFileUnexecuted() {
		return []Annotation{{
			Path:      f.Path,
			StartLine: 1,
			EndLine:   len(f.Counts),
			Level:     AnnotationLevel,
			Message:   "File is not executed by the test suite",
		}}
	}

	var annotations []Annotation
	for _, r := range linerange.CompactMarkedSpans(f.marks()) {
		annotations = append(annotations, Annotation{
			Path:      f.Path,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
			Level:     AnnotationLevel,
			Message:   spanMessage(r),
		})
	}
	return annotations
}

// marks classifies every physical line for span compaction: lines outside
// the changeset are forced to NotChanged regardless of their real counts.
func (f *File) marks() []linerange.Mark {
	marks := make([]linerange.Mark, len(f.Counts))
	for i := range f.Counts {
		line := i + 1
		switch {
		case !f.changedSet[line]:
			marks[i] = linerange.NotChanged
		case f.Counts[i] == nil:
			marks[i] = linerange.Ignored
		case *f.Counts[i] == 0:
			marks[i] = linerange.Missed
		default:
			marks[i] = linerange.Covered
		}
	}
	return marks
}

func spanMessage(r linerange.LineRange) string {
	if r.StartLine == r.EndLine {
		return fmt.Sprintf("Line %d has no coverage", r.StartLine)
	}
	return fmt.Sprintf("Lines %d-%d have no coverage", r.StartLine, r.EndLine)
}

// Percent computes a rounded coverage percentage, 100 when the denominator
// is zero. A changeset touching only non-executable lines passes vacuously;
// that is deliberate policy, not an accident of the arithmetic.
func Percent(covered, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(covered) / float64(total) * 100))
}
