package coverage

import (
	"testing"

	"github.com/patchcov/patchcov/pkg/diff"
	"github.com/stretchr/testify/assert"
)

func counts(values ...int) LineCounts {
	// -1 stands for a non-executable line.
	result := make(LineCounts, len(values))
	for i, v := range values {
		if v < 0 {
			continue
		}
		value := v
		result[i] = &value
	}
	return result
}

func TestNewFile(t *testing.T) {
	data := Data{"main.go": counts(1, 0, -1, 1)}

	t.Run("pure rename is skipped", func(t *testing.T) {
		f := NewFile(&diff.ChangedFile{Path: "new.go", PreviousPath: "old.go"}, data)
		assert.True(t, f.Skipped())
		assert.Equal(t, SkipRename, f.Skip)
		if got := f.Annotations(); len(got) != 0 {
			t.Errorf("skipped file should produce no annotations, but get %v", got)
		}
	})

	t.Run("untracked file is skipped", func(t *testing.T) {
		f := NewFile(&diff.ChangedFile{Path: "other.go", Lines: []int{1}}, data)
		assert.True(t, f.Skipped())
		assert.Equal(t, SkipNotTracked, f.Skip)
	})

	t.Run("tracked file is analyzed", func(t *testing.T) {
		f := NewFile(&diff.ChangedFile{Path: "main.go", Lines: []int{1, 2}}, data)
		assert.False(t, f.Skipped())
		assert.Equal(t, []int{1, 2}, f.ChangedLines())
	})
}

func TestFileDerivedSets(t *testing.T) {
	data := Data{"main.go": counts(1, 0, -1, 1, 0, 1, 1, 1, 1, 1)}
	f := NewFile(&diff.ChangedFile{Path: "main.go", Lines: []int{1, 2, 3}}, data)

	assert.Equal(t, []int{1, 2, 4, 5, 6, 7, 8, 9, 10}, f.ExecutableLines())
	assert.Equal(t, []int{1, 4, 6, 7, 8, 9, 10}, f.ExecutedLines())
	assert.Equal(t, []int{2, 5}, f.MissedLines())
	assert.Equal(t, []int{1, 2}, f.RelevantLines())
	assert.Equal(t, []int{2}, f.RelevantMissedLines())
	assert.Equal(t, 50, f.CoveragePercent())
	assert.False(t, f.WholeFileUnexecuted())

	annotations := f.Annotations()
	if len(annotations) != 1 {
		t.Fatalf("should produce 1 annotation, but get %d", len(annotations))
	}
	assert.Equal(t, Annotation{
		Path:      "main.go",
		StartLine: 2,
		EndLine:   2,
		Level:     "warning",
		Message:   "Line 2 has no coverage",
	}, annotations[0])
}

func TestFileAnnotationsSpanIgnoredRuns(t *testing.T) {
	// Missed lines 2, 4 and 5 with non-executable lines interleaved read as
	// one span, trimmed to the last missed line.
	data := Data{"main.go": counts(1, 0, -1, 0, 0, -1, -1, 1, 1, 1)}
	f := NewFile(&diff.ChangedFile{Path: "main.go", Lines: []int{1, 2, 3, 4, 5, 6, 7, 8, 9}}, data)

	annotations := f.Annotations()
	if len(annotations) != 1 {
		t.Fatalf("should produce 1 annotation, but get %d: %v", len(annotations), annotations)
	}
	assert.Equal(t, 2, annotations[0].StartLine)
	assert.Equal(t, 5, annotations[0].EndLine)
	assert.Equal(t, "Lines 2-5 have no coverage", annotations[0].Message)
}

func TestFileWholeFileUnexecuted(t *testing.T) {
	data := Data{"main.go": counts(0, 0, -1, 0)}
	f := NewFile(&diff.ChangedFile{Path: "main.go", Lines: []int{1, 2, 3, 4}}, data)

	assert.True(t, f.WholeFileUnexecuted())

	annotations := f.Annotations()
	if len(annotations) != 1 {
		t.Fatalf("should produce a single whole-file annotation, but get %d", len(annotations))
	}
	assert.Equal(t, Annotation{
		Path:      "main.go",
		StartLine: 1,
		EndLine:   4,
		Level:     "warning",
		Message:   "File is not executed by the test suite",
	}, annotations[0])
}

func TestFileVacuousPass(t *testing.T) {
	// Only the non-executable line changed.
	data := Data{"main.go": counts(1, 0, -1, 1)}
	f := NewFile(&diff.ChangedFile{Path: "main.go", Lines: []int{3}}, data)

	if got := f.RelevantLines(); len(got) != 0 {
		t.Errorf("should have no relevant lines, but get %v", got)
	}
	assert.Equal(t, 100, f.CoveragePercent())
	if got := f.Annotations(); len(got) != 0 {
		t.Errorf("should produce no annotations, but get %v", got)
	}
}

func TestFileFullyCovered(t *testing.T) {
	data := Data{"main.go": counts(1, 2, 3)}
	f := NewFile(&diff.ChangedFile{Path: "main.go", Lines: []int{1, 2, 3}}, data)

	assert.Equal(t, 100, f.CoveragePercent())
	if got := f.Annotations(); len(got) != 0 {
		t.Errorf("should produce no annotations, but get %v", got)
	}
}

func TestFileChangedLinesBeyondCounts(t *testing.T) {
	// Changed lines past the end of the coverage array are not executable.
	data := Data{"main.go": counts(1, 0)}
	f := NewFile(&diff.ChangedFile{Path: "main.go", Lines: []int{1, 2, 3, 4}}, data)

	assert.Equal(t, []int{1, 2}, f.RelevantLines())
	assert.Equal(t, []int{2}, f.RelevantMissedLines())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 100, Percent(0, 0))
	assert.Equal(t, 100, Percent(3, 3))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 0, Percent(0, 5))
}
