// Package linerange compacts scattered line numbers into the minimal
// set of contiguous ranges used for report output and annotations.
package linerange

import "fmt"

// Mark classifies a single source line of a changed file for span
// compaction purposes.
type Mark int

const (
	// NotChanged means the line exists in the file but is outside the changeset.
	NotChanged Mark = iota
	// Ignored means the line is not executable (comment, blank, declaration).
	Ignored
	// Missed means the line is executable, changed and never executed.
	Missed
	// Covered means the line is executable, changed and executed at least once.
	Covered
)

// LineRange is an inclusive range of 1-indexed line numbers.
type LineRange struct {
	// StartLine is the first line of the range.
	StartLine int
	// EndLine is the last line of the range, always >= StartLine.
	EndLine int
}

// Label renders the range for display, "7" for a single line and "7-12" otherwise.
func (r LineRange) Label() string {
	if r.StartLine == r.EndLine {
		return fmt.Sprintf("%d", r.StartLine)
	}
	return fmt.Sprintf("%d-%d", r.StartLine, r.EndLine)
}

// CompactSequence groups an ascending sequence of line numbers into maximal
// runs of consecutive integers. An empty input yields no ranges.
func CompactSequence(lines []int) []LineRange {
	var ranges []LineRange

	for _, line := range lines {
		if n := len(ranges); n > 0 && line == ranges[n-1].EndLine+1 {
			ranges[n-1].EndLine = line
			continue
		}
		ranges = append(ranges, LineRange{StartLine: line, EndLine: line})
	}
	return ranges
}

// CompactMarkedSpans finds the minimal ranges covering every Missed entry of a
// per-line mark array (index i corresponds to line i+1). A span extends across
// interior Ignored runs so that a block interrupted by blanks or comments
// reads as one range, but it never crosses a Covered or NotChanged line and
// never starts or ends on anything other than a Missed line.
//
// The scan is a two-state machine: seek the next Missed entry, then seek the
// span boundary. The boundary index is re-examined as the next seek position,
// so the whole pass is a single left-to-right O(n) walk.
func CompactMarkedSpans(marks []Mark) []LineRange {
	var ranges []LineRange

	i := 0
	for i < len(marks) {
		if marks[i] != Missed {
			i++
			continue
		}

		// Scan forward to the first line the span cannot cross.
		boundary := i + 1
		for boundary < len(marks) && marks[boundary] != Covered && marks[boundary] != NotChanged {
			boundary++
		}

		// Trim trailing ignorable lines off the back of the span. The loop
		// terminates because marks[i] is Missed.
		end := boundary - 1
		for marks[end] != Missed {
			end--
		}

		ranges = append(ranges, LineRange{StartLine: i + 1, EndLine: end + 1})
		i = boundary
	}
	return ranges
}
