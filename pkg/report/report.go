// Package report aggregates per-file coverage results across a changeset
// into totals, a pass/fail verdict, and the rendered report outputs.
package report

import (
	"fmt"
	"strings"

	"github.com/patchcov/patchcov/pkg/coverage"
)

// FileSummary is one row of the per-file breakdown.
type FileSummary struct {
	Path            string `json:"path"`
	Skipped         bool   `json:"skipped"`
	SkipReason      string `json:"skipReason,omitempty"`
	ChangedLines    int    `json:"changedLines"`
	MissedLines     int    `json:"missedLines"`
	CoveragePercent int    `json:"coveragePercent"`
}

// Report is the aggregate result of one run. It is created once by Build and
// never mutated afterwards.
type Report struct {
	CoveragePercent   int                   `json:"coveragePercent"`
	TotalChangedLines int                   `json:"totalChangedLines"`
	RelevantLines     int                   `json:"relevantLines"`
	CoveredLines      int                   `json:"coveredLines"`
	Threshold         int                   `json:"threshold"`
	Passed            bool                  `json:"passed"`
	SkippedFiles      []string              `json:"skippedFiles"`
	Files             []FileSummary         `json:"perFileBreakdown"`
	Annotations       []coverage.Annotation `json:"annotations"`
}

// Build aggregates the file models of a changeset. Skipped files stay out of
// every total but are listed in the breakdown and the skipped-file list; the
// aggregate percentage is the global covered ratio, not an average of
// per-file percentages.
func Build(files []*coverage.File, threshold int) *Report {
	report := &Report{Threshold: threshold}

	for _, file := range files {
		if file.Skipped() {
			report.SkippedFiles = append(report.SkippedFiles, file.Path)
			report.Files = append(report.Files, FileSummary{
				Path:            file.Path,
				Skipped:         true,
				SkipReason:      string(file.Skip),
				CoveragePercent: 100,
			})
			continue
		}

		relevant := len(file.RelevantLines())
		missed := len(file.RelevantMissedLines())

		report.TotalChangedLines += len(file.ChangedLines())
		report.RelevantLines += relevant
		report.CoveredLines += relevant - missed
		report.Annotations = append(report.Annotations, file.Annotations()...)

		report.Files = append(report.Files, FileSummary{
			Path:            file.Path,
			ChangedLines:    len(file.ChangedLines()),
			MissedLines:     missed,
			CoveragePercent: file.CoveragePercent(),
		})
	}

	report.CoveragePercent = coverage.Percent(report.CoveredLines, report.RelevantLines)
	report.Passed = report.CoveragePercent >= threshold
	return report
}

// Summary renders the aggregate numbers as a short text digest, used for the
// check-run summary and log output.
func (r *Report) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Patch coverage: %d%% (threshold %d%%)\n", r.CoveragePercent, r.Threshold)
	fmt.Fprintf(&b, "Covered %d of %d relevant lines in %d changed lines\n",
		r.CoveredLines, r.RelevantLines, r.TotalChangedLines)
	fmt.Fprintf(&b, "Uncovered spans: %d\n", len(r.Annotations))

	if len(r.SkippedFiles) > 0 {
		fmt.Fprintf(&b, "Skipped files: %s\n", strings.Join(r.SkippedFiles, ", "))
	}
	return b.String()
}
