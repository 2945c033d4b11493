package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patchcov/patchcov/pkg/coverage"
	"github.com/sirupsen/logrus"
)

// markdownReportGenerator renders a markdown summary suitable for a pull
// request comment. When a repository URL and commit are known, uncovered
// spans link straight to the blob view.
type markdownReportGenerator struct {
	// repositoryURL like https://github.com/owner/repo, optional
	repositoryURL string
	// commitSHA the blob links point at, optional
	commitSHA string
	// outputPath report directory
	outputPath string
	// reportName report name
	reportName string
	// logger
	logger logrus.FieldLogger
}

var _ ReportGenerator = (*markdownReportGenerator)(nil)

// NewMarkdownReportGenerator creates a markdown report generator.
func NewMarkdownReportGenerator(
	repositoryURL string,
	commitSHA string,
	outputPath string,
	reportName string,
	logger logrus.FieldLogger,
) ReportGenerator {
	if logger == nil {
		logger = logrus.New()
	}
	return &markdownReportGenerator{
		repositoryURL: repositoryURL,
		commitSHA:     commitSHA,
		outputPath:    outputPath,
		reportName:    reportName,
		logger:        logger.WithField("source", "markdownreport"),
	}
}

func (md *markdownReportGenerator) GenerateReport(report *Report) error {
	var b strings.Builder

	if len(report.Annotations) == 0 && report.Passed {
		b.WriteString("#### :+1: All changed lines are covered by tests! :green_circle:\n\n")
	} else {
		fmt.Fprintf(&b, "#### Patch coverage: %d%% %s\n\n", report.CoveragePercent, coverageCircle(report.CoveragePercent))
	}

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Changed lines | %d |\n", report.TotalChangedLines)
	fmt.Fprintf(&b, "| Relevant lines | %d |\n", report.RelevantLines)
	fmt.Fprintf(&b, "| Covered lines | %d |\n", report.CoveredLines)
	fmt.Fprintf(&b, "| Threshold | %d%% |\n\n", report.Threshold)

	for _, file := range report.Files {
		if file.Skipped || file.MissedLines == 0 {
			continue
		}

		b.WriteString("<details>\n")
		fmt.Fprintf(&b, "<summary>%s %d%% %s</summary>\n\n", file.Path, file.CoveragePercent, coverageCircle(file.CoveragePercent))
		for _, a := range report.Annotations {
			if a.Path != file.Path {
				continue
			}
			fmt.Fprintf(&b, "- %s\n", md.spanLink(a))
		}
		b.WriteString("\n</details>\n\n")
	}

	if len(report.SkippedFiles) > 0 {
		b.WriteString("Skipped files:\n\n")
		for _, file := range report.Files {
			if file.Skipped {
				fmt.Fprintf(&b, "- %s (%s)\n", file.Path, file.SkipReason)
			}
		}
	}

	reportFile := filepath.Join(md.outputPath, md.reportName+".md")
	if err := os.WriteFile(reportFile, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	md.logger.Debugf("generate markdown report to %s", reportFile)
	return nil
}

// spanLink renders an annotation as a blob link when the repository is
// known, and as its plain message otherwise.
func (md *markdownReportGenerator) spanLink(a coverage.Annotation) string {
	if md.repositoryURL == "" || md.commitSHA == "" {
		return a.Message
	}

	anchor := fmt.Sprintf("#L%d", a.StartLine)
	if a.EndLine != a.StartLine {
		anchor = fmt.Sprintf("%s-L%d", anchor, a.EndLine)
	}
	return fmt.Sprintf("[%s](%s/blob/%s/%s%s)", a.Message, md.repositoryURL, md.commitSHA, a.Path, anchor)
}

// coverageCircle grades a percentage the way reviewers skim it.
func coverageCircle(percent int) string {
	switch {
	case percent >= 90:
		return ":green_circle:"
	case percent > 75:
		return ":yellow_circle:"
	case percent > 50:
		return ":orange_circle:"
	default:
		return ":red_circle:"
	}
}
