package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	passColor = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
)

// ConsoleSummary prints the per-file breakdown and the verdict as a table on
// the terminal. It always runs, whatever report format was chosen.
type ConsoleSummary struct {
	writer io.Writer
}

// NewConsoleSummary creates a console summary writing to w.
func NewConsoleSummary(w io.Writer) *ConsoleSummary {
	return &ConsoleSummary{writer: w}
}

var _ ReportGenerator = (*ConsoleSummary)(nil)

func (c *ConsoleSummary) GenerateReport(report *Report) error {
	table := tablewriter.NewWriter(c.writer)
	table.Header([]string{"File", "Skipped", "Changed", "Missed", "Coverage"})

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, file := range report.Files {
		skipped := "-"
		if file.Skipped {
			skipped = file.SkipReason
		}
		data = append(data, []string{
			file.Path,
			skipped,
			strconv.Itoa(file.ChangedLines),
			strconv.Itoa(file.MissedLines),
			colorPercent(file.CoveragePercent, report.Threshold),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	verdict := passColor.Sprint("PASS")
	if !report.Passed {
		verdict = failColor.Sprint("FAIL")
	}
	fmt.Fprintf(c.writer, "\n%s coverage of changed lines: %d%% (threshold %d%%)\n",
		verdict, report.CoveragePercent, report.Threshold)
	return nil
}

// colorPercent grades a file percentage against the run threshold.
func colorPercent(percent, threshold int) string {
	text := strconv.Itoa(percent) + "%"
	switch {
	case percent >= threshold:
		return passColor.Sprint(text)
	case percent >= threshold/2:
		return warnColor.Sprint(text)
	default:
		return failColor.Sprint(text)
	}
}
