package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// jsonReportGenerator writes the report object as indented JSON, the
// machine-readable output consumed by other tooling.
type jsonReportGenerator struct {
	outputPath string
	reportName string
	logger     logrus.FieldLogger
}

var _ ReportGenerator = (*jsonReportGenerator)(nil)

// NewJSONReportGenerator creates a json report generator.
func NewJSONReportGenerator(outputPath string, reportName string, logger logrus.FieldLogger) ReportGenerator {
	if logger == nil {
		logger = logrus.New()
	}
	return &jsonReportGenerator{
		outputPath: outputPath,
		reportName: reportName,
		logger:     logger.WithField("source", "jsonreport"),
	}
}

func (g *jsonReportGenerator) GenerateReport(report *Report) error {
	contents, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	reportFile := filepath.Join(g.outputPath, g.reportName+".json")
	if err := os.WriteFile(reportFile, contents, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	g.logger.Debugf("generate json report to %s", reportFile)
	return nil
}
