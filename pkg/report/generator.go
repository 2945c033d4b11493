package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/patchcov/patchcov/pkg/coverage"
	"github.com/sirupsen/logrus"
)

// ReportGenerator renders a built report to its output.
type ReportGenerator interface {
	GenerateReport(report *Report) error
}

// snippetContextLines is how many surrounding lines a code snippet shows
// around an uncovered span.
const snippetContextLines = 2

// codeHighlightColor is the background for uncovered code lines.
const codeHighlightColor = "bg:#ffcccc"

// htmlReportGenerator renders an html report with highlighted code snippets
// for every uncovered span. Sources are read from the local repository; a
// file that cannot be read falls back to a plain range list.
type htmlReportGenerator struct {
	// style for code snippets
	style *chroma.Style
	// repositoryPath locates the sources the snippets are cut from
	repositoryPath string
	// outputPath report directory
	outputPath string
	// reportName report name
	reportName string
	// logger
	logger logrus.FieldLogger
}

var _ ReportGenerator = (*htmlReportGenerator)(nil)

// NewHTMLReportGenerator creates an html report generator. The style names
// follow https://pygments.org/docs/styles, rendering is done with
// https://github.com/alecthomas/chroma.
func NewHTMLReportGenerator(
	codeStyle string,
	repositoryPath string,
	outputPath string,
	reportName string,
	logger logrus.FieldLogger,
) ReportGenerator {
	style := styles.Get(codeStyle)
	if style == nil {
		style = styles.Fallback
	}

	builder := style.Builder().Add(chroma.LineHighlight, codeHighlightColor)
	if s, err := builder.Build(); err == nil {
		style = s
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &htmlReportGenerator{
		style:          style,
		repositoryPath: repositoryPath,
		outputPath:     outputPath,
		reportName:     reportName,
		logger:         logger.WithField("source", "htmlreport"),
	}
}

// fileSection carries one annotated file through the html template.
type fileSection struct {
	Path     string
	Spans    []string
	Snippets []template.HTML
}

// GenerateReport renders the report and its code snippets to
// <output>/<name>.html.
func (g *htmlReportGenerator) GenerateReport(report *Report) error {
	sections, err := g.buildSections(report)
	if err != nil {
		return fmt.Errorf("process code snippets: %w", err)
	}

	reportFile := filepath.Join(g.outputPath, g.reportName+".html")
	f, err := os.Create(reportFile)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	err = htmlReportTemplate.Execute(f, struct {
		*Report
		Sections []fileSection
	}{Report: report, Sections: sections})
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	g.logger.Debugf("generate html report to %s", reportFile)
	return nil
}

func (g *htmlReportGenerator) buildSections(report *Report) ([]fileSection, error) {
	byPath := map[string][]coverage.Annotation{}
	var order []string
	for _, a := range report.Annotations {
		if _, ok := byPath[a.Path]; !ok {
			order = append(order, a.Path)
		}
		byPath[a.Path] = append(byPath[a.Path], a)
	}

	var sections []fileSection
	for _, path := range order {
		section := fileSection{Path: path}

		contents, err := os.ReadFile(filepath.Join(g.repositoryPath, path))
		if err != nil {
			// No local sources for this file, list the spans instead.
			g.logger.Debugf("no sources for %s: %s", path, err)
			for _, a := range byPath[path] {
				section.Spans = append(section.Spans, a.Message)
			}
			sections = append(sections, section)
			continue
		}

		lines := strings.Split(string(contents), "\n")
		for _, a := range byPath[path] {
			snippet, err := g.renderSnippet(path, lines, a)
			if err != nil {
				return nil, err
			}
			section.Snippets = append(section.Snippets, snippet)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// renderSnippet cuts the annotated span plus some context out of the file
// and highlights the uncovered lines.
func (g *htmlReportGenerator) renderSnippet(path string, lines []string, a coverage.Annotation) (template.HTML, error) {
	first := a.StartLine - snippetContextLines
	if first < 1 {
		first = 1
	}
	last := a.EndLine + snippetContextLines
	if last > len(lines) {
		last = len(lines)
	}

	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iter, err := lexer.Tokenise(nil, strings.Join(lines[first-1:last], "\n"))
	if err != nil {
		return "", fmt.Errorf("tokenise failed: %w", err)
	}

	formatter := chromahtml.New(
		chromahtml.WithLineNumbers(true),
		chromahtml.LineNumbersInTable(true),
		chromahtml.BaseLineNumber(first),
		chromahtml.WithLinkableLineNumbers(true, ""),
		chromahtml.HighlightLines([][2]int{{a.StartLine, a.EndLine}}),
	)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, g.style, iter); err != nil {
		return "", fmt.Errorf("format code snippet: %w", err)
	}
	return template.HTML(buf.String()), nil
}
