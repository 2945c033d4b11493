// Package patchcov wires the changed-file and coverage sources into the
// analysis core and drives the report outputs.
package patchcov

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/patchcov/patchcov/pkg/coverage"
	"github.com/patchcov/patchcov/pkg/dbclient"
	"github.com/patchcov/patchcov/pkg/diff"
	"github.com/patchcov/patchcov/pkg/github"
	"github.com/patchcov/patchcov/pkg/report"
	"github.com/sirupsen/logrus"
)

// Checker runs one patch coverage check end to end.
type Checker struct {
	option       *CheckOption
	excludes     *coverage.ExcludeFilter
	generator    report.ReportGenerator
	console      report.ReportGenerator
	githubClient *github.Client
	dbClient     dbclient.DbClient
	logger       logrus.FieldLogger
}

// NewChecker builds a checker from validated options.
func NewChecker(o *CheckOption) (*Checker, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}

	excludes, err := coverage.NewExcludeFilter(o.Excludes)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}

	var githubClient *github.Client
	if o.PullNumber > 0 || o.GithubOption.Owner != "" {
		githubClient, err = github.NewClient(o.GithubOption)
		if err != nil {
			return nil, fmt.Errorf("github client: %w", err)
		}
	}

	var dbClient dbclient.DbClient
	if o.DbOption.DataCollectionEnabled {
		dbClient, err = o.DbOption.GetDbClient(logger)
		if err != nil {
			return nil, fmt.Errorf("get db client: %w", err)
		}
	}

	var generator report.ReportGenerator
	switch o.ReportFormat {
	case "markdown":
		generator = report.NewMarkdownReportGenerator(o.RepositoryURL, o.CommitSHA, o.Output, o.ReportName, logger)
	case "html":
		generator = report.NewHTMLReportGenerator(o.Style, o.RepositoryPath, o.Output, o.ReportName, logger)
	default:
		generator = report.NewJSONReportGenerator(o.Output, o.ReportName, logger)
	}

	writer := o.Writer
	if writer == nil {
		writer = os.Stdout
	}

	return &Checker{
		option:       o,
		excludes:     excludes,
		generator:    generator,
		console:      report.NewConsoleSummary(writer),
		githubClient: githubClient,
		dbClient:     dbClient,
		logger:       logger.WithField("source", "patchcov"),
	}, nil
}

// Run resolves the changeset and the coverage data, builds the report and
// drives every configured output. A verdict below the threshold comes back
// as a CheckError with the low coverage exit code.
func (c *Checker) Run(ctx context.Context) error {
	changes, err := c.resolveChanges(ctx)
	if err != nil {
		return WrapError(err, "resolve changed files")
	}

	data, err := c.loadCoverage()
	if err != nil {
		return WrapError(err, "load coverage data")
	}

	var files []*coverage.File
	for _, change := range changes {
		if c.excludes.Match(change.Path) {
			c.logger.Debugf("exclude %s", change.Path)
			continue
		}
		files = append(files, coverage.NewFile(change, data))
	}
	c.logger.Debugf("analyzing %d changed files", len(files))

	result := report.Build(files, c.option.Threshold)

	if err := c.console.GenerateReport(result); err != nil {
		return WrapError(err, "print summary")
	}
	if err := c.generator.GenerateReport(result); err != nil {
		return WrapError(err, "generate report")
	}

	if err := c.publish(ctx, result); err != nil {
		return WrapError(err, "publish check run")
	}
	if err := c.store(ctx, files); err != nil {
		return WrapError(err, "store coverage data")
	}

	if !result.Passed {
		return WrapErrorWithCode(
			fmt.Errorf("patch coverage %d%% is below threshold %d%%", result.CoveragePercent, result.Threshold),
			LowCoverageErrorExitCode,
			"patch coverage check failed",
		)
	}
	return nil
}

// resolveChanges picks the changed-file source the options selected.
func (c *Checker) resolveChanges(ctx context.Context) ([]*diff.ChangedFile, error) {
	switch {
	case c.option.PatchFile != "":
		contents, err := os.ReadFile(c.option.PatchFile)
		if err != nil {
			return nil, fmt.Errorf("read patch file: %w", err)
		}
		return diff.SplitPatch(string(contents)), nil

	case c.option.PullNumber > 0:
		return c.githubClient.ListPullRequestFiles(ctx, c.option.PullNumber)

	default:
		gitClient, err := diff.NewGitClient(c.option.RepositoryPath, c.logger)
		if err != nil {
			return nil, fmt.Errorf("git repository: %w", err)
		}
		return gitClient.DiffChangesFromCommitted(c.option.CompareBranch)
	}
}

func (c *Checker) loadCoverage() (coverage.Data, error) {
	if c.option.CoverageFile != "" {
		return coverage.LoadFile(c.option.CoverageFile)
	}

	moduleDir := c.option.RepositoryPath
	if moduleDir == "" {
		moduleDir = "."
	}
	return coverage.LoadGoProfile(c.option.CoverProfile, moduleDir)
}

// publish posts the verdict as a github check run. Needs a client and a head
// commit, silently does nothing otherwise.
func (c *Checker) publish(ctx context.Context, result *report.Report) error {
	if c.githubClient == nil || c.option.CommitSHA == "" {
		return nil
	}

	title := fmt.Sprintf("patch coverage: %d%%", result.CoveragePercent)
	return c.githubClient.CreateCheckRun(ctx, c.option.CommitSHA, result.Passed, title, result.Summary(), result.Annotations)
}

// store sends one data row per analyzed file to the configured db.
func (c *Checker) store(ctx context.Context, files []*coverage.File) error {
	if c.dbClient == nil {
		return nil
	}

	now := time.Now().UTC()
	for _, f := range files {
		relevant := len(f.RelevantLines())
		covered := relevant - len(f.RelevantMissedLines())

		row := &dbclient.Data{
			PreciseTimestamp: now,
			Repository:       c.option.RepositoryURL,
			CommitSHA:        c.option.CommitSHA,
			FilePath:         f.Path,
			ChangedLines:     int64(len(f.ChangedLines())),
			RelevantLines:    int64(relevant),
			CoveredLines:     int64(covered),
			SkipReason:       string(f.Skip),
		}
		if relevant > 0 {
			row.Coverage = float64(covered) / float64(relevant)
		}

		if err := c.dbClient.Store(ctx, row); err != nil {
			return fmt.Errorf("store %s: %w", f.Path, err)
		}
	}
	return nil
}
