package patchcov

import (
	"errors"
	"fmt"
	"io"

	"github.com/patchcov/patchcov/pkg/dbclient"
	"github.com/patchcov/patchcov/pkg/github"
	"github.com/sirupsen/logrus"
)

const (
	DefaultThreshold     = 80
	DefaultCompareBranch = "origin/master"
	DefaultReportFormat  = "json"
	DefaultReportName    = "coverage"
	DefaultStyle         = "colorful"
)

var (
	ErrThresholdRange    = errors.New("threshold must be between 0 and 100")
	ErrOneDiffSource     = errors.New("exactly one source of changed files must be selected: a patch file, a pull request number, or a local repository")
	ErrOneCoverageSource = errors.New("exactly one of coverage file and go cover profile must be set")
	ErrUnknownFormat     = errors.New(`supported report formats are "json", "markdown" and "html"`)
)

// CheckOption contains the input to the patchcov check command.
type CheckOption struct {
	// Coverage sources, exactly one must be set.
	CoverageFile string
	CoverProfile string

	// Changed-file sources. A patch file and a pull request number are
	// exclusive; when neither is given the local repository is diffed
	// against CompareBranch.
	PatchFile      string
	RepositoryPath string
	CompareBranch  string
	PullNumber     int

	Threshold int
	Excludes  []string

	ReportFormat string
	ReportName   string
	Output       string
	Style        string

	// RepositoryURL and CommitSHA feed the markdown blob links, the
	// check-run publication and the stored data rows. Optional.
	RepositoryURL string
	CommitSHA     string

	GithubOption *github.Option
	DbOption     *dbclient.DBOption

	// Writer receives the console summary, stdout when nil.
	Writer io.Writer
	Logger logrus.FieldLogger
}

// NewCheckOption returns a CheckOption with default values.
func NewCheckOption() *CheckOption {
	return &CheckOption{
		CompareBranch: DefaultCompareBranch,
		Threshold:     DefaultThreshold,
		ReportFormat:  DefaultReportFormat,
		ReportName:    DefaultReportName,
		Output:        ".",
		Style:         DefaultStyle,
		GithubOption:  &github.Option{},
		DbOption:      &dbclient.DBOption{},
	}
}

// Validate checks the validation of the input on check option.
func (o *CheckOption) Validate() error {
	if o.Threshold < 0 || o.Threshold > 100 {
		return fmt.Errorf("%w, get %d", ErrThresholdRange, o.Threshold)
	}

	if o.PatchFile != "" && o.PullNumber > 0 {
		return ErrOneDiffSource
	}
	if o.PatchFile == "" && o.PullNumber == 0 && o.RepositoryPath == "" {
		return ErrOneDiffSource
	}

	if (o.CoverageFile == "") == (o.CoverProfile == "") {
		return ErrOneCoverageSource
	}

	switch o.ReportFormat {
	case "json", "markdown", "html":
	default:
		return fmt.Errorf("%w, get %q", ErrUnknownFormat, o.ReportFormat)
	}

	if o.PullNumber > 0 {
		if err := o.GithubOption.Validate(); err != nil {
			return err
		}
	}

	return o.DbOption.Validate()
}
