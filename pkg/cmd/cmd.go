package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/patchcov/patchcov/pkg/dbclient"
	"github.com/patchcov/patchcov/pkg/patchcov"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	checkLong = `Check test coverage of the changed lines of a patch.

Use this tool to make sure new changes carry the expected test coverage before
they merge. The changeset comes from a patch file, a local git repository or a
GitHub pull request; the coverage comes from a per-line coverage file or a
'go test' cover profile.
`

	checkExample = `# Check a patch file against a per-line coverage map, failing below 80%
patchcov check --patch-file changes.patch --coverage-file coverage.json --threshold 80

# Diff the local repository against origin/master using a go cover profile
patchcov check --repository-path . --compare-branch origin/master --cover-profile coverage.out

# Analyze a pull request and publish the verdict as a check run
export GITHUB_TOKEN=xxxxxxxxxxxxxxxxxxxx
patchcov check --github-owner foo --github-repo bar --pull-number 42 \
	--commit-sha 0123abcd --coverage-file coverage.json --format markdown

# Send the per-file coverage data to a kusto database
export KUSTO_TENANT_ID=00000000-0000-0000-0000-000000000000
export KUSTO_CLIENT_ID=00000000-0000-0000-0000-000000000000
export KUSTO_CLIENT_SECRET=xxxxxxxxxxxxxxxxxxxx
patchcov check --patch-file changes.patch --coverage-file coverage.json \
	--data-collection-enabled \
	--store-type Kusto \
	--endpoint https://your.kusto.windows.net/ \
	--database kustodb_name \
	--event kusto_event
`
)

var dboption = &dbclient.DBOption{}

const (
	FlagVerbose      = "verbose"
	FlagVerboseShort = "v"

	githubTokenKey = "GITHUB_TOKEN"
)

func createLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	verbose, err := cmd.Flags().GetBool(FlagVerbose)
	if err != nil {
		// no verbose flag on the command, It's OK.
		verbose = false
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// NewPatchCovCommand creates the root command for checking patch coverage.
func NewPatchCovCommand() *cobra.Command {

	cmd := &cobra.Command{
		Use:          "patchcov",
		Short:        "test coverage check for changed lines",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolP(FlagVerbose, FlagVerboseShort, false, "verbose output")

	cmd.PersistentFlags().BoolVar(&dboption.DataCollectionEnabled, "data-collection-enabled", false, "whether or not enable collecting coverage data")
	cmd.PersistentFlags().StringVar((*string)(&dboption.DbType), "store-type", string(dbclient.None), "db client type")
	cmd.PersistentFlags().StringVar(&dboption.KustoOption.Endpoint, "endpoint", "", "kusto endpoint")
	cmd.PersistentFlags().StringVar(&dboption.KustoOption.Database, "database", "", "kusto database")
	cmd.PersistentFlags().StringVar(&dboption.KustoOption.Event, "event", "", "kusto event")
	cmd.PersistentFlags().StringSliceVar(&dboption.KustoOption.CustomColumns, "custom-columns", []string{}, "custom kusto columns, format: {column}:{datatype}:{value}")

	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newCheckCommand() *cobra.Command {
	o := patchcov.NewCheckOption()
	var configFile string

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "check test coverage of changed lines",
		Long:    checkLong,
		Example: checkExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Logger = createLogger(cmd)
			o.Writer = cmd.OutOrStdout()
			o.DbOption = dboption
			o.DbOption.KustoOption.Writer = cmd.OutOrStdout()
			o.GithubOption.Token = os.Getenv(githubTokenKey)

			cfg, err := loadFileConfig(configFile)
			if err != nil {
				return err
			}
			applyFileConfig(cmd, cfg, o)

			checker, err := patchcov.NewChecker(o)
			if err != nil {
				return fmt.Errorf("check options: %w", err)
			}
			return checker.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&o.CoverageFile, "coverage-file", "", "per-line coverage data file, a json map of file path to line counts")
	cmd.Flags().StringVar(&o.CoverProfile, "cover-profile", "", `coverage profile produced by 'go test'`)
	cmd.Flags().StringVar(&o.PatchFile, "patch-file", "", "unified diff file describing the changeset")
	cmd.Flags().StringVar(&o.RepositoryPath, "repository-path", "", `the root directory of git repository`)
	cmd.Flags().StringVar(&o.CompareBranch, "compare-branch", o.CompareBranch, `branch to compare`)
	cmd.Flags().IntVar(&o.PullNumber, "pull-number", 0, "pull request number to analyze")
	cmd.Flags().IntVar(&o.Threshold, "threshold", o.Threshold, "returns an error code if patch coverage is less than this percentage")
	cmd.Flags().StringSliceVar(&o.Excludes, "excludes", []string{}, "exclude files for patch coverage calculation, doublestar globs")
	cmd.Flags().StringVar(&o.ReportFormat, "format", o.ReportFormat, "format of the coverage report, one of: html, json, markdown")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "coverage report output directory")
	cmd.Flags().StringVar(&o.ReportName, "report-name", o.ReportName, "coverage report name")
	cmd.Flags().StringVar(&o.Style, "style", o.Style, "coverage report code format style, refer to https://pygments.org/docs/styles for more information")
	cmd.Flags().StringVar(&o.RepositoryURL, "repository-url", "", "repository url the markdown report links into, like https://github.com/owner/repo")
	cmd.Flags().StringVar(&o.CommitSHA, "commit-sha", "", "head commit of the changeset, used for blob links and the check run")
	cmd.Flags().StringVar(&o.GithubOption.Owner, "github-owner", "", "github repository owner")
	cmd.Flags().StringVar(&o.GithubOption.Repo, "github-repo", "", "github repository name")
	cmd.Flags().StringVar(&o.GithubOption.APIURL, "github-api-url", "", "github api endpoint, for github enterprise")
	cmd.Flags().StringVar(&configFile, "config", "", "config file, default .patchcov.yaml in the working directory")

	return cmd
}
