package cmd

import (
	"errors"
	"fmt"

	"github.com/patchcov/patchcov/pkg/patchcov"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "PATCHCOV"

// fileConfig is the optional .patchcov.yaml shape. Every field can also come
// from a PATCHCOV_* environment variable; command line flags win over both.
type fileConfig struct {
	Threshold     int      `mapstructure:"threshold"`
	Excludes      []string `mapstructure:"excludes"`
	Format        string   `mapstructure:"format"`
	Output        string   `mapstructure:"output"`
	ReportName    string   `mapstructure:"report_name"`
	Style         string   `mapstructure:"style"`
	CompareBranch string   `mapstructure:"compare_branch"`
	RepositoryURL string   `mapstructure:"repository_url"`
	CommitSHA     string   `mapstructure:"commit_sha"`
	GithubOwner   string   `mapstructure:"github_owner"`
	GithubRepo    string   `mapstructure:"github_repo"`
	GithubAPIURL  string   `mapstructure:"github_api_url"`
}

// configKeys are bound explicitly, viper does not feed automatic env values
// into Unmarshal.
var configKeys = []string{
	"threshold", "excludes", "format", "output", "report_name", "style",
	"compare_branch", "repository_url", "commit_sha",
	"github_owner", "github_repo", "github_api_url",
}

// loadFileConfig reads the named config file, or the default .patchcov.yaml
// when none is given. A missing default file is not an error; a missing
// explicitly named file is.
func loadFileConfig(configFile string) (*fileConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	for _, key := range configKeys {
		v.BindEnv(key)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".patchcov")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// no default config file around, flags and env carry the run
		} else {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &fileConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// applyFileConfig layers config file and env values under the flags: a value
// is taken only when its flag was not set on the command line.
func applyFileConfig(cmd *cobra.Command, cfg *fileConfig, o *patchcov.CheckOption) {
	flags := cmd.Flags()

	if cfg.Threshold != 0 && !flags.Changed("threshold") {
		o.Threshold = cfg.Threshold
	}
	if len(cfg.Excludes) > 0 && !flags.Changed("excludes") {
		o.Excludes = cfg.Excludes
	}
	if cfg.Format != "" && !flags.Changed("format") {
		o.ReportFormat = cfg.Format
	}
	if cfg.Output != "" && !flags.Changed("output") {
		o.Output = cfg.Output
	}
	if cfg.ReportName != "" && !flags.Changed("report-name") {
		o.ReportName = cfg.ReportName
	}
	if cfg.Style != "" && !flags.Changed("style") {
		o.Style = cfg.Style
	}
	if cfg.CompareBranch != "" && !flags.Changed("compare-branch") {
		o.CompareBranch = cfg.CompareBranch
	}
	if cfg.RepositoryURL != "" && !flags.Changed("repository-url") {
		o.RepositoryURL = cfg.RepositoryURL
	}
	if cfg.CommitSHA != "" && !flags.Changed("commit-sha") {
		o.CommitSHA = cfg.CommitSHA
	}
	if cfg.GithubOwner != "" && !flags.Changed("github-owner") {
		o.GithubOption.Owner = cfg.GithubOwner
	}
	if cfg.GithubRepo != "" && !flags.Changed("github-repo") {
		o.GithubOption.Repo = cfg.GithubRepo
	}
	if cfg.GithubAPIURL != "" && !flags.Changed("github-api-url") {
		o.GithubOption.APIURL = cfg.GithubAPIURL
	}
}
