// Package github talks to the GitHub REST API to fetch the files of a pull
// request and to publish the coverage verdict as a check run.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patchcov/patchcov/pkg/coverage"
	"github.com/patchcov/patchcov/pkg/diff"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultAPIURL is the api endpoint for github.com.
	DefaultAPIURL = "https://api.github.com"

	// perPage is the page size used when listing pull request files.
	perPage = 100

	// maxAnnotationsPerRequest is the check-run API limit; larger sets are
	// sent in batches.
	maxAnnotationsPerRequest = 50

	// CheckRunName identifies the published check run.
	CheckRunName = "patch coverage"
)

var (
	ErrOwnerRequired = errors.New("github owner is required")
	ErrRepoRequired  = errors.New("github repository is required")
	ErrTokenRequired = errors.New("github token is required")
)

// Option configures the github client.
type Option struct {
	// APIURL overrides the api endpoint, for GitHub Enterprise.
	APIURL string
	// Token authenticates every request.
	Token string
	// Owner and Repo identify the repository.
	Owner string
	Repo  string

	Logger logrus.FieldLogger
}

func (o *Option) Validate() error {
	if o.Owner == "" {
		return ErrOwnerRequired
	}
	if o.Repo == "" {
		return ErrRepoRequired
	}
	if o.Token == "" {
		return ErrTokenRequired
	}
	return nil
}

// Client is a minimal GitHub REST client. Requests fail fast and propagate
// the api error upward, there is no retry policy.
type Client struct {
	apiURL     string
	token      string
	owner      string
	repo       string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewClient creates a github client from validated options.
func NewClient(o *Option) (*Client, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	apiURL := o.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Client{
		apiURL:     apiURL,
		token:      o.Token,
		owner:      o.Owner,
		repo:       o.Repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.WithField("source", "github"),
	}, nil
}

// pullRequestFile is the wire shape of one entry of the pull request files
// listing.
type pullRequestFile struct {
	Filename         string `json:"filename"`
	Status           string `json:"status"`
	PreviousFilename string `json:"previous_filename"`
	Patch            string `json:"patch"`
}

// ListPullRequestFiles fetches all changed files of a pull request, paging
// through the listing. Removed files carry no lines in the new revision and
// are dropped.
func (c *Client) ListPullRequestFiles(ctx context.Context, number int) ([]*diff.ChangedFile, error) {
	var changes []*diff.ChangedFile

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.apiURL, c.owner, c.repo, number, perPage, page)

		var files []pullRequestFile
		if err := c.do(ctx, http.MethodGet, url, nil, &files); err != nil {
			return nil, fmt.Errorf("list pull request files: %w", err)
		}

		for _, f := range files {
			if f.Status == "removed" {
				continue
			}
			changes = append(changes, &diff.ChangedFile{
				Path:         f.Filename,
				PreviousPath: f.PreviousFilename,
				Patch:        f.Patch,
			})
		}

		if len(files) < perPage {
			break
		}
	}

	c.logger.Debugf("pull request #%d has %d files", number, len(changes))
	return changes, nil
}

// checkRunOutput is the output block of the check-run API.
type checkRunOutput struct {
	Title       string                `json:"title"`
	Summary     string                `json:"summary"`
	Annotations []coverage.Annotation `json:"annotations,omitempty"`
}

type checkRunRequest struct {
	Name       string          `json:"name"`
	HeadSHA    string          `json:"head_sha,omitempty"`
	Status     string          `json:"status,omitempty"`
	Conclusion string          `json:"conclusion,omitempty"`
	Output     *checkRunOutput `json:"output,omitempty"`
}

type checkRunResponse struct {
	ID int64 `json:"id"`
}

// CreateCheckRun publishes the verdict and its annotations for the commit.
// The api caps annotations at 50 per request, so the remainder is appended
// with follow-up updates to the created run.
func (c *Client) CreateCheckRun(ctx context.Context, headSHA string, passed bool, title, summary string, annotations []coverage.Annotation) error {
	conclusion := "failure"
	if passed {
		conclusion = "success"
	}

	batch := annotations
	if len(batch) > maxAnnotationsPerRequest {
		batch = annotations[:maxAnnotationsPerRequest]
	}

	createURL := fmt.Sprintf("%s/repos/%s/%s/check-runs", c.apiURL, c.owner, c.repo)
	var created checkRunResponse
	err := c.do(ctx, http.MethodPost, createURL, &checkRunRequest{
		Name:       CheckRunName,
		HeadSHA:    headSHA,
		Status:     "completed",
		Conclusion: conclusion,
		Output: &checkRunOutput{
			Title:       title,
			Summary:     summary,
			Annotations: batch,
		},
	}, &created)
	if err != nil {
		return fmt.Errorf("create check run: %w", err)
	}

	for start := maxAnnotationsPerRequest; start < len(annotations); start += maxAnnotationsPerRequest {
		end := start + maxAnnotationsPerRequest
		if end > len(annotations) {
			end = len(annotations)
		}

		updateURL := fmt.Sprintf("%s/repos/%s/%s/check-runs/%d", c.apiURL, c.owner, c.repo, created.ID)
		err := c.do(ctx, http.MethodPatch, updateURL, &checkRunRequest{
			Name: CheckRunName,
			Output: &checkRunOutput{
				Title:       title,
				Summary:     summary,
				Annotations: annotations[start:end],
			},
		}, nil)
		if err != nil {
			return fmt.Errorf("append check run annotations: %w", err)
		}
	}

	c.logger.Debugf("published check run for %s with %d annotations", headSHA, len(annotations))
	return nil
}

// do sends one api request and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		contents, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(contents)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		contents, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s: %s", method, url, resp.Status, bytes.TrimSpace(contents))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
