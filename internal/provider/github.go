package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	githubDefaultBaseURL = "https://api.github.com"

	githubRunPollLimit    = 10
	githubRunPollInterval = 2 * time.Second
	// created_at comes from GitHub's clock; allow it to sit slightly
	// behind ours when matching the dispatched run
	githubDispatchSkew = 30 * time.Second
)

type GitHubClient struct {
	hc      *http.Client
	baseURL string
	token   string
	owner   string
	repo    string
	// Workflow file name inside .github/workflows
	workflowFile string

	// run resolution knobs, overridable in tests
	runPollLimit    int
	runPollInterval time.Duration
}

func NewGitHubClient(cfg Config, hc *http.Client) (*GitHubClient, error) {
	if cfg.Token == "" {
		return nil, ConfigError{Provider: "github", Message: "missing API token"}
	}
	if cfg.WorkflowFile == "" {
		return nil, ConfigError{Provider: "github", Message: "missing workflow file"}
	}
	owner, repo, err := ParseGitHubRepo(cfg.Repository)
	if err != nil {
		return nil, ConfigError{Provider: "github", Message: err.Error()}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = githubDefaultBaseURL
	}
	return &GitHubClient{
		hc:              hc,
		baseURL:         baseURL,
		token:           cfg.Token,
		owner:           owner,
		repo:            repo,
		workflowFile:    cfg.WorkflowFile,
		runPollLimit:    githubRunPollLimit,
		runPollInterval: githubRunPollInterval,
	}, nil
}

// Trigger dispatches the workflow and resolves the resulting workflow run
// id. The dispatch endpoint returns 204 with no body, so the run id has to
// be picked up from the workflow's run list once it appears there.
func (c *GitHubClient) Trigger(
	ctx context.Context,
	params TriggerParams,
) (*TriggerResult, error) {
	dispatchedAt := time.Now().UTC().Add(-githubDispatchSkew)

	body := map[string]any{
		"ref": params.Branch,
		"inputs": map[string]string{
			"run_id": strconv.FormatInt(params.RunID, 10),
		},
	}
	u := fmt.Sprintf(
		"%s/repos/%s/%s/actions/workflows/%s/dispatches",
		c.baseURL, c.owner, c.repo, c.workflowFile,
	)
	if err := c.do(ctx, http.MethodPost, u, body, nil); err != nil {
		return nil, err
	}

	runID, runURL, err := c.resolveRunID(ctx, params.Branch, dispatchedAt)
	if err != nil {
		return nil, err
	}
	return &TriggerResult{
		ExternalID:  strconv.FormatInt(runID, 10),
		ExternalURL: runURL,
	}, nil
}

// resolveRunID polls the workflow's dispatch runs on the dispatched branch
// until one created after dispatchedAt shows up, bounded by runPollLimit
// attempts runPollInterval apart.
func (c *GitHubClient) resolveRunID(
	ctx context.Context,
	branch string,
	dispatchedAt time.Time,
) (int64, string, error) {
	u := fmt.Sprintf(
		"%s/repos/%s/%s/actions/workflows/%s/runs?branch=%s&event=workflow_dispatch&per_page=5",
		c.baseURL, c.owner, c.repo, c.workflowFile, url.QueryEscape(branch),
	)

	for attempt := 0; attempt < c.runPollLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, "", ctx.Err()
			case <-time.After(c.runPollInterval):
			}
		}

		var list struct {
			WorkflowRuns []struct {
				ID        int64     `json:"id"`
				CreatedAt time.Time `json:"created_at"`
				HTMLURL   string    `json:"html_url"`
			} `json:"workflow_runs"`
		}
		if err := c.do(ctx, http.MethodGet, u, nil, &list); err != nil {
			return 0, "", err
		}
		// newest first; the first run created after the dispatch is ours
		for _, wr := range list.WorkflowRuns {
			if wr.CreatedAt.After(dispatchedAt) {
				return wr.ID, wr.HTMLURL, nil
			}
		}
	}
	return 0, "", fmt.Errorf(
		"no workflow run appeared after %d polls", c.runPollLimit,
	)
}

func (c *GitHubClient) Cancel(ctx context.Context, externalID string) error {
	if externalID == "" {
		return ErrMissingExternalID{Provider: "github"}
	}
	u := fmt.Sprintf(
		"%s/repos/%s/%s/actions/runs/%s/cancel",
		c.baseURL, c.owner, c.repo, externalID,
	)
	return c.do(ctx, http.MethodPost, u, nil, nil)
}

func (c *GitHubClient) Status(
	ctx context.Context,
	externalID string,
) (*StatusResult, error) {
	if externalID == "" {
		return nil, ErrMissingExternalID{Provider: "github"}
	}
	u := fmt.Sprintf(
		"%s/repos/%s/%s/actions/runs/%s",
		c.baseURL, c.owner, c.repo, externalID,
	)
	var run struct {
		Status     string `json:"status"`
		Conclusion string `json:"conclusion"`
		HTMLURL    string `json:"html_url"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &run); err != nil {
		return nil, err
	}
	external := run.Status
	if run.Conclusion != "" {
		external = external + "/" + run.Conclusion
	}
	return &StatusResult{
		Status:         mapGitHubStatus(run.Status, run.Conclusion),
		ExternalStatus: external,
		URL:            run.HTMLURL,
	}, nil
}

func (c *GitHubClient) do(
	ctx context.Context,
	method, u string,
	body any,
	out any,
) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return APIError{Provider: "github", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// mapGitHubStatus maps a workflow run's status/conclusion pair to the
// internal vocabulary. Unknown completed conclusions map to failed, unknown
// in-flight statuses to running.
func mapGitHubStatus(status, conclusion string) Status {
	switch status {
	case "queued":
		return StatusQueued
	case "in_progress":
		return StatusRunning
	case "completed":
		switch conclusion {
		case "success":
			return StatusSuccess
		case "failure":
			return StatusFailed
		case "cancelled":
			return StatusCancelled
		case "skipped":
			return StatusSkipped
		default:
			return StatusFailed
		}
	default:
		return StatusRunning
	}
}
