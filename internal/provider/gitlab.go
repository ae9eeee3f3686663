package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const gitlabDefaultBaseURL = "https://gitlab.com"

type GitLabClient struct {
	hc      *http.Client
	baseURL string
	token   string
	// Numeric project id or URL-encoded project path
	project string
}

func NewGitLabClient(cfg Config, hc *http.Client) (*GitLabClient, error) {
	if cfg.Token == "" {
		return nil, ConfigError{Provider: "gitlab", Message: "missing API token"}
	}
	project := cfg.ProjectID
	if project == "" {
		parsed, err := ParseGitLabProject(cfg.Repository)
		if err != nil {
			return nil, ConfigError{Provider: "gitlab", Message: err.Error()}
		}
		project = parsed
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = gitlabDefaultBaseURL
	}
	return &GitLabClient{
		hc:      hc,
		baseURL: baseURL,
		token:   cfg.Token,
		project: project,
	}, nil
}

func (c *GitLabClient) Trigger(
	ctx context.Context,
	params TriggerParams,
) (*TriggerResult, error) {
	body := map[string]any{
		"ref": params.Branch,
		"variables": []map[string]string{
			{"key": "DEVFLOW_RUN_ID", "value": strconv.FormatInt(params.RunID, 10)},
		},
	}
	u := fmt.Sprintf("%s/api/v4/projects/%s/pipeline", c.baseURL, c.project)
	var pipeline struct {
		ID     int64  `json:"id"`
		WebURL string `json:"web_url"`
	}
	if err := c.do(ctx, http.MethodPost, u, body, &pipeline); err != nil {
		return nil, err
	}
	return &TriggerResult{
		ExternalID:  strconv.FormatInt(pipeline.ID, 10),
		ExternalURL: pipeline.WebURL,
	}, nil
}

func (c *GitLabClient) Cancel(ctx context.Context, externalID string) error {
	if externalID == "" {
		return ErrMissingExternalID{Provider: "gitlab"}
	}
	u := fmt.Sprintf(
		"%s/api/v4/projects/%s/pipelines/%s/cancel",
		c.baseURL, c.project, externalID,
	)
	return c.do(ctx, http.MethodPost, u, nil, nil)
}

func (c *GitLabClient) Status(
	ctx context.Context,
	externalID string,
) (*StatusResult, error) {
	if externalID == "" {
		return nil, ErrMissingExternalID{Provider: "gitlab"}
	}
	u := fmt.Sprintf(
		"%s/api/v4/projects/%s/pipelines/%s",
		c.baseURL, c.project, externalID,
	)
	var pipeline struct {
		Status string `json:"status"`
		WebURL string `json:"web_url"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &pipeline); err != nil {
		return nil, err
	}
	return &StatusResult{
		Status:         mapGitLabStatus(pipeline.Status),
		ExternalStatus: pipeline.Status,
		URL:            pipeline.WebURL,
	}, nil
}

func (c *GitLabClient) do(
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
	req.Header.Set("PRIVATE-TOKEN", c.token)
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
		return APIError{Provider: "gitlab", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// mapGitLabStatus maps a gitlab pipeline status to the internal vocabulary.
// Unknown statuses map to running since gitlab only reports them while the
// pipeline is still in flight.
func mapGitLabStatus(status string) Status {
	switch status {
	case "success":
		return StatusSuccess
	case "failed":
		return StatusFailed
	case "canceled":
		return StatusCancelled
	case "skipped":
		return StatusSkipped
	case "pending":
		return StatusQueued
	case "running":
		return StatusRunning
	case "created", "waiting_for_resource", "preparing":
		return StatusPending
	default:
		return StatusRunning
	}
}
