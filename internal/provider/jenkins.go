package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	jenkinsQueuePollLimit    = 10
	jenkinsQueuePollInterval = 2 * time.Second
)

type JenkinsClient struct {
	hc       *http.Client
	baseURL  string
	username string
	token    string
	jobName  string

	// queue polling knobs, overridable in tests
	queuePollLimit    int
	queuePollInterval time.Duration
}

func NewJenkinsClient(cfg Config, hc *http.Client) (*JenkinsClient, error) {
	if cfg.BaseURL == "" {
		return nil, ConfigError{Provider: "jenkins", Message: "missing base URL"}
	}
	if cfg.Username == "" || cfg.Token == "" {
		return nil, ConfigError{Provider: "jenkins", Message: "missing username or API token"}
	}
	if cfg.JobName == "" {
		return nil, ConfigError{Provider: "jenkins", Message: "missing job name"}
	}
	pollLimit := cfg.QueuePollLimit
	if pollLimit <= 0 {
		pollLimit = jenkinsQueuePollLimit
	}
	pollInterval := cfg.QueuePollInterval
	if pollInterval <= 0 {
		pollInterval = jenkinsQueuePollInterval
	}
	return &JenkinsClient{
		hc:                hc,
		baseURL:           strings.TrimSuffix(cfg.BaseURL, "/"),
		username:          cfg.Username,
		token:             cfg.Token,
		jobName:           cfg.JobName,
		queuePollLimit:    pollLimit,
		queuePollInterval: pollInterval,
	}, nil
}

// Trigger starts a parameterized build and resolves the resulting build
// number by polling the queue item the Location header points at. A queue
// item cancelled before a build number appears fails the trigger.
func (c *JenkinsClient) Trigger(
	ctx context.Context,
	params TriggerParams,
) (*TriggerResult, error) {
	form := url.Values{}
	form.Set("RUN_ID", strconv.FormatInt(params.RunID, 10))
	form.Set("BRANCH", params.Branch)
	if params.CommitHash != "" {
		form.Set("COMMIT", params.CommitHash)
	}

	u := fmt.Sprintf("%s/job/%s/buildWithParameters", c.baseURL, url.PathEscape(c.jobName))
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, u,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, APIError{Provider: "jenkins", StatusCode: resp.StatusCode, Body: string(body)}
	}

	queueLocation := resp.Header.Get("Location")
	if queueLocation == "" {
		return nil, fmt.Errorf("jenkins did not return a queue location")
	}

	buildNumber, buildURL, err := c.resolveBuildNumber(ctx, queueLocation)
	if err != nil {
		return nil, err
	}
	return &TriggerResult{
		ExternalID:  strconv.FormatInt(buildNumber, 10),
		ExternalURL: buildURL,
	}, nil
}

// resolveBuildNumber polls the queue item until an executable appears,
// bounded by queuePollLimit attempts queuePollInterval apart.
func (c *JenkinsClient) resolveBuildNumber(
	ctx context.Context,
	queueLocation string,
) (int64, string, error) {
	if !strings.HasSuffix(queueLocation, "/") {
		queueLocation += "/"
	}
	u := queueLocation + "api/json"

	for attempt := 0; attempt < c.queuePollLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, "", ctx.Err()
			case <-time.After(c.queuePollInterval):
			}
		}

		var item struct {
			Cancelled  bool `json:"cancelled"`
			Executable *struct {
				Number int64  `json:"number"`
				URL    string `json:"url"`
			} `json:"executable"`
		}
		if err := c.get(ctx, u, &item); err != nil {
			return 0, "", err
		}
		if item.Cancelled {
			return 0, "", QueueCancelledError{}
		}
		if item.Executable != nil && item.Executable.Number > 0 {
			return item.Executable.Number, item.Executable.URL, nil
		}
	}
	return 0, "", fmt.Errorf(
		"no build number after %d queue polls", c.queuePollLimit,
	)
}

func (c *JenkinsClient) Cancel(ctx context.Context, externalID string) error {
	if externalID == "" {
		return ErrMissingExternalID{Provider: "jenkins"}
	}
	u := fmt.Sprintf(
		"%s/job/%s/%s/stop",
		c.baseURL, url.PathEscape(c.jobName), externalID,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return APIError{Provider: "jenkins", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *JenkinsClient) Status(
	ctx context.Context,
	externalID string,
) (*StatusResult, error) {
	if externalID == "" {
		return nil, ErrMissingExternalID{Provider: "jenkins"}
	}
	u := fmt.Sprintf(
		"%s/job/%s/%s/api/json",
		c.baseURL, url.PathEscape(c.jobName), externalID,
	)
	var build struct {
		Building bool   `json:"building"`
		Result   string `json:"result"`
		URL      string `json:"url"`
	}
	if err := c.get(ctx, u, &build); err != nil {
		return nil, err
	}
	external := build.Result
	if build.Building {
		external = "building"
	}
	return &StatusResult{
		Status:         mapJenkinsStatus(build.Building, build.Result),
		ExternalStatus: external,
		URL:            build.URL,
	}, nil
}

func (c *JenkinsClient) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return APIError{Provider: "jenkins", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.Unmarshal(body, out)
}

// mapJenkinsStatus maps a build's building flag and result to the internal
// vocabulary. An absent result on a finished build means the build is still
// queued; an unknown result maps to failed.
func mapJenkinsStatus(building bool, result string) Status {
	if building {
		return StatusRunning
	}
	switch result {
	case "SUCCESS":
		return StatusSuccess
	case "FAILURE", "UNSTABLE":
		return StatusFailed
	case "ABORTED":
		return StatusCancelled
	case "NOT_BUILT":
		return StatusSkipped
	case "":
		return StatusQueued
	default:
		return StatusFailed
	}
}
