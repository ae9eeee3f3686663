// Package provider contains the clients for external CI systems a project's
// pipeline can be delegated to. Each client implements Trigger, Cancel and
// Status against the provider's HTTP API and maps the provider's status
// vocabulary to the internal one.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped, StatusCancelled:
		return true
	}
	return false
}

type Config struct {
	// Git repository path, used to derive the provider-side project
	Repository string
	// Provider API base URL; defaulted for github/gitlab, required for jenkins
	BaseURL string
	// API token; always required
	Token string
	// API username (jenkins basic auth)
	Username string
	// Workflow file name (github)
	WorkflowFile string
	// Provider-side project id or URL-encoded path (gitlab)
	ProjectID string
	// Job name (jenkins)
	JobName string
	// Queue poll bounds (jenkins); zero values fall back to the defaults
	QueuePollLimit    int
	QueuePollInterval time.Duration
}

type TriggerParams struct {
	RunID      int64
	Branch     string
	CommitHash string
}

type TriggerResult struct {
	ExternalID  string
	ExternalURL string
}

type StatusResult struct {
	Status         Status
	ExternalStatus string
	URL            string
}

type Client interface {
	Trigger(ctx context.Context, params TriggerParams) (*TriggerResult, error)
	Cancel(ctx context.Context, externalID string) error
	Status(ctx context.Context, externalID string) (*StatusResult, error)
}

// New selects a provider client by name. Adding a provider means adding one
// implementation here, nothing else changes.
func New(name store.ProviderName, cfg Config, hc *http.Client) (Client, error) {
	switch name {
	case store.ProviderGitHub:
		return NewGitHubClient(cfg, hc)
	case store.ProviderGitLab:
		return NewGitLabClient(cfg, hc)
	case store.ProviderJenkins:
		return NewJenkinsClient(cfg, hc)
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
