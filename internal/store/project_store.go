package store

import (
	"context"
)

type ProviderName string

const (
	ProviderCustom  ProviderName = "custom"
	ProviderGitHub  ProviderName = "github"
	ProviderGitLab  ProviderName = "gitlab"
	ProviderJenkins ProviderName = "jenkins"
)

type Project struct {
	ProjectID       int64
	ProjectServerID *int64
	Slug            string
	Name            string
	// Git repository path, SSH or HTTPS form
	Repository string
	// Default git branch
	Branch string
	// Execution provider: custom (local over SSH) or an external CI system
	Provider ProviderName
	// Provider API base URL (GitLab/Jenkins)
	ProviderBaseURL *string
	// AES-encrypted provider API token
	ProviderTokenHash *string
	// Provider API username (Jenkins)
	ProviderUsername *string
	// Workflow file name (GitHub Actions)
	WorkflowFile *string
	// Provider-side project identifier (GitLab)
	ProviderProjectID *string
	// Job name (Jenkins)
	JobName *string
	// Schedule in cron syntax
	Schedule *string
	// Git branch for scheduled runs
	ScheduleBranch *string
	// Scheduled job ID
	ScheduleJobID *string
}

// RunData is everything the execution engine needs to run a project's
// pipeline: the project row joined with its server and credential.
type RunData struct {
	ProjectID         int64
	Slug              string
	Repository        string
	Provider          ProviderName
	ProviderBaseURL   *string
	ProviderTokenHash *string
	ProviderUsername  *string
	WorkflowFile      *string
	ProviderProjectID *string
	JobName           *string
	ServerID          *int64
	Hostname          *string
	Workspace         *string
	OSType            *string
	Username          *string
	SSHPrivateKeyHash *string

	ProviderToken string
	SSHPrivateKey []byte
}

type ProjectStore interface {
	CreateProject(context.Context, *Project) (*Project, error)
	ReadProjectByID(context.Context, int64) (*Project, error)
	ReadProjectBySlug(context.Context, string) (*Project, error)
	ReadProjectRunData(context.Context, int64) (*RunData, error)
	UpdateProject(context.Context, *Project) error
	UpdateProjectSchedule(context.Context, int64, *string, *string, *string) error
	UpdateProjectScheduleJobID(context.Context, int64, *string) error
	DeleteProject(context.Context, int64) error
	ListProjects(context.Context) ([]*Project, error)
	ListScheduledProjects(context.Context) ([]*Project, error)
}
