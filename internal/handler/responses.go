package handler

import (
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
)

type projectResponse struct {
	ProjectID         int64   `json:"project_id"`
	ServerID          *int64  `json:"server_id,omitempty"`
	Slug              string  `json:"slug"`
	Name              string  `json:"name"`
	Repository        string  `json:"repository"`
	Branch            string  `json:"branch"`
	Provider          string  `json:"provider"`
	ProviderBaseURL   *string `json:"provider_base_url,omitempty"`
	ProviderUsername  *string `json:"provider_username,omitempty"`
	WorkflowFile      *string `json:"workflow_file,omitempty"`
	ProviderProjectID *string `json:"provider_project_id,omitempty"`
	JobName           *string `json:"job_name,omitempty"`
	Schedule          *string `json:"schedule,omitempty"`
	ScheduleBranch    *string `json:"schedule_branch,omitempty"`
}

func newProjectResponse(p *store.Project) projectResponse {
	return projectResponse{
		ProjectID:         p.ProjectID,
		ServerID:          p.ProjectServerID,
		Slug:              p.Slug,
		Name:              p.Name,
		Repository:        p.Repository,
		Branch:            p.Branch,
		Provider:          string(p.Provider),
		ProviderBaseURL:   p.ProviderBaseURL,
		ProviderUsername:  p.ProviderUsername,
		WorkflowFile:      p.WorkflowFile,
		ProviderProjectID: p.ProviderProjectID,
		JobName:           p.JobName,
		Schedule:          p.Schedule,
		ScheduleBranch:    p.ScheduleBranch,
	}
}

type runResponse struct {
	RunID         int64      `json:"run_id"`
	ProjectID     int64      `json:"project_id"`
	ProjectSlug   string     `json:"project_slug,omitempty"`
	TriggerSource string     `json:"trigger_source"`
	Branch        string     `json:"branch"`
	CommitHash    string     `json:"commit_hash,omitempty"`
	Status        string     `json:"status"`
	Error         *string    `json:"error,omitempty"`
	Artifacts     *string    `json:"artifacts,omitempty"`
	ExternalID    *string    `json:"external_id,omitempty"`
	ExternalURL   *string    `json:"external_url,omitempty"`
	DeploymentID  *int64     `json:"deployment_id,omitempty"`
	PreviousRunID *int64     `json:"previous_run_id,omitempty"`
	CreatedOn     time.Time  `json:"created_on"`
	StartedOn     *time.Time `json:"started_on,omitempty"`
	EndedOn       *time.Time `json:"ended_on,omitempty"`
}

func newRunResponse(r *store.Run) runResponse {
	return runResponse{
		RunID:         r.RunID,
		ProjectID:     r.RunProjectID,
		ProjectSlug:   r.ProjectSlug,
		TriggerSource: string(r.TriggerSource),
		Branch:        r.Branch,
		CommitHash:    r.CommitHash,
		Status:        string(r.Status),
		Error:         r.Error,
		Artifacts:     r.Artifacts,
		ExternalID:    r.ExternalID,
		ExternalURL:   r.ExternalURL,
		DeploymentID:  r.DeploymentID,
		PreviousRunID: r.PreviousRunID,
		CreatedOn:     r.CreatedOn,
		StartedOn:     r.StartedOn,
		EndedOn:       r.EndedOn,
	}
}

func newRunListResponse(runs []store.Run) []runResponse {
	out := make([]runResponse, len(runs))
	for i := range runs {
		out[i] = newRunResponse(&runs[i])
	}
	return out
}

type stageRunResponse struct {
	StageRunID int64      `json:"stage_run_id"`
	RunID      int64      `json:"run_id"`
	StageID    int64      `json:"stage_id"`
	StageName  string     `json:"stage_name"`
	Status     string     `json:"status"`
	Output     *string    `json:"output,omitempty"`
	Error      *string    `json:"error,omitempty"`
	CreatedOn  time.Time  `json:"created_on"`
	StartedOn  *time.Time `json:"started_on,omitempty"`
	EndedOn    *time.Time `json:"ended_on,omitempty"`
}

func newStageRunListResponse(stageRuns []store.StageRun) []stageRunResponse {
	out := make([]stageRunResponse, len(stageRuns))
	for i, sr := range stageRuns {
		out[i] = stageRunResponse{
			StageRunID: sr.StageRunID,
			RunID:      sr.StageRunRunID,
			StageID:    sr.StageRunStageID,
			StageName:  sr.StageName,
			Status:     string(sr.Status),
			Output:     sr.Output,
			Error:      sr.Error,
			CreatedOn:  sr.CreatedOn,
			StartedOn:  sr.StartedOn,
			EndedOn:    sr.EndedOn,
		}
	}
	return out
}

type stageResponse struct {
	StageID           int64    `json:"stage_id"`
	Name              string   `json:"name"`
	Phase             string   `json:"phase"`
	Position          int64    `json:"position"`
	Commands          []string `json:"commands"`
	Enabled           bool     `json:"enabled"`
	ContinueOnFailure bool     `json:"continue_on_failure"`
	TimeoutSeconds    int64    `json:"timeout_seconds"`
	Artifacts         string   `json:"artifacts,omitempty"`
}

func newStageListResponse(stages []*store.Stage) []stageResponse {
	out := make([]stageResponse, len(stages))
	for i, s := range stages {
		out[i] = stageResponse{
			StageID:           s.StageID,
			Name:              s.Name,
			Phase:             string(s.Phase),
			Position:          s.Position,
			Commands:          s.CommandList(),
			Enabled:           s.Enabled,
			ContinueOnFailure: s.ContinueOnFailure,
			TimeoutSeconds:    s.TimeoutSeconds,
			Artifacts:         s.Artifacts,
		}
	}
	return out
}

type deploymentResponse struct {
	DeploymentID  int64     `json:"deployment_id"`
	ProjectID     int64     `json:"project_id"`
	CommitHash    string    `json:"commit_hash"`
	Branch        string    `json:"branch"`
	TriggerSource string    `json:"trigger_source"`
	Status        string    `json:"status"`
	RunID         *int64    `json:"run_id,omitempty"`
	CreatedOn     time.Time `json:"created_on"`
}

func newDeploymentListResponse(deployments []store.Deployment) []deploymentResponse {
	out := make([]deploymentResponse, len(deployments))
	for i, d := range deployments {
		out[i] = deploymentResponse{
			DeploymentID:  d.DeploymentID,
			ProjectID:     d.DeploymentProjectID,
			CommitHash:    d.CommitHash,
			Branch:        d.Branch,
			TriggerSource: string(d.TriggerSource),
			Status:        string(d.Status),
			RunID:         d.RunID,
			CreatedOn:     d.CreatedOn,
		}
	}
	return out
}

type credentialResponse struct {
	CredentialID int64  `json:"credential_id"`
	Username     string `json:"username"`
	Description  string `json:"description"`
}

func newCredentialResponse(c *store.Credential) credentialResponse {
	return credentialResponse{
		CredentialID: c.CredentialID,
		Username:     c.Username,
		Description:  c.Description,
	}
}

type serverResponse struct {
	ServerID     int64  `json:"server_id"`
	CredentialID *int64 `json:"credential_id,omitempty"`
	Name         string `json:"name"`
	Hostname     string `json:"hostname"`
	Workspace    string `json:"workspace"`
	Description  string `json:"description"`
	OSType       string `json:"os_type"`
}

func newServerResponse(s *store.Server) serverResponse {
	return serverResponse{
		ServerID:     s.ServerID,
		CredentialID: s.ServerCredentialID,
		Name:         s.Name,
		Hostname:     s.Hostname,
		Workspace:    s.Workspace,
		Description:  s.Description,
		OSType:       s.OSType,
	}
}
