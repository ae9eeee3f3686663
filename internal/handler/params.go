package handler

type ProjectParams struct {
	Slug              string  `param:"slug"    json:"slug"`
	ServerID          *int64  `json:"server_id"`
	Name              string  `json:"name"`
	Repository        string  `json:"repository"`
	Branch            string  `json:"branch"`
	Provider          string  `json:"provider"`
	ProviderBaseURL   *string `json:"provider_base_url"`
	ProviderToken     *string `json:"provider_token"`
	ProviderUsername  *string `json:"provider_username"`
	WorkflowFile      *string `json:"workflow_file"`
	ProviderProjectID *string `json:"provider_project_id"`
	JobName           *string `json:"job_name"`
}

type ScheduleParams struct {
	Slug     string  `param:"slug" json:"slug"`
	Schedule *string `json:"schedule"`
	Branch   *string `json:"branch"`
}

type TriggerRunParams struct {
	Slug       string `param:"slug" json:"slug"`
	Source     string `json:"source"`
	Branch     string `json:"branch"`
	CommitHash string `json:"commit_hash"`
}

type RunParams struct {
	RunID int64 `param:"run_id"`
}

type ListRunsParams struct {
	Slug string `param:"slug"`
	Page int64  `query:"page"`
}

type RollbackParams struct {
	Slug      string `param:"slug" json:"slug"`
	FromRunID *int64 `json:"from_run_id"`
}

type ImportStagesParams struct {
	Slug   string `param:"slug" json:"slug"`
	Script string `json:"script"`
}

type CredentialParams struct {
	CredentialID  int64  `param:"credential_id" json:"credential_id"`
	Username      string `json:"username"`
	Description   string `json:"description"`
	SSHPrivateKey string `json:"ssh_private_key"`
}

type ServerParams struct {
	ServerID           int64  `param:"server_id" json:"server_id"`
	ServerCredentialID *int64 `json:"server_credential_id"`
	Name               string `json:"name"`
	Hostname           string `json:"hostname"`
	Workspace          string `json:"workspace"`
	Description        string `json:"description"`
	OSType             string `json:"os_type"`
}
