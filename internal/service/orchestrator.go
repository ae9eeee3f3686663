package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal"
	"github.com/MohamedRoshdi/devflow-sub024/internal/provider"
	"github.com/MohamedRoshdi/devflow-sub024/internal/security"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
)

// ArtifactCollector copies a run's declared artifact paths off the target
// host once the stages have finished.
type ArtifactCollector interface {
	Collect(
		ctx context.Context,
		target Target,
		projectDir string,
		patterns []string,
		runID int64,
	) (string, error)
}

type ProviderFactory func(
	name store.ProviderName,
	cfg provider.Config,
	hc *http.Client,
) (provider.Client, error)

func NewOrchestrator(
	projects store.ProjectStore,
	runs store.RunStore,
	stages store.StageStore,
	stageRuns store.StageRunStore,
	deployments store.DeploymentStore,
	executor StageExecutor,
	broadcaster *Broadcaster,
	httpClient *http.Client,
	aesEncrypter security.Encrypter,
) *Orchestrator {
	return &Orchestrator{
		projects:     projects,
		runs:         runs,
		stages:       stages,
		stageRuns:    stageRuns,
		deployments:  deployments,
		executor:     executor,
		broadcaster:  broadcaster,
		httpClient:   httpClient,
		aesEncrypter: aesEncrypter,
		newProvider:  provider.New,
		pollInterval: time.Duration(internal.Config.ExternalPollSeconds),
	}
}

// Orchestrator drives one run from pending to a terminal status: locally
// over SSH for custom projects, through a CI provider API otherwise.
type Orchestrator struct {
	projects     store.ProjectStore
	runs         store.RunStore
	stages       store.StageStore
	stageRuns    store.StageRunStore
	deployments  store.DeploymentStore
	executor     StageExecutor
	broadcaster  *Broadcaster
	httpClient   *http.Client
	aesEncrypter security.Encrypter
	artifacts    ArtifactCollector

	newProvider  ProviderFactory
	pollInterval time.Duration
}

func (o *Orchestrator) WithArtifactCollector(ac ArtifactCollector) *Orchestrator {
	o.artifacts = ac
	return o
}

// Execute runs the pipeline for run and always leaves it in a terminal
// status, panics included.
func (o *Orchestrator) Execute(ctx context.Context, run *store.Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run %d panicked: %v", run.RunID, r)
			o.finishRun(run, err)
		}
	}()

	// the run may have been cancelled while it sat in the queue
	if fresh, err := o.runs.ReadRunByID(ctx, run.RunID); err == nil {
		*run = *fresh
	}
	if run.Status.IsTerminal() {
		return nil
	}

	rd, err := o.getRunData(ctx, run.RunProjectID)
	if err != nil {
		o.finishRun(run, err)
		return err
	}

	now := time.Now().UTC()
	if err := run.MarkRunning(now); err != nil {
		return err
	}
	if err := o.runs.UpdateRunStartedOn(
		context.Background(), run.RunID, run.Status, run.StartedOn,
	); err != nil {
		o.finishRun(run, err)
		return err
	}
	o.publishRun(run, 0, "")

	if rd.Provider == store.ProviderCustom {
		err = o.executeLocal(ctx, run, rd)
	} else {
		err = o.executeExternal(ctx, run, rd)
	}
	o.finishRun(run, err)
	return err
}

// getRunData reads the project's execution data and decrypts the stored
// SSH private key and provider token.
func (o *Orchestrator) getRunData(ctx context.Context, projectID int64) (*store.RunData, error) {
	rd, err := o.projects.ReadProjectRunData(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if rd.SSHPrivateKeyHash != nil {
		privateKey, err := o.aesEncrypter.DecryptAES(*rd.SSHPrivateKeyHash)
		if err != nil {
			return nil, err
		}
		rd.SSHPrivateKey = privateKey
	}
	if rd.ProviderTokenHash != nil {
		token, err := o.aesEncrypter.DecryptAES(*rd.ProviderTokenHash)
		if err != nil {
			return nil, err
		}
		rd.ProviderToken = string(token)
	}
	return rd, nil
}

// finishRun moves a non-terminal run to its terminal status and persists it.
// Cancellation wins over failure; everything else that errored is a failure.
func (o *Orchestrator) finishRun(run *store.Run, execErr error) {
	if run.Status.IsTerminal() {
		return
	}
	now := time.Now().UTC()
	var rce RunCancelError
	switch {
	case execErr == nil:
		run.MarkSuccess(now)
	case errors.As(execErr, &rce):
		run.MarkCancelled(now)
	default:
		run.MarkFailed(now, execErr.Error())
	}

	if err := o.runs.UpdateRunEndedOn(
		context.Background(),
		run.RunID,
		run.Status,
		run.Error,
		run.Artifacts,
		run.EndedOn,
	); err != nil {
		log.Printf("err updating run %d ended on: %+v\n", run.RunID, err)
	}

	if run.DeploymentID != nil {
		status := store.DeploymentFailed
		if run.Status == store.StatusSuccess {
			status = store.DeploymentSuccess
		}
		if err := o.deployments.UpdateDeploymentStatus(
			context.Background(), *run.DeploymentID, status,
		); err != nil {
			log.Printf("err updating deployment %d status: %+v\n", *run.DeploymentID, err)
		}
	}

	progress := 0
	if run.Status == store.StatusSuccess {
		progress = 100
	}
	message := ""
	if run.Error != nil {
		message = *run.Error
	}
	o.publishRun(run, progress, message)
}

func (o *Orchestrator) publishRun(run *store.Run, progress int, message string) {
	o.broadcaster.Publish(ProgressEvent{
		RunID:    run.RunID,
		Status:   string(run.Status),
		Message:  message,
		Progress: progress,
	})
}

func (o *Orchestrator) publishStage(run *store.Run, sr *store.StageRun, progress int) {
	o.broadcaster.Publish(ProgressEvent{
		RunID:      run.RunID,
		StageRunID: &sr.StageRunID,
		StageName:  sr.StageName,
		Status:     string(sr.Status),
		Progress:   progress,
	})
}

func (o *Orchestrator) executeLocal(
	ctx context.Context,
	run *store.Run,
	rd *store.RunData,
) error {
	if rd.Hostname == nil || rd.Username == nil || rd.Workspace == nil {
		return ProjectConfigError{Message: "project has no server assigned"}
	}
	if len(rd.SSHPrivateKey) == 0 {
		return ProjectConfigError{Message: "project's server has no SSH credential"}
	}

	stages, err := o.stages.ListEnabledProjectStages(ctx, run.RunProjectID)
	if err != nil {
		return err
	}
	stages = orderStagesByPhase(stages)
	total := len(stages)
	if total == 0 {
		return nil
	}

	target := Target{
		Hostname:   *rd.Hostname,
		Username:   *rd.Username,
		PrivateKey: rd.SSHPrivateKey,
	}
	sess, err := o.executor.Open(ctx, target)
	if err != nil {
		return err
	}
	defer sess.Close()

	workdir := time.Now().UTC().Format(internal.RunDirLayout)
	projectDir, err := sess.PrepareWorkspace(
		ctx,
		rd.Repository, *rd.Workspace, workdir, run.Branch, run.CommitHash,
		func(line string) {
			if err := o.runs.AppendRunOutput(ctx, run.RunID, line+"\n"); err != nil {
				log.Printf("err appending run output: %+v\n", err)
			}
		},
	)
	if err != nil {
		return err
	}

	completed := 0
	var firstErr, softErr error
	for _, stage := range stages {
		sr, err := o.stageRuns.CreateStageRun(ctx, run.RunID, stage.StageID, stage.Name)
		if err != nil {
			return err
		}

		// a stopping failure leaves the rest of the pipeline skipped
		if firstErr != nil {
			sr.MarkSkipped(time.Now().UTC())
			o.persistStageRun(sr)
			completed++
			o.publishStage(run, sr, completed*100/total)
			continue
		}

		sr.MarkRunning(time.Now().UTC())
		o.persistStageRun(sr)
		o.publishStage(run, sr, completed*100/total)

		sink := func(line string) {
			if err := o.stageRuns.AppendStageRunOutput(
				ctx, sr.StageRunID, line+"\n",
			); err != nil {
				log.Printf("err appending stage run output: %+v\n", err)
			}
			o.broadcaster.PublishOutput(OutputLine{
				RunID:      run.RunID,
				StageRunID: sr.StageRunID,
				StageName:  sr.StageName,
				Line:       line,
			})
		}

		stageErr := sess.ExecuteStage(ctx, stage, projectDir, sink)
		now := time.Now().UTC()
		var rce RunCancelError
		switch {
		case stageErr == nil:
			sr.MarkSuccess(now)
		case errors.As(stageErr, &rce):
			sr.MarkCancelled(now)
			o.persistStageRun(sr)
			o.publishStage(run, sr, completed*100/total)
			return stageErr
		default:
			sr.MarkFailed(now, stageErr.Error())
			if stage.ContinueOnFailure {
				// later stages still run, only the final status is failed
				if softErr == nil {
					softErr = stageErr
				}
			} else {
				firstErr = stageErr
			}
		}
		completed++
		o.persistStageRun(sr)
		o.publishStage(run, sr, completed*100/total)
	}
	if firstErr == nil {
		firstErr = softErr
	}

	if o.artifacts != nil {
		patterns := artifactPatterns(stages)
		if len(patterns) > 0 {
			dest, err := o.artifacts.Collect(ctx, target, projectDir, patterns, run.RunID)
			if err != nil {
				log.Printf("err collecting artifacts for run %d: %+v\n", run.RunID, err)
			} else {
				run.Artifacts = &dest
			}
		}
	}

	return firstErr
}

func (o *Orchestrator) persistStageRun(sr *store.StageRun) {
	if err := o.stageRuns.UpdateStageRunStatus(context.Background(), sr); err != nil {
		log.Printf("err updating stage run %d status: %+v\n", sr.StageRunID, err)
	}
}

func (o *Orchestrator) executeExternal(
	ctx context.Context,
	run *store.Run,
	rd *store.RunData,
) error {
	cfg := provider.Config{
		Repository: rd.Repository,
		Token:      rd.ProviderToken,
	}
	if rd.ProviderBaseURL != nil {
		cfg.BaseURL = *rd.ProviderBaseURL
	}
	if rd.ProviderUsername != nil {
		cfg.Username = *rd.ProviderUsername
	}
	if rd.WorkflowFile != nil {
		cfg.WorkflowFile = *rd.WorkflowFile
	}
	if rd.ProviderProjectID != nil {
		cfg.ProjectID = *rd.ProviderProjectID
	}
	if rd.JobName != nil {
		cfg.JobName = *rd.JobName
	}
	cfg.QueuePollLimit = internal.Config.JenkinsQueuePollLimit
	cfg.QueuePollInterval = time.Duration(internal.Config.JenkinsQueuePollSeconds)

	client, err := o.newProvider(rd.Provider, cfg, o.httpClient)
	if err != nil {
		return err
	}

	res, err := client.Trigger(ctx, provider.TriggerParams{
		RunID:      run.RunID,
		Branch:     run.Branch,
		CommitHash: run.CommitHash,
	})
	if err != nil {
		return err
	}
	run.ExternalID = &res.ExternalID
	if res.ExternalURL != "" {
		run.ExternalURL = &res.ExternalURL
	}
	if err := o.runs.UpdateRunExternal(
		ctx, run.RunID, run.ExternalID, run.ExternalURL,
	); err != nil {
		return err
	}
	o.publishRun(run, 0, fmt.Sprintf("triggered %s pipeline %s", rd.Provider, res.ExternalID))

	return o.pollExternal(ctx, run, client, res.ExternalID)
}

// pollExternal watches the remote pipeline until it reaches a terminal
// status. Cancelling the local run sends a best-effort cancel upstream and
// the run is marked cancelled whether or not the provider acknowledged it.
func (o *Orchestrator) pollExternal(
	ctx context.Context,
	run *store.Run,
	client provider.Client,
	externalID string,
) error {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	pollErrors := 0
	for {
		select {
		case <-ctx.Done():
			cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := client.Cancel(cancelCtx, externalID); err != nil {
				log.Printf("err cancelling external pipeline %s: %+v\n", externalID, err)
			}
			cancel()
			return RunCancelError{Message: "run cancelled by user"}
		case <-ticker.C:
			st, err := client.Status(ctx, externalID)
			if err != nil {
				pollErrors++
				if pollErrors >= 5 {
					return fmt.Errorf("err polling external pipeline status: %+w", err)
				}
				log.Printf("err polling external pipeline %s: %+v\n", externalID, err)
				continue
			}
			pollErrors = 0

			if !st.Status.IsTerminal() {
				continue
			}
			switch st.Status {
			case provider.StatusSuccess:
				return nil
			case provider.StatusCancelled:
				return RunCancelError{
					Message: fmt.Sprintf("external pipeline %s was cancelled", externalID),
				}
			default:
				return fmt.Errorf(
					"external pipeline %s finished with status %q",
					externalID,
					st.ExternalStatus,
				)
			}
		}
	}
}

// orderStagesByPhase sorts stages into phase execution order, keeping the
// stored position order within each phase.
func orderStagesByPhase(stages []*store.Stage) []*store.Stage {
	ordered := make([]*store.Stage, 0, len(stages))
	for _, phase := range store.PhaseOrder {
		for _, stage := range stages {
			if stage.Phase == phase {
				ordered = append(ordered, stage)
			}
		}
	}
	return ordered
}

func artifactPatterns(stages []*store.Stage) []string {
	patterns := []string{}
	for _, stage := range stages {
		for _, line := range strings.Split(stage.Artifacts, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				patterns = append(patterns, line)
			}
		}
	}
	return patterns
}
