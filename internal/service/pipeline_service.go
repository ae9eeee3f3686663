package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/MohamedRoshdi/devflow-sub024/internal/util"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

type PipelineService struct {
	projectStore    store.ProjectStore
	runStore        store.RunStore
	stageStore      store.StageStore
	stageRunStore   store.StageRunStore
	deploymentStore store.DeploymentStore
	scheduler       gocron.Scheduler
	orchestrator    RunExecutor
	rollback        *RollbackController
	broadcaster     *Broadcaster

	mu     sync.Mutex
	queues map[int64]*RunQueue
}

func NewPipelineService(
	projectStore store.ProjectStore,
	runStore store.RunStore,
	stageStore store.StageStore,
	stageRunStore store.StageRunStore,
	deploymentStore store.DeploymentStore,
	scheduler gocron.Scheduler,
	orchestrator RunExecutor,
	broadcaster *Broadcaster,
) *PipelineService {
	return &PipelineService{
		projectStore:    projectStore,
		runStore:        runStore,
		stageStore:      stageStore,
		stageRunStore:   stageRunStore,
		deploymentStore: deploymentStore,
		scheduler:       scheduler,
		orchestrator:    orchestrator,
		rollback:        NewRollbackController(runStore, deploymentStore),
		broadcaster:     broadcaster,
		queues:          make(map[int64]*RunQueue),
	}
}

func (s *PipelineService) Broadcaster() *Broadcaster {
	return s.broadcaster
}

func (s *PipelineService) InitializeRunQueues(ctx context.Context) error {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}

	ids := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.ProjectID
	}

	s.AddRunQueues(ids, internal.Config.QueueSize)
	s.StartRunQueues()
	return nil
}

// InitializeSchedules re-registers cron jobs for scheduled projects after a
// restart. Stored job IDs are stale by then, so each job is recreated.
func (s *PipelineService) InitializeSchedules(ctx context.Context) error {
	projects, err := s.projectStore.ListScheduledProjects(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	for _, p := range projects {
		if p.Schedule == nil || p.ScheduleBranch == nil {
			continue
		}
		jobID, err := s.ScheduleProjectRun(p.ProjectID, *p.Schedule, *p.ScheduleBranch)
		if err != nil {
			log.Printf("err scheduling project %d: %+v\n", p.ProjectID, err)
			continue
		}
		if err := s.projectStore.UpdateProjectScheduleJobID(
			ctx, p.ProjectID, jobID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *PipelineService) CreateProject(
	ctx context.Context,
	p *store.Project,
) (*store.Project, error) {
	created, err := s.projectStore.CreateProject(ctx, p)
	if err != nil {
		return nil, err
	}
	s.AddRunQueue(created.ProjectID, internal.Config.QueueSize)
	if err := s.StartRunQueue(created.ProjectID); err != nil {
		return created, err
	}
	return created, nil
}

func (s *PipelineService) GetProjectByID(
	ctx context.Context,
	projectID int64,
) (*store.Project, error) {
	return s.projectStore.ReadProjectByID(ctx, projectID)
}

func (s *PipelineService) GetProjectBySlug(
	ctx context.Context,
	slug string,
) (*store.Project, error) {
	return s.projectStore.ReadProjectBySlug(ctx, slug)
}

func (s *PipelineService) ListProjects(
	ctx context.Context,
) ([]*store.Project, error) {
	projects, err := s.projectStore.ListProjects(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return projects, nil
}

func (s *PipelineService) UpdateProject(
	ctx context.Context,
	p *store.Project,
) error {
	return s.projectStore.UpdateProject(ctx, p)
}

func (s *PipelineService) DeleteProject(
	ctx context.Context, projectID int64,
) error {
	p, err := s.projectStore.ReadProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.ScheduleJobID != nil && s.scheduler != nil {
		if err := s.scheduler.RemoveJob(uuid.MustParse(*p.ScheduleJobID)); err != nil {
			log.Println("unable to remove existing job: ", err)
		}
	}
	if err := s.projectStore.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	s.RemoveRunQueue(projectID)
	return nil
}

func (s *PipelineService) UpdateProjectSchedule(
	ctx context.Context,
	id int64,
	schedule, branch *string,
) error {
	p, err := s.projectStore.ReadProjectByID(ctx, id)
	if err != nil {
		return err
	}

	if p.ScheduleJobID != nil && s.scheduler != nil {
		if err := s.scheduler.RemoveJob(uuid.MustParse(*p.ScheduleJobID)); err != nil {
			log.Println("unable to remove existing job: ", err)
		}
	}

	if schedule == nil {
		return s.projectStore.UpdateProjectSchedule(ctx, p.ProjectID, nil, nil, nil)
	}

	if branch == nil {
		branch = util.AsPtr(p.Branch)
	}
	jobID, err := s.ScheduleProjectRun(p.ProjectID, *schedule, *branch)
	if err != nil {
		return err
	}
	return s.projectStore.UpdateProjectSchedule(ctx, p.ProjectID, schedule, branch, jobID)
}

func (s *PipelineService) ScheduleProjectRun(
	projectID int64,
	schedule, branch string,
) (*string, error) {
	if s.scheduler == nil {
		return nil, nil
	}
	job, err := s.scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() {
			if _, err := s.TriggerRun(
				context.Background(),
				projectID,
				store.TriggerSchedule,
				branch,
				"",
			); err != nil {
				log.Printf("err triggering scheduled run for project %d: %+v\n", projectID, err)
			}
		}))
	if err != nil {
		return nil, fmt.Errorf("error scheduling project job: %+w", err)
	}
	return util.AsPtr(job.ID().String()), nil
}

// TriggerRun creates a pending run and hands it to the project's queue.
// Runs of custom projects with a deploy stage also get a deployment record
// so they can be rolled back later.
func (s *PipelineService) TriggerRun(
	ctx context.Context,
	projectID int64,
	source store.TriggerSource,
	branch, commitHash string,
) (*store.Run, error) {
	p, err := s.projectStore.ReadProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if branch == "" {
		branch = p.Branch
	}

	run, err := s.runStore.CreateRun(ctx, projectID, source, branch, commitHash, nil)
	if err != nil {
		return nil, err
	}

	if deploys, err := s.projectDeploys(ctx, p); err != nil {
		return nil, err
	} else if deploys {
		deployment, err := s.deploymentStore.CreateDeployment(
			ctx, projectID, commitHash, branch, source, &run.RunID,
		)
		if err != nil {
			return nil, err
		}
		if err := s.runStore.UpdateRunDeploymentID(
			ctx, run.RunID, deployment.DeploymentID,
		); err != nil {
			return nil, err
		}
		run.DeploymentID = &deployment.DeploymentID
	}

	if err := s.EnqueueRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PipelineService) projectDeploys(
	ctx context.Context,
	p *store.Project,
) (bool, error) {
	if p.Provider != store.ProviderCustom {
		return false, nil
	}
	stages, err := s.stageStore.ListEnabledProjectStages(ctx, p.ProjectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	for _, stage := range stages {
		if stage.Phase == store.PhaseDeploy {
			return true, nil
		}
	}
	return false, nil
}

// RetryRun re-runs a finished run at the same branch and commit.
func (s *PipelineService) RetryRun(
	ctx context.Context,
	runID int64,
) (*store.Run, error) {
	old, err := s.runStore.ReadRunByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !old.Status.IsTerminal() {
		return nil, store.ErrInvalidTransition{
			From: string(old.Status),
			To:   string(store.StatusPending),
		}
	}

	run, err := s.runStore.CreateRun(
		ctx,
		old.RunProjectID,
		store.TriggerRetry,
		old.Branch,
		old.CommitHash,
		&old.RunID,
	)
	if err != nil {
		return nil, err
	}
	if err := s.EnqueueRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

// CancelRun cancels a run. An executing run gets its context cancelled; a
// queued run is marked cancelled directly and skipped when dequeued. A run
// already in a terminal status cannot be cancelled.
func (s *PipelineService) CancelRun(ctx context.Context, runID int64) error {
	run, err := s.runStore.ReadRunByID(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status.IsTerminal() {
		return store.ErrInvalidTransition{
			From: string(run.Status),
			To:   string(store.StatusCancelled),
		}
	}

	rq, ok := s.GetProjectRunQueue(run.RunProjectID)
	if ok && rq.CancelRun(runID) {
		return nil
	}

	if err := run.MarkCancelled(time.Now().UTC()); err != nil {
		return err
	}
	return s.runStore.UpdateRunEndedOn(
		ctx, run.RunID, run.Status, run.Error, run.Artifacts, run.EndedOn,
	)
}

// RollbackProject creates and enqueues a rollback run targeting the
// project's last successful deployment before fromRunID's deployment.
func (s *PipelineService) RollbackProject(
	ctx context.Context,
	projectID int64,
	fromRunID *int64,
) (*store.Run, error) {
	var fromRun *store.Run
	if fromRunID != nil {
		r, err := s.runStore.ReadRunByID(ctx, *fromRunID)
		if err != nil {
			return nil, err
		}
		fromRun = r
	}

	run, err := s.rollback.PrepareRollback(ctx, projectID, fromRun)
	if err != nil {
		return nil, err
	}
	if err := s.EnqueueRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

// ImportStages replaces the project's stage definitions with the ones in
// the YAML document.
func (s *PipelineService) ImportStages(
	ctx context.Context,
	projectID int64,
	data []byte,
) ([]*store.Stage, error) {
	script, err := ParseStageScript(data)
	if err != nil {
		return nil, err
	}

	if err := s.stageStore.DeleteProjectStages(ctx, projectID); err != nil {
		return nil, err
	}

	stages := make([]*store.Stage, 0, len(script.Stages))
	for i, ss := range script.Stages {
		stage, err := s.stageStore.CreateStage(
			ctx,
			projectID,
			ss.Name,
			store.Phase(ss.Phase),
			int64(i+1),
			ss.CommandBlock(),
			true,
			ss.ContinueOnFailure,
			ss.TimeoutSeconds,
			ss.ArtifactBlock(),
		)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func (s *PipelineService) GetRunByID(
	ctx context.Context, runID int64,
) (*store.Run, error) {
	return s.runStore.ReadRunByID(ctx, runID)
}

func (s *PipelineService) DeleteRun(
	ctx context.Context, runID int64,
) error {
	return s.runStore.DeleteRun(ctx, runID)
}

func (s *PipelineService) ListProjectRuns(
	ctx context.Context,
	projectID int64,
) ([]store.Run, error) {
	runs, err := s.runStore.ListProjectRuns(ctx, projectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return runs, nil
}

func (s *PipelineService) ListLatestProjectRuns(
	ctx context.Context,
	projectID, limit int64,
) ([]store.Run, error) {
	return s.runStore.ListLatestProjectRuns(ctx, projectID, limit)
}

func (s *PipelineService) ListProjectRunsPaginated(
	ctx context.Context,
	projectID, limit, offset int64,
) ([]store.Run, error) {
	return s.runStore.ListProjectRunsPaginated(ctx, projectID, limit, offset)
}

func (s *PipelineService) GetProjectRunCount(
	ctx context.Context, id int64,
) (int64, error) {
	return s.runStore.CountProjectRuns(ctx, id)
}

func (s *PipelineService) ListRunStageRuns(
	ctx context.Context,
	runID int64,
) ([]store.StageRun, error) {
	stageRuns, err := s.stageRunStore.ListRunStageRuns(ctx, runID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return stageRuns, nil
}

func (s *PipelineService) ListProjectStages(
	ctx context.Context,
	projectID int64,
) ([]*store.Stage, error) {
	stages, err := s.stageStore.ListProjectStages(ctx, projectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return stages, nil
}

func (s *PipelineService) ListProjectDeployments(
	ctx context.Context,
	projectID int64,
) ([]store.Deployment, error) {
	deployments, err := s.deploymentStore.ListProjectDeployments(ctx, projectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return deployments, nil
}

func (s *PipelineService) AddRunQueues(ids []int64, maxRuns int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.queues[id] = NewRunQueue(s.orchestrator, maxRuns)
	}
}

func (s *PipelineService) StartRunQueues() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queues {
		go s.queues[i].Run()
	}
}

func (s *PipelineService) AddRunQueue(id int64, maxRuns int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[id] = NewRunQueue(s.orchestrator, maxRuns)
}

func (s *PipelineService) StartRunQueue(id int64) error {
	rq, ok := s.GetProjectRunQueue(id)
	if !ok {
		return fmt.Errorf("run queue for project %d does not exist", id)
	}
	go rq.Run()
	return nil
}

func (s *PipelineService) GetProjectRunQueue(id int64) (*RunQueue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rq, ok := s.queues[id]
	return rq, ok
}

func (s *PipelineService) RemoveRunQueue(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, id)
}

func (s *PipelineService) EnqueueRun(r *store.Run) error {
	rq, ok := s.GetProjectRunQueue(r.RunProjectID)
	if !ok {
		return fmt.Errorf("run queue for project %d does not exist", r.RunProjectID)
	}
	return rq.Enqueue(r)
}

func (s *PipelineService) ShutdownAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wg sync.WaitGroup
	for _, rq := range s.queues {
		rq := rq
		wg.Add(1)
		go func() {
			defer wg.Done()
			rq.Shutdown()
		}()
	}
	wg.Wait()
}
