package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"

	"github.com/MohamedRoshdi/devflow-sub024/internal/service"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/MohamedRoshdi/devflow-sub024/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxRunsPerPage int64 = 10

func SetupRunRoutes(g *echo.Group, pipelineService RunServicer) {
	h := NewRunHandler(pipelineService)
	g.POST("/projects/:slug/runs", h.PostProjectRun)
	g.GET("/projects/:slug/runs", h.GetProjectRuns)
	g.POST("/projects/:slug/rollback", h.PostProjectRollback)
	runsGroup := g.Group("/runs")
	runsGroup.GET("/:run_id", h.GetRun)
	runsGroup.GET("/:run_id/stage-runs", h.GetRunStageRuns)
	runsGroup.GET("/:run_id/sse", h.GetRunSSE)
	runsGroup.GET("/:run_id/artifacts", h.GetRunArtifacts)
	runsGroup.POST("/:run_id/cancel", h.PostCancelRun)
	runsGroup.POST("/:run_id/retry", h.PostRetryRun)
	runsGroup.DELETE("/:run_id", h.DeleteRun)
}

type RunServicer interface {
	GetProjectBySlug(ctx context.Context, slug string) (*store.Project, error)
	TriggerRun(
		ctx context.Context,
		projectID int64,
		source store.TriggerSource,
		branch, commitHash string,
	) (*store.Run, error)
	GetRunByID(ctx context.Context, runID int64) (*store.Run, error)
	ListProjectRunsPaginated(ctx context.Context, id, limit, offset int64) ([]store.Run, error)
	GetProjectRunCount(ctx context.Context, id int64) (int64, error)
	ListRunStageRuns(ctx context.Context, runID int64) ([]store.StageRun, error)
	CancelRun(ctx context.Context, runID int64) error
	RetryRun(ctx context.Context, runID int64) (*store.Run, error)
	RollbackProject(ctx context.Context, projectID int64, fromRunID *int64) (*store.Run, error)
	DeleteRun(ctx context.Context, runID int64) error
	Broadcaster() *service.Broadcaster
}

type RunHandler struct {
	pipelineService RunServicer
}

func NewRunHandler(pipelineService RunServicer) *RunHandler {
	return &RunHandler{pipelineService: pipelineService}
}

func (h *RunHandler) PostProjectRun(c echo.Context) error {
	tp := new(TriggerRunParams)
	if err := c.Bind(tp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run data")
	}

	source := store.TriggerSource(tp.Source)
	switch source {
	case store.TriggerManual, store.TriggerWebhook:
	case "":
		source = store.TriggerManual
	default:
		return newError(c, nil,
			http.StatusBadRequest, fmt.Sprintf("unknown trigger source %q", tp.Source),
		)
	}

	p, err := h.readProject(c, tp.Slug)
	if err != nil {
		return err
	}

	r, err := h.pipelineService.TriggerRun(
		c.Request().Context(), p.ProjectID, source, tp.Branch, tp.CommitHash,
	)
	if err != nil {
		var full *service.ErrRunQueueFull
		if errors.As(err, &full) {
			return newError(c, err, http.StatusTooManyRequests, "run queue is full")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to create run")
	}

	return c.JSON(http.StatusCreated, newRunResponse(r))
}

func (h *RunHandler) GetProjectRuns(c echo.Context) error {
	lrp := new(ListRunsParams)
	if err := c.Bind(lrp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid request data")
	}
	if lrp.Page < 1 {
		lrp.Page = 1
	}

	p, err := h.readProject(c, lrp.Slug)
	if err != nil {
		return err
	}

	count, err := h.pipelineService.GetProjectRunCount(c.Request().Context(), p.ProjectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(c, err, http.StatusInternalServerError, "unable to count runs")
	}

	runs, err := h.pipelineService.ListProjectRunsPaginated(
		c.Request().Context(),
		p.ProjectID,
		maxRunsPerPage,
		(lrp.Page-1)*maxRunsPerPage,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(c, err, http.StatusInternalServerError, "unable to list runs")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"runs":  newRunListResponse(runs),
		"page":  lrp.Page,
		"total": count,
	})
}

func (h *RunHandler) GetRun(c echo.Context) error {
	r, err := h.readRun(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRunResponse(r))
}

func (h *RunHandler) GetRunStageRuns(c echo.Context) error {
	r, err := h.readRun(c)
	if err != nil {
		return err
	}

	stageRuns, err := h.pipelineService.ListRunStageRuns(c.Request().Context(), r.RunID)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list stage runs")
	}
	return c.JSON(http.StatusOK, newStageRunListResponse(stageRuns))
}

func (h *RunHandler) PostCancelRun(c echo.Context) error {
	r, err := h.readRun(c)
	if err != nil {
		return err
	}

	if err := h.pipelineService.CancelRun(c.Request().Context(), r.RunID); err != nil {
		var ite store.ErrInvalidTransition
		if errors.As(err, &ite) {
			return newError(c, err, http.StatusConflict, ite.Error())
		}
		return newError(c, err, http.StatusInternalServerError, "unable to cancel run")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *RunHandler) PostRetryRun(c echo.Context) error {
	r, err := h.readRun(c)
	if err != nil {
		return err
	}

	retried, err := h.pipelineService.RetryRun(c.Request().Context(), r.RunID)
	if err != nil {
		var ite store.ErrInvalidTransition
		if errors.As(err, &ite) {
			return newError(c, err, http.StatusConflict, "run has not finished yet")
		}
		var full *service.ErrRunQueueFull
		if errors.As(err, &full) {
			return newError(c, err, http.StatusTooManyRequests, "run queue is full")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to retry run")
	}
	return c.JSON(http.StatusCreated, newRunResponse(retried))
}

func (h *RunHandler) PostProjectRollback(c echo.Context) error {
	rp := new(RollbackParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid rollback data")
	}

	p, err := h.readProject(c, rp.Slug)
	if err != nil {
		return err
	}

	r, err := h.pipelineService.RollbackProject(
		c.Request().Context(), p.ProjectID, rp.FromRunID,
	)
	if err != nil {
		var noTarget service.ErrNoRollbackTarget
		if errors.As(err, &noTarget) {
			return newError(c, err, http.StatusConflict, noTarget.Error())
		}
		var full *service.ErrRunQueueFull
		if errors.As(err, &full) {
			return newError(c, err, http.StatusTooManyRequests, "run queue is full")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to roll back project")
	}
	return c.JSON(http.StatusCreated, newRunResponse(r))
}

func (h *RunHandler) DeleteRun(c echo.Context) error {
	r, err := h.readRun(c)
	if err != nil {
		return err
	}

	if err := h.pipelineService.DeleteRun(c.Request().Context(), r.RunID); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to delete run")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RunHandler) GetRunArtifacts(c echo.Context) error {
	r, err := h.readRun(c)
	if err != nil {
		return err
	}
	if r.Artifacts == nil {
		return newError(c, nil, http.StatusNotFound, "run has no artifacts")
	}

	archive := path.Join("artifacts", fmt.Sprintf("%d.zip", r.RunID))
	if exists, _ := util.PathExists(archive); !exists {
		archive, err = util.ArchiveDirectory(*r.Artifacts)
		if err != nil {
			return newError(c, err,
				http.StatusInternalServerError, "unable to archive run artifacts",
			)
		}
	}
	return c.File(archive)
}

// GetRunSSE streams the run's status transitions and output lines as
// server-sent events until the client disconnects.
func (h *RunHandler) GetRunSSE(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid run ID")
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	b := h.pipelineService.Broadcaster()
	id := uuid.NewString()
	statusCh := b.StatusClients.AddClient(id)
	outputCh := b.OutputClients.AddClient(id)
	defer b.StatusClients.RemoveClient(id)
	defer b.OutputClients.RemoveClient(id)

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case ev := <-statusCh:
			if ev.RunID != rp.RunID {
				continue
			}
			writeSSE(w, "status", ev)
			w.Flush()
		case line := <-outputCh:
			if line.RunID != rp.RunID {
				continue
			}
			writeSSE(w, "output", line)
			w.Flush()
		}
	}
}

func writeSSE(w *echo.Response, name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("err marshaling sse payload: %+v\n", err)
		return
	}
	event := &Event{Event: []byte(name), Data: data}
	if err := event.MarshalTo(w); err != nil {
		log.Printf("err writing sse event: %+v\n", err)
	}
}

func (h *RunHandler) readProject(c echo.Context, slug string) (*store.Project, error) {
	p, err := h.pipelineService.GetProjectBySlug(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(c, err, http.StatusNotFound, "project not found")
		}
		return nil, newError(c, err,
			http.StatusInternalServerError, "unable to read project data",
		)
	}
	return p, nil
}

func (h *RunHandler) readRun(c echo.Context) (*store.Run, error) {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return nil, newError(c, err, http.StatusBadRequest, "invalid run ID")
	}

	r, err := h.pipelineService.GetRunByID(c.Request().Context(), rp.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(c, err, http.StatusNotFound, "run not found")
		}
		return nil, newError(c, err, http.StatusInternalServerError, "unable to read run data")
	}
	return r, nil
}
