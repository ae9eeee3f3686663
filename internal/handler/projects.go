package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MohamedRoshdi/devflow-sub024/internal/security"
	"github.com/MohamedRoshdi/devflow-sub024/internal/service"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/labstack/echo/v4"
)

func SetupProjectRoutes(
	g *echo.Group,
	pipelineService ProjectServicer,
	encrypter security.Encrypter,
) {
	h := NewProjectHandler(pipelineService, encrypter)
	projectsGroup := g.Group("/projects")
	projectsGroup.GET("", h.GetProjects)
	projectsGroup.POST("", h.PostProject)
	projectsGroup.GET("/:slug", h.GetProject)
	projectsGroup.PATCH("/:slug", h.PatchProject)
	projectsGroup.DELETE("/:slug", h.DeleteProject)
	projectsGroup.PATCH("/:slug/schedule", h.PatchProjectSchedule)
	projectsGroup.GET("/:slug/stages", h.GetProjectStages)
	projectsGroup.POST("/:slug/stages/import", h.PostImportStages)
	projectsGroup.GET("/:slug/deployments", h.GetProjectDeployments)
}

type ProjectWriter interface {
	CreateProject(ctx context.Context, p *store.Project) (*store.Project, error)
	UpdateProject(ctx context.Context, p *store.Project) error
	UpdateProjectSchedule(ctx context.Context, id int64, schedule, branch *string) error
	DeleteProject(ctx context.Context, projectID int64) error
}

type ProjectReader interface {
	GetProjectByID(ctx context.Context, projectID int64) (*store.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*store.Project, error)
	ListProjects(ctx context.Context) ([]*store.Project, error)
}

type StageServicer interface {
	ListProjectStages(ctx context.Context, projectID int64) ([]*store.Stage, error)
	ImportStages(ctx context.Context, projectID int64, data []byte) ([]*store.Stage, error)
}

type DeploymentReader interface {
	ListProjectDeployments(ctx context.Context, projectID int64) ([]store.Deployment, error)
}

type ProjectServicer interface {
	ProjectWriter
	ProjectReader
	StageServicer
	DeploymentReader
}

type ProjectHandler struct {
	pipelineService ProjectServicer
	encrypter       security.Encrypter
}

func NewProjectHandler(
	pipelineService ProjectServicer,
	encrypter security.Encrypter,
) *ProjectHandler {
	return &ProjectHandler{
		pipelineService: pipelineService,
		encrypter:       encrypter,
	}
}

func (h *ProjectHandler) GetProjects(c echo.Context) error {
	projects, err := h.pipelineService.ListProjects(c.Request().Context())
	if err != nil {
		return newError(c, err,
			http.StatusInternalServerError, "something went wrong listing projects",
		)
	}

	out := make([]projectResponse, len(projects))
	for i, p := range projects {
		out[i] = newProjectResponse(p)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProjectHandler) PostProject(c echo.Context) error {
	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid project data")
	}

	p, err := h.projectFromParams(pp)
	if err != nil {
		return newError(c, err, http.StatusBadRequest, err.Error())
	}

	created, err := h.pipelineService.CreateProject(c.Request().Context(), p)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(c, err,
				http.StatusConflict,
				fmt.Sprintf("a project with the slug %s already exists", pp.Slug),
			)
		}
		return newError(c, err, http.StatusInternalServerError, "unable to create project")
	}

	return c.JSON(http.StatusCreated, newProjectResponse(created))
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	p, err := h.readProject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newProjectResponse(p))
}

func (h *ProjectHandler) PatchProject(c echo.Context) error {
	p, err := h.readProject(c)
	if err != nil {
		return err
	}

	pp := new(ProjectParams)
	if err := c.Bind(pp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid project data")
	}

	updated, err := h.projectFromParams(pp)
	if err != nil {
		return newError(c, err, http.StatusBadRequest, err.Error())
	}
	updated.ProjectID = p.ProjectID
	updated.Slug = p.Slug
	if updated.ProviderTokenHash == nil {
		updated.ProviderTokenHash = p.ProviderTokenHash
	}

	if err := h.pipelineService.UpdateProject(c.Request().Context(), updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "project not found")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to update project")
	}

	return c.JSON(http.StatusOK, newProjectResponse(updated))
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	p, err := h.readProject(c)
	if err != nil {
		return err
	}

	if err := h.pipelineService.DeleteProject(
		c.Request().Context(), p.ProjectID,
	); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to delete project")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) PatchProjectSchedule(c echo.Context) error {
	p, err := h.readProject(c)
	if err != nil {
		return err
	}

	sp := new(ScheduleParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid schedule data")
	}

	if err := h.pipelineService.UpdateProjectSchedule(
		c.Request().Context(), p.ProjectID, sp.Schedule, sp.Branch,
	); err != nil {
		return newError(c, err,
			http.StatusInternalServerError, "unable to update project schedule",
		)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) GetProjectStages(c echo.Context) error {
	p, err := h.readProject(c)
	if err != nil {
		return err
	}

	stages, err := h.pipelineService.ListProjectStages(c.Request().Context(), p.ProjectID)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list stages")
	}
	return c.JSON(http.StatusOK, newStageListResponse(stages))
}

func (h *ProjectHandler) PostImportStages(c echo.Context) error {
	p, err := h.readProject(c)
	if err != nil {
		return err
	}

	ip := new(ImportStagesParams)
	if err := c.Bind(ip); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid stage script")
	}

	stages, err := h.pipelineService.ImportStages(
		c.Request().Context(), p.ProjectID, []byte(ip.Script),
	)
	if err != nil {
		var cfgErr service.ProjectConfigError
		if errors.As(err, &cfgErr) {
			return newError(c, err, http.StatusUnprocessableEntity, cfgErr.Message)
		}
		return newError(c, err, http.StatusInternalServerError, "unable to import stages")
	}
	return c.JSON(http.StatusCreated, newStageListResponse(stages))
}

func (h *ProjectHandler) GetProjectDeployments(c echo.Context) error {
	p, err := h.readProject(c)
	if err != nil {
		return err
	}

	deployments, err := h.pipelineService.ListProjectDeployments(
		c.Request().Context(), p.ProjectID,
	)
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list deployments")
	}
	return c.JSON(http.StatusOK, newDeploymentListResponse(deployments))
}

func (h *ProjectHandler) readProject(c echo.Context) (*store.Project, error) {
	slug := c.Param("slug")
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

func (h *ProjectHandler) projectFromParams(pp *ProjectParams) (*store.Project, error) {
	pp.Slug = strings.TrimSpace(pp.Slug)
	pp.Name = strings.TrimSpace(pp.Name)
	pp.Repository = strings.TrimSpace(pp.Repository)
	if pp.Slug == "" || pp.Name == "" || pp.Repository == "" {
		return nil, errors.New("slug, name and repository are required")
	}

	provider := store.ProviderName(pp.Provider)
	switch provider {
	case store.ProviderCustom, store.ProviderGitHub, store.ProviderGitLab, store.ProviderJenkins:
	default:
		return nil, fmt.Errorf("unknown provider %q", pp.Provider)
	}

	if pp.Branch == "" {
		pp.Branch = "main"
	}

	p := &store.Project{
		ProjectServerID:   pp.ServerID,
		Slug:              pp.Slug,
		Name:              pp.Name,
		Repository:        pp.Repository,
		Branch:            pp.Branch,
		Provider:          provider,
		ProviderBaseURL:   pp.ProviderBaseURL,
		ProviderUsername:  pp.ProviderUsername,
		WorkflowFile:      pp.WorkflowFile,
		ProviderProjectID: pp.ProviderProjectID,
		JobName:           pp.JobName,
	}
	if pp.ProviderToken != nil && *pp.ProviderToken != "" {
		hash := h.encrypter.EncryptAES(*pp.ProviderToken)
		p.ProviderTokenHash = &hash
	}
	return p, nil
}
