package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/MohamedRoshdi/devflow-sub024/internal/service"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/labstack/echo/v4"
)

func SetupServerRoutes(g *echo.Group, serverService service.ServerServicer) {
	h := NewServerHandler(serverService)
	serversGroup := g.Group("/servers")
	serversGroup.GET("", h.GetServers)
	serversGroup.POST("", h.PostServer)
	serversGroup.GET("/:server_id", h.GetServer)
	serversGroup.PATCH("/:server_id", h.PatchServer)
	serversGroup.DELETE("/:server_id", h.DeleteServer)
	serversGroup.POST("/:server_id/test-connection", h.PostTestServerConnection)
}

type ServerHandler struct {
	serverService service.ServerServicer
}

func NewServerHandler(serverService service.ServerServicer) *ServerHandler {
	return &ServerHandler{serverService}
}

func (h *ServerHandler) GetServers(c echo.Context) error {
	servers, err := h.serverService.ListServers(c.Request().Context())
	if err != nil {
		return newError(c, err,
			http.StatusInternalServerError, "something went wrong while listing servers",
		)
	}

	out := make([]serverResponse, len(servers))
	for i, s := range servers {
		out[i] = newServerResponse(s)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ServerHandler) GetServer(c echo.Context) error {
	sp := new(ServerParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid server data")
	}

	server, err := h.serverService.GetServerByID(c.Request().Context(), sp.ServerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "server not found")
		}
		return newError(c, err,
			http.StatusInternalServerError,
			"something went wrong while getting server data",
		)
	}

	return c.JSON(http.StatusOK, newServerResponse(server))
}

func (h *ServerHandler) PostServer(c echo.Context) error {
	sp := new(ServerParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid server data")
	}

	sp.Name = strings.TrimSpace(sp.Name)
	sp.Hostname = strings.TrimSpace(sp.Hostname)
	if sp.Name == "" || sp.Hostname == "" {
		return newError(c, nil, http.StatusBadRequest, "name and hostname are required")
	}

	server, err := h.serverService.CreateServer(
		c.Request().Context(),
		sp.ServerCredentialID,
		sp.Name,
		sp.Hostname,
		sp.Workspace,
		sp.Description,
		sp.OSType,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(c, err,
				http.StatusConflict, "a server with that name already exists",
			)
		}
		return newError(c, err, http.StatusInternalServerError, "unable to create server")
	}

	return c.JSON(http.StatusCreated, newServerResponse(server))
}

func (h *ServerHandler) PatchServer(c echo.Context) error {
	sp := new(ServerParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid server data")
	}

	server := &store.Server{
		ServerID:           sp.ServerID,
		ServerCredentialID: sp.ServerCredentialID,
		Name:               strings.TrimSpace(sp.Name),
		Hostname:           strings.TrimSpace(sp.Hostname),
		Workspace:          sp.Workspace,
		Description:        sp.Description,
		OSType:             sp.OSType,
	}
	if err := h.serverService.UpdateServer(c.Request().Context(), server); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "server not found")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to update server")
	}

	return c.JSON(http.StatusOK, newServerResponse(server))
}

func (h *ServerHandler) DeleteServer(c echo.Context) error {
	sp := new(ServerParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid server data")
	}

	if err := h.serverService.DeleteServer(
		c.Request().Context(), sp.ServerID,
	); err != nil {
		if isForeignKeyConstraintError(err) {
			return newError(c, err, http.StatusConflict, "server is in use")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to delete server")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ServerHandler) PostTestServerConnection(c echo.Context) error {
	sp := new(ServerParams)
	if err := c.Bind(sp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid server data")
	}

	if err := h.serverService.TestServerConnection(
		c.Request().Context(), sp.ServerID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "server not found")
		}
		var cfgErr service.ProjectConfigError
		if errors.As(err, &cfgErr) {
			return newError(c, err, http.StatusUnprocessableEntity, cfgErr.Message)
		}
		return newError(c, err, http.StatusBadGateway, "server connection failed")
	}

	return c.NoContent(http.StatusNoContent)
}
