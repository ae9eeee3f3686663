package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MohamedRoshdi/devflow-sub024/internal/service"
	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/MohamedRoshdi/devflow-sub024/internal/util"
	"github.com/MohamedRoshdi/devflow-sub024/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestServerHandler_PostServer(t *testing.T) {
	t.Run("success - server created", func(t *testing.T) {
		// arrange
		mockService := new(testutil.MockServerService)
		credentialID := util.AsPtr(int64(1))
		mockService.On(
			"CreateServer",
			context.Background(),
			credentialID, "web-1", "10.0.0.5", "/srv/deploy", "primary web server", "linux",
		).Return(&store.Server{
			ServerID:           1,
			ServerCredentialID: credentialID,
			Name:               "web-1",
			Hostname:           "10.0.0.5",
			Workspace:          "/srv/deploy",
			Description:        "primary web server",
			OSType:             "linux",
		}, nil)

		e := echo.New()
		req := newJSONRequest(http.MethodPost, "/api/servers", `{
			"server_credential_id": 1,
			"name": "web-1",
			"hostname": "10.0.0.5",
			"workspace": "/srv/deploy",
			"description": "primary web server",
			"os_type": "linux"
		}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewServerHandler(mockService)

		// act
		err := h.PostServer(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"hostname":"10.0.0.5"`)
	})

	t.Run("failure - missing hostname is rejected", func(t *testing.T) {
		// arrange
		mockService := new(testutil.MockServerService)
		e := echo.New()
		req := newJSONRequest(http.MethodPost, "/api/servers", `{"name":"web-1"}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewServerHandler(mockService)

		// act
		err := h.PostServer(c)

		// assert
		var httpErr *echo.HTTPError
		assert.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		mockService.AssertNotCalled(t, "CreateServer")
	})
}

func TestServerHandler_PostTestServerConnection(t *testing.T) {
	t.Run("success - connection ok", func(t *testing.T) {
		// arrange
		mockService := new(testutil.MockServerService)
		mockService.On("TestServerConnection", context.Background(), int64(1)).Return(nil)

		e := echo.New()
		req := newJSONRequest(http.MethodPost, "/api/servers/1/test-connection", "")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("server_id")
		c.SetParamValues("1")
		h := NewServerHandler(mockService)

		// act
		err := h.PostTestServerConnection(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("failure - server without credential is unprocessable", func(t *testing.T) {
		// arrange
		mockService := new(testutil.MockServerService)
		mockService.On("TestServerConnection", context.Background(), int64(1)).
			Return(service.ProjectConfigError{Message: "server has no SSH credential"})

		e := echo.New()
		req := newJSONRequest(http.MethodPost, "/api/servers/1/test-connection", "")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("server_id")
		c.SetParamValues("1")
		h := NewServerHandler(mockService)

		// act
		err := h.PostTestServerConnection(c)

		// assert
		var httpErr *echo.HTTPError
		assert.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Code)
	})
}

func TestServerHandler_DeleteServer(t *testing.T) {
	t.Run("success - server deleted", func(t *testing.T) {
		// arrange
		mockService := new(testutil.MockServerService)
		mockService.On("DeleteServer", context.Background(), int64(1)).Return(nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodDelete, "/api/servers/1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("server_id")
		c.SetParamValues("1")
		h := NewServerHandler(mockService)

		// act
		err := h.DeleteServer(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
