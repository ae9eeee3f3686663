package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/MohamedRoshdi/devflow-sub024/internal/service"
	"github.com/labstack/echo/v4"
)

func SetupCredentialRoutes(g *echo.Group, credentialService service.CredentialServicer) {
	h := NewCredentialHandler(credentialService)
	credentialsGroup := g.Group("/credentials")
	credentialsGroup.GET("", h.GetCredentials)
	credentialsGroup.POST("", h.PostCredential)
	credentialsGroup.GET("/:credential_id", h.GetCredential)
	credentialsGroup.PATCH("/:credential_id", h.PatchCredential)
	credentialsGroup.DELETE("/:credential_id", h.DeleteCredential)
}

type CredentialHandler struct {
	credentialService service.CredentialServicer
}

func NewCredentialHandler(credentialService service.CredentialServicer) *CredentialHandler {
	return &CredentialHandler{credentialService}
}

func (h *CredentialHandler) GetCredentials(c echo.Context) error {
	credentials, err := h.credentialService.ListCredentials(c.Request().Context())
	if err != nil {
		return newError(c, err,
			http.StatusInternalServerError,
			"something went wrong while listing credentials",
		)
	}

	out := make([]credentialResponse, len(credentials))
	for i, cred := range credentials {
		out[i] = newCredentialResponse(cred)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CredentialHandler) GetCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid credential data")
	}

	credential, err := h.credentialService.GetCredentialByID(
		c.Request().Context(), cp.CredentialID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "credential not found")
		}
		return newError(c, err,
			http.StatusInternalServerError,
			"something went wrong while getting credential data",
		)
	}

	return c.JSON(http.StatusOK, newCredentialResponse(credential))
}

func (h *CredentialHandler) PostCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid credential data")
	}
	if cp.Username == "" || cp.SSHPrivateKey == "" {
		return newError(c, nil,
			http.StatusBadRequest, "username and ssh_private_key are required",
		)
	}

	credential, err := h.credentialService.CreateCredential(
		c.Request().Context(), cp.Username, cp.Description, cp.SSHPrivateKey,
	)
	if err != nil {
		return newError(c, err,
			http.StatusInternalServerError,
			"something went wrong when creating new credentials",
		)
	}

	return c.JSON(http.StatusCreated, newCredentialResponse(credential))
}

func (h *CredentialHandler) PatchCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid credential data")
	}

	err := h.credentialService.UpdateCredential(
		c.Request().Context(),
		cp.CredentialID,
		strings.TrimSpace(cp.Username),
		strings.TrimSpace(cp.Description),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "credential not found")
		}
		return newError(c, err,
			http.StatusInternalServerError,
			"something went wrong while updating credential",
		)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CredentialHandler) DeleteCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid credential data")
	}
	if cp.CredentialID == 0 {
		return newError(c, errors.New("credential id was zero"),
			http.StatusBadRequest, "invalid credential ID",
		)
	}

	if err := h.credentialService.DeleteCredential(
		c.Request().Context(), cp.CredentialID,
	); err != nil {
		if isForeignKeyConstraintError(err) {
			return newError(c, err, http.StatusConflict, "credential is in use")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to delete credential")
	}

	return c.NoContent(http.StatusNoContent)
}
