// Package handlers contains the handlers for the API
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stratandtax/expedientesapi/internal/service"
	"github.com/stratandtax/expedientesapi/pkg/utils/response"
	"github.com/stratandtax/expedientesapi/pkg/utils/zaplogger"
)

// SessionHandler is the handler for the session endpoints
type SessionHandler struct {
	service *service.SessionService
}

// NewSessionHandler creates a new handler for the session endpoints
func NewSessionHandler(service *service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type loginRequest struct {
	U string `json:"u" form:"u"`
	P string `json:"p" form:"p"`
}

// Login validates the credentials and issues a session token.
// A new login supersedes any previously issued token for the user.
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Invalid request body")
	}
	if req.U == "" || req.P == "" {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "`u` and `p` are required")
	}

	session, err := h.service.Login(c.Request().Context(), req.U, req.P)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return response.ErrorResponse(c, http.StatusUnauthorized, "AuthenticationException", "No autorizado")
		}
		// token generation or session store failure, not the caller's fault
		zaplogger.Error("login failed", zaplogger.Fields{
			"error": err.Error(),
		})
		return response.ErrorResponse(c, http.StatusInternalServerError, "ServerException", "Error interno al iniciar sesión.")
	}

	return response.SuccessResponse(c, map[string]string{
		"username": session.Username,
		"token":    session.Token,
	})
}

// Logout deletes the caller's session. Idempotent.
func (h *SessionHandler) Logout(c echo.Context) error {
	username, _ := c.Get("username").(string)
	if err := h.service.Logout(c.Request().Context(), username); err != nil {
		return response.ErrorResponse(c, http.StatusInternalServerError, "ServerException", err.Error())
	}
	return response.SuccessResponse(c, true)
}
