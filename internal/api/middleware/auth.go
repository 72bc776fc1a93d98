package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/stratandtax/expedientesapi/internal/service"
	"github.com/stratandtax/expedientesapi/pkg/utils/response"
)

// AuthMiddleware gates protected routes behind an active session.
// The Authorization header carries `username:token`; validation runs before
// any handler side effect and refreshes the session's last access time.
func AuthMiddleware(sessionService *service.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				return response.ErrorResponse(c, http.StatusUnauthorized, "AuthorizationException", "Missing Authorization header")
			}

			parts := strings.SplitN(auth, ":", 2)
			if len(parts) != 2 {
				return response.ErrorResponse(c, http.StatusUnauthorized, "AuthorizationException", "Invalid Authorization header format")
			}

			username, token := parts[0], parts[1]
			if err := sessionService.Validate(c.Request().Context(), username, token); err != nil {
				return response.ErrorResponse(c, http.StatusUnauthorized, "AuthorizationException", "Invalid or expired session")
			}

			// Session identity for use in handlers
			c.Set("username", username)

			return next(c)
		}
	}
}
