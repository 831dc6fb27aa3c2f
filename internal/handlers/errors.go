package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creditdesk/authd/internal/auth"
)

// httpError translates the engine's error taxonomy into transport statuses.
// Anything outside the taxonomy is a store fault and stays a generic 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, auth.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	case errors.Is(err, auth.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrTokenNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "refresh token not found")
	case errors.Is(err, auth.ErrPrincipalNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusForbidden, "refresh token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusForbidden, "invalid refresh token")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
