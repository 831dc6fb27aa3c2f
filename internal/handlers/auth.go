package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/creditdesk/authd/internal/auth"
	"github.com/creditdesk/authd/internal/logging"
	"github.com/creditdesk/authd/internal/middleware/authmw"
	"github.com/creditdesk/authd/internal/mykafka"
)

// AuthHandler serves one principal kind's auth flows; the router mounts one
// instance for users and one for employees.
type AuthHandler struct {
	Svc        *auth.Service
	Producer   *mykafka.Producer
	EventTopic string
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register", "kind", h.Svc.Kind)

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.Svc.Register(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":  fmt.Sprintf("%s_registered", h.Svc.Kind),
		"email": auth.NormalizeEmail(req.Email),
	})

	return c.JSON(http.StatusCreated, pair)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login", "kind", h.Svc.Kind)

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":  fmt.Sprintf("%s_logged_in", h.Svc.Kind),
		"email": auth.NormalizeEmail(req.Email),
	})

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHandler) Whoami(c echo.Context) error {
	ctx := c.Request().Context()

	claims := authmw.ClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	profile, err := h.Svc.Whoami(ctx, claims.Subject)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"user": profile})
}

// publish is best effort: an event that cannot be delivered is logged and
// never fails the auth flow.
func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key, _ := event["email"].(string)
	if err := h.Producer.PublishEvent(ctx, h.EventTopic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
