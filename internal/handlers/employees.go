package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/creditdesk/authd/internal/auth"
	"github.com/creditdesk/authd/internal/middleware/authmw"
	"github.com/creditdesk/authd/internal/models"
)

const employeeListLimit = 100

type EmployeesHandler struct {
	DB  *gorm.DB
	Svc *auth.Service
}

func (h *EmployeesHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	claims := authmw.ClaimsFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	profile, err := h.Svc.Whoami(ctx, claims.Subject)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"employee": profile})
}

func (h *EmployeesHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var employees []models.Employee
	if err := h.DB.WithContext(ctx).Limit(employeeListLimit).Find(&employees).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"employees": employees})
}
