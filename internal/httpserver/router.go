package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creditdesk/authd/internal/handlers"
	"github.com/creditdesk/authd/internal/middleware/authmw"
)

type Deps struct {
	UserAuth      *handlers.AuthHandler
	EmployeeAuth  *handlers.AuthHandler
	Employees     *handlers.EmployeesHandler
	Clients       *handlers.ClientsHandler
	UserGuard     *authmw.Guard
	EmployeeGuard *authmw.Guard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", d.UserAuth.Register)
	authGroup.POST("/login", d.UserAuth.Login)
	authGroup.POST("/token/refresh", d.UserAuth.Refresh)
	authGroup.POST("/logout", d.UserAuth.Logout)
	authGroup.GET("/whoami", d.UserAuth.Whoami, d.UserGuard.Require())

	empAuth := v1.Group("/employee-auth")
	empAuth.POST("/register", d.EmployeeAuth.Register)
	empAuth.POST("/login", d.EmployeeAuth.Login)
	empAuth.POST("/token/refresh", d.EmployeeAuth.Refresh)
	empAuth.POST("/logout", d.EmployeeAuth.Logout)
	empAuth.GET("/whoami", d.EmployeeAuth.Whoami, d.EmployeeGuard.Require())

	employees := v1.Group("/employees")
	employees.GET("/me", d.Employees.Me, d.EmployeeGuard.Require())
	employees.GET("", d.Employees.List, d.EmployeeGuard.Require("admin", "hr"))

	clients := v1.Group("/clients", d.UserGuard.Require())
	clients.POST("", d.Clients.Create)
	clients.GET("", d.Clients.List)
	clients.GET("/search", d.Clients.Search)
	clients.GET("/:id", d.Clients.Get)
	clients.PUT("/:id", d.Clients.Update)
	clients.PATCH("/:id", d.Clients.Patch)
	clients.DELETE("/:id", d.Clients.Delete)
}
