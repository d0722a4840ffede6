package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/auth"
	"github.com/Skotchmaster/task_manager/internal/db"
)

type Deps struct {
	AuthHandler *AuthHTTP
	TaskHandler *TaskHTTP
	Gate        *auth.Gate
	DB          *gorm.DB
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Backend started"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx, d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	e.POST("/users", d.AuthHandler.Register)
	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)

	authMw := d.Gate.RequireAuth

	e.GET("/me", d.AuthHandler.Me, authMw)

	e.GET("/tasks", d.TaskHandler.ListTasks, authMw)
	e.POST("/tasks", d.TaskHandler.CreateTask, authMw)
	e.GET("/tasks/search", d.TaskHandler.SearchTasks, authMw)
	e.PUT("/tasks/:id", d.TaskHandler.UpdateTask, authMw)
	e.PATCH("/tasks/:id", d.TaskHandler.UpdateTask, authMw)
	e.DELETE("/tasks/:id", d.TaskHandler.DeleteTask, authMw)
}
