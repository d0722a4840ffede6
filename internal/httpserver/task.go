package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/auth"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/service"
	"github.com/Skotchmaster/task_manager/internal/transport"
	"github.com/Skotchmaster/task_manager/internal/util"
)

type TaskHTTP struct {
	Svc *service.TaskService
}

func (h *TaskHTTP) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.list")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	tasks, err := h.Svc.List(ctx, id)
	if err != nil {
		l.Error("list_tasks_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHTTP) CreateTask(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.create")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req transport.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_task_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	task, err := h.Svc.Create(ctx, id, req.Title)
	if err != nil {
		return taskError(l, "create_task_error", err)
	}

	l.Info("create_task_success", "task_id", task.ID)
	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHTTP) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.update")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	taskID, err := parseTaskID(c)
	if err != nil {
		l.Warn("update_task_error", "status", 404, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	var req transport.PatchTaskRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_task_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	task, err := h.Svc.Update(ctx, id, taskID, repo.TaskPatch{Title: req.Title, Completed: req.Completed})
	if err != nil {
		return taskError(l, "update_task_error", err)
	}

	l.Info("update_task_success", "task_id", task.ID)
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHTTP) DeleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.delete")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	taskID, err := parseTaskID(c)
	if err != nil {
		l.Warn("delete_task_error", "status", 404, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	}

	if err := h.Svc.Delete(ctx, id, taskID); err != nil {
		return taskError(l, "delete_task_error", err)
	}

	l.Info("delete_task_success", "task_id", taskID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}

func (h *TaskHTTP) SearchTasks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tasks.search")

	id, ok := auth.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	total, tasks, err := h.Svc.Search(ctx, id, c.QueryParam("q"), page, size)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("search_tasks_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
		}
		l.Error("search_tasks_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Tasks: tasks})
}

func parseTaskID(c echo.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func taskError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "title must not be empty")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
