package server

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ShayCichocki/mentor/internal/decompose"
	"github.com/ShayCichocki/mentor/internal/state"
	"github.com/ShayCichocki/mentor/pkg/models"
)

const maxBodySize = 1 << 20

// register wires up all API routes on the provided Echo instance.
func register(e *echo.Echo, h *handlers) {
	e.GET("/health", h.health)
	e.GET("/goals", h.listGoals)
	e.POST("/goals", h.createGoal)
	e.GET("/goals/:id", h.getGoal)
	e.GET("/goals/:id/tasks", h.listTasks)
	e.POST("/goals/:id/tasks", h.addTasks)
	e.POST("/goals/:id/decompose", h.decomposeGoal)
	e.GET("/goals/:id/progress", h.progress)
	e.PATCH("/tasks", h.updateTasks)
	e.DELETE("/tasks", h.deleteTasks)
	e.PUT("/tasks/:id/status", h.setStatus)
}

type handlers struct {
	store     state.StateStore
	decompose DecomposeFunc
	listLimit int
	log       *log.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type createGoalRequest struct {
	Title    string `json:"title"`
	Why      string `json:"why"`
	Deadline string `json:"deadline"`
	Metric   string `json:"metric"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type goalsResponse struct {
	Goals []models.GoalSummary `json:"goals"`
}

type tasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

type addTasksRequest struct {
	Titles []string `json:"titles"`
}

type addTasksResponse struct {
	Added   int      `json:"added"`
	Items   []string `json:"items,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

type progressResponse struct {
	GoalID  int64   `json:"goal_id"`
	Ratio   float64 `json:"ratio"`
	Percent int     `json:"percent"`
}

type updateTasksRequest struct {
	Edits []models.TaskEdit `json:"edits"`
}

type deleteTasksRequest struct {
	IDs []int64 `json:"ids"`
}

type statusRequest struct {
	Status models.TaskStatus `json:"status"`
}

func fail(c echo.Context, status int, format string, args ...interface{}) error {
	return c.JSON(status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// internal logs err and hides it behind a generic 500.
func (h *handlers) internal(c echo.Context, err error) error {
	h.log.WithError(err).Errorf("[server] %s %s", c.Request().Method, c.Path())
	return fail(c, http.StatusInternalServerError, "internal error")
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(c echo.Context, v interface{}) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// loadGoal resolves :id to a goal, writing the 400/404 response itself
// when it returns nil.
func (h *handlers) loadGoal(c echo.Context) (*models.Goal, error) {
	id, ok := parseID(c)
	if !ok {
		return nil, fail(c, http.StatusBadRequest, "invalid goal id %q", c.Param("id"))
	}
	goal, err := h.store.GetGoal(id)
	if err != nil {
		return nil, h.internal(c, err)
	}
	if goal == nil {
		return nil, fail(c, http.StatusNotFound, "goal #%d not found", id)
	}
	return goal, nil
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listGoals(c echo.Context) error {
	limit := h.listLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fail(c, http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	goals, err := h.store.ListGoals(limit)
	if err != nil {
		return h.internal(c, err)
	}
	if goals == nil {
		goals = []models.GoalSummary{}
	}
	return c.JSON(http.StatusOK, goalsResponse{Goals: goals})
}

func (h *handlers) createGoal(c echo.Context) error {
	var req createGoalRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	var deadline *models.Date
	if strings.TrimSpace(req.Deadline) != "" {
		d, err := models.ParseDate(req.Deadline)
		if err != nil {
			return fail(c, http.StatusBadRequest, "deadline must be YYYY-MM-DD")
		}
		deadline = &d
	}

	id, err := h.store.SaveGoal(req.Title, models.OptionalString(req.Why), deadline, models.OptionalString(req.Metric))
	if errors.Is(err, state.ErrEmptyTitle) {
		return fail(c, http.StatusBadRequest, "please enter a goal title")
	}
	if err != nil {
		return h.internal(c, err)
	}
	return c.JSON(http.StatusCreated, idResponse{ID: id})
}

func (h *handlers) getGoal(c echo.Context) error {
	goal, err := h.loadGoal(c)
	if goal == nil {
		return err
	}
	return c.JSON(http.StatusOK, goal)
}

func (h *handlers) listTasks(c echo.Context) error {
	goal, err := h.loadGoal(c)
	if goal == nil {
		return err
	}

	tasks, err := h.store.ListTasks(goal.ID)
	if err != nil {
		return h.internal(c, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
}

func (h *handlers) addTasks(c echo.Context) error {
	goal, err := h.loadGoal(c)
	if goal == nil {
		return err
	}

	var req addTasksRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.store.AddTasks(goal.ID, req.Titles); err != nil {
		return h.internal(c, err)
	}
	return c.JSON(http.StatusCreated, addTasksResponse{Added: len(req.Titles)})
}

func (h *handlers) decomposeGoal(c echo.Context) error {
	if h.decompose == nil {
		return fail(c, http.StatusPreconditionFailed, "decomposition is not configured")
	}

	goal, err := h.loadGoal(c)
	if goal == nil {
		return err
	}

	items, err := h.decompose(c.Request().Context(), goal.Title)
	if errors.Is(err, decompose.ErrNoCredential) {
		return fail(c, http.StatusPreconditionFailed, "missing ANTHROPIC_API_KEY")
	}
	if err != nil {
		return h.internal(c, err)
	}

	if len(items) == 0 {
		return c.JSON(http.StatusOK, addTasksResponse{Added: 0, Warning: "no subtasks returned; try again"})
	}
	if err := h.store.AddTasks(goal.ID, items); err != nil {
		return h.internal(c, err)
	}

	h.log.WithField("goal_id", goal.ID).Infof("[server] added %d subtasks", len(items))
	return c.JSON(http.StatusCreated, addTasksResponse{Added: len(items), Items: items})
}

func (h *handlers) progress(c echo.Context) error {
	goal, err := h.loadGoal(c)
	if goal == nil {
		return err
	}

	ratio, err := h.store.CompletionRatio(goal.ID)
	if err != nil {
		return h.internal(c, err)
	}
	return c.JSON(http.StatusOK, progressResponse{
		GoalID:  goal.ID,
		Ratio:   ratio,
		Percent: int(math.Round(ratio * 100)),
	})
}

func (h *handlers) updateTasks(c echo.Context) error {
	var req updateTasksRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	for _, edit := range req.Edits {
		if edit.OrderIndex < 0 {
			return fail(c, http.StatusBadRequest, "task #%d: order must be non-negative", edit.ID)
		}
	}

	if err := h.store.UpdateTasks(req.Edits); err != nil {
		return h.internal(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteTasks(c echo.Context) error {
	var req deleteTasksRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	if err := h.store.DeleteTasks(req.IDs); err != nil {
		return h.internal(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) setStatus(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid task id %q", c.Param("id"))
	}

	var req statusRequest
	if err := decodeBody(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if !req.Status.Valid() {
		return fail(c, http.StatusBadRequest, "status must be %q or %q", models.TaskStatusPending, models.TaskStatusDone)
	}

	task, err := h.store.GetTask(id)
	if err != nil {
		return h.internal(c, err)
	}
	if task == nil {
		return fail(c, http.StatusNotFound, "task #%d not found", id)
	}

	if err := h.store.SetTaskStatus(id, req.Status); err != nil {
		return h.internal(c, err)
	}
	task.Status = req.Status
	return c.JSON(http.StatusOK, task)
}
