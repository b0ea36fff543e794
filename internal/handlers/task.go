package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// clientErrors maps service errors that are the caller's fault to response messages
var clientErrors = map[error]string{
	services.ErrTitleEmpty:         "Title cannot be empty or whitespace only",
	services.ErrNoFieldsToUpdate:   "No valid fields to update",
	services.ErrNoTaskIDsProvided:  "At least one task ID is required",
	services.ErrTooManyTaskIDs:     services.ErrTooManyTaskIDs.Error(),
	services.ErrInvalidSortOptions: "Invalid sort field or order",
}

type TaskHandler struct {
	taskService *services.TaskService
	logger      *slog.Logger
}

func NewTaskHandler(taskService *services.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With("component", "task_handler"),
	}
}

// RegisterRoutes mounts the task endpoints on the given group
func (h *TaskHandler) RegisterRoutes(tasks *gin.RouterGroup) {
	tasks.POST("", h.CreateTask)
	tasks.GET("", h.ListTasks)
	tasks.GET("/search", h.SearchTasks)
	tasks.GET("/status/:status", h.ListTasksByStatus)
	tasks.GET("/priority/:priority", h.ListTasksByPriority)
	tasks.POST("/bulk-update", h.BulkUpdateTasks)
	tasks.POST("/bulk-delete", h.BulkDeleteTasks)
	tasks.GET("/:id", h.GetTask)
	tasks.PUT("/:id", h.UpdateTask)
	tasks.PATCH("/:id", h.UpdateTask)
	tasks.DELETE("/:id", h.DeleteTask)
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskResponse(*task))
}

// ListTasks returns one page of tasks matching the query filters
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var query dto.ListTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	page := query.ToPage()
	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), services.ListTasksInput{
		Filter: query.ToFilter(),
		Sort:   query.ToSort(),
		Page:   page,
	})
	if err != nil {
		h.respondError(c, err, "Failed to retrieve tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// SearchTasks returns tasks whose title or description contains q
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	var query dto.SearchTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	page := query.ToPage()
	tasks, total, err := h.taskService.SearchTasks(c.Request.Context(), query.Q, page)
	if err != nil {
		h.respondError(c, err, "Failed to search tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// ListTasksByStatus returns tasks in the status named by the path
func (h *TaskHandler) ListTasksByStatus(c *gin.Context) {
	status := models.TaskStatus(c.Param("status"))
	if !status.IsValid() {
		apierrors.InvalidFormat(c, "Invalid task status")
		return
	}

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	page := query.ToPage()
	tasks, total, err := h.taskService.ListByStatus(c.Request.Context(), status, page)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve tasks by status")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// ListTasksByPriority returns tasks with the priority named by the path
func (h *TaskHandler) ListTasksByPriority(c *gin.Context) {
	priority := models.TaskPriority(c.Param("priority"))
	if !priority.IsValid() {
		apierrors.InvalidFormat(c, "Invalid task priority")
		return
	}

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	page := query.ToPage()
	tasks, total, err := h.taskService.ListByPriority(c.Request.Context(), priority, page)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve tasks by priority")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.InvalidFormat(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve task")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// UpdateTask applies the fields present in the body to an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.InvalidFormat(c, "Invalid task ID")
		return
	}

	// Parse raw JSON as well to detect which fields were sent as null
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}
	var raw map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), taskID, req.ToPatch(raw))
	if err != nil {
		h.respondError(c, err, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.InvalidFormat(c, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID); err != nil {
		h.respondError(c, err, "Failed to delete task")
		return
	}

	c.Status(http.StatusNoContent)
}

// BulkUpdateTasks applies one set of updates to every listed task that exists
func (h *TaskHandler) BulkUpdateTasks(c *gin.Context) {
	var req dto.BulkUpdateRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}
	var raw struct {
		Updates map[string]json.RawMessage `json:"updates"`
	}
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.taskService.BulkUpdateTasks(c.Request.Context(), services.BulkUpdateInput{
		TaskIDs: req.TaskIDs,
		Patch:   req.Updates.ToPatch(raw.Updates),
	})
	if err != nil {
		h.respondError(c, err, "Failed to bulk update tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToBulkUpdateResponse(result))
}

// BulkDeleteTasks deletes every listed task that exists
func (h *TaskHandler) BulkDeleteTasks(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	result, err := h.taskService.BulkDeleteTasks(c.Request.Context(), req.TaskIDs)
	if err != nil {
		h.respondError(c, err, "Failed to bulk delete tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToBulkDeleteResponse(result))
}

func (h *TaskHandler) respondError(c *gin.Context, err error, message string) {
	if errors.Is(err, services.ErrTaskNotFound) {
		apierrors.NotFound(c, "Task not found")
		return
	}
	for target, msg := range clientErrors {
		if errors.Is(err, target) {
			apierrors.BadRequest(c, msg)
			return
		}
	}

	requestID, _ := middleware.GetRequestID(c)
	h.logger.ErrorContext(c.Request.Context(), message, "error", err, "request_id", requestID)
	_ = c.Error(err)
	apierrors.InternalError(c, message)
}
