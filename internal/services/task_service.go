package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTitleEmpty         = errors.New("title cannot be empty or whitespace only")
	ErrNoFieldsToUpdate   = errors.New("no valid fields to update")
	ErrNoTaskIDsProvided  = errors.New("at least one task ID is required")
	ErrTooManyTaskIDs     = fmt.Errorf("maximum %d task IDs allowed", constants.MaxBulkTaskIDs)
	ErrInvalidSortOptions = errors.New("invalid sort field or order")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	tracer   trace.Tracer
	metrics  *telemetry.StoreMetrics
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, provider *telemetry.Provider, logger *slog.Logger) (*TaskService, error) {
	if provider == nil {
		provider = telemetry.NoopProvider()
	}
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := telemetry.NewStoreMetrics(provider.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create task metrics: %w", err)
	}

	return &TaskService{
		taskRepo: taskRepo,
		tracer:   provider.Tracer,
		metrics:  metrics,
		logger:   logger.With("component", "task_service"),
	}, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	AssignedTo  *string
}

// ListTasksInput represents filters, ordering and paging for listing tasks
type ListTasksInput struct {
	Filter repository.TaskFilter
	Sort   repository.TaskSort
	Page   repository.Page
}

// BulkUpdateInput represents input for updating many tasks at once
type BulkUpdateInput struct {
	TaskIDs []uint64
	Patch   repository.TaskPatch
}

// observe starts a span for op; the returned func ends it and records metrics
func (s *TaskService) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs, telemetry.AttrOperation.String(op))
	ctx, span := telemetry.StartSpan(ctx, s.tracer, "TaskService."+op, attrs...)

	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(telemetry.AttrOutcome.String(outcome))
		span.End()
		s.metrics.Record(ctx, op, start, err)
	}
}

// CreateTask creates a new task
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (task *models.Task, err error) {
	ctx, done := s.observe(ctx, "create")
	defer func() { done(err) }()

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleEmpty
	}

	task = &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		AssignedTo:  input.AssignedTo,
	}

	if err = s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.Mutated(ctx, "create", 1)
	s.logger.InfoContext(ctx, "Task created", "task_id", task.ID, "status", task.Status, "priority", task.Priority)
	return task, nil
}

// GetTask returns a task by ID
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (task *models.Task, err error) {
	ctx, done := s.observe(ctx, "get", telemetry.AttrTaskID.Int64(int64(taskID)))
	defer func() { done(ignoreNotFound(err)) }()

	task, found, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !found {
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// ListTasks returns one page of tasks matching the filter and the total matching count
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) (tasks []models.Task, total int64, err error) {
	ctx, done := s.observe(ctx, "list")
	defer func() { done(err) }()

	if (input.Sort.Field != "" && !input.Sort.Field.IsValid()) || (input.Sort.Order != "" && !input.Sort.Order.IsValid()) {
		return nil, 0, ErrInvalidSortOptions
	}

	tasks, total, err = s.taskRepo.List(ctx, input.Filter, input.Sort, input.Page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// ListByStatus lists tasks with the given status, newest first
func (s *TaskService) ListByStatus(ctx context.Context, status models.TaskStatus, page repository.Page) ([]models.Task, int64, error) {
	return s.ListTasks(ctx, ListTasksInput{
		Filter: repository.TaskFilter{Status: &status},
		Sort:   repository.DefaultTaskSort,
		Page:   page,
	})
}

// ListByPriority lists tasks with the given priority, newest first
func (s *TaskService) ListByPriority(ctx context.Context, priority models.TaskPriority, page repository.Page) ([]models.Task, int64, error) {
	return s.ListTasks(ctx, ListTasksInput{
		Filter: repository.TaskFilter{Priority: &priority},
		Sort:   repository.DefaultTaskSort,
		Page:   page,
	})
}

// SearchTasks finds tasks whose title or description contains term
func (s *TaskService) SearchTasks(ctx context.Context, term string, page repository.Page) (tasks []models.Task, total int64, err error) {
	ctx, done := s.observe(ctx, "search")
	defer func() { done(err) }()

	tasks, total, err = s.taskRepo.Search(ctx, term, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search tasks: %w", err)
	}

	return tasks, total, nil
}

// UpdateTask applies a sparse patch to an existing task
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint64, patch repository.TaskPatch) (task *models.Task, err error) {
	ctx, done := s.observe(ctx, "update", telemetry.AttrTaskID.Int64(int64(taskID)))
	defer func() { done(ignoreNotFound(err)) }()

	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	if err = checkPatch(patch); err != nil {
		return nil, err
	}

	task, found, err := s.taskRepo.Update(ctx, taskID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if !found {
		return nil, ErrTaskNotFound
	}

	s.metrics.Mutated(ctx, "update", 1)
	s.logger.InfoContext(ctx, "Task updated", "task_id", taskID)
	return task, nil
}

// DeleteTask hard deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint64) (err error) {
	ctx, done := s.observe(ctx, "delete", telemetry.AttrTaskID.Int64(int64(taskID)))
	defer func() { done(ignoreNotFound(err)) }()

	deleted, err := s.taskRepo.Delete(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return ErrTaskNotFound
	}

	s.metrics.Mutated(ctx, "delete", 1)
	s.logger.InfoContext(ctx, "Task deleted", "task_id", taskID)
	return nil
}

// BulkUpdateTasks applies one patch to many tasks; ids without a task are skipped
func (s *TaskService) BulkUpdateTasks(ctx context.Context, input BulkUpdateInput) (result repository.BulkResult, err error) {
	ctx, done := s.observe(ctx, "bulk_update", telemetry.AttrRequested.Int(len(input.TaskIDs)))
	defer func() { done(err) }()

	if err = checkBulkIDs(input.TaskIDs); err != nil {
		return repository.BulkResult{}, err
	}
	if err = checkPatch(input.Patch); err != nil {
		return repository.BulkResult{}, err
	}

	result, err = s.taskRepo.BulkUpdate(ctx, input.TaskIDs, input.Patch)
	if err != nil {
		return repository.BulkResult{}, fmt.Errorf("failed to bulk update tasks: %w", err)
	}

	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrSucceeded.Int64(result.Succeeded))
	s.metrics.Mutated(ctx, "bulk_update", result.Succeeded)
	s.logger.InfoContext(ctx, "Tasks bulk updated", "requested", result.Requested, "updated", result.Succeeded)
	return result, nil
}

// BulkDeleteTasks deletes many tasks; ids without a task are skipped
func (s *TaskService) BulkDeleteTasks(ctx context.Context, taskIDs []uint64) (result repository.BulkResult, err error) {
	ctx, done := s.observe(ctx, "bulk_delete", telemetry.AttrRequested.Int(len(taskIDs)))
	defer func() { done(err) }()

	if err = checkBulkIDs(taskIDs); err != nil {
		return repository.BulkResult{}, err
	}

	result, err = s.taskRepo.BulkDelete(ctx, taskIDs)
	if err != nil {
		return repository.BulkResult{}, fmt.Errorf("failed to bulk delete tasks: %w", err)
	}

	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrSucceeded.Int64(result.Succeeded))
	s.metrics.Mutated(ctx, "bulk_delete", result.Succeeded)
	s.logger.InfoContext(ctx, "Tasks bulk deleted", "requested", result.Requested, "deleted", result.Succeeded)
	return result, nil
}

func checkBulkIDs(ids []uint64) error {
	if len(ids) < constants.MinBulkTaskIDs {
		return ErrNoTaskIDsProvided
	}
	if len(ids) > constants.MaxBulkTaskIDs {
		return ErrTooManyTaskIDs
	}
	return nil
}

func checkPatch(patch repository.TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return ErrTitleEmpty
	}
	return nil
}

// ignoreNotFound keeps expected absences out of the error metrics
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrTaskNotFound) {
		return nil
	}
	return err
}
