package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required,notblank,max=200"`
	Description *string             `json:"description" binding:"omitempty,max=1000"`
	Status      models.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time          `json:"due_date" binding:"omitempty,future"`
	AssignedTo  *string             `json:"assigned_to" binding:"omitempty,max=100"`
}

// UpdateTaskRequest is a sparse update. Omitted fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string              `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string              `json:"description" binding:"omitempty,max=1000"`
	Status      *models.TaskStatus   `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    *models.TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time           `json:"due_date" binding:"omitempty,future"`
	AssignedTo  *string              `json:"assigned_to" binding:"omitempty,max=100"`
}

// BulkUpdateRequest is the body of POST /tasks/bulk-update
type BulkUpdateRequest struct {
	TaskIDs []uint64          `json:"task_ids" binding:"required,min=1,max=100"`
	Updates UpdateTaskRequest `json:"updates"`
}

// BulkDeleteRequest is the body of POST /tasks/bulk-delete
type BulkDeleteRequest struct {
	TaskIDs []uint64 `json:"task_ids" binding:"required,min=1,max=100"`
}

// PageQuery holds the skip/limit query parameters shared by every list endpoint
type PageQuery struct {
	Skip  int `form:"skip,default=0" binding:"gte=0"`
	Limit int `form:"limit,default=100" binding:"gte=1,lte=1000"`
}

// ListTasksQuery holds the query parameters of GET /tasks
type ListTasksQuery struct {
	PageQuery
	Status      models.TaskStatus   `form:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    models.TaskPriority `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssignedTo  string              `form:"assigned_to"`
	Search      string              `form:"search"`
	DueDateFrom *time.Time          `form:"due_date_from"`
	DueDateTo   *time.Time          `form:"due_date_to"`
	CreatedFrom *time.Time          `form:"created_from"`
	CreatedTo   *time.Time          `form:"created_to"`
	SortField   models.SortField    `form:"sort_field,default=created_at" binding:"oneof=id title status priority created_at updated_at due_date assigned_to"`
	SortOrder   models.SortOrder    `form:"sort_order,default=desc" binding:"oneof=asc desc"`
}

// SearchTasksQuery holds the query parameters of GET /tasks/search
type SearchTasksQuery struct {
	PageQuery
	Q string `form:"q" binding:"required"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   *time.Time          `json:"updated_at"`
	DueDate     *time.Time          `json:"due_date"`
	AssignedTo  *string             `json:"assigned_to"`
}

// TaskListResponse represents one page of tasks
type TaskListResponse struct {
	Tasks   []TaskResponse `json:"tasks"`
	Total   int64          `json:"total"`
	Skip    int            `json:"skip"`
	Limit   int            `json:"limit"`
	HasMore bool           `json:"has_more"`
}

// BulkUpdateResponse reports how many of the requested tasks were updated
type BulkUpdateResponse struct {
	Message      string `json:"message"`
	UpdatedCount int64  `json:"updated_count"`
	TotalCount   int    `json:"total_count"`
}

// BulkDeleteResponse reports how many of the requested tasks were deleted
type BulkDeleteResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
	TotalCount   int    `json:"total_count"`
}

// Conversion functions

// ToPage converts the query parameters to a repository page
func (q PageQuery) ToPage() repository.Page {
	p := utils.PaginationParams{Skip: q.Skip, Limit: q.Limit}.Normalize()
	return repository.Page{Skip: p.Skip, Limit: p.Limit}
}

// ToFilter converts the list query to a repository filter
func (q ListTasksQuery) ToFilter() repository.TaskFilter {
	filter := repository.TaskFilter{
		Search:      q.Search,
		DueDateFrom: q.DueDateFrom,
		DueDateTo:   q.DueDateTo,
		CreatedFrom: q.CreatedFrom,
		CreatedTo:   q.CreatedTo,
	}
	if q.Status != "" {
		status := q.Status
		filter.Status = &status
	}
	if q.Priority != "" {
		priority := q.Priority
		filter.Priority = &priority
	}
	if q.AssignedTo != "" {
		assignee := q.AssignedTo
		filter.AssignedTo = &assignee
	}
	return filter
}

// ToSort converts the list query to a repository sort
func (q ListTasksQuery) ToSort() repository.TaskSort {
	return repository.TaskSort{Field: q.SortField, Order: q.SortOrder}
}

// ToPatch converts the request into a repository patch.
// raw is the decoded JSON object the request came from; a nullable field
// sent as an explicit null is cleared, a null non-nullable field is ignored.
func (r UpdateTaskRequest) ToPatch(raw map[string]json.RawMessage) repository.TaskPatch {
	patch := repository.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}

	patch.ClearDescription = isNull(raw, "description")
	patch.ClearDueDate = isNull(raw, "due_date")
	patch.ClearAssignedTo = isNull(raw, "assigned_to")
	return patch
}

func isNull(raw map[string]json.RawMessage, key string) bool {
	value, ok := raw[key]
	return ok && bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// ToTaskResponse converts a Task model to TaskResponse
func ToTaskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		DueDate:     task.DueDate,
		AssignedTo:  task.AssignedTo,
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page repository.Page, total int64) TaskListResponse {
	items := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskResponse(task)
	}

	return TaskListResponse{
		Tasks:   items,
		Total:   total,
		Skip:    page.Skip,
		Limit:   page.Limit,
		HasMore: utils.PaginationParams{Skip: page.Skip, Limit: page.Limit}.HasMore(total),
	}
}

// ToBulkUpdateResponse converts a bulk result to BulkUpdateResponse
func ToBulkUpdateResponse(result repository.BulkResult) BulkUpdateResponse {
	return BulkUpdateResponse{
		Message:      fmt.Sprintf("Successfully updated %d out of %d tasks", result.Succeeded, result.Requested),
		UpdatedCount: result.Succeeded,
		TotalCount:   result.Requested,
	}
}

// ToBulkDeleteResponse converts a bulk result to BulkDeleteResponse
func ToBulkDeleteResponse(result repository.BulkResult) BulkDeleteResponse {
	return BulkDeleteResponse{
		Message:      fmt.Sprintf("Successfully deleted %d out of %d tasks", result.Succeeded, result.Requested),
		DeletedCount: result.Succeeded,
		TotalCount:   result.Requested,
	}
}
