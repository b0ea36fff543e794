package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TaskRepository defines the interface for task data access.
// Absence of a record is reported through the found/existed booleans, never as an error.
type TaskRepository interface {
	// Create persists a new task and fills in its ID and CreatedAt
	Create(ctx context.Context, task *models.Task) error

	// FindByID looks up a task by primary key
	FindByID(ctx context.Context, id uint64) (*models.Task, bool, error)

	// List retrieves one page of filtered, sorted tasks and the total matching count
	List(ctx context.Context, filter TaskFilter, sort TaskSort, page Page) ([]models.Task, int64, error)

	// Search is List with only the text search filter set
	Search(ctx context.Context, term string, page Page) ([]models.Task, int64, error)

	// Update applies a sparse patch to a task
	Update(ctx context.Context, id uint64, patch TaskPatch) (*models.Task, bool, error)

	// Delete hard deletes a task
	Delete(ctx context.Context, id uint64) (bool, error)

	// BulkUpdate applies the same patch to every existing task among ids
	BulkUpdate(ctx context.Context, ids []uint64, patch TaskPatch) (BulkResult, error)

	// BulkDelete deletes every existing task among ids
	BulkDelete(ctx context.Context, ids []uint64) (BulkResult, error)
}

// TaskFilter holds filtering options for listing tasks.
// Nil pointers and empty strings mean the filter is not applied.
type TaskFilter struct {
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	AssignedTo  *string
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TaskSort selects the single ordering column of a listing
type TaskSort struct {
	Field models.SortField
	Order models.SortOrder
}

// DefaultTaskSort orders newest tasks first
var DefaultTaskSort = TaskSort{Field: models.SortFieldCreatedAt, Order: models.SortOrderDesc}

// Page is an offset/limit window. A Limit of zero means unbounded.
type Page struct {
	Skip  int
	Limit int
}

// TaskPatch is a sparse update: nil fields are left untouched.
// The Clear flags set a nullable column to NULL and win over the matching value.
type TaskPatch struct {
	Title            *string
	Description      *string
	Status           *models.TaskStatus
	Priority         *models.TaskPriority
	DueDate          *time.Time
	AssignedTo       *string
	ClearDescription bool
	ClearDueDate     bool
	ClearAssignedTo  bool
}

// IsEmpty reports whether the patch changes no field
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && p.AssignedTo == nil &&
		!p.ClearDescription && !p.ClearDueDate && !p.ClearAssignedTo
}

// BulkResult reports how many of the requested ids were acted on
type BulkResult struct {
	Succeeded int64
	Requested int
}
