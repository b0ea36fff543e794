package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a GormTaskRepository
type Option func(*GormTaskRepository)

// WithClock overrides the time source used for created_at and updated_at
func WithClock(now func() time.Time) Option {
	return func(r *GormTaskRepository) {
		r.now = now
	}
}

// NewTaskRepository creates a new TaskRepository.
// Every call opens its own session from db, so db is the only shared handle.
func NewTaskRepository(db *gorm.DB, opts ...Option) *GormTaskRepository {
	r := &GormTaskRepository{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ TaskRepository = (*GormTaskRepository)(nil)

func (r *GormTaskRepository) timestamp() time.Time {
	return r.now().UTC()
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	task.ID = 0
	task.CreatedAt = r.timestamp()
	task.UpdatedAt = nil
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(task).Error
	})
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, bool, error) {
	return findByID(r.db.WithContext(ctx), id)
}

func findByID(db *gorm.DB, id uint64) (*models.Task, bool, error) {
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &task, true, nil
}

// List retrieves tasks with filtering, sorting and pagination.
// The total is counted before pagination using the same predicates as the page.
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter, sort TaskSort, page Page) ([]models.Task, int64, error) {
	if sort.Field == "" {
		sort.Field = DefaultTaskSort.Field
	}
	if sort.Order == "" {
		sort.Order = DefaultTaskSort.Order
	}
	column, ok := sort.Field.Column()
	if !ok {
		return nil, 0, fmt.Errorf("unsupported sort field %q", sort.Field)
	}
	if !sort.Order.IsValid() {
		return nil, 0, fmt.Errorf("unsupported sort order %q", sort.Order)
	}

	preds := BuildPredicates(filter)
	tasks := []models.Task{}
	var total int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Scopes(preds.Scope()).Count(&total).Error; err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}

		err := tx.Model(&models.Task{}).
			Scopes(
				preds.Scope(),
				database.OrderBy(column, sort.Order != models.SortOrderAsc),
				database.Paginate(page.Skip, page.Limit),
			).
			Find(&tasks).Error
		if err != nil {
			return fmt.Errorf("fetch tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Search lists tasks whose title or description contains term, newest first
func (r *GormTaskRepository) Search(ctx context.Context, term string, page Page) ([]models.Task, int64, error) {
	return r.List(ctx, TaskFilter{Search: term}, DefaultTaskSort, page)
}

// Update applies a sparse patch to a task
func (r *GormTaskRepository) Update(ctx context.Context, id uint64, patch TaskPatch) (*models.Task, bool, error) {
	var task *models.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, found, err := findByID(tx, id)
		if err != nil || !found {
			return err
		}

		if err := tx.Model(existing).Updates(r.patchColumns(patch)).Error; err != nil {
			return err
		}

		task, _, err = findByID(tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	return task, task != nil, nil
}

// Delete hard deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	var affected int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Task{}, id)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// BulkUpdate applies patch to every existing task among ids; unknown ids are skipped
func (r *GormTaskRepository) BulkUpdate(ctx context.Context, ids []uint64, patch TaskPatch) (BulkResult, error) {
	result := BulkResult{Requested: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := existingIDs(tx, ids)
		if err != nil || len(found) == 0 {
			return err
		}

		updated := tx.Model(&models.Task{}).Where("id IN ?", found).Updates(r.patchColumns(patch))
		if updated.Error != nil {
			return updated.Error
		}
		result.Succeeded = int64(len(found))
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	return result, nil
}

// BulkDelete deletes every existing task among ids; unknown ids are skipped
func (r *GormTaskRepository) BulkDelete(ctx context.Context, ids []uint64) (BulkResult, error) {
	result := BulkResult{Requested: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := existingIDs(tx, ids)
		if err != nil || len(found) == 0 {
			return err
		}

		if err := tx.Where("id IN ?", found).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		result.Succeeded = int64(len(found))
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	return result, nil
}

// existingIDs returns the distinct ids among ids that have a task row
func existingIDs(tx *gorm.DB, ids []uint64) ([]uint64, error) {
	var found []uint64
	err := tx.Model(&models.Task{}).
		Where("id IN ?", uniqueUint64(ids)).
		Pluck("id", &found).Error
	return found, err
}

// patchColumns maps a sparse patch to a column update set.
// updated_at is always included so every mutation refreshes it.
func (r *GormTaskRepository) patchColumns(patch TaskPatch) map[string]any {
	cols := map[string]any{
		"updated_at": r.timestamp(),
	}

	if patch.Title != nil {
		cols["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Status != nil {
		cols["status"] = *patch.Status
	}
	if patch.Priority != nil {
		cols["priority"] = *patch.Priority
	}

	switch {
	case patch.ClearDescription:
		cols["description"] = nil
	case patch.Description != nil:
		cols["description"] = *patch.Description
	}
	switch {
	case patch.ClearDueDate:
		cols["due_date"] = nil
	case patch.DueDate != nil:
		cols["due_date"] = patch.DueDate.UTC()
	}
	switch {
	case patch.ClearAssignedTo:
		cols["assigned_to"] = nil
	case patch.AssignedTo != nil:
		cols["assigned_to"] = *patch.AssignedTo
	}

	return cols
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
