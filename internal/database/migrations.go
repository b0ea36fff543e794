package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
)

// taskIndexes are the filter and sort columns of the task listing
var taskIndexes = []struct {
	name   string
	column string
}{
	{"idx_tasks_status", "status"},
	{"idx_tasks_priority", "priority"},
	{"idx_tasks_assigned_to", "assigned_to"},
	{"idx_tasks_due_date", "due_date"},
	{"idx_tasks_created_at", "created_at"},
}

// EnsureIndexes adds the listing indexes to the tasks table, skipping existing ones
func EnsureIndexes(db *gorm.DB) error {
	for _, idx := range taskIndexes {
		if db.Migrator().HasIndex(&models.Task{}, idx.name) {
			slog.Debug("Index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, idx.column)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("Created index", "index", idx.name, "table", "tasks", "column", idx.column)
	}

	return nil
}
