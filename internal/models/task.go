package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// IsValid reports whether p is one of the known priorities
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Field limits shared by the models and the request validators
const (
	TitleMaxLength       = 200
	DescriptionMaxLength = 1000
	AssigneeMaxLength    = 100
)

// Task is a hard-deleted record; there is no DeletedAt column.
// UpdatedAt stays NULL until the first mutation, so GORM's auto-update is disabled.
type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description *string      `gorm:"type:varchar(1000)" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	CreatedAt   time.Time    `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   *time.Time   `gorm:"autoUpdateTime:false" json:"updated_at"`
	DueDate     *time.Time   `json:"due_date"`
	AssignedTo  *string      `gorm:"type:varchar(100)" json:"assigned_to"`
}

func (Task) TableName() string {
	return "tasks"
}
