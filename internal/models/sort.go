package models

// SortField is the closed set of columns a task listing can be ordered by
type SortField string

const (
	SortFieldID         SortField = "id"
	SortFieldTitle      SortField = "title"
	SortFieldStatus     SortField = "status"
	SortFieldPriority   SortField = "priority"
	SortFieldCreatedAt  SortField = "created_at"
	SortFieldUpdatedAt  SortField = "updated_at"
	SortFieldDueDate    SortField = "due_date"
	SortFieldAssignedTo SortField = "assigned_to"
)

// Column returns the tasks column for the field, or false for unknown fields
func (f SortField) Column() (string, bool) {
	switch f {
	case SortFieldID:
		return "id", true
	case SortFieldTitle:
		return "title", true
	case SortFieldStatus:
		return "status", true
	case SortFieldPriority:
		return "priority", true
	case SortFieldCreatedAt:
		return "created_at", true
	case SortFieldUpdatedAt:
		return "updated_at", true
	case SortFieldDueDate:
		return "due_date", true
	case SortFieldAssignedTo:
		return "assigned_to", true
	}
	return "", false
}

func (f SortField) IsValid() bool {
	_, ok := f.Column()
	return ok
}

type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool {
	return o == SortOrderAsc || o == SortOrderDesc
}
