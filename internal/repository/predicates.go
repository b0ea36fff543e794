package repository

import (
	"gorm.io/gorm"
)

// Predicate is one named filter condition on the tasks table
type Predicate struct {
	Name  string
	Query string
	Args  []any
}

// Predicates is an AND-combined list of conditions.
// The listing count and the page fetch are both built from the same list.
type Predicates []Predicate

// BuildPredicates turns a filter into its predicate list, in a fixed order
func BuildPredicates(filter TaskFilter) Predicates {
	var preds Predicates

	if filter.Status != nil {
		preds = append(preds, Predicate{Name: "status", Query: "status = ?", Args: []any{*filter.Status}})
	}
	if filter.Priority != nil {
		preds = append(preds, Predicate{Name: "priority", Query: "priority = ?", Args: []any{*filter.Priority}})
	}
	if filter.AssignedTo != nil {
		preds = append(preds, Predicate{Name: "assigned_to", Query: "assigned_to = ?", Args: []any{*filter.AssignedTo}})
	}
	if filter.Search != "" {
		// Both sides are folded by the database so they lowercase the same way
		pattern := "%" + filter.Search + "%"
		preds = append(preds, Predicate{
			Name:  "search",
			Query: "(LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))",
			Args:  []any{pattern, pattern},
		})
	}
	if filter.DueDateFrom != nil {
		preds = append(preds, Predicate{Name: "due_date_from", Query: "due_date >= ?", Args: []any{filter.DueDateFrom.UTC()}})
	}
	if filter.DueDateTo != nil {
		preds = append(preds, Predicate{Name: "due_date_to", Query: "due_date <= ?", Args: []any{filter.DueDateTo.UTC()}})
	}
	if filter.CreatedFrom != nil {
		preds = append(preds, Predicate{Name: "created_from", Query: "created_at >= ?", Args: []any{filter.CreatedFrom.UTC()}})
	}
	if filter.CreatedTo != nil {
		preds = append(preds, Predicate{Name: "created_to", Query: "created_at <= ?", Args: []any{filter.CreatedTo.UTC()}})
	}

	return preds
}

// Names lists the predicate names in application order
func (p Predicates) Names() []string {
	names := make([]string, len(p))
	for i, pred := range p {
		names[i] = pred.Name
	}
	return names
}

// Scope applies every predicate to a GORM query
func (p Predicates) Scope() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, pred := range p {
			db = db.Where(pred.Query, pred.Args...)
		}
		return db
	}
}
