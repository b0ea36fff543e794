package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Paginate applies offset/limit pagination to a GORM query.
// A non-positive limit leaves the query unbounded.
func Paginate(skip, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if skip > 0 {
			db = db.Offset(skip)
		}
		if limit > 0 {
			db = db.Limit(limit)
		}
		return db
	}
}

// OrderBy orders a GORM query by a single column
func OrderBy(column string, desc bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
}
