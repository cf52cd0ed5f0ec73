package models

import (
	"time"
)

// Category is one of the two image groupings on a project
type Category string

const (
	CategoryBefore Category = "before_images"
	CategoryAfter  Category = "after_images"
)

// Categories lists every category in a stable order
var Categories = []Category{CategoryBefore, CategoryAfter}

// ParseCategory returns the Category named by s
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryBefore, CategoryAfter:
		return Category(s), true
	default:
		return "", false
	}
}

// Project is a portfolio project record as read from the record store
// Maps to: portfolio_projects table
type Project struct {
	ID string `db:"id" json:"id"`

	// Raw stored values. Historically these columns hold native arrays,
	// JSON-encoded strings or comma strings; pass them through
	// normalize.Normalize before use.
	BeforeImages any `db:"before_images" json:"before_images"`
	AfterImages  any `db:"after_images" json:"after_images"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Images returns the raw stored value for a category
func (p *Project) Images(category Category) any {
	if category == CategoryBefore {
		return p.BeforeImages
	}
	return p.AfterImages
}
