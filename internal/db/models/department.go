package models

import (
	"time"

	"gorm.io/datatypes"
)

// DepartmentStatus is the state of a department.
type DepartmentStatus string

const (
	// DepartmentStatusActive marks a department in use.
	DepartmentStatusActive DepartmentStatus = "active"
	// DepartmentStatusInactive marks a retired department.
	DepartmentStatusInactive DepartmentStatus = "inactive"
)

// Department is a node of the organisation tree.
// Lft and Rgt hold the nested set boundaries and are maintained by the
// department engine only; they are never written from request input.
type Department struct {
	// ID is the unique identifier for the department.
	ID uint `gorm:"primaryKey" json:"id"`
	// ParentID references the parent department, nil for roots.
	ParentID *uint `gorm:"index" json:"parent_id"`
	// Lft is the nested set left boundary.
	Lft int `gorm:"column:lft;not null;default:0;index:idx_department_bounds" json:"lft"`
	// Rgt is the nested set right boundary.
	Rgt int `gorm:"column:rgt;not null;default:0;index:idx_department_bounds" json:"rgt"`
	// Name is the display name.
	Name string `gorm:"size:100;not null" json:"name"`
	// Code is the globally unique department code.
	Code string `gorm:"uniqueIndex;size:50;not null" json:"code"`
	// ManagerID references the managing user, if any.
	ManagerID *uint64 `gorm:"index" json:"manager_id"`
	// SortOrder orders siblings; ties are broken by ID.
	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
	// Status is either active or inactive.
	Status DepartmentStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	// Description is free text.
	Description string `gorm:"type:text" json:"description"`
	// Metadata holds arbitrary key/value data.
	Metadata datatypes.JSONMap `json:"metadata"`
	// CreatedAt is the timestamp when the department was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the department was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TreeID implements tree.Item.
func (d Department) TreeID() uint { return d.ID }

// TreeParentID implements tree.Item.
func (d Department) TreeParentID() *uint { return d.ParentID }

// TreeSortOrder implements tree.Item.
func (d Department) TreeSortOrder() int { return d.SortOrder }
