// Package department maintains the department tree.
//
// Departments are stored as an adjacency list (parent_id, sort_order) with
// nested set boundaries (lft, rgt) kept alongside. Every structural mutation
// runs in one transaction: the rows are locked, the parent links are
// changed, and the boundaries of the whole tree are recomputed from the
// adjacency order before commit. Readers therefore either see the old tree
// or the new one. Ancestor and descendant queries are plain range queries
// on the boundaries.
//
// On MySQL and PostgreSQL the rows are read with SELECT ... FOR UPDATE under
// the database default isolation level, which serializes overlapping moves.
// SQLite has no row locks; its single writer lock gives the same guarantee.
package department

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

const whereID = "id = ?"

// Position is where a department is placed by Move.
type Position string

const (
	// PositionBefore places the department right before the target sibling.
	PositionBefore Position = "before"
	// PositionAfter places the department right after the target sibling.
	PositionAfter Position = "after"
	// PositionInside makes the department the last child of the parent, or the last root.
	PositionInside Position = "inside"
)

// MoveInput describes a move request.
type MoveInput struct {
	Position Position `json:"position" validate:"required"`
	TargetID *uint    `json:"target_id"`
	ParentID *uint    `json:"parent_id"`
}

// CreateInput holds the fields of a new department.
type CreateInput struct {
	ParentID    *uint                   `json:"parent_id"`
	Name        string                  `json:"name" validate:"required,max=100"`
	Code        string                  `json:"code" validate:"required,max=50"`
	ManagerID   *uint64                 `json:"manager_id"`
	SortOrder   *int                    `json:"sort_order"`
	Status      models.DepartmentStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Description string                  `json:"description"`
	Metadata    map[string]any          `json:"metadata"`
}

// UpdateInput holds the fields to change. Nil fields are left untouched.
type UpdateInput struct {
	Name        *string                  `json:"name" validate:"omitempty,max=100"`
	Code        *string                  `json:"code" validate:"omitempty,max=50"`
	ManagerID   *uint64                  `json:"manager_id"`
	SortOrder   *int                     `json:"sort_order"`
	Status      *models.DepartmentStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	Description *string                  `json:"description"`
	Metadata    map[string]any           `json:"metadata"`
	ParentID    *uint                    `json:"parent_id"`
	// ParentSet is true when parent_id was sent; with a nil ParentID the department becomes a root.
	ParentSet bool `json:"-"`
}

// Engine implements the department operations.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates a new department engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Create inserts a department as a root or as the child of an existing parent.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*models.Department, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Code) == "" {
		return nil, ErrInvalidInput.WithMessage("department name and code are required")
	}

	dept := models.Department{
		ParentID:    in.ParentID,
		Name:        in.Name,
		Code:        in.Code,
		ManagerID:   in.ManagerID,
		Status:      in.Status,
		Description: in.Description,
		Metadata:    datatypes.JSONMap(in.Metadata),
	}

	if dept.Status == "" {
		dept.Status = models.DepartmentStatusActive
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := load(tx)
		if err != nil {
			return err
		}

		if in.ParentID != nil {
			if _, ok := s.byID[*in.ParentID]; !ok {
				return ErrParentNotFound
			}
		}

		if err = ensureCodeFree(tx, in.Code, 0); err != nil {
			return err
		}

		if in.SortOrder != nil {
			dept.SortOrder = *in.SortOrder
		} else {
			dept.SortOrder = s.nextSortOrder(in.ParentID, 0)
		}

		if err = tx.Create(&dept).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to create department")
		}

		s.add(node{ID: dept.ID, ParentID: dept.ParentID, SortOrder: dept.SortOrder})

		if err = s.rebuild(tx); err != nil {
			return err
		}

		dept.Lft, dept.Rgt = s.byID[dept.ID].Lft, s.byID[dept.ID].Rgt

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Uint("department_id", dept.ID).Str("code", dept.Code).Msg("department created")

	return &dept, nil
}

// Update changes the given fields. A parent change is validated like an
// "inside" move and recomputes the boundaries.
func (e *Engine) Update(ctx context.Context, id uint, in UpdateInput) (*models.Department, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := load(tx)
		if err != nil {
			return err
		}

		current, ok := s.byID[id]
		if !ok {
			return ErrNotFound
		}

		updates, err := fieldUpdates(tx, id, in)
		if err != nil {
			return err
		}

		structural := false

		if in.ParentSet && !sameParent(current.ParentID, in.ParentID) {
			if err = s.validateMove(id, MoveInput{Position: PositionInside, ParentID: in.ParentID}); err != nil {
				return err
			}

			updates["parent_id"] = in.ParentID

			if in.SortOrder == nil {
				next := s.nextSortOrder(in.ParentID, id)
				updates["sort_order"] = next
				current.SortOrder = next
			}

			current.ParentID = in.ParentID
			structural = true
		}

		if in.SortOrder != nil && *in.SortOrder != current.SortOrder {
			current.SortOrder = *in.SortOrder
			structural = true
		}

		if len(updates) > 0 {
			if err = tx.Model(&models.Department{}).Where(whereID, id).Updates(updates).Error; err != nil {
				return pkgerrors.Wrap(err, "failed to update department")
			}
		}

		if structural {
			return s.rebuild(tx)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return e.Get(ctx, id)
}

func fieldUpdates(tx *gorm.DB, id uint, in UpdateInput) (map[string]any, error) {
	updates := make(map[string]any)

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, ErrInvalidInput.WithMessage("department name cannot be empty")
		}

		updates["name"] = *in.Name
	}

	if in.Code != nil {
		if strings.TrimSpace(*in.Code) == "" {
			return nil, ErrInvalidInput.WithMessage("department code cannot be empty")
		}

		if err := ensureCodeFree(tx, *in.Code, id); err != nil {
			return nil, err
		}

		updates["code"] = *in.Code
	}

	if in.ManagerID != nil {
		updates["manager_id"] = *in.ManagerID
	}

	if in.SortOrder != nil {
		updates["sort_order"] = *in.SortOrder
	}

	if in.Status != nil {
		updates["status"] = *in.Status
	}

	if in.Description != nil {
		updates["description"] = *in.Description
	}

	if in.Metadata != nil {
		updates["metadata"] = datatypes.JSONMap(in.Metadata)
	}

	return updates, nil
}

// Move repositions a department. See Position for the placement rules.
//
// Validation order: a before/after move needs a target (ErrInvalidMove), the
// target or parent must not be the department itself (ErrCannotMoveToSelf)
// nor one of its descendants (ErrCannotMoveToDescendant), and it must exist
// (ErrTargetNotFound, ErrParentNotFound).
func (e *Engine) Move(ctx context.Context, id uint, in MoveInput) (*models.Department, error) {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := load(tx)
		if err != nil {
			return err
		}

		moving, ok := s.byID[id]
		if !ok {
			return ErrNotFound
		}

		if err = s.validateMove(id, in); err != nil {
			return err
		}

		var newParent *uint

		switch in.Position {
		case PositionBefore, PositionAfter:
			target := s.byID[*in.TargetID]
			newParent = target.ParentID

			siblings := s.siblings(newParent, id)
			at := 0

			for i, sib := range siblings {
				if sib.ID == target.ID {
					at = i
					break
				}
			}

			if in.Position == PositionAfter {
				at++
			}

			ordered := make([]node, 0, len(siblings)+1)
			ordered = append(ordered, siblings[:at]...)
			ordered = append(ordered, *moving)
			ordered = append(ordered, siblings[at:]...)

			if err = s.setParent(tx, id, newParent); err != nil {
				return err
			}

			if err = s.renumber(tx, ordered); err != nil {
				return err
			}
		default:
			newParent = in.ParentID
			next := s.nextSortOrder(newParent, id)

			if err = s.setParent(tx, id, newParent); err != nil {
				return err
			}

			if err = s.setSortOrder(tx, id, next); err != nil {
				return err
			}
		}

		return s.rebuild(tx)
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Uint("department_id", id).Str("position", string(in.Position)).Msg("department moved")

	return e.Get(ctx, id)
}

// Delete removes a department without children and without users.
func (e *Engine) Delete(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := load(tx)
		if err != nil {
			return err
		}

		if _, ok := s.byID[id]; !ok {
			return ErrNotFound
		}

		if len(s.siblings(&id, 0)) > 0 {
			return ErrHasChildren
		}

		var users int64
		if err = tx.Model(&models.User{}).Where("department_id = ?", id).Count(&users).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to count department users")
		}

		if users > 0 {
			return ErrHasUsers
		}

		if err = tx.Delete(&models.Department{}, id).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to delete department")
		}

		// soft deleted users keep no dangling reference
		if err = tx.Unscoped().Model(&models.User{}).Where("department_id = ?", id).
			UpdateColumn("department_id", nil).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to detach deleted users")
		}

		s.remove(id)

		return s.rebuild(tx)
	})
}

// Rebuild recomputes all nested set boundaries from the parent links.
func (e *Engine) Rebuild(ctx context.Context) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := load(tx)
		if err != nil {
			return err
		}

		return s.rebuild(tx)
	})
}

// Get loads one department.
func (e *Engine) Get(ctx context.Context, id uint) (*models.Department, error) {
	var dept models.Department

	err := e.db.WithContext(ctx).First(&dept, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage(fmt.Sprintf("department %d not found", id))
	}

	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load department")
	}

	return &dept, nil
}

// Ancestors returns the ancestors of a department, root first.
func (e *Engine) Ancestors(ctx context.Context, id uint) ([]models.Department, error) {
	dept, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var out []models.Department

	err = e.db.WithContext(ctx).
		Where("lft < ? AND rgt > ?", dept.Lft, dept.Rgt).
		Order("lft").
		Find(&out).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load ancestors")
	}

	return out, nil
}

// Descendants returns all departments below id in pre-order.
func (e *Engine) Descendants(ctx context.Context, id uint) ([]models.Department, error) {
	dept, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var out []models.Department

	err = e.db.WithContext(ctx).
		Where("lft > ? AND rgt < ?", dept.Lft, dept.Rgt).
		Order("lft").
		Find(&out).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load descendants")
	}

	return out, nil
}

// FullPathSeparator joins the names in FullPath.
const FullPathSeparator = " / "

// FullPath returns the ancestor names and the department name, root first.
func (e *Engine) FullPath(ctx context.Context, id uint) (string, error) {
	dept, err := e.Get(ctx, id)
	if err != nil {
		return "", err
	}

	ancestors, err := e.Ancestors(ctx, id)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		names = append(names, a.Name)
	}

	return strings.Join(append(names, dept.Name), FullPathSeparator), nil
}

// IsAncestorOf reports whether a is an ancestor of b.
func (e *Engine) IsAncestorOf(ctx context.Context, a, b uint) (bool, error) {
	ancestor, err := e.Get(ctx, a)
	if err != nil {
		return false, err
	}

	dept, err := e.Get(ctx, b)
	if err != nil {
		return false, err
	}

	return ancestor.Lft < dept.Lft && dept.Rgt < ancestor.Rgt, nil
}

// lock adds FOR UPDATE where the dialect supports row locks.
func lock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}

	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func ensureCodeFree(tx *gorm.DB, code string, exceptID uint) error {
	var count int64

	q := tx.Model(&models.Department{}).Where("code = ?", code)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to check department code")
	}

	if count > 0 {
		return ErrDuplicateCode.WithMessage(fmt.Sprintf("department code %q already exists", code))
	}

	return nil
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
