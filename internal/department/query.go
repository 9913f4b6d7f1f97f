package department

import (
	"context"

	pkgerrors "github.com/pkg/errors"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

// TreeNode is a department with its position in the tree.
type TreeNode struct {
	models.Department

	// Level is the number of ancestors, 0 for roots.
	Level int `json:"level"`
	// IsLeaf is true when the department has no children at all.
	IsLeaf   bool        `json:"is_leaf"`
	Children []*TreeNode `json:"children"`
}

// Filter narrows List and Tree.
type Filter struct {
	Name      string
	Code      string
	Status    models.DepartmentStatus
	ManagerID *uint64
	ParentID  *uint
	// ActiveOnly keeps active departments only. An active department below
	// an inactive one is returned as a root.
	ActiveOnly bool
	Page       int
	PageSize   int
}

// List returns departments in tree order (by lft) and the total count.
func (e *Engine) List(ctx context.Context, f Filter) ([]models.Department, int64, error) {
	var (
		out   []models.Department
		total int64
	)

	q := e.db.WithContext(ctx).Model(&models.Department{})

	if f.Name != "" {
		q = q.Where("name LIKE ?", "%"+f.Name+"%")
	}

	if f.Code != "" {
		q = q.Where("code LIKE ?", "%"+f.Code+"%")
	}

	if f.ActiveOnly {
		q = q.Where("status = ?", models.DepartmentStatusActive)
	} else if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	if f.ManagerID != nil {
		q = q.Where("manager_id = ?", *f.ManagerID)
	}

	if f.ParentID != nil {
		q = q.Where("parent_id = ?", *f.ParentID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to count departments")
	}

	if f.PageSize > 0 {
		page := max(f.Page, 1)
		q = q.Limit(f.PageSize).Offset((page - 1) * f.PageSize)
	}

	if err := q.Order("lft").Order("id").Find(&out).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list departments")
	}

	return out, total, nil
}

// Tree returns the filtered departments as a forest and the number of departments in it.
func (e *Engine) Tree(ctx context.Context, f Filter) ([]*TreeNode, int, error) {
	var all []models.Department

	if err := e.db.WithContext(ctx).Order("lft").Find(&all).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to load departments")
	}

	f.Page, f.PageSize = 0, 0

	selected, _, err := e.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	levels, hasChildren := shape(all)

	forest := tree.Map(tree.Build(selected), func(n *tree.Node[models.Department], children []*TreeNode) *TreeNode {
		return &TreeNode{
			Department: n.Item,
			Level:      levels[n.Item.ID],
			IsLeaf:     !hasChildren[n.Item.ID],
			Children:   children,
		}
	})

	return forest, len(selected), nil
}

// shape computes the level of every department and which ones have children.
func shape(all []models.Department) (map[uint]int, map[uint]bool) {
	parents := make(map[uint]*uint, len(all))
	hasChildren := make(map[uint]bool)

	for _, d := range all {
		parents[d.ID] = d.ParentID
		if d.ParentID != nil {
			hasChildren[*d.ParentID] = true
		}
	}

	levels := make(map[uint]int, len(all))

	for _, d := range all {
		level := 0
		seen := map[uint]struct{}{d.ID: {}}

		for p := parents[d.ID]; p != nil; p = parents[*p] {
			if _, loop := seen[*p]; loop {
				break
			}

			if _, ok := parents[*p]; !ok {
				break
			}

			seen[*p] = struct{}{}
			level++
		}

		levels[d.ID] = level
	}

	return levels, hasChildren
}
