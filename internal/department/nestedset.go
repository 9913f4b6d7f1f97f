package department

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

// node is the part of a department needed to maintain the tree.
type node struct {
	ID        uint
	ParentID  *uint
	SortOrder int
	Lft       int
	Rgt       int
}

func (n node) TreeID() uint        { return n.ID }
func (n node) TreeParentID() *uint { return n.ParentID }
func (n node) TreeSortOrder() int  { return n.SortOrder }

// snapshot is the locked department set of one transaction.
type snapshot struct {
	nodes []node
	byID  map[uint]*node
}

func load(tx *gorm.DB) (*snapshot, error) {
	var nodes []node

	err := lock(tx).Model(&models.Department{}).
		Select("id", "parent_id", "sort_order", "lft", "rgt").
		Order("id").
		Find(&nodes).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load departments")
	}

	s := &snapshot{nodes: nodes}
	s.index()

	return s, nil
}

func (s *snapshot) index() {
	s.byID = make(map[uint]*node, len(s.nodes))
	for i := range s.nodes {
		s.byID[s.nodes[i].ID] = &s.nodes[i]
	}
}

func (s *snapshot) add(n node) {
	s.nodes = append(s.nodes, n)
	s.index()
}

func (s *snapshot) remove(id uint) {
	out := s.nodes[:0]

	for _, n := range s.nodes {
		if n.ID != id {
			out = append(out, n)
		}
	}

	s.nodes = out
	s.index()
}

// isDescendant follows the parent links from candidate upwards.
func (s *snapshot) isDescendant(candidate, ancestor uint) bool {
	seen := make(map[uint]struct{})

	cur, ok := s.byID[candidate]
	for ok && cur.ParentID != nil {
		if *cur.ParentID == ancestor {
			return true
		}

		if _, loop := seen[cur.ID]; loop {
			return false
		}

		seen[cur.ID] = struct{}{}
		cur, ok = s.byID[*cur.ParentID]
	}

	return false
}

// siblings returns the ordered children of parent (roots for nil), without exclude.
func (s *snapshot) siblings(parent *uint, exclude uint) []node {
	var out []node

	for _, n := range s.nodes {
		if n.ID != exclude && sameParent(n.ParentID, parent) {
			out = append(out, n)
		}
	}

	return tree.Sort(out)
}

// nextSortOrder returns a sort order placing a node after all children of parent.
func (s *snapshot) nextSortOrder(parent *uint, exclude uint) int {
	siblings := s.siblings(parent, exclude)
	if len(siblings) == 0 {
		return 1
	}

	last := siblings[len(siblings)-1].SortOrder
	for _, sib := range siblings {
		last = max(last, sib.SortOrder)
	}

	return last + 1
}

func (s *snapshot) validateMove(id uint, in MoveInput) error {
	var (
		ref      *uint
		notFound = ErrParentNotFound
	)

	switch in.Position {
	case PositionBefore, PositionAfter:
		if in.TargetID == nil {
			return ErrInvalidMove
		}

		ref = in.TargetID
		notFound = ErrTargetNotFound
	case PositionInside:
		ref = in.ParentID
	default:
		return ErrInvalidMove.WithMessage(fmt.Sprintf("unknown move position %q", in.Position))
	}

	// inside without parent promotes to root
	if ref == nil {
		return nil
	}

	if *ref == id {
		return ErrCannotMoveToSelf
	}

	if s.isDescendant(*ref, id) {
		return ErrCannotMoveToDescendant
	}

	if _, ok := s.byID[*ref]; !ok {
		return notFound.WithMessage(fmt.Sprintf("%s: %d", notFound.Message, *ref))
	}

	return nil
}

func (s *snapshot) setParent(tx *gorm.DB, id uint, parent *uint) error {
	n := s.byID[id]
	if sameParent(n.ParentID, parent) {
		return nil
	}

	if err := tx.Model(&models.Department{}).Where(whereID, id).Update("parent_id", parent).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to change parent")
	}

	n.ParentID = parent

	return nil
}

func (s *snapshot) setSortOrder(tx *gorm.DB, id uint, order int) error {
	n := s.byID[id]
	if n.SortOrder == order {
		return nil
	}

	if err := tx.Model(&models.Department{}).Where(whereID, id).Update("sort_order", order).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to change sort order")
	}

	n.SortOrder = order

	return nil
}

// renumber stores sort orders 1..n for the given sibling order.
func (s *snapshot) renumber(tx *gorm.DB, ordered []node) error {
	for i, n := range ordered {
		if err := s.setSortOrder(tx, n.ID, i+1); err != nil {
			return err
		}
	}

	return nil
}

// rebuild recomputes lft/rgt from the parent links and writes the rows that changed.
func (s *snapshot) rebuild(tx *gorm.DB) error {
	counter := 0

	return s.number(tx, tree.Build(s.nodes), &counter)
}

func (s *snapshot) number(tx *gorm.DB, forest []*tree.Node[node], counter *int) error {
	for _, n := range forest {
		*counter++
		lft := *counter

		if err := s.number(tx, n.Children, counter); err != nil {
			return err
		}

		*counter++
		rgt := *counter

		cur := s.byID[n.Item.ID]
		if cur.Lft == lft && cur.Rgt == rgt {
			continue
		}

		err := tx.Model(&models.Department{}).Where(whereID, cur.ID).
			UpdateColumns(map[string]any{"lft": lft, "rgt": rgt}).Error
		if err != nil {
			return pkgerrors.Wrap(err, "failed to store nested set boundaries")
		}

		cur.Lft, cur.Rgt = lft, rgt
	}

	return nil
}
