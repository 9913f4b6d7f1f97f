// Package tree builds ordered forests from flat parent-linked lists.
//
// Departments and menus are stored as flat rows with a nullable parent id
// and a sort key. Build groups them by parent, orders every sibling group by
// (sort order, id) and returns the roots. Children is never nil so a node
// always serializes with "children": [].
package tree

import (
	"cmp"
	"slices"
)

// Item is a node that can be placed in a tree.
type Item interface {
	TreeID() uint
	TreeParentID() *uint
	TreeSortOrder() int
}

// Node is one element of a built forest.
type Node[T Item] struct {
	Item     T          `json:"item"`
	Children []*Node[T] `json:"children"`
}

// Build converts items into an ordered forest.
//
// Items referencing a parent that is not part of the input are treated as
// roots. Items that are only reachable through a parent cycle are appended
// as roots as well, so every input item appears exactly once.
func Build[T Item](items []T) []*Node[T] {
	known := make(map[uint]struct{}, len(items))
	for _, item := range items {
		known[item.TreeID()] = struct{}{}
	}

	var (
		roots    []T
		children = make(map[uint][]T)
	)

	for _, item := range items {
		parent := item.TreeParentID()
		if parent == nil || *parent == item.TreeID() {
			roots = append(roots, item)
			continue
		}

		if _, ok := known[*parent]; !ok {
			roots = append(roots, item)
			continue
		}

		children[*parent] = append(children[*parent], item)
	}

	b := builder[T]{children: children, visited: make(map[uint]struct{}, len(items))}
	forest := b.attach(roots)

	// cycle members never hang below a root
	if len(b.visited) < len(items) {
		var rest []T

		for _, item := range items {
			if _, ok := b.visited[item.TreeID()]; !ok {
				rest = append(rest, item)
			}
		}

		for _, item := range Sort(rest) {
			if _, ok := b.visited[item.TreeID()]; ok {
				continue
			}

			forest = append(forest, b.attach([]T{item})...)
		}
	}

	return forest
}

type builder[T Item] struct {
	children map[uint][]T
	visited  map[uint]struct{}
}

func (b *builder[T]) attach(items []T) []*Node[T] {
	nodes := make([]*Node[T], 0, len(items))

	for _, item := range Sort(items) {
		if _, seen := b.visited[item.TreeID()]; seen {
			continue
		}

		b.visited[item.TreeID()] = struct{}{}

		nodes = append(nodes, &Node[T]{
			Item:     item,
			Children: b.attach(b.children[item.TreeID()]),
		})
	}

	return nodes
}

// Sort returns a copy of items ordered by (sort order, id).
func Sort[T Item](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, Compare[T])

	return out
}

// Compare orders two items by sort order, then id.
func Compare[T Item](a, b T) int {
	if c := cmp.Compare(a.TreeSortOrder(), b.TreeSortOrder()); c != 0 {
		return c
	}

	return cmp.Compare(a.TreeID(), b.TreeID())
}

// Flatten walks the forest in pre-order and returns the items.
func Flatten[T Item](forest []*Node[T]) []T {
	var out []T

	Walk(forest, func(n *Node[T], _ int) {
		out = append(out, n.Item)
	})

	return out
}

// Walk visits every node depth first, parents before children.
// depth is 0 for roots.
func Walk[T Item](forest []*Node[T], fn func(n *Node[T], depth int)) {
	walk(forest, 0, fn)
}

func walk[T Item](nodes []*Node[T], depth int, fn func(n *Node[T], depth int)) {
	for _, n := range nodes {
		fn(n, depth)
		walk(n.Children, depth+1, fn)
	}
}

// Map converts a forest into another tree shaped type.
// fn receives the node and its already converted children.
func Map[T Item, R any](forest []*Node[T], fn func(n *Node[T], children []R) R) []R {
	out := make([]R, 0, len(forest))

	for _, n := range forest {
		out = append(out, fn(n, Map(n.Children, fn)))
	}

	return out
}
