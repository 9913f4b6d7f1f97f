package menu

import (
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

// Route is the front-end representation of a visible menu.
type Route struct {
	Path      string         `json:"path"`
	Name      string         `json:"name"`
	Component *string        `json:"component"`
	Redirect  *string        `json:"redirect,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	Children  []Route        `json:"children,omitempty"`
}

// Render converts a filtered forest into routes.
func Render(forest []*tree.Node[models.Menu]) []Route {
	out := make([]Route, 0, len(forest))

	for _, n := range forest {
		out = append(out, render(n))
	}

	return out
}

func render(n *tree.Node[models.Menu]) Route {
	m := n.Item

	r := Route{
		Path:      m.Path,
		Name:      m.Name,
		Component: m.Component,
		Redirect:  m.Redirect,
	}

	if m.Redirect != nil && *m.Redirect == "" {
		r.Redirect = nil
	}

	meta := make(map[string]any, len(m.Meta)+1)
	for k, v := range m.Meta {
		meta[k] = v
	}

	if m.Guard.Valid {
		meta["guard"] = m.Guard
	}

	if len(meta) > 0 {
		r.Meta = meta
	}

	if len(n.Children) > 0 {
		r.Children = Render(n.Children)
	}

	return r
}
