package menu

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

// Format is the encoding of a menu export file.
type Format string

const (
	// FormatJSON encodes the export as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML encodes the export as YAML.
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension; unknown extensions are JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ExportNode is one menu of an export file. Roles and permissions are
// referenced by name so a file can be moved between installations.
type ExportNode struct {
	Name        string         `json:"name" yaml:"name"`
	Path        string         `json:"path" yaml:"path"`
	Component   *string        `json:"component,omitempty" yaml:"component,omitempty"`
	Redirect    *string        `json:"redirect,omitempty" yaml:"redirect,omitempty"`
	SortOrder   *int           `json:"sort_order,omitempty" yaml:"sort_order,omitempty"`
	IsEnabled   *bool          `json:"is_enabled,omitempty" yaml:"is_enabled,omitempty"`
	IsPublic    bool           `json:"is_public,omitempty" yaml:"is_public,omitempty"`
	Meta        map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	Guard       any            `json:"guard,omitempty" yaml:"guard,omitempty"`
	Roles       []string       `json:"roles,omitempty" yaml:"roles,omitempty"`
	Permissions []string       `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Children    []ExportNode   `json:"children,omitempty" yaml:"children,omitempty"`
}

// ImportReport counts the menus written by Import.
type ImportReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Export returns the whole menu forest.
func (s *Service) Export(ctx context.Context) ([]ExportNode, error) {
	forest, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}

	return tree.Map(forest, func(n *tree.Node[models.Menu], children []ExportNode) ExportNode {
		m := n.Item
		order, enabled := m.SortOrder, m.IsEnabled

		out := ExportNode{
			Name:        m.Name,
			Path:        m.Path,
			Component:   m.Component,
			Redirect:    m.Redirect,
			SortOrder:   &order,
			IsEnabled:   &enabled,
			IsPublic:    m.IsPublic,
			Roles:       m.RoleNames,
			Permissions: m.PermissionNames,
			Children:    children,
		}

		if len(m.Meta) > 0 {
			out.Meta = m.Meta
		}

		if m.Guard.Valid {
			out.Guard = guardValue(m.Guard)
		}

		return out
	}), nil
}

// Import creates or updates the menus of the forest by name, keeping the
// tree shape of the file. Existing menus missing from the file are kept.
// Role and permission names that do not exist are skipped.
func (s *Service) Import(ctx context.Context, nodes []ExportNode) (ImportReport, error) {
	var report ImportReport

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return importNodes(tx, nodes, nil, &report)
	})
	if err != nil {
		return ImportReport{}, err
	}

	s.invalidate(ctx)

	return report, nil
}

// Encode writes the forest in the given format.
func Encode(nodes []ExportNode, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		out, err := json.MarshalIndent(nodes, "", "    ")
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to encode menus")
		}

		return append(out, '\n'), nil
	case FormatYAML:
		out, err := yaml.Marshal(nodes)

		return out, pkgerrors.Wrap(err, "failed to encode menus")
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Decode reads a forest in the given format.
func Decode(data []byte, format Format) ([]ExportNode, error) {
	var nodes []ExportNode

	switch format {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, ErrInvalidInput.Wrap(err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &nodes); err != nil {
			return nil, ErrInvalidInput.Wrap(err)
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	return nodes, nil
}

func importNodes(tx *gorm.DB, nodes []ExportNode, parentID *uint, report *ImportReport) error {
	for i, n := range nodes {
		if strings.TrimSpace(n.Name) == "" {
			return ErrInvalidInput.WithMessage("menu name is required")
		}

		guard, err := parseGuard(n.Guard)
		if err != nil {
			return err
		}

		m := models.Menu{
			ParentID:  parentID,
			Name:      n.Name,
			Path:      n.Path,
			Component: n.Component,
			Redirect:  n.Redirect,
			SortOrder: i,
			IsEnabled: n.IsEnabled == nil || *n.IsEnabled,
			IsPublic:  n.IsPublic,
			Meta:      datatypes.JSONMap(n.Meta),
			Guard:     guard,
		}

		if n.SortOrder != nil {
			m.SortOrder = *n.SortOrder
		}

		var existing models.Menu

		err = tx.Where("name = ?", n.Name).Take(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err = tx.Create(&m).Error; err != nil {
				return pkgerrors.Wrapf(err, "failed to create menu %s", n.Name)
			}

			report.Created++
		case err != nil:
			return pkgerrors.Wrap(err, "failed to look up menu")
		default:
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt

			err = tx.Model(&existing).Select("*").Omit("id", "created_at").Updates(&m).Error
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to update menu %s", n.Name)
			}

			report.Updated++
		}

		if n.Roles != nil {
			if err = linkByName(tx, m.ID, n.Roles, &models.Role{}, syncRoles); err != nil {
				return err
			}
		}

		if n.Permissions != nil {
			if err = linkByName(tx, m.ID, n.Permissions, &models.Permission{}, syncPermissions); err != nil {
				return err
			}
		}

		id := m.ID
		if err = importNodes(tx, n.Children, &id, report); err != nil {
			return err
		}
	}

	return nil
}

func linkByName(tx *gorm.DB, menuID uint, names []string, model any, sync func(*gorm.DB, uint, []uint) error) error {
	var ids []uint

	if len(names) > 0 {
		if err := tx.Model(model).Where("name IN ?", names).Pluck("id", &ids).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to resolve names")
		}
	}

	if len(ids) != len(names) {
		log.Warn().Strs("names", names).Uint("menu", menuID).Msg("skipping unknown names while importing menu")
	}

	return sync(tx, menuID, ids)
}

// guardValue converts a guard into plain values so YAML and JSON write the same shape.
func guardValue(g models.MenuGuard) any {
	data, err := g.MarshalJSON()
	if err != nil {
		return nil
	}

	var out any
	if err = json.Unmarshal(data, &out); err != nil {
		return nil
	}

	return out
}

func parseGuard(v any) (models.MenuGuard, error) {
	var g models.MenuGuard

	if v == nil {
		return g, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return g, ErrInvalidInput.Wrap(err)
	}

	if err = g.UnmarshalJSON(data); err != nil {
		return g, ErrInvalidInput.Wrap(err)
	}

	return g, nil
}
