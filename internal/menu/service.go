// Package menu resolves the menu tree a user may see and administers menus.
//
// Visibility is decided per node by Resolver and the visible forest is
// rendered into front-end routes. Results are cached per role (and
// permission) fingerprint by Cache; every menu mutation flushes the cache
// after its transaction committed.
package menu

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

const whereID = "id = ?"

// CreateInput holds the fields of a new menu.
type CreateInput struct {
	ParentID  *uint             `json:"parent_id"`
	Name      string            `json:"name" validate:"required,max=100"`
	Path      string            `json:"path" validate:"required,max=255"`
	Component *string           `json:"component" validate:"omitempty,max=255"`
	Redirect  *string           `json:"redirect" validate:"omitempty,max=255"`
	SortOrder int               `json:"sort_order"`
	IsEnabled *bool             `json:"is_enabled"`
	IsPublic  bool              `json:"is_public"`
	Meta      map[string]any    `json:"meta"`
	Guard     *models.MenuGuard `json:"guard"`
	// RoleIDs and PermissionIDs are linked in the same transaction.
	RoleIDs       []uint `json:"role_ids"`
	PermissionIDs []uint `json:"permission_ids"`
}

// UpdateInput holds the fields to change. Nil fields are left untouched.
type UpdateInput struct {
	ParentID  *uint             `json:"parent_id"`
	Name      *string           `json:"name" validate:"omitempty,max=100"`
	Path      *string           `json:"path" validate:"omitempty,max=255"`
	Component *string           `json:"component" validate:"omitempty,max=255"`
	Redirect  *string           `json:"redirect" validate:"omitempty,max=255"`
	SortOrder *int              `json:"sort_order"`
	IsEnabled *bool             `json:"is_enabled"`
	IsPublic  *bool             `json:"is_public"`
	Meta      map[string]any    `json:"meta"`
	Guard     *models.MenuGuard `json:"guard"`
	// RoleIDs and PermissionIDs replace the links when not nil.
	RoleIDs       []uint `json:"role_ids"`
	PermissionIDs []uint `json:"permission_ids"`

	// ParentSet is true when parent_id was sent; with a nil ParentID the menu becomes a root.
	ParentSet bool `json:"-"`
	// GuardSet is true when guard was sent; with a nil Guard the guard is removed.
	GuardSet bool `json:"-"`
}

// Filter narrows List.
type Filter struct {
	Keyword  string
	ParentID *uint
	Enabled  *bool
	Page     int
	PageSize int
}

// Service implements the menu operations.
type Service struct {
	db       *gorm.DB
	cache    *Cache
	resolver Resolver
}

// NewService creates a menu service. A nil cache disables caching.
func NewService(db *gorm.DB, c *Cache, r Resolver) *Service {
	if c == nil {
		c = NewCache(nil, CacheOptions{})
	}

	if r.SuperAdminRole == "" {
		r = NewResolver("")
	}

	return &Service{db: db, cache: c, resolver: r}
}

// Cache returns the cache used by the service.
func (s *Service) Cache() *Cache {
	return s.cache
}

// TreeFor returns the routes visible to p. With refresh the cached entry of p
// is dropped and rebuilt; other entries are not touched.
func (s *Service) TreeFor(ctx context.Context, p Principal, refresh bool) (Result, error) {
	key := s.cache.Key(p)

	if refresh {
		s.cache.Forget(ctx, key)
	}

	return s.cache.Remember(ctx, key, func(ctx context.Context) (Result, error) {
		menus, err := load(s.db.WithContext(ctx))
		if err != nil {
			return Result{}, err
		}

		return Result{
			List:    Render(s.resolver.Filter(tree.Build(menus), p)),
			Version: Version(menus),
		}, nil
	})
}

// Version fingerprints the menu table by its newest update and its size.
// An empty table has the fixed version md5("00").
func Version(menus []models.Menu) string {
	var latest int64

	for _, m := range menus {
		latest = max(latest, m.UpdatedAt.Unix())
	}

	sum := md5.Sum([]byte(strconv.FormatInt(latest, 10) + strconv.Itoa(len(menus)))) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

// Tree returns every menu as a forest, including disabled ones and their links.
func (s *Service) Tree(ctx context.Context) ([]*tree.Node[models.Menu], error) {
	menus, err := load(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	return tree.Build(menus), nil
}

// List returns menus ordered by sort order and the total count.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Menu, int64, error) {
	var (
		out   []models.Menu
		total int64
	)

	q := s.db.WithContext(ctx).Model(&models.Menu{})

	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		q = q.Where("name LIKE ? OR path LIKE ?", like, like)
	}

	if f.ParentID != nil {
		q = q.Where("parent_id = ?", *f.ParentID)
	}

	if f.Enabled != nil {
		q = q.Where("is_enabled = ?", *f.Enabled)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to count menus")
	}

	if f.PageSize > 0 {
		page := max(f.Page, 1)
		q = q.Limit(f.PageSize).Offset((page - 1) * f.PageSize)
	}

	if err := q.Order("sort_order").Order("id").Find(&out).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list menus")
	}

	if err := attachLinks(s.db.WithContext(ctx), out); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

// Get returns one menu with its links.
func (s *Service) Get(ctx context.Context, id uint) (*models.Menu, error) {
	return get(s.db.WithContext(ctx), id)
}

// Create inserts a menu and links its roles and permissions.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Menu, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrInvalidInput.WithMessage("menu name is required")
	}

	m := models.Menu{
		ParentID:  in.ParentID,
		Name:      in.Name,
		Path:      in.Path,
		Component: in.Component,
		Redirect:  in.Redirect,
		SortOrder: in.SortOrder,
		IsEnabled: in.IsEnabled == nil || *in.IsEnabled,
		IsPublic:  in.IsPublic,
		Meta:      datatypes.JSONMap(in.Meta),
	}

	if in.Guard != nil {
		m.Guard = *in.Guard
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ParentID != nil {
			if err := ensureExists(tx, *in.ParentID); err != nil {
				return err
			}
		}

		if err := ensureNameFree(tx, in.Name, 0); err != nil {
			return err
		}

		if err := tx.Create(&m).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to create menu")
		}

		if in.RoleIDs != nil {
			if err := syncRoles(tx, m.ID, in.RoleIDs); err != nil {
				return err
			}
		}

		if in.PermissionIDs != nil {
			if err := syncPermissions(tx, m.ID, in.PermissionIDs); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	return s.Get(ctx, m.ID)
}

// Update changes a menu. A new parent must exist and must not be the menu or one of its descendants.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Menu, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := get(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]any{}

		if in.ParentSet {
			if err = validateParent(tx, id, in.ParentID); err != nil {
				return err
			}

			updates["parent_id"] = in.ParentID
		}

		if in.Name != nil && *in.Name != cur.Name {
			if strings.TrimSpace(*in.Name) == "" {
				return ErrInvalidInput.WithMessage("menu name is required")
			}

			if err = ensureNameFree(tx, *in.Name, id); err != nil {
				return err
			}

			updates["name"] = *in.Name
		}

		if in.Path != nil {
			updates["path"] = *in.Path
		}

		if in.Component != nil {
			updates["component"] = nullable(*in.Component)
		}

		if in.Redirect != nil {
			updates["redirect"] = nullable(*in.Redirect)
		}

		if in.SortOrder != nil {
			updates["sort_order"] = *in.SortOrder
		}

		if in.IsEnabled != nil {
			updates["is_enabled"] = *in.IsEnabled
		}

		if in.IsPublic != nil {
			updates["is_public"] = *in.IsPublic
		}

		if in.Meta != nil {
			updates["meta"] = datatypes.JSONMap(in.Meta)
		}

		if in.GuardSet || in.Guard != nil {
			guard := models.MenuGuard{}
			if in.Guard != nil {
				guard = *in.Guard
			}

			updates["guard"] = guard
		}

		if len(updates) > 0 {
			if err = tx.Model(&models.Menu{}).Where(whereID, id).Updates(updates).Error; err != nil {
				return pkgerrors.Wrap(err, "failed to update menu")
			}
		}

		if in.RoleIDs != nil {
			if err = syncRoles(tx, id, in.RoleIDs); err != nil {
				return err
			}
		}

		if in.PermissionIDs != nil {
			if err = syncPermissions(tx, id, in.PermissionIDs); err != nil {
				return err
			}
		}

		return touch(tx, id)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	return s.Get(ctx, id)
}

// Delete removes a menu without children together with its links.
func (s *Service) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, id); err != nil {
			return err
		}

		var children int64
		if err := tx.Model(&models.Menu{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to count child menus")
		}

		if children > 0 {
			return ErrHasChildren
		}

		if err := tx.Where("menu_id = ?", id).Delete(&models.MenuRole{}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to unlink menu roles")
		}

		if err := tx.Where("menu_id = ?", id).Delete(&models.MenuPermission{}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to unlink menu permissions")
		}

		if err := tx.Delete(&models.Menu{}, id).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to delete menu")
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

// SyncRoles replaces the roles linked to a menu.
func (s *Service) SyncRoles(ctx context.Context, menuID uint, roleIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, menuID); err != nil {
			return err
		}

		if err := syncRoles(tx, menuID, roleIDs); err != nil {
			return err
		}

		return touch(tx, menuID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

// SyncPermissions replaces the permissions linked to a menu.
func (s *Service) SyncPermissions(ctx context.Context, menuID uint, permissionIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get(tx, menuID); err != nil {
			return err
		}

		if err := syncPermissions(tx, menuID, permissionIDs); err != nil {
			return err
		}

		return touch(tx, menuID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

// AssignToRole replaces the menus linked to a role.
func (s *Service) AssignToRole(ctx context.Context, roleID uint, menuIDs []uint) error {
	menuIDs = unique(menuIDs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where(whereID, roleID).Count(&count).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to look up role")
		}

		if count == 0 {
			return ErrRoleNotFound
		}

		if err := ensureAllExist(tx, &models.Menu{}, menuIDs, ErrNotFound); err != nil {
			return err
		}

		if err := tx.Where("role_id = ?", roleID).Delete(&models.MenuRole{}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to unlink role menus")
		}

		if len(menuIDs) == 0 {
			return nil
		}

		links := make([]models.MenuRole, 0, len(menuIDs))
		for _, id := range menuIDs {
			links = append(links, models.MenuRole{MenuID: id, RoleID: roleID})
		}

		if err := tx.Create(&links).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to link role menus")
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

// RoleMenuIDs returns the IDs of the menus linked to a role.
func (s *Service) RoleMenuIDs(ctx context.Context, roleID uint) ([]uint, error) {
	var ids []uint

	err := s.db.WithContext(ctx).Model(&models.MenuRole{}).
		Where("role_id = ?", roleID).Order("menu_id").Pluck("menu_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load role menus")
	}

	return ids, nil
}

// Flush drops every cached menu tree.
func (s *Service) Flush(ctx context.Context) error {
	return s.cache.Flush(ctx)
}

// invalidate flushes the cache; failures are logged by the cache.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Flush(ctx); err != nil {
		log.Warn().Err(err).Msg("menu cache not flushed after change")
	}
}

// load returns every menu with its role and permission names.
func load(db *gorm.DB) ([]models.Menu, error) {
	var menus []models.Menu

	if err := db.Order("sort_order").Order("id").Find(&menus).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load menus")
	}

	if err := attachLinks(db, menus); err != nil {
		return nil, err
	}

	return menus, nil
}

func get(db *gorm.DB, id uint) (*models.Menu, error) {
	var m models.Menu

	if err := db.Where(whereID, id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to load menu")
	}

	menus := []models.Menu{m}
	if err := attachLinks(db, menus); err != nil {
		return nil, err
	}

	return &menus[0], nil
}

type link struct {
	MenuID uint
	ID     uint
	Name   string
}

// attachLinks fills the role and permission fields of menus.
func attachLinks(db *gorm.DB, menus []models.Menu) error {
	if len(menus) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(menus))
	byID := make(map[uint]*models.Menu, len(menus))

	for i := range menus {
		ids = append(ids, menus[i].ID)
		byID[menus[i].ID] = &menus[i]
	}

	var roles []link

	roleTable := models.Table(db, &models.Role{})
	err := db.Table(models.Table(db, &models.MenuRole{})+" AS mr").
		Select("mr.menu_id AS menu_id, r.id AS id, r.name AS name").
		Joins("JOIN "+roleTable+" AS r ON r.id = mr.role_id").
		Where("mr.menu_id IN ?", ids).
		Order("r.name").
		Scan(&roles).Error
	if err != nil {
		return pkgerrors.Wrap(err, "failed to load menu roles")
	}

	for _, l := range roles {
		m := byID[l.MenuID]
		m.RoleIDs = append(m.RoleIDs, l.ID)
		m.RoleNames = append(m.RoleNames, l.Name)
	}

	var perms []link

	permTable := models.Table(db, &models.Permission{})
	err = db.Table(models.Table(db, &models.MenuPermission{})+" AS mp").
		Select("mp.menu_id AS menu_id, p.id AS id, p.name AS name").
		Joins("JOIN "+permTable+" AS p ON p.id = mp.permission_id").
		Where("mp.menu_id IN ?", ids).
		Order("p.name").
		Scan(&perms).Error
	if err != nil {
		return pkgerrors.Wrap(err, "failed to load menu permissions")
	}

	for _, l := range perms {
		m := byID[l.MenuID]
		m.PermissionNames = append(m.PermissionNames, l.Name)
	}

	return nil
}

func syncRoles(tx *gorm.DB, menuID uint, roleIDs []uint) error {
	roleIDs = unique(roleIDs)

	if err := ensureAllExist(tx, &models.Role{}, roleIDs, ErrRoleNotFound); err != nil {
		return err
	}

	if err := tx.Where("menu_id = ?", menuID).Delete(&models.MenuRole{}).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to unlink menu roles")
	}

	if len(roleIDs) == 0 {
		return nil
	}

	links := make([]models.MenuRole, 0, len(roleIDs))
	for _, id := range roleIDs {
		links = append(links, models.MenuRole{MenuID: menuID, RoleID: id})
	}

	return pkgerrors.Wrap(tx.Create(&links).Error, "failed to link menu roles")
}

func syncPermissions(tx *gorm.DB, menuID uint, permissionIDs []uint) error {
	permissionIDs = unique(permissionIDs)

	if err := ensureAllExist(tx, &models.Permission{}, permissionIDs, ErrPermissionNotFound); err != nil {
		return err
	}

	if err := tx.Where("menu_id = ?", menuID).Delete(&models.MenuPermission{}).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to unlink menu permissions")
	}

	if len(permissionIDs) == 0 {
		return nil
	}

	links := make([]models.MenuPermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		links = append(links, models.MenuPermission{MenuID: menuID, PermissionID: id})
	}

	return pkgerrors.Wrap(tx.Create(&links).Error, "failed to link menu permissions")
}

// touch bumps updated_at so link changes move the menu version.
func touch(tx *gorm.DB, id uint) error {
	err := tx.Model(&models.Menu{}).Where(whereID, id).UpdateColumn("updated_at", time.Now()).Error

	return pkgerrors.Wrap(err, "failed to touch menu")
}

func ensureExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Menu{}).Where(whereID, id).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to look up menu")
	}

	if count == 0 {
		return ErrParentNotFound
	}

	return nil
}

func ensureAllExist(tx *gorm.DB, model any, ids []uint, notFound error) error {
	if len(ids) == 0 {
		return nil
	}

	var count int64
	if err := tx.Model(model).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to look up linked records")
	}

	if int(count) != len(ids) {
		return notFound
	}

	return nil
}

func ensureNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64

	q := tx.Model(&models.Menu{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to check menu name")
	}

	if count > 0 {
		return ErrDuplicateName
	}

	return nil
}

// validateParent checks that parent exists and is neither id nor below id.
func validateParent(tx *gorm.DB, id uint, parent *uint) error {
	if parent == nil {
		return nil
	}

	if *parent == id {
		return ErrCannotParentToSelf
	}

	var rows []struct {
		ID       uint
		ParentID *uint
	}

	if err := tx.Model(&models.Menu{}).Select("id", "parent_id").Find(&rows).Error; err != nil {
		return pkgerrors.Wrap(err, "failed to load menus")
	}

	parents := make(map[uint]*uint, len(rows))
	for _, r := range rows {
		parents[r.ID] = r.ParentID
	}

	if _, ok := parents[*parent]; !ok {
		return ErrParentNotFound
	}

	seen := map[uint]struct{}{}
	for p := parents[*parent]; p != nil; p = parents[*p] {
		if *p == id {
			return ErrCannotParentToDescendant
		}

		if _, loop := seen[*p]; loop {
			break
		}

		seen[*p] = struct{}{}
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func unique(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
