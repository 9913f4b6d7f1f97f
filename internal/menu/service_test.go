package menu

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/cache"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/tree"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), models.GormConfig("iam_", logger.Discard))
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, models.AutoMigrate(db), "failed to migrate test database")

	return db
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	c := NewCache(cache.NewMemoryStore(64), CacheOptions{IncludePermissions: true})

	return NewService(db, c, NewResolver("")), db
}

func createRole(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()

	r := models.Role{Name: name, GuardName: "sanctum"}
	require.NoError(t, db.Create(&r).Error)

	return r.ID
}

func createPermission(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()

	p := models.Permission{Name: name, GuardName: "sanctum"}
	require.NoError(t, db.Create(&p).Error)

	return p.ID
}

func ptr[T any](v T) *T { return &v }

func routeNames(routes []Route) []string {
	var out []string

	for _, r := range routes {
		out = append(out, r.Name)
		out = append(out, routeNames(r.Children)...)
	}

	return out
}

func TestTreeForEditorScenario(t *testing.T) {
	ctx := context.Background()
	svc, db := setupService(t)

	editor := createRole(t, db, "editor")
	admin := createRole(t, db, "admin")

	a, err := svc.Create(ctx, CreateInput{Name: "A", Path: "/a", RoleIDs: []uint{editor}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Name: "B", Path: "b", ParentID: &a.ID, RoleIDs: []uint{admin}})
	require.NoError(t, err)

	res, err := svc.TreeFor(ctx, NewPrincipal([]string{"editor"}, nil), false)
	require.NoError(t, err)

	require.Len(t, res.List, 1)
	assert.Equal(t, "A", res.List[0].Name)
	assert.Empty(t, res.List[0].Children)

	res, err = svc.TreeFor(ctx, NewPrincipal([]string{"admin"}, nil), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, routeNames(res.List))

	res, err = svc.TreeFor(ctx, NewPrincipal([]string{"super-admin"}, nil), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, routeNames(res.List))

	res, err = svc.TreeFor(ctx, NewPrincipal(nil, nil), false)
	require.NoError(t, err)
	assert.Empty(t, res.List)
}

func TestTreeForIsIdempotentAndRefreshes(t *testing.T) {
	ctx := context.Background()
	svc, db := setupService(t)

	m, err := svc.Create(ctx, CreateInput{Name: "dashboard", Path: "/dashboard", IsPublic: true})
	require.NoError(t, err)

	p := NewPrincipal([]string{"editor"}, []string{"iam.users.view"})

	first, err := svc.TreeFor(ctx, p, false)
	require.NoError(t, err)

	second, err := svc.TreeFor(ctx, p, false)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	// a change behind the service's back is only seen after a forced refresh
	require.NoError(t, db.Model(&models.Menu{}).Where("id = ?", m.ID).Update("path", "/home").Error)

	cached, err := svc.TreeFor(ctx, p, false)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", cached.List[0].Path)

	refreshed, err := svc.TreeFor(ctx, p, true)
	require.NoError(t, err)
	assert.Equal(t, "/home", refreshed.List[0].Path)

	again, err := svc.TreeFor(ctx, p, false)
	require.NoError(t, err)
	assert.Equal(t, refreshed, again)
}

func TestTreeForDropsTreeReadBeforeMutation(t *testing.T) {
	ctx := context.Background()
	svc, db := setupService(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	_, err = svc.Create(ctx, CreateInput{Name: "a", Path: "/a", IsPublic: true})
	require.NoError(t, err)

	var (
		hold    atomic.Bool
		loaded  = make(chan struct{})
		release = make(chan struct{})
	)

	// holds the first menus read after hold is set until release is closed
	err = db.Callback().Query().After("gorm:query").Register("test:hold_menus", func(tx *gorm.DB) {
		if tx.Statement.Table == "iam_menus" && hold.CompareAndSwap(true, false) {
			close(loaded)
			<-release
		}
	})
	require.NoError(t, err)

	p := NewPrincipal(nil, nil)
	done := make(chan Result, 1)

	hold.Store(true)

	go func() {
		res, err := svc.TreeFor(ctx, p, false)
		assert.NoError(t, err)
		done <- res
	}()

	<-loaded

	_, err = svc.Create(ctx, CreateInput{Name: "b", Path: "/b", IsPublic: true})
	require.NoError(t, err)

	close(release)

	assert.Equal(t, []string{"a"}, routeNames((<-done).List))

	res, err := svc.TreeFor(ctx, p, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, routeNames(res.List))
}

func TestMutationsFlushCache(t *testing.T) {
	ctx := context.Background()
	svc, db := setupService(t)

	editor := createRole(t, db, "editor")
	p := NewPrincipal([]string{"editor"}, nil)

	m, err := svc.Create(ctx, CreateInput{Name: "reports", Path: "/reports"})
	require.NoError(t, err)

	res, err := svc.TreeFor(ctx, p, false)
	require.NoError(t, err)
	assert.Empty(t, res.List, "no gate means hidden")

	version := res.Version

	require.NoError(t, svc.SyncRoles(ctx, m.ID, []uint{editor}))

	res, err = svc.TreeFor(ctx, p, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports"}, routeNames(res.List))

	_, err = svc.Update(ctx, m.ID, UpdateInput{IsEnabled: ptr(false)})
	require.NoError(t, err)

	res, err = svc.TreeFor(ctx, p, false)
	require.NoError(t, err)
	assert.Empty(t, res.List)

	_, err = svc.Create(ctx, CreateInput{Name: "other", Path: "/other"})
	require.NoError(t, err)

	res, err = svc.TreeFor(ctx, p, false)
	require.NoError(t, err)
	assert.NotEqual(t, version, res.Version)

	require.NoError(t, svc.AssignToRole(ctx, editor, nil))

	ids, err := svc.RoleMenuIDs(ctx, editor)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTreeForPermissionGate(t *testing.T) {
	ctx := context.Background()
	svc, db := setupService(t)

	view := createPermission(t, db, "iam.users.view")

	_, err := svc.Create(ctx, CreateInput{Name: "users", Path: "/users", PermissionIDs: []uint{view}})
	require.NoError(t, err)

	res, err := svc.TreeFor(ctx, NewPrincipal(nil, []string{"iam.users.view"}), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, routeNames(res.List))

	res, err = svc.TreeFor(ctx, NewPrincipal(nil, []string{"iam.roles.view"}), false)
	require.NoError(t, err)
	assert.Empty(t, res.List)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Create(ctx, CreateInput{Name: "root", Path: "/"})
	require.NoError(t, err)

	testCases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{name: "missing name", in: CreateInput{Path: "/x"}, want: ErrInvalidInput},
		{name: "duplicate name", in: CreateInput{Name: "root", Path: "/y"}, want: ErrDuplicateName},
		{name: "unknown parent", in: CreateInput{Name: "x", Path: "/x", ParentID: ptr(uint(99))}, want: ErrParentNotFound},
		{name: "unknown role", in: CreateInput{Name: "x", Path: "/x", RoleIDs: []uint{42}}, want: ErrRoleNotFound},
		{name: "unknown permission", in: CreateInput{Name: "x", Path: "/x", PermissionIDs: []uint{42}}, want: ErrPermissionNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}

	all, total, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, all, 1)
}

func TestUpdateParentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	a, err := svc.Create(ctx, CreateInput{Name: "a", Path: "/a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{Name: "b", Path: "b", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := svc.Create(ctx, CreateInput{Name: "c", Path: "c", ParentID: &b.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, UpdateInput{ParentID: &a.ID, ParentSet: true})
	require.ErrorIs(t, err, ErrCannotParentToSelf)

	_, err = svc.Update(ctx, a.ID, UpdateInput{ParentID: &c.ID, ParentSet: true})
	require.ErrorIs(t, err, ErrCannotParentToDescendant)

	_, err = svc.Update(ctx, a.ID, UpdateInput{ParentID: ptr(uint(99)), ParentSet: true})
	require.ErrorIs(t, err, ErrParentNotFound)

	_, err = svc.Update(ctx, 99, UpdateInput{Name: ptr("x")})
	require.ErrorIs(t, err, ErrNotFound)

	moved, err := svc.Update(ctx, c.ID, UpdateInput{ParentSet: true})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	forest, err := svc.Tree(ctx)
	require.NoError(t, err)
	assert.Len(t, forest, 2)
}

func TestUpdateGuard(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	guard := models.NewMenuGuard(models.GuardModeExcept, "guest")

	m, err := svc.Create(ctx, CreateInput{Name: "a", Path: "/a", Guard: &guard})
	require.NoError(t, err)
	assert.True(t, m.Guard.Valid)
	assert.Equal(t, models.GuardModeExcept, m.Guard.Mode)

	m, err = svc.Update(ctx, m.ID, UpdateInput{Redirect: ptr("/a/b")})
	require.NoError(t, err)
	assert.True(t, m.Guard.Valid, "guard untouched when not sent")
	assert.Equal(t, "/a/b", *m.Redirect)

	m, err = svc.Update(ctx, m.ID, UpdateInput{GuardSet: true, Redirect: ptr("")})
	require.NoError(t, err)
	assert.False(t, m.Guard.Valid)
	assert.Nil(t, m.Redirect)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, db := setupService(t)

	editor := createRole(t, db, "editor")

	a, err := svc.Create(ctx, CreateInput{Name: "a", Path: "/a"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateInput{Name: "b", Path: "b", ParentID: &a.ID, RoleIDs: []uint{editor}})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, a.ID), ErrHasChildren)
	require.ErrorIs(t, svc.Delete(ctx, 99), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, b.ID))
	require.NoError(t, svc.Delete(ctx, a.ID))

	var links int64
	require.NoError(t, db.Model(&models.MenuRole{}).Count(&links).Error)
	assert.Zero(t, links)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	svc, db := setupService(t)

	createRole(t, db, "editor")
	auditor := createRole(t, db, "auditor")

	guard := models.NewMenuGuard(models.GuardModeInclude, "editor")

	sys, err := svc.Create(ctx, CreateInput{
		Name:  "system",
		Path:  "/system",
		Meta:  map[string]any{"title": "System", "icon": "setting"},
		Guard: &guard,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{
		Name:      "users",
		Path:      "users",
		ParentID:  &sys.ID,
		Component: ptr("views/users"),
		SortOrder: 2,
		RoleIDs:   []uint{auditor},
	})
	require.NoError(t, err)

	nodes, err := svc.Export(ctx)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(nodes, format)
			require.NoError(t, err)

			decoded, err := Decode(data, format)
			require.NoError(t, err)

			target, targetDB := setupService(t)
			createRole(t, targetDB, "auditor")

			report, err := target.Import(ctx, decoded)
			require.NoError(t, err)
			assert.Equal(t, ImportReport{Created: 2}, report)

			report, err = target.Import(ctx, decoded)
			require.NoError(t, err)
			assert.Equal(t, ImportReport{Updated: 2}, report)

			forest, err := target.Tree(ctx)
			require.NoError(t, err)
			require.Len(t, forest, 1)

			root := forest[0].Item
			assert.Equal(t, "system", root.Name)
			assert.Equal(t, "System", root.Meta["title"])
			assert.True(t, root.Guard.Valid)
			assert.Equal(t, []string{"editor"}, root.Guard.Roles)

			require.Len(t, forest[0].Children, 1)
			child := forest[0].Children[0].Item
			assert.Equal(t, "views/users", *child.Component)
			assert.Equal(t, 2, child.SortOrder)
			assert.Equal(t, []string{"auditor"}, child.RoleNames)
			assert.True(t, child.IsEnabled)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("{"), FormatJSON)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Decode([]byte("[]"), Format("xml"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, FormatYAML, FormatOf("menus.YML"))
	assert.Equal(t, FormatJSON, FormatOf("menu.routes.json"))
}

func TestVersion(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Create(ctx, CreateInput{Name: "a", Path: "/a"})
	require.NoError(t, err)

	forest, err := svc.Tree(ctx)
	require.NoError(t, err)

	menus := tree.Flatten(forest)
	assert.Equal(t, Version(menus), Version(menus))
	assert.NotEqual(t, Version(menus), Version(append(menus, models.Menu{UpdatedAt: menus[0].UpdatedAt})))
}

func TestVersionOfEmptyTable(t *testing.T) {
	sum := md5.Sum([]byte("00")) //nolint:gosec

	assert.Equal(t, hex.EncodeToString(sum[:]), Version(nil))
	assert.Equal(t, Version(nil), Version([]models.Menu{}))
}
