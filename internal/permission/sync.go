// Package permission derives permissions from named HTTP routes and groups
// them for display.
//
// Route names follow "<module>.<resource...>.<action>", optionally prefixed
// with "api.". The action is normalized through the configured action map so
// that e.g. iam.users.index and iam.users.show both yield iam.users.view.
package permission

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

var versionPrefix = regexp.MustCompile(`^v\d+/`) //nolint:gochecknoglobals

// Route is a registered HTTP route.
type Route struct {
	Name string
	Path string
}

// DeriveOptions narrows the routes permissions are derived from.
type DeriveOptions struct {
	// Prefixes are the accepted modules; empty means the configured route prefixes.
	Prefixes []string
	// All accepts every module.
	All bool
}

// Candidate is a permission derived from a route.
type Candidate struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	DisplayName string `json:"display_name"`
}

// Report summarizes a Sync.
type Report struct {
	Created    int         `json:"created"`
	Updated    int         `json:"updated"`
	Unchanged  int         `json:"unchanged"`
	DryRun     bool        `json:"dry_run"`
	Candidates []Candidate `json:"candidates"`
}

// Synchronizer reconciles the permission table with the route table.
type Synchronizer struct {
	db  *gorm.DB
	cfg config.IAM
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(db *gorm.DB, cfg config.IAM) *Synchronizer {
	return &Synchronizer{db: db, cfg: cfg}
}

// Derive turns named routes into permission candidates, in route order.
// Routes yielding an already derived name are skipped.
func (s *Synchronizer) Derive(routes []Route, opts DeriveOptions) []Candidate {
	prefixes := opts.Prefixes
	if len(prefixes) == 0 {
		prefixes = s.cfg.RoutePrefixes
	}

	var (
		out  []Candidate
		seen = make(map[string]struct{})
	)

	for _, r := range routes {
		c, ok := s.derive(r, prefixes, opts.All)
		if !ok {
			continue
		}

		if _, dup := seen[c.Name]; dup {
			continue
		}

		seen[c.Name] = struct{}{}
		out = append(out, c)
	}

	return out
}

func (s *Synchronizer) derive(r Route, prefixes []string, all bool) (Candidate, bool) {
	if r.Name == "" || slices.Contains(s.cfg.IgnoreRoutes, r.Name) {
		return Candidate{}, false
	}

	segments := strings.Split(r.Name, ".")
	if len(segments) < 3 { //nolint:mnd
		return Candidate{}, false
	}

	module, segments := segments[0], segments[1:]
	if module == "api" {
		module, segments = segments[0], segments[1:]
	}

	if len(segments) == 0 || (!all && !slices.Contains(prefixes, module)) {
		return Candidate{}, false
	}

	actionRaw := segments[len(segments)-1]
	resourcePath, resourceKey := resourceSegments(segments[:len(segments)-1], r.Path, module)

	action, ok := s.cfg.ActionMap[actionRaw]
	if !ok {
		action = slug(actionRaw)
	}

	group := s.group(module, resourcePath, resourceKey)

	actionLabel, ok := s.cfg.ActionLabels[action]
	if !ok {
		actionLabel = headline(action)
	}

	return Candidate{
		Name:        fmt.Sprintf("%s.%s.%s", module, resourcePath, action),
		Group:       group,
		DisplayName: group + "." + actionLabel,
	}, true
}

func (s *Synchronizer) group(module, resourcePath, resourceKey string) string {
	for _, key := range []string{module + "." + resourcePath, module + "." + resourceKey, resourcePath, resourceKey} {
		if label, ok := s.cfg.GroupLabels[key]; ok && label != "" {
			if !strings.Contains(label, ".") {
				return module + "." + label
			}

			return label
		}
	}

	return module + "." + strings.ReplaceAll(headline(resourceKey), " ", "")
}

// resourceSegments returns the resource path and its first segment. Without
// name segments the resource is guessed from the first path part after the
// api, version and module prefixes.
func resourceSegments(segments []string, path, module string) (string, string) {
	if len(segments) > 0 {
		return strings.Join(segments, "."), segments[0]
	}

	uri := strings.TrimPrefix(path, "/")
	uri = strings.TrimPrefix(uri, "api/")
	uri = versionPrefix.ReplaceAllString(uri, "")

	if rest, ok := strings.CutPrefix(uri, module+"/"); ok && rest != "" && !isParam(rest) {
		uri = rest
	}

	uri = strings.Trim(uri, "/")

	guess, _, _ := strings.Cut(uri, "/")
	guess = strings.Trim(guess, "{}:")

	if guess == "" {
		guess = module
	}

	key, _, _ := strings.Cut(guess, ".")
	if key == "" {
		key = guess
	}

	return guess, key
}

func isParam(part string) bool {
	return strings.HasPrefix(part, "{") || strings.HasPrefix(part, ":")
}

// Sync creates missing candidates and updates the group and display name of
// existing ones for the configured guard. Permissions are never deleted.
// With dryRun nothing is written and the report lists the candidates only.
func (s *Synchronizer) Sync(ctx context.Context, candidates []Candidate, dryRun bool) (Report, error) {
	report := Report{DryRun: dryRun, Candidates: candidates}

	if s.cfg.Guard == "" {
		return report, ErrEmptyGuard
	}

	if dryRun || len(candidates) == 0 {
		return report, nil
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Permission

		err := tx.Where("guard_name = ? AND name IN ?", s.cfg.Guard, names).Find(&existing).Error
		if err != nil {
			return pkgerrors.Wrap(err, "failed to load permissions")
		}

		byName := make(map[string]models.Permission, len(existing))
		for _, p := range existing {
			byName[p.Name] = p
		}

		for _, c := range candidates {
			p, ok := byName[c.Name]

			switch {
			case !ok:
				p = models.Permission{Name: c.Name, GuardName: s.cfg.Guard, Group: c.Group, DisplayName: c.DisplayName}
				if err = tx.Create(&p).Error; err != nil {
					return pkgerrors.Wrapf(err, "failed to create permission %s", c.Name)
				}

				report.Created++
			case p.Group != c.Group || p.DisplayName != c.DisplayName:
				err = tx.Model(&models.Permission{}).Where("id = ?", p.ID).
					Updates(map[string]any{"group_name": c.Group, "display_name": c.DisplayName}).Error
				if err != nil {
					return pkgerrors.Wrapf(err, "failed to update permission %s", c.Name)
				}

				report.Updated++
			default:
				report.Unchanged++
			}
		}

		return nil
	})
	if err != nil {
		return Report{}, err
	}

	log.Info().Int("created", report.Created).Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).Msg("permissions synchronized")

	return report, nil
}

// SyncRoles replaces the permissions of every configured sync role that
// exists under the guard with the candidate permissions. It returns the
// names of the synced roles.
func (s *Synchronizer) SyncRoles(ctx context.Context, candidates []Candidate) ([]string, error) {
	if len(s.cfg.SyncRoles) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}

	var synced []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roles []models.Role

		err := tx.Where("guard_name = ? AND name IN ?", s.cfg.Guard, s.cfg.SyncRoles).Order("id").Find(&roles).Error
		if err != nil {
			return pkgerrors.Wrap(err, "failed to load roles")
		}

		if len(roles) == 0 {
			log.Warn().Strs("roles", s.cfg.SyncRoles).Msg("no roles found to sync permissions to")
			return nil
		}

		var ids []uint

		if len(names) > 0 {
			err = tx.Model(&models.Permission{}).Where("guard_name = ? AND name IN ?", s.cfg.Guard, names).
				Order("id").Pluck("id", &ids).Error
			if err != nil {
				return pkgerrors.Wrap(err, "failed to load permissions")
			}
		}

		for _, role := range roles {
			if err = tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
				return pkgerrors.Wrapf(err, "failed to clear permissions of role %s", role.Name)
			}

			if len(ids) > 0 {
				links := make([]models.RolePermission, 0, len(ids))
				for _, id := range ids {
					links = append(links, models.RolePermission{RoleID: role.ID, PermissionID: id})
				}

				if err = tx.Create(&links).Error; err != nil {
					return pkgerrors.Wrapf(err, "failed to assign permissions to role %s", role.Name)
				}
			}

			log.Info().Str("role", role.Name).Int("permissions", len(ids)).Msg("role permissions synchronized")

			synced = append(synced, role.Name)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return synced, nil
}
