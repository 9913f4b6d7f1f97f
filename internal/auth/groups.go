package auth

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

// GroupFilter narrows ListGroups.
type GroupFilter struct {
	Keyword  string
	Source   models.GroupSource
	Page     int
	PageSize int
}

// GroupSummary is a group with its member count and mapped roles.
type GroupSummary struct {
	models.Group

	MembersCount int64  `json:"members_count"`
	RoleIDs      []uint `json:"role_ids"`
}

// ListGroups returns the groups newest first and their total.
func (s *Service) ListGroups(ctx context.Context, f GroupFilter) ([]GroupSummary, int64, error) {
	var (
		groups []models.Group
		total  int64
	)

	db := s.db.WithContext(ctx)
	q := db.Model(&models.Group{})

	if f.Keyword != "" {
		like := "%" + f.Keyword + "%"
		q = q.Where("name LIKE ? OR external_id LIKE ? OR description LIKE ?", like, like, like)
	}

	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to count groups")
	}

	if f.PageSize > 0 {
		page := max(f.Page, 1)
		q = q.Limit(f.PageSize).Offset((page - 1) * f.PageSize)
	}

	if err := q.Order("id DESC").Find(&groups).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list groups")
	}

	out := make([]GroupSummary, 0, len(groups))

	for _, g := range groups {
		summary, err := s.summarize(db, g)
		if err != nil {
			return nil, 0, err
		}

		out = append(out, *summary)
	}

	return out, total, nil
}

// GetGroup returns a group with its member count and mapped roles.
func (s *Service) GetGroup(ctx context.Context, id uint) (*GroupSummary, error) {
	db := s.db.WithContext(ctx)

	var group models.Group
	if err := db.First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to get group")
	}

	return s.summarize(db, group)
}

func (s *Service) summarize(db *gorm.DB, g models.Group) (*GroupSummary, error) {
	summary := &GroupSummary{Group: g, RoleIDs: []uint{}}

	if err := db.Model(&models.UserGroup{}).Where("group_id = ?", g.ID).Count(&summary.MembersCount).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "failed to count group members")
	}

	err := db.Model(&models.GroupMapping{}).Where("group_id = ?", g.ID).Order("role_id").
		Pluck("role_id", &summary.RoleIDs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get group roles")
	}

	return summary, nil
}

// SyncGroupRoles replaces the roles mapped to a group. Every role must
// exist under the guard.
func (s *Service) SyncGroupRoles(ctx context.Context, groupID uint, roleIDs []uint) error {
	roleIDs = unique(roleIDs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Group{}, groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}

			return pkgerrors.Wrap(err, "failed to get group")
		}

		if len(roleIDs) > 0 {
			var found int64

			err := tx.Model(&models.Role{}).Where("guard_name = ? AND id IN ?", s.cfg.Guard, roleIDs).
				Count(&found).Error
			if err != nil {
				return pkgerrors.Wrap(err, "failed to check roles")
			}

			if int(found) != len(roleIDs) {
				return ErrRoleNotFound.WithMessage(fmt.Sprintf("%s: %v", ErrRoleNotFound.Message, roleIDs))
			}
		}

		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMapping{}).Error; err != nil {
			return pkgerrors.Wrap(err, "failed to delete group mappings")
		}

		for _, roleID := range roleIDs {
			if err := tx.Create(&models.GroupMapping{GroupID: groupID, RoleID: roleID}).Error; err != nil {
				return pkgerrors.Wrap(err, "failed to create group mapping")
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.flushMenus(ctx)

	return nil
}
