package auth

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

// LoginLogFilter narrows ListLoginLogs. Text fields match partially.
type LoginLogFilter struct {
	UserID    *uint64
	Username  string
	Account   string
	Status    models.LoginStatus
	IP        string
	LoginType string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// RecordLogin appends a login log. LoginAt and LoginType default to now
// and password.
func RecordLogin(db *gorm.DB, entry models.LoginLog) error {
	if entry.LoginAt.IsZero() {
		entry.LoginAt = time.Now()
	}

	if entry.LoginType == "" {
		entry.LoginType = models.LoginTypePassword
	}

	return pkgerrors.Wrap(db.Create(&entry).Error, "failed to record login")
}

// ListLoginLogs returns login logs newest first and their total.
func (s *Service) ListLoginLogs(ctx context.Context, f LoginLogFilter) ([]models.LoginLog, int64, error) {
	var (
		logs  = []models.LoginLog{}
		total int64
	)

	q := s.db.WithContext(ctx).Model(&models.LoginLog{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	if f.Username != "" {
		q = q.Where("username LIKE ?", "%"+f.Username+"%")
	}

	if f.Account != "" {
		q = q.Where("account LIKE ?", "%"+f.Account+"%")
	}

	if f.Status == models.LoginStatusSuccess || f.Status == models.LoginStatusFailed {
		q = q.Where("status = ?", f.Status)
	}

	if f.IP != "" {
		q = q.Where("ip LIKE ?", "%"+f.IP+"%")
	}

	if f.LoginType != "" {
		q = q.Where("login_type = ?", f.LoginType)
	}

	if f.From != nil {
		q = q.Where("login_at >= ?", *f.From)
	}

	if f.To != nil {
		q = q.Where("login_at <= ?", *f.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to count login logs")
	}

	if f.PageSize > 0 {
		page := max(f.Page, 1)
		q = q.Limit(f.PageSize).Offset((page - 1) * f.PageSize)
	}

	if err := q.Order("login_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list login logs")
	}

	return logs, total, nil
}

// GetLoginLog returns one login log.
func (s *Service) GetLoginLog(ctx context.Context, id uint64) (*models.LoginLog, error) {
	var entry models.LoginLog

	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoginLogNotFound
		}

		return nil, pkgerrors.Wrap(err, "failed to get login log")
	}

	return &entry, nil
}
