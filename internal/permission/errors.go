package permission

import "github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"

// ErrEmptyGuard is returned when the synchronizer has no guard configured.
var ErrEmptyGuard = apperr.New(apperr.KindConfiguration, "permission.empty_guard", "no permission guard configured")
