package menu

import "github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"

var (
	// ErrNotFound is returned when the menu does not exist.
	ErrNotFound = apperr.New(apperr.KindNotFound, "menu.not_found", "menu not found")
	// ErrParentNotFound is returned when parent_id references no menu.
	ErrParentNotFound = apperr.New(apperr.KindNotFound, "menu.parent_not_found", "parent menu not found")
	// ErrRoleNotFound is returned when a role to link does not exist.
	ErrRoleNotFound = apperr.New(apperr.KindNotFound, "menu.role_not_found", "role not found")
	// ErrPermissionNotFound is returned when a permission to link does not exist.
	ErrPermissionNotFound = apperr.New(apperr.KindNotFound, "menu.permission_not_found", "permission not found")
	// ErrCannotParentToSelf is returned when a menu would become its own parent.
	ErrCannotParentToSelf = apperr.New(apperr.KindInvariantViolation, "menu.cannot_parent_to_self",
		"a menu cannot be its own parent")
	// ErrCannotParentToDescendant is returned when the new parent lies below the menu.
	ErrCannotParentToDescendant = apperr.New(apperr.KindInvariantViolation, "menu.cannot_parent_to_descendant",
		"a menu cannot be moved below one of its descendants")
	// ErrHasChildren is returned when deleting a menu with children.
	ErrHasChildren = apperr.New(apperr.KindInvariantViolation, "menu.has_children", "menu has child menus")
	// ErrDuplicateName is returned when the menu name is already taken.
	ErrDuplicateName = apperr.New(apperr.KindInvariantViolation, "menu.duplicate_name", "menu name already exists")
	// ErrInvalidInput is returned for missing required fields.
	ErrInvalidInput = apperr.New(apperr.KindInvalidInput, "menu.invalid_input", "invalid menu input")
	// ErrUnsupportedFormat is returned for an unknown export/import format.
	ErrUnsupportedFormat = apperr.New(apperr.KindInvalidInput, "menu.unsupported_format", "unsupported menu file format")
)
