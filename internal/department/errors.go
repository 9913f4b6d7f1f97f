package department

import "github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"

var (
	// ErrNotFound is returned when the department does not exist.
	ErrNotFound = apperr.New(apperr.KindNotFound, "department.not_found", "department not found")
	// ErrParentNotFound is returned when the referenced parent does not exist.
	ErrParentNotFound = apperr.New(apperr.KindNotFound, "department.parent_not_found", "parent department not found")
	// ErrTargetNotFound is returned when the before/after target does not exist.
	ErrTargetNotFound = apperr.New(apperr.KindNotFound, "department.target_not_found", "target department not found")
	// ErrInvalidMove is returned for an unknown position or a before/after move without target.
	ErrInvalidMove = apperr.New(apperr.KindInvalidInput, "department.invalid_move",
		"before and after moves require a target department")
	// ErrCannotMoveToSelf is returned when the target or parent is the department itself.
	ErrCannotMoveToSelf = apperr.New(apperr.KindInvariantViolation, "department.cannot_move_to_self",
		"a department cannot be moved relative to itself")
	// ErrCannotMoveToDescendant is returned when the move would create a cycle.
	ErrCannotMoveToDescendant = apperr.New(apperr.KindInvariantViolation, "department.cannot_move_to_descendant",
		"a department cannot be moved below one of its descendants")
	// ErrHasChildren is returned when deleting a department with children.
	ErrHasChildren = apperr.New(apperr.KindInvariantViolation, "department.has_children",
		"department has child departments")
	// ErrHasUsers is returned when deleting a department users still belong to.
	ErrHasUsers = apperr.New(apperr.KindInvariantViolation, "department.has_users",
		"department still has assigned users")
	// ErrDuplicateCode is returned when the department code is already taken.
	ErrDuplicateCode = apperr.New(apperr.KindInvariantViolation, "department.duplicate_code",
		"department code already exists")
	// ErrInvalidInput is returned for missing required fields.
	ErrInvalidInput = apperr.New(apperr.KindInvalidInput, "department.invalid_input", "invalid department input")
)
