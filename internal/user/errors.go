package user

import "github.com/GoIAM-Admin/GoIAM-Admin/internal/apperr"

var (
	// ErrNotFound is returned when the user does not exist.
	ErrNotFound = apperr.New(apperr.KindNotFound, "user.not_found", "user not found")
	// ErrDepartmentNotFound is returned when the referenced department does not exist.
	ErrDepartmentNotFound = apperr.New(apperr.KindNotFound, "user.department_not_found", "department not found")
	// ErrDuplicateUsername is returned when the username is taken, trashed users included.
	ErrDuplicateUsername = apperr.New(apperr.KindInvalidInput, "user.duplicate_username", "username already exists")
	// ErrDuplicateEmail is returned when the email is taken, trashed users included.
	ErrDuplicateEmail = apperr.New(apperr.KindInvalidInput, "user.duplicate_email", "email already exists")
	// ErrDuplicatePhone is returned when the phone number is taken, trashed users included.
	ErrDuplicatePhone = apperr.New(apperr.KindInvalidInput, "user.duplicate_phone", "phone already exists")
	// ErrPasswordRequired is returned when a local user is created without password.
	ErrPasswordRequired = apperr.New(apperr.KindInvalidInput, "user.password_required", "password is required")
	// ErrCannotDeleteSelf is returned when a user deletes its own account.
	ErrCannotDeleteSelf = apperr.New(apperr.KindInvariantViolation, "user.cannot_delete_self",
		"you cannot delete your own account")
	// ErrNotTrashed is returned when restoring a user that is not deleted.
	ErrNotTrashed = apperr.New(apperr.KindInvalidInput, "user.not_trashed", "user is not deleted")
)
