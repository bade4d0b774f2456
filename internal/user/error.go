package user

import "pizzeria-be/internal/apperr"

var (
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrEmailExists        = apperr.Conflict("email already registered")
	ErrUsernameExists     = apperr.Conflict("username already taken")
	ErrInvalidCredentials = apperr.Unauthenticated("invalid email/username or password")
	ErrUserInactive       = apperr.Unauthenticated("user deactivated")
	ErrNothingToUpdate    = apperr.Validation("no fields to update")

	// self-protection
	ErrCannotChangeOwnAdmin = apperr.Forbidden("cannot change your own admin status")
	ErrCannotDeactivateSelf = apperr.Forbidden("cannot deactivate your own account")
)

const (
	constraintEmail    = "users_email_key"
	constraintUsername = "users_username_key"
)
