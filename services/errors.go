package services

import (
	"context"
	"errors"

	"quizadmin/models"
)

var (
	ErrCancelled         = errors.New("operation cancelled")
	ErrBusy              = errors.New("another import or restore is in progress")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrUnitNotFound      = errors.New("unit not found")
	ErrBackupNotFound    = errors.New("backup not found")
	ErrInvalidBackupKey  = errors.New("invalid backup key")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailInUse        = errors.New("email already in use")
	ErrInvalidLogin      = errors.New("invalid email or password")
	ErrAccountDisabled   = errors.New("account is disabled")
	ErrCannotDeleteSelf  = errors.New("cannot delete your own account")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidRole       = errors.New("invalid role")
	ErrRecordNotFound    = errors.New("activity record not found")
	ErrInvalidImportMode = errors.New("invalid import mode")
)

// requirePermission returns the actor in ctx when its role grants p.
func requirePermission(ctx context.Context, p models.Permission) (*models.Actor, error) {
	actor := models.ActorFrom(ctx)
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	if !actor.Can(p) {
		return nil, ErrPermissionDenied
	}
	return actor, nil
}
