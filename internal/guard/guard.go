package guard

import (
	"context"
	"errors"

	"pizzeria-be/internal/apperr"
	"pizzeria-be/internal/logger"
	"pizzeria-be/internal/user"

	"go.uber.org/zap"
)

var (
	ErrAdminRequired = apperr.Forbidden("admin privileges required")
	ErrNotOwner      = apperr.Forbidden("not allowed to access this resource")
	ErrUnknownCaller = apperr.Unauthenticated("user not found")
)

// UserFinder loads the current persisted state of a user.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

// Guard answers role and ownership questions against the stored user, never
// against claims carried in the token.
type Guard struct {
	users UserFinder
}

func New(users UserFinder) *Guard {
	return &Guard{users: users}
}

// RequireAdmin fails NotFound when the caller does not exist and Forbidden
// when the caller is not an admin.
func (g *Guard) RequireAdmin(ctx context.Context, userID int64) (*user.User, error) {
	u, err := g.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		logger.ForMethod(ctx, "guard", "RequireAdmin").Warn("admin required", zap.Int64("caller_id", userID))
		return nil, ErrAdminRequired
	}
	return u, nil
}

// RequireActive resolves the caller for operations that act on their behalf.
func (g *Guard) RequireActive(ctx context.Context, userID int64) (*user.User, error) {
	u, err := g.load(ctx, userID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrUnknownCaller
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, user.ErrUserInactive
	}
	return u, nil
}

// RequireOwnerOrAdmin passes when the caller owns the resource or is an admin.
func (g *Guard) RequireOwnerOrAdmin(ctx context.Context, userID, ownerID int64) error {
	if userID == ownerID {
		return nil
	}

	u, err := g.load(ctx, userID)
	if errors.Is(err, user.ErrUserNotFound) {
		return ErrUnknownCaller
	}
	if err != nil {
		return err
	}
	if !u.IsAdmin {
		logger.ForMethod(ctx, "guard", "RequireOwnerOrAdmin").Warn("ownership check failed",
			zap.Int64("caller_id", userID),
			zap.Int64("owner_id", ownerID),
		)
		return ErrNotOwner
	}
	return nil
}

// IsAdmin reports whether the caller is an existing admin.
func (g *Guard) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	u, err := g.load(ctx, userID)
	if errors.Is(err, user.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

func (g *Guard) load(ctx context.Context, userID int64) (*user.User, error) {
	u, err := g.users.FindByID(ctx, userID)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}
	logger.ForMethod(ctx, "guard", "load").Error("failed to load user", zap.Int64("user_id", userID), zap.Error(err))
	return nil, apperr.Internal(err)
}
