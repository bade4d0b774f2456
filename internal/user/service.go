package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"pizzeria-be/internal/apperr"
	"pizzeria-be/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// TokenIssuer is the part of the token service the account flows need.
type TokenIssuer interface {
	IssueAccessToken(userID int64) (string, error)
	IssueRefreshToken(userID int64) (string, error)
	VerifyAccessToken(token string) (int64, error)
	VerifyRefreshToken(token string) (int64, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// AdminGate rejects callers that are not administrators.
type AdminGate interface {
	RequireAdmin(ctx context.Context, userID int64) (*User, error)
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	CreateUser(ctx context.Context, actingID int64, in RegisterInput) (*User, error)
	Login(ctx context.Context, emailOrUsername, password string) (*LoginResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Me(ctx context.Context, userID int64) (*User, error)
	UpdateMe(ctx context.Context, userID int64, p UpdateProfileParams) (*User, error)
	List(ctx context.Context, actingID int64, f ListFilter) ([]*User, error)
	Get(ctx context.Context, actingID, id int64) (*User, error)
	ToggleAdmin(ctx context.Context, actingID, id int64) (*User, error)
	ToggleActive(ctx context.Context, actingID, id int64) (*User, error)
	Stats(ctx context.Context, actingID int64) (*Stats, error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
	gate   AdminGate
}

func NewService(repo Repository, tokens TokenIssuer, gate AdminGate) Service {
	return &service{repo: repo, tokens: tokens, gate: gate}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register always creates an active, non-admin account.
func (s *service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.IsAdmin = false
	return s.create(ctx, in)
}

// CreateUser is the administrative path and may grant admin rights.
func (s *service) CreateUser(ctx context.Context, actingID int64, in RegisterInput) (*User, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

func (s *service) create(ctx context.Context, in RegisterInput) (*User, error) {
	log := logger.ForMethod(ctx, "service", "Register")

	hashed, err := HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, apperr.Internal(err)
	}

	u, err := s.repo.Create(ctx, CreateUserParams{
		Username:     normalize(in.Username),
		Email:        normalize(in.Email),
		PasswordHash: hashed,
		IsAdmin:      in.IsAdmin,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrUsernameExists) {
			log.Info("duplicate account", zap.Error(err))
			return nil, err
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, apperr.Internal(err)
	}

	log.Info("user created",
		zap.Int64("user_id", u.ID),
		zap.Bool("is_admin", u.IsAdmin),
	)
	return u, nil
}

func (s *service) Login(ctx context.Context, emailOrUsername, password string) (*LoginResult, error) {
	log := logger.ForMethod(ctx, "service", "Login")

	u, err := s.repo.FindByLogin(ctx, normalize(emailOrUsername))
	if errors.Is(err, ErrUserNotFound) {
		log.Info("login for unknown user")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("failed to load user", zap.Error(err))
		return nil, apperr.Internal(err)
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		log.Info("password mismatch", zap.Int64("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		log.Error("failed to issue tokens", zap.Int64("user_id", u.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	return &LoginResult{TokenPair: *pair, User: u}, nil
}

// Refresh prefers a still-valid access token and falls back to the refresh
// token. Previously issued tokens stay valid until they expire.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	log := logger.ForMethod(ctx, "service", "Refresh")

	var (
		userID int64
		err    error
	)
	if accessToken != "" {
		userID, err = s.tokens.VerifyAccessToken(accessToken)
	}
	if accessToken == "" || err != nil {
		userID, err = s.tokens.VerifyRefreshToken(refreshToken)
		if err != nil {
			return nil, err
		}
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		log.Error("failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		log.Error("failed to issue tokens", zap.Int64("user_id", u.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	return pair, nil
}

func (s *service) issuePair(userID int64) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int(s.tokens.AccessTTL().Seconds()),
		RefreshExpiresIn: int(s.tokens.RefreshTTL().Seconds()),
	}, nil
}

func (s *service) Me(ctx context.Context, userID int64) (*User, error) {
	return s.find(ctx, userID)
}

func (s *service) UpdateMe(ctx context.Context, userID int64, p UpdateProfileParams) (*User, error) {
	if p.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	if p.Username != nil {
		v := normalize(*p.Username)
		p.Username = &v
	}
	if p.Email != nil {
		v := normalize(*p.Email)
		p.Email = &v
	}

	u, err := s.repo.UpdateProfile(ctx, userID, p)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.ForMethod(ctx, "service", "UpdateMe").Error("failed to update profile", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *service) List(ctx context.Context, actingID int64, f ListFilter) ([]*User, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}

	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	users, err := s.repo.List(ctx, f)
	if err != nil {
		logger.ForMethod(ctx, "service", "List").Error("failed to list users", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *service) Get(ctx context.Context, actingID, id int64) (*User, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *service) ToggleAdmin(ctx context.Context, actingID, id int64) (*User, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}
	if actingID == id {
		return nil, ErrCannotChangeOwnAdmin
	}

	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.SetAdmin(ctx, id, !target.IsAdmin)
	if err != nil {
		return nil, s.internal(ctx, "ToggleAdmin", err)
	}

	logger.ForMethod(ctx, "service", "ToggleAdmin").Info("admin flag changed",
		zap.Int64("target_id", id),
		zap.Bool("is_admin", u.IsAdmin),
	)
	return u, nil
}

func (s *service) ToggleActive(ctx context.Context, actingID, id int64) (*User, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}
	if actingID == id {
		return nil, ErrCannotDeactivateSelf
	}

	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.SetActive(ctx, id, !target.IsActive)
	if err != nil {
		return nil, s.internal(ctx, "ToggleActive", err)
	}

	logger.ForMethod(ctx, "service", "ToggleActive").Info("active flag changed",
		zap.Int64("target_id", id),
		zap.Bool("is_active", u.IsActive),
	)
	return u, nil
}

func (s *service) Stats(ctx context.Context, actingID int64) (*Stats, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, s.internal(ctx, "Stats", err)
	}
	return stats, nil
}

func (s *service) find(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, s.internal(ctx, "FindByID", err)
	}
	return u, nil
}

func (s *service) internal(ctx context.Context, method string, err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	logger.ForMethod(ctx, "service", method).Error("repository failure", zap.Error(err))
	return apperr.Internal(err)
}
