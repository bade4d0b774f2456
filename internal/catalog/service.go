package catalog

import (
	"context"
	"errors"
	"strings"

	"pizzeria-be/internal/apperr"
	"pizzeria-be/internal/logger"
	"pizzeria-be/internal/user"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Gate is the authorization the catalog needs from the guard.
type Gate interface {
	RequireAdmin(ctx context.Context, userID int64) (*user.User, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

type Service interface {
	Menu(ctx context.Context, f MenuFilter) ([]*Item, error)
	List(ctx context.Context, callerID int64, f ListFilter) ([]*Item, error)
	Search(ctx context.Context, q string, category *Category, availableOnly bool) ([]*Item, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	Get(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, actingID int64, p CreateItemParams) (*Item, error)
	Update(ctx context.Context, actingID, id int64, p UpdateItemParams) (*Item, error)
	ToggleAvailability(ctx context.Context, actingID, id int64) (*Item, error)
	Delete(ctx context.Context, actingID, id int64) (*DeleteResult, error)
}

type service struct {
	repo  Repository
	gate  Gate
	cache MenuCache
}

func NewService(repo Repository, gate Gate, cache MenuCache) Service {
	if cache == nil {
		cache = NoopMenuCache()
	}
	return &service{repo: repo, gate: gate, cache: cache}
}

func (s *service) Menu(ctx context.Context, f MenuFilter) ([]*Item, error) {
	key := f.cacheKey()
	if items, ok := s.cache.Get(ctx, key); ok {
		return items, nil
	}

	items, err := s.repo.List(ctx, ListFilter{Category: f.Category, Size: f.Size, AvailableOnly: true})
	if err != nil {
		return nil, s.internal(ctx, "Menu", err)
	}

	s.cache.Set(ctx, key, items)
	return items, nil
}

// List shows unavailable items only to admins.
func (s *service) List(ctx context.Context, callerID int64, f ListFilter) ([]*Item, error) {
	if !f.AvailableOnly {
		isAdmin := false
		if callerID != 0 {
			var err error
			if isAdmin, err = s.gate.IsAdmin(ctx, callerID); err != nil {
				return nil, err
			}
		}
		f.AvailableOnly = !isAdmin
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

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "List", err)
	}
	return items, nil
}

func (s *service) Search(ctx context.Context, q string, category *Category, availableOnly bool) ([]*Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.Validation("search term is required")
	}

	items, err := s.repo.Search(ctx, q, category, availableOnly)
	if err != nil {
		return nil, s.internal(ctx, "Search", err)
	}
	return items, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryCount, error) {
	out, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, s.internal(ctx, "Categories", err)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Item, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.internal(ctx, "Get", err)
	}
	return it, nil
}

func (s *service) Create(ctx context.Context, actingID int64, p CreateItemParams) (*Item, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}
	if !ValidPrice(p.Price) {
		return nil, ErrInvalidPrice
	}
	p.Name = strings.TrimSpace(p.Name)

	it, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, s.internal(ctx, "Create", err)
	}

	s.cache.Invalidate(ctx)
	logger.ForMethod(ctx, "service", "Create").Info("item created", zap.Int64("item_id", it.ID))
	return it, nil
}

func (s *service) Update(ctx context.Context, actingID, id int64, p UpdateItemParams) (*Item, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	if p.Price != nil && !ValidPrice(*p.Price) {
		return nil, ErrInvalidPrice
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}

	it, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, s.internal(ctx, "Update", err)
	}

	s.cache.Invalidate(ctx)
	return it, nil
}

func (s *service) ToggleAvailability(ctx context.Context, actingID, id int64) (*Item, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.internal(ctx, "ToggleAvailability", err)
	}

	it, err := s.repo.SetAvailability(ctx, id, !current.IsAvailable)
	if err != nil {
		return nil, s.internal(ctx, "ToggleAvailability", err)
	}

	s.cache.Invalidate(ctx)
	return it, nil
}

// Delete removes an item permanently only when no order line references it;
// otherwise the item is made unavailable.
func (s *service) Delete(ctx context.Context, actingID, id int64) (*DeleteResult, error) {
	if _, err := s.gate.RequireAdmin(ctx, actingID); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, s.internal(ctx, "Delete", err)
	}

	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return nil, s.internal(ctx, "Delete", err)
	}

	res := &DeleteResult{ID: id}
	if referenced {
		if _, err := s.repo.SetAvailability(ctx, id, false); err != nil {
			return nil, s.internal(ctx, "Delete", err)
		}
		res.Deactivated = true
	} else {
		if err := s.repo.Delete(ctx, id); err != nil {
			return nil, s.internal(ctx, "Delete", err)
		}
		res.Deleted = true
	}

	s.cache.Invalidate(ctx)
	logger.ForMethod(ctx, "service", "Delete").Info("item removed",
		zap.Int64("item_id", id),
		zap.Bool("deactivated", res.Deactivated),
	)
	return res, nil
}

// internal passes domain errors through and hides everything else.
func (s *service) internal(ctx context.Context, method string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	logger.ForMethod(ctx, "service", method).Error("repository failure", zap.Error(err))
	return apperr.Internal(err)
}
