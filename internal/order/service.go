package order

import (
	"context"
	"errors"
	"strconv"
	"time"

	"pizzeria-be/internal/apperr"
	"pizzeria-be/internal/catalog"
	"pizzeria-be/internal/logger"
	"pizzeria-be/internal/metrics"
	"pizzeria-be/internal/user"
	"pizzeria-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxNumberAttempts = 3
	maxAddQuantity    = 50

	defaultMineLimit  = 20
	maxMineLimit      = 100
	defaultAdminLimit = 50
	maxAdminLimit     = 500
)

// Gate is the authorization the order engine needs from the guard.
type Gate interface {
	RequireActive(ctx context.Context, userID int64) (*user.User, error)
	RequireAdmin(ctx context.Context, userID int64) (*user.User, error)
	RequireOwnerOrAdmin(ctx context.Context, userID, ownerID int64) error
}

type Service interface {
	CreateOrder(ctx context.Context, userID int64, in CreateInput) (*Order, error)
	AddItem(ctx context.Context, userID, orderID int64, in AddItemInput) (*AddItemResult, error)
	RemoveItem(ctx context.Context, userID, orderID, lineID int64) (*RemoveItemResult, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*Order, error)
	ListMine(ctx context.Context, userID int64, f ListFilter) ([]*Summary, error)
	ListAll(ctx context.Context, userID int64, f ListFilter) ([]*Summary, error)
	SetStatus(ctx context.Context, userID, orderID int64, status string) (*Order, error)
	Cancel(ctx context.Context, userID, orderID int64) (*Order, error)
	Statistics(ctx context.Context, userID int64) (*Statistics, error)
}

type service struct {
	repo    Repository
	gate    Gate
	pricing Pricing
	metrics *metrics.Orders

	newNumber func() string
	now       func() time.Time
}

func NewService(repo Repository, gate Gate, pricing Pricing, m *metrics.Orders) Service {
	if m == nil {
		m = metrics.NewOrders(metrics.NewRegistry())
	}
	return &service{
		repo:      repo,
		gate:      gate,
		pricing:   pricing,
		metrics:   m,
		newNumber: utils.GenerateOrderNumber,
		now:       time.Now,
	}
}

func (s *service) CreateOrder(ctx context.Context, userID int64, in CreateInput) (*Order, error) {
	log := logger.ForMethod(ctx, "service", "CreateOrder")

	if err := validateCreate(in); err != nil {
		return nil, err
	}
	u, err := s.gate.RequireActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := u.Username
	if in.CustomerName != nil && *in.CustomerName != "" {
		name = *in.CustomerName
	}

	var created *Order
	for attempt := 1; ; attempt++ {
		err = s.repo.WithinTx(ctx, func(ctx context.Context, tx TxRepository) error {
			o, err := s.buildOrder(ctx, tx, userID, name, in)
			if err != nil {
				return err
			}
			if err := tx.InsertOrder(ctx, o); err != nil {
				return err
			}
			for _, l := range o.Lines {
				l.OrderID = o.ID
				if err := tx.InsertLine(ctx, l); err != nil {
					return err
				}
			}
			created = o
			return nil
		})
		if errors.Is(err, errDuplicateOrderNumber) && attempt < maxNumberAttempts {
			s.metrics.NumberRetries.Inc()
			log.Warn("order number collision, retrying", zap.Int("attempt", attempt))
			continue
		}
		break
	}
	if errors.Is(err, errDuplicateOrderNumber) {
		log.Error("order number collisions exhausted retries", zap.Error(err))
		return nil, apperr.Internal(err)
	}
	if err != nil {
		return nil, s.internal(ctx, "CreateOrder", err)
	}

	s.metrics.Created.Inc()
	log.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.String("total", created.TotalAmount.StringFixed(2)),
	)
	return created, nil
}

func validateCreate(in CreateInput) error {
	if len(in.Lines) == 0 {
		return ErrNoLines
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	if in.IsDelivery && in.DeliveryAddress == nil {
		return ErrAddressRequired
	}
	if _, err := ParsePaymentMethod(string(in.PaymentMethod)); err != nil {
		return err
	}
	return nil
}

// buildOrder resolves every requested item in one lookup and prices the
// lines. Repeated item ids collapse into one line.
func (s *service) buildOrder(ctx context.Context, tx TxRepository, userID int64, name string, in CreateInput) (*Order, error) {
	ids := make([]int64, 0, len(in.Lines))
	seen := make(map[int64]bool, len(in.Lines))
	for _, l := range in.Lines {
		if !seen[l.ItemID] {
			seen[l.ItemID] = true
			ids = append(ids, l.ItemID)
		}
	}

	items, err := tx.ItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := checkItems(ids, items); err != nil {
		return nil, err
	}

	o := &Order{
		OrderNumber:   s.newNumber(),
		UserID:        userID,
		CustomerName:  name,
		CustomerPhone: in.CustomerPhone,
		IsDelivery:    in.IsDelivery,
		PaymentMethod: in.PaymentMethod,
		Status:        StatusPending,
		Observations:  in.Observations,
	}
	if in.IsDelivery {
		o.DeliveryAddress = in.DeliveryAddress
	}

	for _, li := range in.Lines {
		it := items[li.ItemID]
		if l := o.lineFor(li.ItemID); l != nil {
			l.Quantity += li.Quantity
			l.LineTotal = LineTotal(l.UnitPrice, l.Quantity)
			l.Notes = mergeNotes(l.Notes, li.Observations)
			continue
		}
		o.Lines = append(o.Lines, &Line{
			ItemID:          it.ID,
			ItemName:        it.Name,
			PreparationTime: it.PreparationTime,
			Quantity:        li.Quantity,
			UnitPrice:       it.Price,
			LineTotal:       LineTotal(it.Price, li.Quantity),
			Notes:           mergeNotes(nil, li.Observations),
		})
	}

	o.apply(s.pricing.Compute(o.Lines, o.IsDelivery, s.pricing.FeeFor(o.IsDelivery)))
	return o, nil
}

// checkItems reports every missing id, then every unavailable item, in a
// single error.
func checkItems(ids []int64, items map[int64]*catalog.Item) error {
	var missing, unavailable []string
	for _, id := range ids {
		it, ok := items[id]
		switch {
		case !ok:
			missing = append(missing, strconv.FormatInt(id, 10))
		case !it.IsAvailable:
			unavailable = append(unavailable, it.Name)
		}
	}
	if len(missing) > 0 {
		return ErrItemsNotFound.WithDetails(missing...)
	}
	if len(unavailable) > 0 {
		return ErrItemsUnavailable.WithDetails(unavailable...)
	}
	return nil
}

// lockEditable loads and locks an order the caller owns and may still edit.
func lockEditable(ctx context.Context, tx TxRepository, userID, orderID int64) (*Order, error) {
	o, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if !o.Status.Editable() {
		return nil, ErrOrderNotEditable
	}
	return o, nil
}

func (s *service) AddItem(ctx context.Context, userID, orderID int64, in AddItemInput) (*AddItemResult, error) {
	if in.Quantity < 1 || in.Quantity > maxAddQuantity {
		return nil, ErrInvalidQuantity
	}

	var res *AddItemResult
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := lockEditable(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}

		items, err := tx.ItemsByIDs(ctx, []int64{in.ItemID})
		if err != nil {
			return err
		}
		it, ok := items[in.ItemID]
		if !ok {
			return ErrItemNotFound
		}
		if !it.IsAvailable {
			return ErrItemUnavailable.WithDetails(it.Name)
		}

		line := o.lineFor(in.ItemID)
		merged := line != nil
		if merged {
			line.Quantity += in.Quantity
			line.UnitPrice = it.Price
			line.LineTotal = LineTotal(it.Price, line.Quantity)
			line.Notes = mergeNotes(line.Notes, in.Observations)
			line.ItemName = it.Name
			line.PreparationTime = it.PreparationTime
			if err := tx.UpdateLine(ctx, line); err != nil {
				return err
			}
		} else {
			line = &Line{
				OrderID:         o.ID,
				ItemID:          it.ID,
				ItemName:        it.Name,
				PreparationTime: it.PreparationTime,
				Quantity:        in.Quantity,
				UnitPrice:       it.Price,
				LineTotal:       LineTotal(it.Price, in.Quantity),
				Notes:           mergeNotes(nil, in.Observations),
			}
			if err := tx.InsertLine(ctx, line); err != nil {
				return err
			}
			o.Lines = append(o.Lines, line)
		}

		totals := s.pricing.Compute(o.Lines, o.IsDelivery, o.DeliveryFee)
		o.apply(totals)
		if err := tx.SaveTotals(ctx, o); err != nil {
			return err
		}

		res = &AddItemResult{Order: o, Line: line, Merged: merged, Totals: totals}
		return nil
	})
	if err != nil {
		return nil, s.internal(ctx, "AddItem", err)
	}

	s.metrics.ItemsAdded.Inc()
	if res.Merged {
		s.metrics.ItemsMerged.Inc()
	}
	logger.ForMethod(ctx, "service", "AddItem").Info("item added to order",
		zap.Int64("order_id", orderID),
		zap.Int64("item_id", in.ItemID),
		zap.Bool("merged", res.Merged),
	)
	return res, nil
}

// RemoveItem deletes a line. Removing the last line cancels the order and
// zeroes its amounts.
func (s *service) RemoveItem(ctx context.Context, userID, orderID, lineID int64) (*RemoveItemResult, error) {
	var res *RemoveItemResult
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := lockEditable(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}

		removed := o.removeLine(lineID)
		if removed == nil {
			return ErrLineNotFound
		}
		if err := tx.DeleteLine(ctx, o.ID, lineID); err != nil {
			return err
		}

		totals := s.pricing.Compute(o.Lines, o.IsDelivery, o.DeliveryFee)
		o.apply(totals)
		res = &RemoveItemResult{Order: o, Removed: removed, RemainingLines: len(o.Lines)}
		if len(o.Lines) == 0 {
			o.Status = StatusCanceled
			res.OrderCanceled = true
		} else {
			res.Totals = &totals
		}

		return tx.SaveTotals(ctx, o)
	})
	if err != nil {
		return nil, s.internal(ctx, "RemoveItem", err)
	}

	s.metrics.ItemsRemoved.Inc()
	log := logger.ForMethod(ctx, "service", "RemoveItem")
	if res.OrderCanceled {
		s.metrics.AutoCanceled.Inc()
		log.Info("last item removed, order canceled", zap.Int64("order_id", orderID))
	} else {
		log.Info("item removed from order", zap.Int64("order_id", orderID), zap.Int64("line_id", lineID))
	}
	return res, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID int64) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.internal(ctx, "GetOrder", err)
	}
	if err := s.gate.RequireOwnerOrAdmin(ctx, userID, o.UserID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) ListMine(ctx context.Context, userID int64, f ListFilter) ([]*Summary, error) {
	f.UserID = &userID
	f.Offset, f.Limit = page(f.Offset, f.Limit, defaultMineLimit, maxMineLimit)

	out, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "ListMine", err)
	}
	return out, nil
}

func (s *service) ListAll(ctx context.Context, userID int64, f ListFilter) ([]*Summary, error) {
	if _, err := s.gate.RequireAdmin(ctx, userID); err != nil {
		return nil, err
	}
	f.Offset, f.Limit = page(f.Offset, f.Limit, defaultAdminLimit, maxAdminLimit)

	out, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "ListAll", err)
	}
	return out, nil
}

func page(offset, limit, def, maxLimit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

// SetStatus lets an admin move an order to any status.
func (s *service) SetStatus(ctx context.Context, userID, orderID int64, status string) (*Order, error) {
	if _, err := s.gate.RequireAdmin(ctx, userID); err != nil {
		return nil, err
	}
	next, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	var (
		o    *Order
		prev Status
	)
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if o, err = tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		prev = o.Status
		o.Status = next
		return tx.SaveTotals(ctx, o)
	})
	if err != nil {
		return nil, s.internal(ctx, "SetStatus", err)
	}

	s.metrics.StatusChanged.Inc()
	logger.ForMethod(ctx, "service", "SetStatus").Info("order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return o, nil
}

// Cancel keeps the order amounts as they are.
func (s *service) Cancel(ctx context.Context, userID, orderID int64) (*Order, error) {
	var o *Order
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if o, err = tx.LockOrder(ctx, orderID); err != nil {
			return err
		}
		if err := s.gate.RequireOwnerOrAdmin(ctx, userID, o.UserID); err != nil {
			return err
		}
		if !o.Status.Cancelable() {
			return ErrOrderNotCancelable
		}
		o.Status = StatusCanceled
		return tx.SaveTotals(ctx, o)
	})
	if err != nil {
		return nil, s.internal(ctx, "Cancel", err)
	}

	s.metrics.Canceled.Inc()
	logger.ForMethod(ctx, "service", "Cancel").Info("order canceled", zap.Int64("order_id", orderID))
	return o, nil
}

func (s *service) Statistics(ctx context.Context, userID int64) (*Statistics, error) {
	if _, err := s.gate.RequireAdmin(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	row, err := s.repo.Stats(ctx, midnight)
	if err != nil {
		return nil, s.internal(ctx, "Statistics", err)
	}

	st := &Statistics{
		TotalOrders:    row.TotalOrders,
		OrdersToday:    row.OrdersToday,
		TotalRevenue:   row.TotalRevenue.Round(2),
		AverageTicket:  decimal.Zero,
		DeliveredCount: row.DeliveredCount,
		ByStatus:       make(map[Status]int, len(AllStatuses)),
	}
	if row.DeliveredCount > 0 {
		st.AverageTicket = row.TotalRevenue.Div(decimal.NewFromInt(int64(row.DeliveredCount))).Round(2)
	}
	for _, status := range AllStatuses {
		st.ByStatus[status] = row.ByStatus[status]
	}
	return st, nil
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
