package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pizzeria-be/internal/catalog"
)

// fakeStore is an in-memory Repository. WithinTx restores the previous state
// when the callback fails so tests can observe rollbacks.
type fakeStore struct {
	mu sync.Mutex

	items  map[int64]*catalog.Item
	orders map[int64]*Order

	nextOrderID int64
	nextLineID  int64

	duplicateNumbers int
	failOn           string
	insertedNumbers  []string
	statsSince       time.Time
	lastFilter       ListFilter
}

var errStoreDown = errors.New("connection reset by peer")

func newFakeStore(items ...*catalog.Item) *fakeStore {
	s := &fakeStore{
		items:       make(map[int64]*catalog.Item),
		orders:      make(map[int64]*Order),
		nextOrderID: 100,
		nextLineID:  1000,
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func copyOrder(o *Order) *Order {
	cp := *o
	cp.Lines = make([]*Line, 0, len(o.Lines))
	for _, l := range o.Lines {
		lc := *l
		cp.Lines = append(cp.Lines, &lc)
	}
	return &cp
}

// seed stores o as-is, assigning ids where missing.
func (s *fakeStore) seed(o *Order) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		s.nextOrderID++
		o.ID = s.nextOrderID
	}
	for _, l := range o.Lines {
		if l.ID == 0 {
			s.nextLineID++
			l.ID = s.nextLineID
		}
		l.OrderID = o.ID
	}
	s.orders[o.ID] = copyOrder(o)
	return o
}

func (s *fakeStore) stored(id int64) *Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return copyOrder(o)
	}
	return nil
}

func (s *fakeStore) fail(method string) error {
	if s.failOn == method {
		return errStoreDown
	}
	return nil
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	s.mu.Lock()
	backup := make(map[int64]*Order, len(s.orders))
	for id, o := range s.orders {
		backup[id] = copyOrder(o)
	}
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.orders = backup
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) GetOrder(ctx context.Context, id int64) (*Order, error) {
	if err := s.fail("GetOrder"); err != nil {
		return nil, err
	}
	o := s.stored(id)
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeStore) ListOrders(ctx context.Context, f ListFilter) ([]*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f

	ids := make([]int64, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var out []*Summary
	for _, id := range ids {
		o := s.orders[id]
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, &Summary{ID: o.ID, UserID: o.UserID, Status: o.Status, ItemsCount: len(o.Lines)})
	}
	return out, nil
}

func (s *fakeStore) Stats(ctx context.Context, since time.Time) (*StatsRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsSince = since

	row := &StatsRow{ByStatus: map[Status]int{}}
	for _, o := range s.orders {
		row.TotalOrders++
		if !o.CreatedAt.Before(since) {
			row.OrdersToday++
		}
		if o.Status != StatusCanceled {
			row.TotalRevenue = row.TotalRevenue.Add(o.TotalAmount)
		}
		if o.Status == StatusDelivered {
			row.DeliveredCount++
		}
		row.ByStatus[o.Status]++
	}
	return row, nil
}

func (s *fakeStore) LockOrder(ctx context.Context, id int64) (*Order, error) {
	if err := s.fail("LockOrder"); err != nil {
		return nil, err
	}
	o := s.stored(id)
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *fakeStore) ItemsByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]*catalog.Item)
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			cp := *it
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *fakeStore) InsertOrder(ctx context.Context, o *Order) error {
	if err := s.fail("InsertOrder"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertedNumbers = append(s.insertedNumbers, o.OrderNumber)
	if s.duplicateNumbers > 0 {
		s.duplicateNumbers--
		return errDuplicateOrderNumber
	}

	s.nextOrderID++
	o.ID = s.nextOrderID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	cp := *o
	cp.Lines = nil
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeStore) InsertLine(ctx context.Context, l *Line) error {
	if err := s.fail("InsertLine"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[l.OrderID]
	if !ok {
		return ErrOrderNotFound
	}
	s.nextLineID++
	l.ID = s.nextLineID
	cp := *l
	o.Lines = append(o.Lines, &cp)
	return nil
}

func (s *fakeStore) UpdateLine(ctx context.Context, l *Line) error {
	if err := s.fail("UpdateLine"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		for i, existing := range o.Lines {
			if existing.ID == l.ID {
				cp := *l
				o.Lines[i] = &cp
				return nil
			}
		}
	}
	return ErrLineNotFound
}

func (s *fakeStore) DeleteLine(ctx context.Context, orderID, lineID int64) error {
	if err := s.fail("DeleteLine"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	for i, l := range o.Lines {
		if l.ID == lineID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (s *fakeStore) SaveTotals(ctx context.Context, o *Order) error {
	if err := s.fail("SaveTotals"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[o.ID]
	if !ok {
		return ErrOrderNotFound
	}
	stored.Status = o.Status
	stored.Subtotal = o.Subtotal
	stored.TotalAmount = o.TotalAmount
	stored.EstimatedDeliveryTime = o.EstimatedDeliveryTime
	return nil
}
