package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry hands out named counters. Counter returns the same instance for
// the same name.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*Counter)}
}

func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

func (r *Registry) Snapshot() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]uint64, len(r.counters))
	for name, c := range r.counters {
		out[name] = c.Load()
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Orders groups the counters the order engine reports.
type Orders struct {
	Created       *Counter
	ItemsAdded    *Counter
	ItemsMerged   *Counter
	ItemsRemoved  *Counter
	AutoCanceled  *Counter
	Canceled      *Counter
	StatusChanged *Counter
	NumberRetries *Counter
}

func NewOrders(r *Registry) *Orders {
	return &Orders{
		Created:       r.Counter("orders_created"),
		ItemsAdded:    r.Counter("order_items_added"),
		ItemsMerged:   r.Counter("order_items_merged"),
		ItemsRemoved:  r.Counter("order_items_removed"),
		AutoCanceled:  r.Counter("orders_auto_canceled"),
		Canceled:      r.Counter("orders_canceled"),
		StatusChanged: r.Counter("order_status_changes"),
		NumberRetries: r.Counter("order_number_retries"),
	}
}

// HTTP groups request counters fed by the access log.
type HTTP struct {
	Requests     *Counter
	ClientErrors *Counter
	ServerErrors *Counter
	RateLimited  *Counter
}

func NewHTTP(r *Registry) *HTTP {
	return &HTTP{
		Requests:     r.Counter("http_requests"),
		ClientErrors: r.Counter("http_client_errors"),
		ServerErrors: r.Counter("http_server_errors"),
		RateLimited:  r.Counter("http_rate_limited"),
	}
}

func (h *HTTP) Observe(status int) {
	h.Requests.Inc()
	switch {
	case status >= 500:
		h.ServerErrors.Inc()
	case status >= 400:
		h.ClientErrors.Inc()
	}
}
