// Package orders owns the persisted order collection.
package orders

import (
	"strings"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/kv"

	"github.com/decred/slog"
)

// dateLayout matches the ISO-8601 form browsers produce (UTC, milliseconds).
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// Repository provides CRUD over the orders stored under kv.KeyOrders.
type Repository struct {
	mu    sync.Mutex
	store *kv.Store
	log   slog.Logger
	now   func() time.Time
	newID IDGenerator
}

// Option configures a Repository.
type Option func(r *Repository)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator overrides the order id scheme. The default is
// TimestampIDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Repository) {
		r.newID = g
	}
}

// NewRepository returns a repository over store.
func NewRepository(store *kv.Store, log slog.Logger, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		log:   log,
		now:   time.Now,
		newID: TimestampIDs,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Repository) load() []Order {
	return kv.Get(r.store, kv.KeyOrders, []Order{})
}

func (r *Repository) save(orders []Order) {
	r.store.Set(kv.KeyOrders, orders)
}

// List returns every order in creation order.
func (r *Repository) List() []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Get returns the order with the given id.
func (r *Repository) Get(id string) (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.load() {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}

// Create appends a new pending order.
func (r *Repository) Create(in Input) Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := r.load()

	taken := make(map[string]bool, len(orders))
	for _, o := range orders {
		taken[o.ID] = true
	}
	now := r.now()
	o := Order{
		ID:         r.newID(now, func(id string) bool { return taken[id] }),
		Items:      in.Items,
		TotalPrice: in.TotalPrice,
		Customer:   in.Customer,
		Date:       now.UTC().Format(dateLayout),
		Status:     StatusPending,
	}
	if o.Items == nil {
		o.Items = []cart.Item{}
	}

	orders = append(orders, o)
	r.save(orders)
	r.log.Infof("Created order %s for %q (%.2f)", o.ID, o.Customer, o.TotalPrice)
	return o
}

// SetStatus overwrites the status of an order. Any status may follow any
// other.
func (r *Repository) SetStatus(id string, status Status) (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := r.load()
	for i := range orders {
		if orders[i].ID == id {
			r.log.Debugf("Order %s: %s -> %s", id, orders[i].Status, status)
			orders[i].Status = status
			r.save(orders)
			return orders[i], true
		}
	}
	return Order{}, false
}

// Delete removes the order with the given id.
func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := r.load()
	kept := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(orders) {
		return false
	}
	r.save(kept)
	return true
}

// Filter returns the orders whose id or customer contains query
// (case-insensitive) and whose status matches. An empty status or StatusAll
// matches every order.
func (r *Repository) Filter(query string, status Status) []Order {
	q := strings.ToLower(query)
	out := []Order{}
	for _, o := range r.List() {
		if q != "" && !strings.Contains(strings.ToLower(o.ID), q) &&
			!strings.Contains(strings.ToLower(o.Customer), q) {
			continue
		}
		if status != "" && status != StatusAll && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ForCustomer returns the orders placed under the given customer name.
func (r *Repository) ForCustomer(name string) []Order {
	out := []Order{}
	for _, o := range r.List() {
		if strings.EqualFold(o.Customer, name) {
			out = append(out, o)
		}
	}
	return out
}
