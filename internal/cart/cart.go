// Package cart holds the active shopping cart.
package cart

import (
	"fmt"
	"sync"

	"storefront/internal/catalog"
	"storefront/internal/kv"
	"storefront/internal/notify"

	"github.com/decred/slog"
)

// Item is a cart line. ID is the product id.
type Item struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Cart is an ordered list of lines, unique by product id, mirrored to
// kv.KeyCart after every change.
type Cart struct {
	mu     sync.Mutex
	items  []Item
	store  *kv.Store
	sink   notify.Sink
	log    slog.Logger
	onEdit func(op string)
}

// Option configures a Cart.
type Option func(c *Cart)

// WithEditHook registers fn to be called with the operation name after
// every mutation.
func WithEditHook(fn func(op string)) Option {
	return func(c *Cart) {
		c.onEdit = fn
	}
}

// New loads the persisted cart from store.
func New(store *kv.Store, sink notify.Sink, log slog.Logger, opts ...Option) *Cart {
	c := &Cart{
		items: kv.Get(store, kv.KeyCart, []Item{}),
		store: store,
		sink:  sink,
		log:   log,
	}
	for _, o := range opts {
		o(c)
	}
	log.Debugf("Loaded cart with %d lines", len(c.items))
	return c
}

// persist must be called with mu held.
func (c *Cart) persist(op string) {
	c.store.Set(kv.KeyCart, c.items)
	if c.onEdit != nil {
		c.onEdit(op)
	}
}

// Add adds quantity units of p, merging into an existing line.
func (c *Cart) Add(p catalog.Product, quantity int) {
	c.mu.Lock()
	found := false
	for i := range c.items {
		if c.items[i].ID == p.ID {
			c.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		c.items = append(c.items, Item{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Quantity: quantity,
		})
	}
	c.persist("add")
	c.mu.Unlock()

	c.sink.Notify(notify.New(notify.LevelSuccess, fmt.Sprintf("%s added to cart", p.Name), ""))
}

// Remove drops the line for productID. Absent ids are ignored.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	kept := c.items[:0:0]
	for _, it := range c.items {
		if it.ID != productID {
			kept = append(kept, it)
		}
	}
	c.items = kept
	c.persist("remove")
	c.mu.Unlock()

	c.sink.Notify(notify.New(notify.LevelInfo, "Product removed from cart", ""))
}

// SetQuantity overwrites the quantity of a line. A quantity below one
// removes the line.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	if quantity < 1 {
		c.Remove(productID)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == productID {
			c.items[i].Quantity = quantity
			break
		}
	}
	c.persist("update")
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = []Item{}
	c.persist("clear")
	c.mu.Unlock()

	c.sink.Notify(notify.New(notify.LevelInfo, "Cart cleared", ""))
}

// Deduct takes the quantities in items out of the cart. Lines left with
// less than one unit are dropped; lines added since items was read stay.
func (c *Cart) Deduct(items []Item) {
	taken := make(map[int64]int, len(items))
	for _, it := range items {
		taken[it.ID] += it.Quantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0:0]
	for _, it := range c.items {
		it.Quantity -= taken[it.ID]
		if it.Quantity >= 1 {
			kept = append(kept, it)
		}
	}
	c.items = kept
	c.persist("checkout")
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// TotalItems is the sum of line quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of price times quantity over all lines.
func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Total(c.items)
}

// Total sums price times quantity over items.
func Total(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
