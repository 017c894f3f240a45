// Package catalog owns the persisted product collection.
package catalog

import (
	"strings"
	"sync"

	"storefront/internal/kv"

	"github.com/decred/slog"
)

// Repository provides CRUD over the products stored under
// kv.KeyProducts. Every mutation rewrites the whole collection.
type Repository struct {
	mu    sync.Mutex
	store *kv.Store
	log   slog.Logger
	seed  []Product
}

// Option configures a Repository.
type Option func(r *Repository)

// WithSeed replaces the built-in seed catalogue.
func WithSeed(products []Product) Option {
	return func(r *Repository) {
		r.seed = products
	}
}

// NewRepository returns a repository over store.
func NewRepository(store *kv.Store, log slog.Logger, opts ...Option) *Repository {
	r := &Repository{store: store, log: log, seed: DefaultSeed()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Repository) load() []Product {
	return kv.Get(r.store, kv.KeyProducts, []Product{})
}

func (r *Repository) save(products []Product) {
	r.store.Set(kv.KeyProducts, products)
}

// Initialize seeds the collection when it is empty.
func (r *Repository) Initialize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.load()) > 0 {
		return
	}
	products := make([]Product, len(r.seed))
	for i, p := range r.seed {
		p.Status = creationStatus(p.Stock)
		products[i] = p
	}
	r.save(products)
	r.log.Infof("Seeded catalogue with %d products", len(products))
}

// List returns every product in insertion order.
func (r *Repository) List() []Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Get returns the product with the given id.
func (r *Repository) Get(id int64) (Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.load() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Create appends a new product with id max+1.
func (r *Repository) Create(in Input) Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := r.load()

	var maxID int64
	for _, p := range products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	p := Product{
		ID:            maxID + 1,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Category:      in.Category,
		Image:         in.Image,
		ImagePublicID: in.ImagePublicID,
		Stock:         in.Stock,
		Status:        creationStatus(in.Stock),
	}
	if p.Image == "" {
		p.Image = PlaceholderImage
	}

	products = append(products, p)
	r.save(products)
	r.log.Debugf("Created product %d (%s)", p.ID, p.Name)
	return p
}

// Update merges patch into the product with the given id. A stock change
// recomputes the status, overriding any status in the same patch.
func (r *Repository) Update(id int64, patch Patch) (Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := r.load()
	for i := range products {
		if products[i].ID != id {
			continue
		}
		products[i].apply(patch)
		r.save(products)
		return products[i], true
	}
	return Product{}, false
}

// SetStatus overwrites the status without touching the stock.
func (r *Repository) SetStatus(id int64, status Status) (Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setStatus(r.load(), id, status)
}

func (r *Repository) setStatus(products []Product, id int64, status Status) (Product, bool) {
	for i := range products {
		if products[i].ID == id {
			products[i].Status = status
			r.save(products)
			return products[i], true
		}
	}
	return Product{}, false
}

// Delete removes the product with the given id. The collection is only
// rewritten when something was removed.
func (r *Repository) Delete(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.delete(r.load(), id)
	return ok
}

func (r *Repository) delete(products []Product, id int64) ([]Product, bool) {
	kept := products[:0:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(products) {
		return products, false
	}
	r.save(kept)
	return kept, true
}

// BulkDelete deletes every listed product and returns how many existed.
func (r *Repository) BulkDelete(ids []int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := r.load()
	var n int
	for _, id := range ids {
		var ok bool
		if products, ok = r.delete(products, id); ok {
			n++
		}
	}
	return n
}

// BulkSetStatus sets status on every listed product and returns how many
// existed.
func (r *Repository) BulkSetStatus(ids []int64, status Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := r.load()
	var n int
	for _, id := range ids {
		if _, ok := r.setStatus(products, id, status); ok {
			n++
		}
	}
	return n
}

// Filter returns the products whose name or description contains query
// (case-insensitive) and that match category and status exactly. Empty
// arguments match everything.
func (r *Repository) Filter(query, category string, status Status) []Product {
	q := strings.ToLower(query)
	out := []Product{}
	for _, p := range r.List() {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Management tabs.
const (
	TabAll       = "all"
	TabPublished = "published"
	TabDrafts    = "drafts"
)

// ManageFilter is the seller product table filter: search matches name,
// category or description and the drafts tab also shows products without
// stock.
func (r *Repository) ManageFilter(search, tab string) []Product {
	q := strings.ToLower(search)
	out := []Product{}
	for _, p := range r.List() {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		switch tab {
		case "", TabAll:
		case TabPublished:
			if p.Status != StatusPublished {
				continue
			}
		case TabDrafts:
			if p.Status != StatusDraft && p.Stock != 0 {
				continue
			}
		default:
			continue
		}
		out = append(out, p)
	}
	return out
}
