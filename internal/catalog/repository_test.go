package catalog

import (
	"bytes"
	"strings"
	"testing"

	"storefront/internal/kv"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func newTestRepo(t *testing.T, opts ...Option) (*Repository, *kv.Store) {
	t.Helper()
	store := kv.New(kv.NewMemory(), slog.Disabled)
	return NewRepository(store, slog.Disabled, opts...), store
}

func ptr[T any](v T) *T { return &v }

func TestInitializeSeedsOnce(t *testing.T) {
	r, store := newTestRepo(t)
	assert.Empty(t, r.List())

	r.Initialize()
	products := r.List()
	require.Len(t, products, 8)
	for _, p := range products {
		assert.Equal(t, StatusPublished, p.Status, p.Name)
	}

	// A non-empty collection is left alone.
	store.Set(kv.KeyProducts, []Product{{ID: 9, Name: "Only"}})
	r.Initialize()
	require.Len(t, r.List(), 1)
}

func TestInitializeDerivesStatusFromStock(t *testing.T) {
	r, _ := newTestRepo(t, WithSeed([]Product{
		{ID: 1, Name: "In stock", Stock: 3},
		{ID: 2, Name: "Empty", Stock: 0},
	}))
	r.Initialize()
	products := r.List()
	assert.Equal(t, StatusPublished, products[0].Status)
	assert.Equal(t, StatusDraft, products[1].Status)
}

func TestCreate(t *testing.T) {
	r, _ := newTestRepo(t)

	p := r.Create(Input{Name: "Lamp", Description: "Desk lamp", Price: 25.5, Category: "Home", Stock: 4})
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, StatusPublished, p.Status)
	assert.Equal(t, PlaceholderImage, p.Image)

	got, ok := r.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, p, got)

	p2 := r.Create(Input{Name: "Chair", Stock: 0, Image: "https://img/chair.png"})
	assert.Equal(t, int64(2), p2.ID)
	assert.Equal(t, StatusDraft, p2.Status)
	assert.Equal(t, "https://img/chair.png", p2.Image)
}

func TestCreateUsesMaxPlusOne(t *testing.T) {
	r, store := newTestRepo(t)
	store.Set(kv.KeyProducts, []Product{{ID: 7}, {ID: 3}})
	p := r.Create(Input{Name: "Next"})
	assert.Equal(t, int64(8), p.ID)
}

func TestUpdate(t *testing.T) {
	r, _ := newTestRepo(t)
	p := r.Create(Input{Name: "Lamp", Price: 10, Stock: 2})

	got, ok := r.Update(p.ID, Patch{Price: ptr(12.0), Name: ptr("Big lamp")})
	require.True(t, ok)
	assert.Equal(t, "Big lamp", got.Name)
	assert.Equal(t, 12.0, got.Price)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, StatusPublished, got.Status)

	// Stock wins over an explicit status in the same patch.
	got, ok = r.Update(p.ID, Patch{Stock: ptr(0), Status: ptr(StatusPublished)})
	require.True(t, ok)
	assert.Equal(t, StatusOutOfStock, got.Status)

	got, ok = r.Update(p.ID, Patch{Stock: ptr(5), Status: ptr(StatusDraft)})
	require.True(t, ok)
	assert.Equal(t, StatusPublished, got.Status)

	// Status alone is applied as given.
	got, _ = r.Update(p.ID, Patch{Status: ptr(StatusDraft)})
	assert.Equal(t, StatusDraft, got.Status)

	_, ok = r.Update(999, Patch{Name: ptr("x")})
	assert.False(t, ok)
}

func TestSetStatusKeepsStock(t *testing.T) {
	r, _ := newTestRepo(t)
	p := r.Create(Input{Name: "Lamp", Stock: 0})

	got, ok := r.SetStatus(p.ID, StatusPublished)
	require.True(t, ok)
	assert.Equal(t, StatusPublished, got.Status)
	assert.Equal(t, 0, got.Stock)

	_, ok = r.SetStatus(42, StatusDraft)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	r, _ := newTestRepo(t)
	a := r.Create(Input{Name: "A"})
	r.Create(Input{Name: "B"})

	assert.False(t, r.Delete(100))
	assert.Len(t, r.List(), 2)

	assert.True(t, r.Delete(a.ID))
	products := r.List()
	require.Len(t, products, 1)
	assert.Equal(t, "B", products[0].Name)
}

func TestBulkOperations(t *testing.T) {
	r, _ := newTestRepo(t)
	a := r.Create(Input{Name: "A", Stock: 1})
	b := r.Create(Input{Name: "B", Stock: 1})
	c := r.Create(Input{Name: "C", Stock: 1})

	n := r.BulkSetStatus([]int64{a.ID, c.ID, 77}, StatusDraft)
	assert.Equal(t, 2, n)
	got, _ := r.Get(c.ID)
	assert.Equal(t, StatusDraft, got.Status)
	got, _ = r.Get(b.ID)
	assert.Equal(t, StatusPublished, got.Status)

	n = r.BulkDelete([]int64{a.ID, b.ID, a.ID})
	assert.Equal(t, 2, n)
	products := r.List()
	require.Len(t, products, 1)
	assert.Equal(t, c.ID, products[0].ID)
}

func TestFilter(t *testing.T) {
	r, _ := newTestRepo(t)
	r.Create(Input{Name: "Red Phone", Description: "smart", Category: "Electronics", Stock: 1})
	r.Create(Input{Name: "Laptop", Description: "A fast PHONE killer", Category: "Computers", Stock: 1})
	r.Create(Input{Name: "Shoes", Description: "running", Category: "Sport", Stock: 0})

	names := func(ps []Product) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Red Phone", "Laptop", "Shoes"}, names(r.Filter("", "", "")))
	assert.Equal(t, []string{"Red Phone", "Laptop"}, names(r.Filter("phone", "", "")))
	assert.Equal(t, []string{"Laptop"}, names(r.Filter("phone", "Computers", "")))
	assert.Equal(t, []string{"Shoes"}, names(r.Filter("", "", StatusDraft)))
	assert.Empty(t, r.Filter("phone", "Sport", ""))
}

func TestManageFilter(t *testing.T) {
	r, _ := newTestRepo(t)
	r.Create(Input{Name: "Phone", Category: "Electronics", Stock: 2})
	empty := r.Create(Input{Name: "Drone", Category: "Electronics", Stock: 3})
	r.Create(Input{Name: "Shoes", Category: "Sport", Stock: 0})
	// Published but without stock still lands in drafts.
	r.Update(empty.ID, Patch{Stock: ptr(0)})
	r.SetStatus(empty.ID, StatusPublished)

	assert.Len(t, r.ManageFilter("", TabAll), 3)
	assert.Len(t, r.ManageFilter("electro", ""), 2)
	assert.Len(t, r.ManageFilter("", TabPublished), 2)
	assert.Len(t, r.ManageFilter("", TabDrafts), 2)
	assert.Empty(t, r.ManageFilter("", "archived"))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("out_of_stock")
	require.NoError(t, err)
	assert.Equal(t, StatusOutOfStock, st)

	_, err = ParseStatus("sold")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReadSeed(t *testing.T) {
	products, err := ReadSeed(strings.NewReader("- id: 3\n  name: Mug\n  price: 4.5\n  stock: 2\n"))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)
	assert.Equal(t, 4.5, products[0].Price)

	_, err = ReadSeed(strings.NewReader("- id: 1\n- id: 1\n"))
	assert.Error(t, err)
	_, err = ReadSeed(strings.NewReader("- name: NoID\n"))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	products := DefaultSeed()[:2]
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, products))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet["Products"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "ID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, products[1].Name, sheet.Rows[2].Cells[1].String())
}
