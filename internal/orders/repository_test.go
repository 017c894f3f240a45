package orders

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/kv"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderIDPattern = regexp.MustCompile(`^ORD-\d{6}$`)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func newTestRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	store := kv.New(kv.NewMemory(), slog.Disabled)
	return NewRepository(store, slog.Disabled, opts...)
}

func TestCreate(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 30, 0, 123e6, time.UTC)
	r := newTestRepo(t, WithClock(fixedClock(ts)))

	items := []cart.Item{
		{ID: 1, Name: "Phone", Price: 10, Quantity: 3},
		{ID: 2, Name: "Cable", Price: 5, Quantity: 2},
	}
	o := r.Create(Input{Items: items, TotalPrice: 40.00, Customer: "Jane"})

	assert.Regexp(t, orderIDPattern, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 40.00, o.TotalPrice)
	assert.Equal(t, "Jane", o.Customer)
	assert.Equal(t, "2024-03-05T10:30:00.123Z", o.Date)
	assert.Equal(t, items, o.Items)

	created, err := o.Time()
	require.NoError(t, err)
	assert.True(t, ts.Equal(created))

	got, ok := r.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, o, got)
}

func TestCreateWithRealClock(t *testing.T) {
	r := newTestRepo(t)
	o := r.Create(Input{Customer: "Jane"})
	assert.Regexp(t, orderIDPattern, o.ID)
	assert.NotNil(t, o.Items)
}

func TestCreateAvoidsIDCollisions(t *testing.T) {
	ts := time.UnixMilli(1_700_000_123_456)
	r := newTestRepo(t, WithClock(fixedClock(ts)))

	a := r.Create(Input{Customer: "A"})
	b := r.Create(Input{Customer: "B"})
	c := r.Create(Input{Customer: "C"})
	assert.Equal(t, "ORD-123456", a.ID)
	assert.Equal(t, "ORD-123457", b.ID)
	assert.Equal(t, "ORD-123458", c.ID)
}

func TestTimestampIDsWraps(t *testing.T) {
	ts := time.UnixMilli(1_000_999_999)
	taken := map[string]bool{"ORD-999999": true}
	id := TimestampIDs(ts, func(id string) bool { return taken[id] })
	assert.Equal(t, "ORD-000000", id)

	id = TimestampIDs(time.UnixMilli(42), func(string) bool { return false })
	assert.Equal(t, "ORD-000042", id)
}

func TestUUIDIDs(t *testing.T) {
	r := newTestRepo(t, WithIDGenerator(UUIDIDs))
	o := r.Create(Input{Customer: "Jane"})
	assert.True(t, strings.HasPrefix(o.ID, "ORD-"))
	assert.Len(t, o.ID, len("ORD-")+36)
}

func TestSetStatusIsPermissive(t *testing.T) {
	r := newTestRepo(t)
	o := r.Create(Input{Customer: "Jane"})

	for _, st := range []Status{StatusDelivered, StatusPending, StatusCancelled, StatusShipped} {
		got, ok := r.SetStatus(o.ID, st)
		require.True(t, ok)
		assert.Equal(t, st, got.Status)
	}
	got, _ := r.Get(o.ID)
	assert.Equal(t, StatusShipped, got.Status)

	_, ok := r.SetStatus("ORD-000000", StatusShipped)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	ts := time.UnixMilli(5_000)
	r := newTestRepo(t, WithClock(fixedClock(ts)))
	a := r.Create(Input{Customer: "A"})
	r.Create(Input{Customer: "B"})

	assert.False(t, r.Delete("ORD-missing"))
	assert.Len(t, r.List(), 2)
	assert.True(t, r.Delete(a.ID))
	assert.Len(t, r.List(), 1)
	_, ok := r.Get(a.ID)
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	r := newTestRepo(t, WithClock(fixedClock(time.UnixMilli(1_000))))
	jane := r.Create(Input{Customer: "Jane Doe"})
	bob := r.Create(Input{Customer: "Bob"})
	janet := r.Create(Input{Customer: "Janet"})
	r.Create(Input{Customer: "Alice"})

	r.SetStatus(bob.ID, StatusCancelled)
	r.SetStatus(janet.ID, StatusCancelled)

	ids := func(os []Order) []string {
		var out []string
		for _, o := range os {
			out = append(out, o.ID)
		}
		return out
	}

	assert.Equal(t, []string{bob.ID, janet.ID}, ids(r.Filter("", StatusCancelled)))
	assert.Equal(t, []string{jane.ID, janet.ID}, ids(r.Filter("jane", "")))
	assert.Equal(t, []string{jane.ID, janet.ID}, ids(r.Filter("JANE", StatusAll)))
	assert.Equal(t, []string{janet.ID}, ids(r.Filter("jane", StatusCancelled)))
	assert.Equal(t, []string{bob.ID}, ids(r.Filter(strings.ToLower(bob.ID), "")))
	assert.Len(t, r.Filter("", ""), 4)
	assert.Empty(t, r.Filter("", StatusDelivered))
}

func TestForCustomer(t *testing.T) {
	r := newTestRepo(t)
	r.Create(Input{Customer: "Client Demo"})
	r.Create(Input{Customer: "Someone"})
	r.Create(Input{Customer: "client demo"})
	assert.Len(t, r.ForCustomer("Client Demo"), 2)
	assert.Empty(t, r.ForCustomer("Nobody"))
}

func TestParseStatus(t *testing.T) {
	for _, st := range Statuses {
		got, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseStatus("all")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
