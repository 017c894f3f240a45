package kv

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/decred/slog"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMySQLRoundTrip runs against a live server, e.g.
// MYSQL_DSN="user:pass@tcp(127.0.0.1:3306)/storefront".
func TestMySQLRoundTrip(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Ping())
	require.NoError(t, EnsureTable(db))

	s := New(NewMySQL(db), slog.Disabled)
	key := fmt.Sprintf("test_%d", time.Now().UnixNano())
	t.Cleanup(func() { s.Remove(key) })

	assert.False(t, s.Has(key))
	assert.Empty(t, Get(s, key, []record{}))

	want := []record{{ID: 1, Name: "Phone"}, {ID: 2, Name: "Laptop"}}
	s.Set(key, want)
	assert.True(t, s.Has(key))
	assert.Equal(t, want, Get(s, key, []record{}))

	// Overwrite goes through the upsert.
	want = want[:1]
	s.Set(key, want)
	assert.Equal(t, want, Get(s, key, []record{}))

	s.Remove(key)
	assert.False(t, s.Has(key))
	assert.Nil(t, Get[[]record](s, key, nil))
}
