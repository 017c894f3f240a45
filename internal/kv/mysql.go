package kv

import (
	"database/sql"
	"errors"
	"fmt"
)

// MySQL stores keys in the kv_store table. The table is created by
// EnsureTable.
type MySQL struct {
	db *sql.DB
}

// NewMySQL returns a backend using db.
func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

// EnsureTable creates the kv_store table if it doesn't exist.
func EnsureTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv_store (
        k VARCHAR(191) PRIMARY KEY,
        v LONGTEXT NOT NULL,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
    )`)
	if err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (m *MySQL) Get(key string) ([]byte, error) {
	var v string
	err := m.db.QueryRow("SELECT v FROM kv_store WHERE k = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", key, err)
	}
	return []byte(v), nil
}

func (m *MySQL) Put(key string, value []byte) error {
	_, err := m.db.Exec(`INSERT INTO kv_store (k, v) VALUES (?, ?)
        ON DUPLICATE KEY UPDATE v = VALUES(v)`, key, string(value))
	if err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}
	return nil
}

func (m *MySQL) Delete(key string) error {
	if _, err := m.db.Exec("DELETE FROM kv_store WHERE k = ?", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close leaves the *sql.DB open; its owner closes it.
func (m *MySQL) Close() error { return nil }
