// Package kv is the storefront's persistent key-value layer. A Store wraps
// one Backend with JSON encoding and never surfaces failures to callers:
// they are logged and the caller gets the default value or a silent no-op.
package kv

import (
	"encoding/json"
	"errors"

	"github.com/decred/slog"
)

// ErrNotFound is returned by backends when a key has no value.
var ErrNotFound = errors.New("key not found")

// Keys used by the storefront.
const (
	KeyCart      = "cart"
	KeyProducts  = "marketplace_products"
	KeyOrders    = "marketplace_orders"
	KeyUser      = "user"
	KeyAuthToken = "auth_token"
)

// Backend is a raw byte store.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Store encodes values as JSON on top of a Backend.
type Store struct {
	b       Backend
	log     slog.Logger
	onError func(op string)
}

// Option configures a Store.
type Option func(s *Store)

// WithErrorHook registers fn to be called with the operation name ("set",
// "get", "remove") every time a failure is swallowed.
func WithErrorHook(fn func(op string)) Option {
	return func(s *Store) {
		s.onError = fn
	}
}

// New returns a Store over b. log must not be nil; use slog.Disabled.
func New(b Backend, log slog.Logger, opts ...Option) *Store {
	s := &Store{b: b, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) failed(op string) {
	if s.onError != nil {
		s.onError(op)
	}
}

// Set encodes value and writes it under key.
func (s *Store) Set(key string, value interface{}) {
	b, err := json.Marshal(value)
	if err != nil {
		s.log.Errorf("Unable to encode value for %q: %v", key, err)
		s.failed("set")
		return
	}
	if err := s.b.Put(key, b); err != nil {
		s.log.Errorf("Unable to store %q: %v", key, err)
		s.failed("set")
	}
}

// Remove deletes key. Removing an absent key is not a failure.
func (s *Store) Remove(key string) {
	if err := s.b.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Errorf("Unable to remove %q: %v", key, err)
		s.failed("remove")
	}
}

// Has returns whether key currently holds a value.
func (s *Store) Has(key string) bool {
	_, err := s.b.Get(key)
	return err == nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.b.Close()
}

// Get decodes the value stored under key. def is returned when the key is
// absent, the backend fails or the stored bytes do not decode as T.
func Get[T any](s *Store, key string, def T) T {
	b, err := s.b.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		s.log.Errorf("Unable to read %q: %v", key, err)
		s.failed("get")
		return def
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		s.log.Errorf("Unable to decode %q: %v", key, err)
		s.failed("get")
		return def
	}
	return v
}
