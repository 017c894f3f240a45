package kv

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDB stores keys in a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// NewLevelDB wraps an already opened database.
func NewLevelDB(db *leveldb.DB) *LevelDB {
	return &LevelDB{db: db}
}

func (l *LevelDB) Get(key string) ([]byte, error) {
	v, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (l *LevelDB) Put(key string, value []byte) error {
	return l.db.Put([]byte(key), value, nil)
}

func (l *LevelDB) Delete(key string) error {
	return l.db.Delete([]byte(key), nil)
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
