package main

import (
	"fmt"
	"os"
	"path/filepath"

	"storefront/internal/kv"
)

// openBackend returns the key-value backend selected by cfg and a function
// releasing it.
func openBackend(cfg *config, logBknd *logBackend) (kv.Backend, func() error, error) {
	log := logBknd.logger(subsysStore)
	nop := func() error { return nil }

	switch cfg.StoreBackend {
	case backendMemory:
		log.Infof("Using in-memory store; data is lost on restart")
		return kv.NewMemory(), nop, nil

	case backendFile:
		dir := filepath.Join(cfg.DataDir, "kv")
		f, err := kv.NewFile(dir, log)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Using file store at %s", dir)
		return f, nop, nil

	case backendLevelDB:
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		path := filepath.Join(cfg.DataDir, "leveldb")
		l, err := kv.OpenLevelDB(path)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Using leveldb store at %s", path)
		return l, l.Close, nil

	case backendMySQL:
		db, err := openMySQL(cfg.MySQLDSN, cfg.TiDBCA, log)
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Using mysql store")
		return kv.NewMySQL(db), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
