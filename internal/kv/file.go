package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/decred/slog"
)

var validFileKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// File stores each key as <dir>/<key>.json.
type File struct {
	mu  sync.Mutex
	dir string
	log slog.Logger
}

// NewFile returns a backend rooted at dir, creating it if needed.
func NewFile(dir string, log slog.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("unable to create data dir: %w", err)
	}
	return &File{dir: dir, log: log}, nil
}

func (f *File) path(key string) (string, error) {
	if !validFileKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *File) Get(key string) ([]byte, error) {
	fname, err := f.path(key)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(fname)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return b, err
}

// Put writes value to a temp file, then renames the temp file over the
// final one.
func (f *File) Put(key string, value []byte) error {
	fname, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tempFname := filepath.Join(f.dir, "."+key+".json.new")
	fd, err := os.Create(tempFname)
	if err != nil {
		return fmt.Errorf("unable to create temp file: %w", err)
	}

	// No early returns from here on so the temp file is always cleaned up.
	_, err = fd.Write(value)
	if err != nil {
		err = fmt.Errorf("unable to write temp file: %w", err)
	}
	if err == nil {
		err = fd.Sync()
		if err != nil {
			err = fmt.Errorf("unable to fsync temp file: %w", err)
		}
	}
	closeErr := fd.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("unable to close temp file: %w", closeErr)
	}
	if err == nil {
		err = os.Rename(tempFname, fname)
		if err != nil {
			err = fmt.Errorf("unable to rename temp file to final file: %w", err)
		}
	}
	if err != nil {
		if remErr := os.Remove(tempFname); remErr != nil && !os.IsNotExist(remErr) {
			f.log.Warnf("Unable to remove temp file %s: %v", tempFname, remErr)
		}
	}
	return err
}

func (f *File) Delete(key string) error {
	fname, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err = os.Remove(fname)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *File) Close() error { return nil }
