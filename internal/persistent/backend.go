// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package persistent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

// Backend stores one serialized document.
//
// Load returns (nil, nil) when no document has been written yet. Save must
// replace the previous document as a whole: a reader never observes a mix of
// old and new content.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
	String() string
}

// FileBackend keeps the document in a single JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for the file at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the file. A missing file is not an error.
func (b *FileBackend) Load() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, nil
}

// Save writes data to a temporary file in the same directory, syncs it and
// renames it over the target.
func (b *FileBackend) Save(data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

// String returns the file path.
func (b *FileBackend) String() string {
	return b.path
}

// BadgerBackend keeps the document under a single key of a BadgerDB database.
// Several backends may share one database with different keys.
type BadgerBackend struct {
	db  *badger.DB
	key []byte
}

// NewBadgerBackend creates a backend storing the document under key.
func NewBadgerBackend(db *badger.DB, key string) *BadgerBackend {
	return &BadgerBackend{db: db, key: []byte(key)}
}

// OpenBadger opens (or creates) a BadgerDB database in dir with badger's own
// logging disabled.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return db, nil
}

// OpenBadgerInMemory opens a BadgerDB database that lives only in memory.
func OpenBadgerInMemory() (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return db, nil
}

// Load reads the document. A missing key is not an error.
func (b *BadgerBackend) Load() ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", b.key, err)
	}
	return data, nil
}

// Save replaces the document in a single transaction.
func (b *BadgerBackend) Save(data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
	if err != nil {
		return fmt.Errorf("write key %s: %w", b.key, err)
	}
	return nil
}

// String returns a description of the backend.
func (b *BadgerBackend) String() string {
	return "badger:" + string(b.key)
}
