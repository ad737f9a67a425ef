package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.etcd.io/bbolt"
)

// pathsBucket holds every temp path scheduled for deletion, keyed by an
// append-only counter so insertion order survives a reopen.
var pathsBucket = []byte("paths")

// Registry is the on-disk ledger of temp files a sort run has created. It is
// written by the orchestrator only; the janitor drains it at the end of the
// run and then destroys the ledger itself.
type Registry struct {
	db      *bbolt.DB
	path    string
	counter atomic.Uint64
}

// Open creates (or reopens) a registry ledger at dbPath.
func Open(dbPath string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}

	r := &Registry{db: db, path: dbPath}
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(pathsBucket)
		if err != nil {
			return err
		}
		// Resume the counter past any existing keys so a reopen never
		// overwrites earlier entries.
		if k, _ := b.Cursor().Last(); k != nil {
			var last uint64
			if _, err := fmt.Sscanf(string(k), "%d", &last); err == nil {
				r.counter.Store(last)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create paths bucket: %w", err)
	}

	return r, nil
}

// Add records a temp path for end-of-run deletion. Recording the same path
// twice is harmless; deletion is best-effort and idempotent.
func (r *Registry) Add(path string) error {
	key := []byte(fmt.Sprintf("%016d", r.counter.Add(1)))

	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(pathsBucket).Put(key, []byte(path))
	})
}

// AddAll records a batch of temp paths.
func (r *Registry) AddAll(paths []string) error {
	for _, p := range paths {
		if err := r.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// Paths returns every recorded path in insertion order.
func (r *Registry) Paths() ([]string, error) {
	var paths []string

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(pathsBucket).ForEach(func(k, v []byte) error {
			paths = append(paths, string(v))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read paths bucket: %w", err)
	}

	return paths, nil
}

// Len returns the number of recorded paths.
func (r *Registry) Len() (int, error) {
	n := 0
	err := r.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(pathsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the ledger without removing it.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Destroy closes the ledger and removes its backing file.
func (r *Registry) Destroy() error {
	if err := r.db.Close(); err != nil {
		return err
	}
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
