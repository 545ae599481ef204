// Package bolt is an embedded, single-file document store built on bbolt.
// Tasks live in one nested bucket per owner, so every task lookup is
// structurally scoped to its owner.
package bolt

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskapi/repository"
)

var (
	bucketUsers      = []byte("users")
	bucketUserEmails = []byte("user_emails")
	bucketTasks      = []byte("tasks")
)

// DB wraps a bbolt database holding users and tasks.
type DB struct {
	db  *bolt.DB
	now func() time.Time
}

// Open initializes the BoltDB file and ensures the top-level buckets exist.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketUserEmails, bucketTasks} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, now: time.Now}, nil
}

// Close closes the Bolt database.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Ping fails once the database has been closed.
func (d *DB) Ping(context.Context) error {
	if d == nil || d.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return d.db.View(func(*bolt.Tx) error { return nil })
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (d *DB) Stats() bolt.Stats {
	if d == nil || d.db == nil {
		return bolt.Stats{}
	}
	return d.db.Stats()
}

// NewStore wires the Bolt repositories around d.
func NewStore(d *DB) repository.Store {
	return repository.Store{
		Users: NewUserRepository(d),
		Tasks: NewTaskRepository(d),
		Ping:  d.Ping,
		Close: func(context.Context) error { return d.Close() },
	}
}
