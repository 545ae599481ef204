package repository

import "context"

// Store bundles the repositories of one storage driver.
type Store struct {
	Users UserRepository
	Tasks TaskRepository
	// Ping reports whether the backing database is reachable.
	Ping func(ctx context.Context) error
	// Close releases the driver's resources.
	Close func(ctx context.Context) error
}
