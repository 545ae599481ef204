package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskapi/repository"
)

// NewStore wires the Postgres repositories around a shared pool.
func NewStore(pool *pgxpool.Pool) repository.Store {
	return repository.Store{
		Users: NewUserRepository(pool),
		Tasks: NewTaskRepository(pool),
		Ping:  pool.Ping,
		Close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}
}
