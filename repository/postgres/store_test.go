package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fastygo/taskapi/domain"
	infra "github.com/fastygo/taskapi/internal/infrastructure/postgres"
	"github.com/fastygo/taskapi/pkg/optional"
	"github.com/fastygo/taskapi/repository/repotest"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "taskapi",
				"POSTGRES_PASSWORD": "taskapi",
				"POSTGRES_DB":       "taskapi",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://taskapi:taskapi@%s:%s/taskapi?sslmode=disable", host, port.Port())
	require.NoError(t, infra.RunMigrations(dsn, "../../assets/migrations", nil))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresStoreContract(t *testing.T) {
	pool := startPostgres(t)
	repotest.Run(t, NewStore(pool), uuid.NewString())

	t.Run("check constraints reject invalid values", func(t *testing.T) {
		ctx := context.Background()
		store := NewStore(pool)
		owner := repotest.NewUser(t, store)
		task, err := store.Tasks.Create(ctx, &domain.Task{UserID: owner.ID, Title: "valid"})
		require.NoError(t, err)

		_, err = store.Tasks.Update(ctx, owner.ID, task.ID, domain.TaskPatch{Status: optional.Of("archived")})
		require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid), "got %v", err)

		_, err = store.Tasks.Update(ctx, owner.ID, task.ID, domain.TaskPatch{Title: optional.Of("  ")})
		require.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid), "got %v", err)
	})
}
