// Package repotest holds the behaviour every storage driver must satisfy,
// run by each driver's own tests.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/optional"
	"github.com/fastygo/taskapi/repository"
)

// Run exercises users and tasks of store. MissingID must be an identifier
// in the driver's native format that no record uses.
func Run(t *testing.T, store repository.Store, missingID string) {
	t.Helper()
	t.Run("users", func(t *testing.T) { testUsers(t, store, missingID) })
	t.Run("task ownership", func(t *testing.T) { testTaskOwnership(t, store, missingID) })
	t.Run("task sparse update", func(t *testing.T) { testSparseUpdate(t, store) })
	t.Run("task list filters", func(t *testing.T) { testListFilters(t, store) })
	t.Run("task delete", func(t *testing.T) { testDelete(t, store, missingID) })
}

var seq int

// NewUser persists a user with a unique email.
func NewUser(t *testing.T, store repository.Store) *domain.User {
	t.Helper()
	seq++
	u, err := store.Users.Create(context.Background(), &domain.User{
		Name:         fmt.Sprintf("user %d", seq),
		Email:        fmt.Sprintf("user%d-%d@example.com", seq, time.Now().UnixNano()),
		PasswordHash: "digest",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	return u
}

func newTask(t *testing.T, store repository.Store, owner, title, description string) *domain.Task {
	t.Helper()
	task, err := store.Tasks.Create(context.Background(), &domain.Task{
		UserID:      owner,
		Title:       title,
		Description: description,
	})
	require.NoError(t, err)
	return task
}

func testUsers(t *testing.T, store repository.Store, missingID string) {
	ctx := context.Background()
	u := NewUser(t, store)
	require.False(t, u.CreatedAt.IsZero())

	got, err := store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, "digest", got.PasswordHash)

	byEmail, err := store.Users.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = store.Users.GetByID(ctx, missingID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = store.Users.GetByID(ctx, "not-an-id")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = store.Users.Create(ctx, &domain.User{Name: "dup", Email: u.Email, PasswordHash: "x"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	updated, err := store.Users.Update(ctx, u.ID, domain.UserPatch{Name: optional.Of("renamed")})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, u.Email, updated.Email)

	other := NewUser(t, store)
	_, err = store.Users.Update(ctx, u.ID, domain.UserPatch{Email: optional.Of(other.Email)})
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = store.Users.Update(ctx, missingID, domain.UserPatch{Name: optional.Of("x")})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, store.Users.SetPasswordHash(ctx, u.ID, "new-digest"))
	got, err = store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-digest", got.PasswordHash)
	require.Equal(t, "renamed", got.Name)

	require.ErrorIs(t, store.Users.SetPasswordHash(ctx, missingID, "x"), domain.ErrUserNotFound)
}

func testTaskOwnership(t *testing.T, store repository.Store, missingID string) {
	ctx := context.Background()
	alice := NewUser(t, store)
	bob := NewUser(t, store)
	task := newTask(t, store, alice.ID, "alice's", "secret")

	_, err := store.Tasks.GetByID(ctx, bob.ID, task.ID)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = store.Tasks.Update(ctx, bob.ID, task.ID, domain.TaskPatch{Title: optional.Of("stolen")})
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	require.ErrorIs(t, store.Tasks.Delete(ctx, bob.ID, task.ID), domain.ErrTaskNotFound)

	list, err := store.Tasks.List(ctx, repository.TaskFilter{UserID: bob.ID})
	require.NoError(t, err)
	require.Empty(t, list)

	got, err := store.Tasks.GetByID(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	require.Equal(t, "alice's", got.Title)
	require.Equal(t, "secret", got.Description)

	_, err = store.Tasks.GetByID(ctx, alice.ID, missingID)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = store.Tasks.GetByID(ctx, alice.ID, "malformed")
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func testSparseUpdate(t *testing.T, store repository.Store) {
	ctx := context.Background()
	owner := NewUser(t, store)
	task := newTask(t, store, owner.ID, "Write report", "quarterly numbers")
	require.Equal(t, domain.TaskStatusPending, task.Status)

	updated, err := store.Tasks.Update(ctx, owner.ID, task.ID, domain.TaskPatch{
		Status: optional.Of(domain.TaskStatusCompleted),
	})
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusCompleted, updated.Status)
	require.Equal(t, "Write report", updated.Title)
	require.Equal(t, "quarterly numbers", updated.Description)
	require.False(t, updated.UpdatedAt.Before(task.UpdatedAt))

	updated, err = store.Tasks.Update(ctx, owner.ID, task.ID, domain.TaskPatch{
		Description: optional.Of(""),
	})
	require.NoError(t, err)
	require.Equal(t, "", updated.Description)
	require.Equal(t, "Write report", updated.Title)
	require.Equal(t, domain.TaskStatusCompleted, updated.Status)

	unchanged, err := store.Tasks.Update(ctx, owner.ID, task.ID, domain.TaskPatch{})
	require.NoError(t, err)
	require.Equal(t, updated.Title, unchanged.Title)

	got, err := store.Tasks.GetByID(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	require.Equal(t, "", got.Description)
	require.Equal(t, domain.TaskStatusCompleted, got.Status)
}

func testListFilters(t *testing.T, store repository.Store) {
	ctx := context.Background()
	owner := NewUser(t, store)

	first := newTask(t, store, owner.ID, "Buy FOOD", "")
	second := newTask(t, store, owner.ID, "Call mom", "about the foobar party")
	third := newTask(t, store, owner.ID, "Gym", "legs")
	_, err := store.Tasks.Update(ctx, owner.ID, second.ID, domain.TaskPatch{
		Status: optional.Of(domain.TaskStatusInProgress),
	})
	require.NoError(t, err)

	all, err := store.Tasks.List(ctx, repository.TaskFilter{UserID: owner.ID})
	require.NoError(t, err)
	require.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all))

	found, err := store.Tasks.List(ctx, repository.TaskFilter{UserID: owner.ID, Search: "foo"})
	require.NoError(t, err)
	require.Equal(t, []string{second.ID, first.ID}, ids(found))

	found, err = store.Tasks.List(ctx, repository.TaskFilter{UserID: owner.ID, Search: "foo", Status: domain.TaskStatusPending})
	require.NoError(t, err)
	require.Equal(t, []string{first.ID}, ids(found))

	found, err = store.Tasks.List(ctx, repository.TaskFilter{UserID: owner.ID, Status: domain.TaskStatusInProgress})
	require.NoError(t, err)
	require.Equal(t, []string{second.ID}, ids(found))

	found, err = store.Tasks.List(ctx, repository.TaskFilter{UserID: owner.ID, Search: "(.*"})
	require.NoError(t, err)
	require.Empty(t, found)
}

func testDelete(t *testing.T, store repository.Store, missingID string) {
	ctx := context.Background()
	owner := NewUser(t, store)
	task := newTask(t, store, owner.ID, "temp", "")

	require.NoError(t, store.Tasks.Delete(ctx, owner.ID, task.ID))
	require.ErrorIs(t, store.Tasks.Delete(ctx, owner.ID, task.ID), domain.ErrTaskNotFound)
	require.ErrorIs(t, store.Tasks.Delete(ctx, owner.ID, missingID), domain.ErrTaskNotFound)

	_, err := store.Tasks.GetByID(ctx, owner.ID, task.ID)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func ids(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
