package task

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/optional"
	"github.com/fastygo/taskapi/repository"
	boltRepo "github.com/fastygo/taskapi/repository/bolt"
	"github.com/fastygo/taskapi/repository/repotest"
)

func setup(t *testing.T) (*UseCase, repository.Store) {
	t.Helper()
	db, err := boltRepo.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := boltRepo.NewStore(db)
	return New(store.Tasks, nil), store
}

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	out := map[string]string{}
	for _, f := range vErr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestCreateThenListRoundTrip(t *testing.T) {
	uc, store := setup(t)
	ctx := context.Background()
	owner := repotest.NewUser(t, store)

	_, err := uc.CreateTask(ctx, owner.ID, CreateInput{Title: optional.Of("older")})
	require.NoError(t, err)
	created, err := uc.CreateTask(ctx, owner.ID, CreateInput{Title: optional.Of("X")})
	require.NoError(t, err)

	list, err := uc.ListTasks(ctx, owner.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	first := list[0]
	require.Equal(t, created.ID, first.ID)
	require.NotEmpty(t, first.ID)
	require.Equal(t, owner.ID, first.UserID)
	require.Equal(t, "X", first.Title)
	require.Equal(t, "", first.Description)
	require.Equal(t, domain.TaskStatusPending, first.Status)
	require.False(t, first.CreatedAt.IsZero())
	require.False(t, first.UpdatedAt.IsZero())
}

func TestCreateValidation(t *testing.T) {
	uc, store := setup(t)
	owner := repotest.NewUser(t, store)

	_, err := uc.CreateTask(context.Background(), owner.ID, CreateInput{
		Title:  optional.Of("   "),
		Status: optional.Of("done"),
	})
	require.Equal(t, map[string]string{
		"title":  "Title is required",
		"status": "Invalid status",
	}, fieldMessages(t, err))

	_, err = uc.CreateTask(context.Background(), owner.ID, CreateInput{})
	require.Equal(t, map[string]string{"title": "Title is required"}, fieldMessages(t, err))

	list, err := uc.ListTasks(context.Background(), owner.ID, ListQuery{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateKeepsExplicitStatus(t *testing.T) {
	uc, store := setup(t)
	owner := repotest.NewUser(t, store)

	created, err := uc.CreateTask(context.Background(), owner.ID, CreateInput{
		Title:       optional.Of("Ship"),
		Description: optional.Of("v1"),
		Status:      optional.Of(domain.TaskStatusInProgress),
	})
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusInProgress, created.Status)
	require.Equal(t, "v1", created.Description)
}

func TestUpdateIsSparse(t *testing.T) {
	uc, store := setup(t)
	ctx := context.Background()
	owner := repotest.NewUser(t, store)
	created, err := uc.CreateTask(ctx, owner.ID, CreateInput{
		Title:       optional.Of("Plan"),
		Description: optional.Of("details"),
	})
	require.NoError(t, err)

	updated, err := uc.UpdateTask(ctx, owner.ID, created.ID, domain.TaskPatch{Status: optional.Of(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	require.Equal(t, "Plan", updated.Title)
	require.Equal(t, "details", updated.Description)
	require.Equal(t, domain.TaskStatusCompleted, updated.Status)

	updated, err = uc.UpdateTask(ctx, owner.ID, created.ID, domain.TaskPatch{Description: optional.Of("")})
	require.NoError(t, err)
	require.Equal(t, "", updated.Description)
	require.Equal(t, "Plan", updated.Title)
}

func TestUpdateValidatesPresentFields(t *testing.T) {
	uc, store := setup(t)
	ctx := context.Background()
	owner := repotest.NewUser(t, store)
	created, err := uc.CreateTask(ctx, owner.ID, CreateInput{Title: optional.Of("Plan")})
	require.NoError(t, err)

	_, err = uc.UpdateTask(ctx, owner.ID, created.ID, domain.TaskPatch{
		Title:  optional.Of(""),
		Status: optional.Of("archived"),
	})
	require.Equal(t, map[string]string{
		"title":  "Title cannot be empty",
		"status": "Invalid status",
	}, fieldMessages(t, err))

	got, err := uc.GetTask(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Plan", got.Title)
	require.Equal(t, domain.TaskStatusPending, got.Status)
}

func TestOwnershipIsolation(t *testing.T) {
	uc, store := setup(t)
	ctx := context.Background()
	alice := repotest.NewUser(t, store)
	bob := repotest.NewUser(t, store)
	task, err := uc.CreateTask(ctx, alice.ID, CreateInput{Title: optional.Of("private")})
	require.NoError(t, err)

	_, err = uc.GetTask(ctx, bob.ID, task.ID)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = uc.UpdateTask(ctx, bob.ID, task.ID, domain.TaskPatch{Status: optional.Of(domain.TaskStatusCompleted)})
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
	require.ErrorIs(t, uc.DeleteTask(ctx, bob.ID, task.ID), domain.ErrTaskNotFound)

	got, err := uc.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusPending, got.Status)
}

func TestDeleteTwice(t *testing.T) {
	uc, store := setup(t)
	ctx := context.Background()
	owner := repotest.NewUser(t, store)
	task, err := uc.CreateTask(ctx, owner.ID, CreateInput{Title: optional.Of("once")})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteTask(ctx, owner.ID, task.ID))
	require.ErrorIs(t, uc.DeleteTask(ctx, owner.ID, task.ID), domain.ErrTaskNotFound)
	require.ErrorIs(t, uc.DeleteTask(ctx, owner.ID, task.ID), domain.ErrTaskNotFound)
}

func TestListSearchAndStatus(t *testing.T) {
	uc, store := setup(t)
	ctx := context.Background()
	owner := repotest.NewUser(t, store)

	mk := func(title, description, status string) *domain.Task {
		in := CreateInput{Title: optional.Of(title), Description: optional.Of(description)}
		if status != "" {
			in.Status = optional.Of(status)
		}
		task, err := uc.CreateTask(ctx, owner.ID, in)
		require.NoError(t, err)
		return task
	}
	titleHit := mk("FOO fighters", "", "")
	descHit := mk("groceries", "buy food", domain.TaskStatusCompleted)
	mk("nothing", "here", "")

	got, err := uc.ListTasks(ctx, owner.ID, ListQuery{Search: "foo"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, descHit.ID, got[0].ID)
	require.Equal(t, titleHit.ID, got[1].ID)

	got, err = uc.ListTasks(ctx, owner.ID, ListQuery{Search: "foo", Status: domain.TaskStatusCompleted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, descHit.ID, got[0].ID)
}
