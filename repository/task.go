package repository

import (
	"context"

	"github.com/fastygo/taskapi/domain"
)

// TaskFilter narrows List. Status is an exact match; Search is a
// case-insensitive substring matched against title or description.
type TaskFilter struct {
	UserID string
	Status string
	Search string
}

// TaskRepository scopes every operation to the owning user. Implementations
// must apply the owner predicate in the same atomic operation as the read or
// write, and report a task owned by someone else as domain.ErrTaskNotFound.
type TaskRepository interface {
	GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}
