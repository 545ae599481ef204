package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/logger"
	"github.com/fastygo/taskapi/pkg/optional"
	"github.com/fastygo/taskapi/pkg/validation"
	"github.com/fastygo/taskapi/repository"
)

// CreateInput is a decoded task creation request.
type CreateInput struct {
	Title       optional.Field[string]
	Description optional.Field[string]
	Status      optional.Field[string]
}

// ListQuery holds the optional list filters.
type ListQuery struct {
	Status string
	Search string
}

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

// ListTasks returns the owner's tasks, newest first.
func (uc *UseCase) ListTasks(ctx context.Context, ownerID string, q ListQuery) ([]domain.Task, error) {
	return uc.tasks.List(ctx, repository.TaskFilter{
		UserID: ownerID,
		Status: q.Status,
		Search: q.Search,
	})
}

func (uc *UseCase) GetTask(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, ownerID, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, ownerID string, in CreateInput) (*domain.Task, error) {
	if err := validation.Validate(createRules, validation.Input{
		"title":  validation.FromField(in.Title),
		"status": validation.FromField(in.Status),
	}); err != nil {
		return nil, err
	}

	task := &domain.Task{
		UserID:      ownerID,
		Title:       in.Title.Value,
		Description: in.Description.Value,
		Status:      in.Status.OrElse(domain.TaskStatusPending),
	}
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, uc.logger).Debug("task created", zap.String("task_id", created.ID))
	return created, nil
}

// UpdateTask validates the present fields of patch and applies only those.
func (uc *UseCase) UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := validation.Validate(updateRules, validation.Input{
		"title":  validation.FromField(patch.Title),
		"status": validation.FromField(patch.Status),
	}); err != nil {
		return nil, err
	}
	return uc.tasks.Update(ctx, ownerID, id, patch)
}

func (uc *UseCase) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := uc.tasks.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	logger.WithContext(ctx, uc.logger).Debug("task deleted", zap.String("task_id", id))
	return nil
}
