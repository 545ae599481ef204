package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/repository"
)

const taskColumns = `id, user_id, title, description, status, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, domain.ErrTaskNotFound
	}
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1 AND user_id = $2
	`
	return scanTask(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks := []domain.Task{}
	if !validID(filter.UserID) {
		return tasks, nil
	}

	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR strpos(lower(title), lower($3)) > 0 OR strpos(lower(description), lower($3)) > 0)
	ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.Status, filter.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if !validID(task.UserID) {
		return nil, domain.ErrUserNotFound
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, translate(err)
	}

	return task, nil
}

// Update applies only the fields present in patch. The owner predicate and
// the write are a single statement.
func (r *taskRepository) Update(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, domain.ErrTaskNotFound
	}
	if patch.IsEmpty() {
		return r.GetByID(ctx, ownerID, id)
	}

	const query = `
	UPDATE tasks
	SET title       = CASE WHEN $3::bool THEN $4::text ELSE title END,
		description = CASE WHEN $5::bool THEN $6::text ELSE description END,
		status      = CASE WHEN $7::bool THEN $8::text ELSE status END,
		updated_at  = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title.Set, patch.Title.Value,
		patch.Description.Set, patch.Description.Value,
		patch.Status.Set, patch.Status.Value,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, translate(err)
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) || !validID(ownerID) {
		return domain.ErrTaskNotFound
	}
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
