package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/repository"
)

// taskRecord is the stored form of a task. Seq comes from the owner
// bucket's sequence and orders tasks created within the same clock tick.
type taskRecord struct {
	domain.Task
	Seq uint64 `json:"seq"`
}

type taskRepository struct {
	db *DB
}

// NewTaskRepository returns a Bolt-backed implementation of TaskRepository.
func NewTaskRepository(db *DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

// ownerBucket returns the owner's task bucket, or nil when the owner has none.
func ownerBucket(tx *bolt.Tx, ownerID string) *bolt.Bucket {
	if ownerID == "" {
		return nil
	}
	return tx.Bucket(bucketTasks).Bucket([]byte(ownerID))
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.db.View(func(tx *bolt.Tx) error {
		b := ownerBucket(tx, ownerID)
		if b == nil || id == "" {
			return domain.ErrTaskNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return domain.ErrTaskNotFound
		}
		rec, err := decodeTask(raw)
		if err != nil {
			return err
		}
		task = &rec.Task
		return nil
	})
	return task, err
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	records := []taskRecord{}
	search := strings.ToLower(filter.Search)

	err := r.db.db.View(func(tx *bolt.Tx) error {
		b := ownerBucket(tx, filter.UserID)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			rec, err := decodeTask(v)
			if err != nil {
				return err
			}
			task := &rec.Task
			if filter.Status != "" && task.Status != filter.Status {
				return nil
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(task.Title), search) &&
				!strings.Contains(strings.ToLower(task.Description), search) {
				return nil
			}
			records = append(records, *rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].Seq > records[j].Seq
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	tasks := make([]domain.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, rec.Task)
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	now := r.db.now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	err := r.db.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketUsers).Get([]byte(task.UserID)) == nil {
			return domain.ErrUserNotFound
		}
		b, err := tx.Bucket(bucketTasks).CreateBucketIfNotExists([]byte(task.UserID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return putTask(b, taskRecord{Task: *task, Seq: seq})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update reads, patches and writes the task inside one read-write
// transaction confined to the owner's bucket.
func (r *taskRepository) Update(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.db.Update(func(tx *bolt.Tx) error {
		b := ownerBucket(tx, ownerID)
		if b == nil || id == "" {
			return domain.ErrTaskNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return domain.ErrTaskNotFound
		}
		rec, err := decodeTask(raw)
		if err != nil {
			return err
		}
		task = &rec.Task
		if patch.IsEmpty() {
			return nil
		}
		patch.Apply(task)
		task.UpdatedAt = r.db.now().UTC()
		return putTask(b, *rec)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.db.db.Update(func(tx *bolt.Tx) error {
		b := ownerBucket(tx, ownerID)
		if b == nil || id == "" || b.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete([]byte(id))
	})
}

func putTask(b *bolt.Bucket, rec taskRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.Put([]byte(rec.ID), payload)
}

func decodeTask(raw []byte) (*taskRecord, error) {
	var rec taskRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
