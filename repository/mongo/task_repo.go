package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/repository"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	User        primitive.ObjectID `bson:"user"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d taskDocument) task() *domain.Task {
	return &domain.Task{
		ID:          d.ID.Hex(),
		UserID:      d.User.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type taskRepository struct {
	coll *mongo.Collection
}

// NewTaskRepository returns a Mongo-backed implementation of TaskRepository.
func NewTaskRepository(db *mongo.Database) repository.TaskRepository {
	return &taskRepository{coll: db.Collection(tasksCollection)}
}

// ownedFilter matches the task only when it belongs to ownerID.
func ownedFilter(ownerID, id string) (bson.M, bool) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false
	}
	owner, ok := objectID(ownerID)
	if !ok {
		return nil, false
	}
	return bson.M{"_id": oid, "user": owner}, true
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	var doc taskDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, taskError(err)
	}
	return doc.task(), nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks := []domain.Task{}
	owner, ok := objectID(filter.UserID)
	if !ok {
		return tasks, nil
	}

	query := bson.M{"user": owner}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, *doc.task())
	}
	return tasks, cursor.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	owner, ok := objectID(task.UserID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	ts := now()
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		User:        owner,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	*task = *doc.task()
	return task, nil
}

// Update issues a single FindOneAndUpdate whose filter carries the owner.
func (r *taskRepository) Update(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if patch.IsEmpty() {
		return r.GetByID(ctx, ownerID, id)
	}

	set := bson.M{"updatedAt": now()}
	if patch.Title.Set {
		set["title"] = patch.Title.Value
	}
	if patch.Description.Set {
		set["description"] = patch.Description.Value
	}
	if patch.Status.Set {
		set["status"] = patch.Status.Value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, taskError(err)
	}
	return doc.task(), nil
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id string) error {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return domain.ErrTaskNotFound
	}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func taskError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrTaskNotFound
	}
	return err
}
