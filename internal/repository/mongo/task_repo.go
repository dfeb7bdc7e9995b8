package mongo

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const taskCollectionName = "tasks"

// openStatuses are the stored statuses that can still turn overdue.
var openStatuses = []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress}

// mongoTaskRepository implements repository.TaskRepository
type mongoTaskRepository struct {
	collection *mongo.Collection
}

// NewMongoTaskRepository creates a new Task repository backed by MongoDB.
func NewMongoTaskRepository(db *mongo.Database) repository.TaskRepository {
	return &mongoTaskRepository{
		collection: db.Collection(taskCollectionName),
	}
}

func stampNewTask(task *domain.Task) {
	if task.ID == primitive.NilObjectID {
		task.ID = primitive.NewObjectID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.UpdatedAt = task.CreatedAt
}

// Create inserts a single task.
func (r *mongoTaskRepository) Create(ctx context.Context, task *domain.Task) (primitive.ObjectID, error) {
	if task.CoachID == primitive.NilObjectID || task.TraineeID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("task requires coachId and traineeId")
	}
	stampNewTask(task)

	result, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted task ID")
	}
	return insertedID, nil
}

// CreateMany inserts a batch of tasks. IDs are assigned before the insert so
// callers can link siblings to their parent.
func (r *mongoTaskRepository) CreateMany(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		stampNewTask(t)
		docs = append(docs, t)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a task by its ID.
func (r *mongoTaskRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	var task domain.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// overdueClause matches documents that are effectively overdue at t.
func overdueClause(t time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"status": domain.TaskStatusOverdue},
		bson.M{"status": bson.M{"$in": openStatuses}, "dueDate": bson.M{"$lt": t}},
	}}
}

func buildTaskFilter(f repository.TaskFilter) bson.M {
	and := bson.A{}
	if f.CoachID != nil {
		and = append(and, bson.M{"coachId": *f.CoachID})
	}
	if f.TraineeID != nil {
		and = append(and, bson.M{"traineeId": *f.TraineeID})
	}
	if f.ParentTaskID != nil {
		and = append(and, bson.M{"parentTaskId": *f.ParentTaskID})
	}
	if len(f.Statuses) > 0 {
		and = append(and, bson.M{"status": bson.M{"$in": f.Statuses}})
	}
	if f.TaskType != "" {
		and = append(and, bson.M{"taskType": f.TaskType})
	}
	if f.Priority != "" {
		and = append(and, bson.M{"priority": f.Priority})
	}
	if f.DueFrom != nil || f.DueTo != nil {
		due := bson.M{}
		if f.DueFrom != nil {
			due["$gte"] = *f.DueFrom
		}
		if f.DueTo != nil {
			due["$lte"] = *f.DueTo
		}
		and = append(and, bson.M{"dueDate": due})
	}
	if f.VisibleOnly {
		and = append(and, bson.M{"isVisible": true})
	}
	if f.OverdueAt != nil {
		and = append(and, overdueClause(*f.OverdueAt))
	}
	if f.NotOverdueAt != nil {
		and = append(and, bson.M{"$nor": bson.A{overdueClause(*f.NotOverdueAt)}})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// sortStages computes a sort key so that priority orders by rank and tasks
// without a due date land last in ascending order.
func sortStages(f repository.TaskFilter) bson.A {
	dir := 1
	if f.SortDesc {
		dir = -1
	}
	switch f.SortBy {
	case repository.SortByPriority:
		rank := bson.M{"$switch": bson.M{
			"branches": bson.A{
				bson.M{"case": bson.M{"$eq": bson.A{"$priority", domain.PriorityLow}}, "then": 1},
				bson.M{"case": bson.M{"$eq": bson.A{"$priority", domain.PriorityMedium}}, "then": 2},
				bson.M{"case": bson.M{"$eq": bson.A{"$priority", domain.PriorityHigh}}, "then": 3},
				bson.M{"case": bson.M{"$eq": bson.A{"$priority", domain.PriorityUrgent}}, "then": 4},
			},
			"default": 0,
		}}
		return bson.A{
			bson.M{"$addFields": bson.M{"_sortKey": rank}},
			bson.M{"$sort": bson.D{{Key: "_sortKey", Value: dir}, {Key: "_id", Value: 1}}},
		}
	case repository.SortByDueDate:
		missing := bson.M{"$cond": bson.A{bson.M{"$ifNull": bson.A{"$dueDate", false}}, 0, 1}}
		return bson.A{
			bson.M{"$addFields": bson.M{"_sortKey": missing}},
			bson.M{"$sort": bson.D{{Key: "_sortKey", Value: dir}, {Key: "dueDate", Value: dir}, {Key: "_id", Value: 1}}},
		}
	case repository.SortByPoints:
		return bson.A{bson.M{"$sort": bson.D{{Key: "points", Value: dir}, {Key: "_id", Value: 1}}}}
	}
	return bson.A{bson.M{"$sort": bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: 1}}}}
}

// Find returns one page of matching tasks plus the total match count.
func (r *mongoTaskRepository) Find(ctx context.Context, f repository.TaskFilter) ([]domain.Task, int64, error) {
	filter := buildTaskFilter(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := bson.A{bson.M{"$match": filter}}
	pipeline = append(pipeline, sortStages(f)...)
	if f.Skip > 0 {
		pipeline = append(pipeline, bson.M{"$skip": f.Skip})
	}
	if f.Limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": f.Limit})
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	tasks := []domain.Task{}
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update replaces the stored task document.
func (r *mongoTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task.ID == primitive.NilObjectID {
		return errors.New("task ID is required for update")
	}
	task.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a task by ID.
func (r *mongoTaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkOverdue flips every open task due before now to overdue.
func (r *mongoTaskRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":  bson.M{"$in": openStatuses},
		"dueDate": bson.M{"$lt": now},
	}
	update := bson.M{"$set": bson.M{"status": domain.TaskStatusOverdue, "updatedAt": now}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsureTaskIndexes creates necessary indexes for the tasks collection.
func EnsureTaskIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "traineeId", Value: 1}, {Key: "status", Value: 1}, {Key: "dueDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Overdue sweep
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "dueDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "parentTaskId", Value: 1}, {Key: "sequenceNumber", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
}
