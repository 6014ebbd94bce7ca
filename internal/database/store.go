package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jonathon-AR/resollectAssignment/internal/config"
	"github.com/Jonathon-AR/resollectAssignment/internal/models"
)

// ErrTaskNotFound is returned when no record matches the given identifier
var ErrTaskNotFound = errors.New("task not found in database")

// TaskFilter selects task records. Nil fields do not constrain the query
type TaskFilter struct {
	ID             *string
	Status         *models.TaskStatus
	DeadlineBefore *time.Time
}

// TaskUpdate lists the fields to overwrite. Nil fields keep their stored
// value; UpdatedAt is always written
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Deadline    *time.Time
	Completed   *bool
	// SetCompletedAt writes CompletedAt even when it is nil (clearing it)
	SetCompletedAt bool
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}

// TaskStore is the persistent collection of task records
type TaskStore interface {
	// ListTasks returns matching tasks ordered by created_at descending
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	InsertTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, id string, update TaskUpdate) (*models.Task, error)
	// UpdateMany applies update to every matching record in one statement
	// and returns the number of records affected
	UpdateMany(ctx context.Context, filter TaskFilter, update TaskUpdate) (int64, error)
	DeleteTask(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// NewTaskStore opens the record store selected by cfg.Store.Driver
func NewTaskStore(cfg *config.Config) (TaskStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongoDB:
		client, err := NewMongoDBClient(cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StoreDriverSQLite:
		store, err := NewSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
