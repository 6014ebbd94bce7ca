package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Jonathon-AR/resollectAssignment/internal/database"
	"github.com/Jonathon-AR/resollectAssignment/internal/models"
	"github.com/Jonathon-AR/resollectAssignment/internal/utils"
	"github.com/Jonathon-AR/resollectAssignment/internal/validation"
)

// TaskService implements the task lifecycle on top of a record store
type TaskService struct {
	store database.TaskStore
	now   func() time.Time
}

// TaskServiceOption configures a TaskService
type TaskServiceOption func(*TaskService)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskService) {
		s.now = now
	}
}

// NewTaskService creates a new task service
func NewTaskService(store database.TaskStore, opts ...TaskServiceOption) *TaskService {
	s := &TaskService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) timestamp() time.Time {
	return utils.NormalizeTimestamp(s.now())
}

// nextUpdatedAt returns now, or one millisecond past previous when now
// does not come after it at stored precision
func nextUpdatedAt(now, previous time.Time) time.Time {
	if now.After(previous) {
		return now
	}
	return utils.NormalizeTimestamp(previous).Add(time.Millisecond)
}

// ListTasks returns all tasks, newest first, optionally restricted to one status
func (s *TaskService) ListTasks(ctx context.Context, status *models.TaskStatus) ([]models.Task, error) {
	var filter database.TaskFilter
	if status != nil {
		if !status.Valid() {
			return nil, validation.NewValidationError("status", "must be one of: ongoing, success, failure")
		}
		filter.Status = status
	}

	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeError("get task", err)
	}
	return task, nil
}

// CreateTask creates a new task and returns the stored record
func (s *TaskService) CreateTask(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	verr := &validation.ValidationError{}

	title, _ := checkTitle(req.Title, verr)
	status := req.Status
	if status == "" {
		status = models.TaskStatusOngoing
	} else if !status.Valid() {
		verr.Add("status", "must be one of: ongoing, success, failure")
	}
	if req.Deadline.IsZero() {
		verr.Add("deadline", "this field is required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	now := s.timestamp()
	task := &models.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: req.Description,
		Status:      status,
		Deadline:    utils.NormalizeTimestamp(req.Deadline.Time),
		Completed:   req.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.CompletedAt.Time != nil {
		completedAt := utils.NormalizeTimestamp(*req.CompletedAt.Time)
		task.CompletedAt = &completedAt
	}

	if err := s.store.InsertTask(ctx, task); err != nil {
		return nil, storeError("insert task", err)
	}
	return task, nil
}

// UpdateTask merges the provided fields into an existing task
func (s *TaskService) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	verr := &validation.ValidationError{}
	var update database.TaskUpdate

	if req.Title != nil {
		if title, ok := checkTitle(*req.Title, verr); ok {
			update.Title = &title
		}
	}
	if req.Description != nil {
		update.Description = req.Description
	}
	if req.Status != nil {
		if req.Status.Valid() {
			update.Status = req.Status
		} else {
			verr.Add("status", "must be one of: ongoing, success, failure")
		}
	}
	if req.Deadline != nil {
		deadline := utils.NormalizeTimestamp(req.Deadline.Time)
		update.Deadline = &deadline
	}
	if req.Completed != nil {
		update.Completed = req.Completed
	}
	if req.CompletedAt.Set {
		update.SetCompletedAt = true
		if req.CompletedAt.Time != nil {
			completedAt := utils.NormalizeTimestamp(*req.CompletedAt.Time)
			update.CompletedAt = &completedAt
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeError("update task", err)
	}
	update.UpdatedAt = nextUpdatedAt(s.timestamp(), existing.UpdatedAt)

	task, err := s.store.UpdateTask(ctx, id, update)
	if err != nil {
		return nil, storeError("update task", err)
	}
	return task, nil
}

// CompleteTask marks an ongoing task as successfully completed now
func (s *TaskService) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	existing, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.TaskStatusOngoing {
		return nil, ErrNotOngoing
	}

	now := s.timestamp()
	ongoing := models.TaskStatusOngoing
	success := models.TaskStatusSuccess
	completed := true

	// Conditional on status so a concurrent sweep cannot be overwritten
	affected, err := s.store.UpdateMany(ctx,
		database.TaskFilter{ID: &id, Status: &ongoing},
		database.TaskUpdate{
			Status:         &success,
			Completed:      &completed,
			SetCompletedAt: true,
			CompletedAt:    &now,
			UpdatedAt:      nextUpdatedAt(now, existing.UpdatedAt),
		},
	)
	if err != nil {
		return nil, storeError("complete task", err)
	}

	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotOngoing
	}
	return task, nil
}

// DeleteTask removes a task
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return storeError("delete task", err)
	}
	return nil
}

// ExpireOverdue moves every ongoing task whose deadline is before now to
// failure in a single bulk update and returns the number of tasks changed
func (s *TaskService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	now = utils.NormalizeTimestamp(now)
	ongoing := models.TaskStatusOngoing
	failure := models.TaskStatusFailure

	affected, err := s.store.UpdateMany(ctx,
		database.TaskFilter{Status: &ongoing, DeadlineBefore: &now},
		database.TaskUpdate{Status: &failure, UpdatedAt: now},
	)
	if err != nil {
		return 0, storeError("expire overdue tasks", err)
	}
	return affected, nil
}

// Ping checks the record store
func (s *TaskService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

// checkTitle trims title and records an error on verr when it is unusable
func checkTitle(title string, verr *validation.ValidationError) (string, bool) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		verr.Add("title", "this field may not be blank")
		return "", false
	case utf8.RuneCountInString(title) > models.MaxTitleLength:
		verr.Add("title", "ensure this field has no more than 255 characters")
		return "", false
	}
	return title, true
}
